package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strings"

	"golang.org/x/oauth2"

	"vox-assistant/internal/config"
	"vox-assistant/internal/handler/music"
	"vox-assistant/internal/ipc"
	"vox-assistant/pkg/gcalendar"
)

const usage = `usage: vox-ctl [flags] <command>

commands:
  say <text...>    send a typed command to the daemon
  stop-timer       cancel the running timer
  auth-calendar    authorize Google Calendar and store the token
  auth-spotify     authorize Spotify and store the token`

func main() {
	cfg, err := config.Load("vox-ctl", os.Args[1:])
	if err != nil {
		fmt.Fprintln(os.Stderr, "vox-ctl:", err)
		os.Exit(2)
	}
	if len(cfg.Args) == 0 {
		fmt.Fprintln(os.Stderr, usage)
		os.Exit(2)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := run(ctx, cfg, cfg.Args[0], cfg.Args[1:]); err != nil {
		fmt.Fprintln(os.Stderr, "vox-ctl:", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config, cmd string, args []string) error {
	switch cmd {
	case "say":
		text := strings.TrimSpace(strings.Join(args, " "))
		if text == "" {
			return errors.New("say: nothing to say")
		}
		return send(cfg.Socket, ipc.ControlMessage{Cmd: ipc.CmdSay, Text: text})

	case "stop-timer":
		return send(cfg.Socket, ipc.ControlMessage{Cmd: ipc.CmdStopTimer})

	case "auth-calendar":
		return authCalendar(ctx, cfg)

	case "auth-spotify":
		return music.Authorize(ctx, music.AuthConfig{
			ClientID:     cfg.Spotify.ClientID,
			ClientSecret: cfg.Spotify.ClientSecret,
			RedirectURL:  cfg.Spotify.RedirectURL,
			TokenPath:    cfg.Spotify.Token,
		}, func(url string) {
			fmt.Println("Open this URL to authorize Spotify:")
			fmt.Println(url)
		})

	default:
		return fmt.Errorf("unknown command %q\n%s", cmd, usage)
	}
}

func send(socket string, msg ipc.ControlMessage) error {
	if err := ipc.Send(socket, msg); err != nil {
		return fmt.Errorf("vox-daemon not running: %w", err)
	}
	return nil
}

// authCalendar runs the installed-app flow: print the consent URL, read the
// code pasted back and store the token.
func authCalendar(ctx context.Context, cfg *config.Config) error {
	data, err := os.ReadFile(cfg.Calendar.Credentials)
	if err != nil {
		return fmt.Errorf("read credentials: %w", err)
	}
	oc, err := gcalendar.OAuthConfig(data)
	if err != nil {
		return err
	}

	fmt.Println("Open this URL and paste the authorization code:")
	fmt.Println(oc.AuthCodeURL("vox", oauth2.AccessTypeOffline))
	fmt.Print("> ")

	code, err := bufio.NewReader(os.Stdin).ReadString('\n')
	if err != nil {
		return fmt.Errorf("read code: %w", err)
	}

	tok, err := oc.Exchange(ctx, strings.TrimSpace(code))
	if err != nil {
		return fmt.Errorf("exchange code: %w", err)
	}
	if err := gcalendar.SaveToken(cfg.Calendar.Token, tok); err != nil {
		return err
	}

	fmt.Println("Token saved to", cfg.Calendar.Token)
	return nil
}
