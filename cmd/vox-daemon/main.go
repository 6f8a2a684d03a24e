package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/lmittmann/tint"
	log "log/slog"

	"vox-assistant/internal/audio"
	"vox-assistant/internal/bus"
	"vox-assistant/internal/config"
	"vox-assistant/internal/countdown"
	"vox-assistant/internal/dispatch"
	"vox-assistant/internal/entity"
	"vox-assistant/internal/handler/calendar"
	"vox-assistant/internal/handler/music"
	"vox-assistant/internal/ipc"
	"vox-assistant/internal/listen"
	"vox-assistant/internal/notify"
	"vox-assistant/internal/nlu"
	"vox-assistant/internal/proxy"
	"vox-assistant/internal/tts"
	"vox-assistant/pkg/gcalendar"
	"vox-assistant/pkg/stt"
)

const msgTimeUp = "Time's up!"

var logLevelMap = map[string]log.Level{
	"debug": log.LevelDebug,
	"info":  log.LevelInfo,
	"warn":  log.LevelWarn,
	"error": log.LevelError,
}

func main() {
	cfg, err := config.Load("vox-daemon", os.Args[1:])
	if err != nil {
		fmt.Fprintln(os.Stderr, "vox-daemon:", err)
		os.Exit(2)
	}

	log.SetDefault(log.New(tint.NewHandler(os.Stdout, &tint.Options{
		Level:      logLevelMap[cfg.Log],
		TimeFormat: time.TimeOnly,
	})))

	log.Info("Booting up", "input", cfg.Input, "stt", cfg.STT.Backend)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg); err != nil {
		log.Error("Daemon failed", "err", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config) error {
	loc, err := cfg.Location()
	if err != nil {
		return err
	}
	reg, err := cfg.Registry()
	if err != nil {
		return err
	}

	httpClient, err := proxy.NewSocksClient(cfg.Proxy)
	if err != nil {
		return fmt.Errorf("socks proxy %s: %w", cfg.Proxy, err)
	}

	speaker := tts.NewSpeaker(cfg.TTS.Voice)

	alarm := &notify.Alarm{
		Ring:     func() error { return notify.Chime(cfg.Listen.Chime) },
		Announce: func() error { return speaker.Speak(msgTimeUp) },
	}
	defer alarm.Wait()

	listeners := countdown.Listeners{
		countdown.LogListener(),
		alarm,
	}
	if cfg.Bus.URL != "" {
		pub, err := bus.New(cfg.Bus.URL)
		if err != nil {
			return fmt.Errorf("bus: %w", err)
		}
		defer pub.Close()
		listeners = append(listeners, pub)
	}

	timer := countdown.New(ctx, listeners, countdown.WithInterval(cfg.Timer.Tick))
	defer timer.Stop()

	d := dispatch.New(dispatch.Deps{
		Normalizer: nlu.NewNormalizer(cfg.NLU.Fillers),
		Matcher:    nlu.NewMatcher(reg, nlu.WithThreshold(cfg.NLU.Threshold)),
		Extractor:  entity.New(entity.WithLocation(loc)),
		Music:      music.New(spotifyPlayer(ctx, cfg), music.Config{}),
		Calendar: calendar.New(calendarClient(ctx, cfg), calendar.Config{
			CalendarID:  cfg.Calendar.ID,
			Location:    loc,
			EventLength: cfg.Calendar.EventLength,
		}),
		Timer:    timer,
		Location: loc,
	})

	var (
		source listen.Source
		queue  *listen.SocketSource
	)
	switch cfg.Input {
	case config.InputSocket:
		queue = listen.NewSocketSource(8)
		source = queue

	case config.InputFile:
		tr, closeTr, err := newTranscriber(cfg, httpClient)
		if err != nil {
			return err
		}
		defer closeTr()
		source = listen.NewFileSource(tr, cfg.Args)

	default:
		tr, closeTr, err := newTranscriber(cfg, httpClient)
		if err != nil {
			return err
		}
		defer closeTr()

		rec := audio.NewRecorder()
		if err := rec.Init(); err != nil {
			return fmt.Errorf("init audio: %w", err)
		}
		defer rec.Close()

		mic := &listen.MicSource{
			Recorder:    rec,
			Transcriber: tr,
			Options: audio.ListenOptions{
				StartTimeout: cfg.Listen.Timeout,
				PhraseLimit:  cfg.Listen.PhraseLimit,
			},
			Chime: func() error { return notify.Chime(cfg.Listen.Chime) },
		}
		if cfg.Listen.Duck {
			mic.Ducker = audio.NewDucker(nil, 0.2, 5, 300*time.Millisecond)
		}
		source = mic
	}

	var opts []listen.Option
	if cfg.Listen.Transcript != "" {
		tr, err := listen.OpenTranscript(cfg.Listen.Transcript)
		if err != nil {
			return err
		}
		defer tr.Close()
		opts = append(opts, listen.WithTranscript(tr))
	}

	loop := listen.New(source, d, speaker, opts...)

	srv, err := ipc.Listen(cfg.Socket, func(msg ipc.ControlMessage) {
		switch msg.Cmd {
		case ipc.CmdSay:
			if queue != nil {
				if !queue.Push(msg.Text) {
					log.Warn("Command queue full, dropping", "text", msg.Text)
				}
				return
			}
			loop.Handle(ctx, msg.Text)
		case ipc.CmdStopTimer:
			out := d.Execute(ctx, dispatch.StopTimer{})
			if err := speaker.Speak(out.Response); err != nil {
				log.Error("Failed to voice out", "err", err)
			}
		default:
			log.Warn("Unknown command", "cmd", msg.Cmd)
		}
	})
	if err != nil {
		return fmt.Errorf("control socket: %w", err)
	}
	defer srv.Close()

	log.Info("Boot up - successful", "socket", srv.Path())

	return loop.Run(ctx)
}

func newTranscriber(cfg *config.Config, httpClient *http.Client) (stt.Transcriber, func(), error) {
	if cfg.STT.Backend == config.STTOpenAI {
		if cfg.STT.OpenAIKey == "" {
			return nil, nil, errors.New("OPENAI_API_KEY not set")
		}
		return stt.NewOpenAI(cfg.STT.OpenAIKey, cfg.STT.Language, httpClient), func() {}, nil
	}

	w, err := stt.NewWhisper(cfg.STT.Model, stt.Options{
		Language: cfg.STT.Language,
		Threads:  cfg.STT.Threads,
	})
	if err != nil {
		return nil, nil, fmt.Errorf("load whisper %s: %w", cfg.STT.Model, err)
	}
	log.Debug("Loaded whisper", "model", cfg.STT.Model)

	return w, func() { w.Close() }, nil
}

// calendarClient returns nil when no usable credentials exist; the handler
// then answers that the calendar is not configured.
func calendarClient(ctx context.Context, cfg *config.Config) calendar.EventCreator {
	c, err := gcalendar.NewClientFromCredentialsFile(ctx, cfg.Calendar.Credentials, cfg.Calendar.Token)
	if err != nil {
		log.Warn("Google Calendar disabled", "err", err)
		return nil
	}
	return c
}

func spotifyPlayer(ctx context.Context, cfg *config.Config) music.Player {
	if cfg.Spotify.ClientID == "" || cfg.Spotify.ClientSecret == "" {
		log.Warn("Spotify disabled", "err", "SPOTIFY_ID or SPOTIFY_SECRET not set")
		return nil
	}
	c, err := music.NewClient(ctx, music.AuthConfig{
		ClientID:     cfg.Spotify.ClientID,
		ClientSecret: cfg.Spotify.ClientSecret,
		RedirectURL:  cfg.Spotify.RedirectURL,
		TokenPath:    cfg.Spotify.Token,
	})
	if err != nil {
		log.Warn("Spotify disabled", "err", err)
		return nil
	}
	return c
}
