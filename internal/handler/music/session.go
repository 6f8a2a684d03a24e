package music

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	log "log/slog"
	"net/http"
	"net/url"
	"os"

	"github.com/google/uuid"
	"github.com/zmb3/spotify/v2"
	spotifyauth "github.com/zmb3/spotify/v2/auth"
	"golang.org/x/oauth2"
)

var ErrNoToken = errors.New("no stored spotify token")

type AuthConfig struct {
	ClientID     string
	ClientSecret string
	RedirectURL  string
	TokenPath    string
}

func (c AuthConfig) authenticator() *spotifyauth.Authenticator {
	return spotifyauth.New(
		spotifyauth.WithClientID(c.ClientID),
		spotifyauth.WithClientSecret(c.ClientSecret),
		spotifyauth.WithRedirectURL(c.RedirectURL),
		spotifyauth.WithScopes(
			spotifyauth.ScopeUserReadPlaybackState,
			spotifyauth.ScopeUserModifyPlaybackState,
		),
	)
}

// NewClient builds an authenticated session from the stored token. The
// session is created once at start-up and shared by reference.
func NewClient(ctx context.Context, cfg AuthConfig) (*spotify.Client, error) {
	tok, err := loadToken(cfg.TokenPath)
	if err != nil {
		return nil, err
	}

	httpClient := cfg.authenticator().Client(ctx, tok)
	return spotify.New(httpClient, spotify.WithRetry(true)), nil
}

// Authorize runs the interactive code flow: it serves the redirect URL,
// hands the consent URL to prompt and stores the resulting token.
func Authorize(ctx context.Context, cfg AuthConfig, prompt func(authURL string)) error {
	redirect, err := url.Parse(cfg.RedirectURL)
	if err != nil {
		return fmt.Errorf("redirect url: %w", err)
	}
	if redirect.Path == "" {
		redirect.Path = "/"
	}

	auth := cfg.authenticator()
	state := uuid.NewString()

	type result struct {
		tok *oauth2.Token
		err error
	}
	results := make(chan result, 1)

	mux := http.NewServeMux()
	mux.HandleFunc(redirect.Path, func(w http.ResponseWriter, r *http.Request) {
		tok, err := auth.Token(r.Context(), state, r)
		if err != nil {
			http.Error(w, "authorization failed", http.StatusForbidden)
		} else {
			fmt.Fprintln(w, "vox: spotify authorized, you can close this tab")
		}
		select {
		case results <- result{tok, err}:
		default:
		}
	})

	srv := &http.Server{Addr: redirect.Host, Handler: mux}
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			results <- result{err: err}
		}
	}()
	defer srv.Close()

	prompt(auth.AuthURL(state))

	select {
	case <-ctx.Done():
		return ctx.Err()
	case res := <-results:
		if res.err != nil {
			return fmt.Errorf("token exchange: %w", res.err)
		}
		log.Info("Spotify authorized", "token", cfg.TokenPath)
		return saveToken(cfg.TokenPath, res.tok)
	}
}

func loadToken(path string) (*oauth2.Token, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrNoToken, path)
		}
		return nil, err
	}

	var tok oauth2.Token
	if err := json.Unmarshal(data, &tok); err != nil {
		return nil, fmt.Errorf("parse token %s: %w", path, err)
	}
	return &tok, nil
}

func saveToken(path string, tok *oauth2.Token) error {
	data, err := json.Marshal(tok)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o600)
}
