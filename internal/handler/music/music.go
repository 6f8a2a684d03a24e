// Package music plays requested songs on the user's Spotify devices.
package music

import (
	"context"
	"fmt"
	log "log/slog"
	"strings"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
	"github.com/sony/gobreaker"
	"github.com/zmb3/spotify/v2"

	"vox-assistant/internal/entity"
	"vox-assistant/internal/handler"
)

const (
	MsgNoDevice      = "No active Spotify devices found. Please start playing Spotify on a device first."
	MsgNotFound      = "Song not found on Spotify."
	MsgNoTitle       = "Sorry, I couldn't tell which song to play."
	MsgNotConfigured = "Spotify is not configured."

	searchLimit = 10
)

// Player is the part of *spotify.Client the handler drives.
type Player interface {
	Search(ctx context.Context, query string, t spotify.SearchType, opts ...spotify.RequestOption) (*spotify.SearchResult, error)
	PlayerDevices(ctx context.Context) ([]spotify.PlayerDevice, error)
	QueueSongOpt(ctx context.Context, trackID spotify.ID, opt *spotify.PlayOptions) error
	NextOpt(ctx context.Context, opt *spotify.PlayOptions) error
}

type Config struct {
	CacheSize      int
	CacheTTL       time.Duration
	BreakerTimeout time.Duration
}

type Handler struct {
	player  Player
	tracks  *expirable.LRU[string, spotify.FullTrack]
	breaker *gobreaker.CircuitBreaker
}

// New returns a Handler. A nil player yields a handler that only reports
// that Spotify is not configured.
func New(player Player, cfg Config) *Handler {
	if cfg.CacheSize <= 0 {
		cfg.CacheSize = 128
	}
	if cfg.CacheTTL <= 0 {
		cfg.CacheTTL = time.Hour
	}

	return &Handler{
		player:  player,
		tracks:  expirable.NewLRU[string, spotify.FullTrack](cfg.CacheSize, nil, cfg.CacheTTL),
		breaker: handler.NewBreaker("spotify", cfg.BreakerTimeout),
	}
}

// Play queues the best match on the first available device and skips to it.
func (h *Handler) Play(ctx context.Context, song entity.Song) string {
	if h.player == nil {
		return MsgNotConfigured
	}
	if song.Title == nil {
		return MsgNoTitle
	}

	query := Query(song)

	track, found, err := h.lookup(ctx, query)
	if err != nil {
		log.Error("Spotify search failed", "query", query, "err", err)
		return fmt.Sprintf("Spotify error: %v", err)
	}
	if !found {
		log.Info("Song not found", "query", query)
		return MsgNotFound
	}

	res, err := h.breaker.Execute(func() (interface{}, error) {
		return h.player.PlayerDevices(ctx)
	})
	if err != nil {
		log.Error("Spotify devices failed", "err", err)
		return fmt.Sprintf("Spotify error: %v", err)
	}

	device, ok := pickDevice(res.([]spotify.PlayerDevice))
	if !ok {
		return MsgNoDevice
	}

	opt := &spotify.PlayOptions{DeviceID: &device.ID}
	_, err = h.breaker.Execute(func() (interface{}, error) {
		if err := h.player.QueueSongOpt(ctx, track.ID, opt); err != nil {
			return nil, fmt.Errorf("queue: %w", err)
		}
		return nil, h.player.NextOpt(ctx, opt)
	})
	if err != nil {
		log.Error("Spotify playback failed", "track", track.Name, "device", device.Name, "err", err)
		return fmt.Sprintf("Spotify error: %v", err)
	}

	artist := "Unknown Artist"
	if len(track.Artists) > 0 {
		artist = track.Artists[0].Name
	}

	log.Info("Playing", "track", track.Name, "artist", artist, "device", device.Name)
	return fmt.Sprintf("Now playing %s by %s.", track.Name, artist)
}

func (h *Handler) lookup(ctx context.Context, query string) (spotify.FullTrack, bool, error) {
	if t, ok := h.tracks.Get(query); ok {
		return t, true, nil
	}

	res, err := h.breaker.Execute(func() (interface{}, error) {
		return h.player.Search(ctx, query, spotify.SearchTypeTrack, spotify.Limit(searchLimit))
	})
	if err != nil {
		return spotify.FullTrack{}, false, err
	}

	sr, _ := res.(*spotify.SearchResult)
	if sr == nil || sr.Tracks == nil || len(sr.Tracks.Tracks) == 0 {
		return spotify.FullTrack{}, false, nil
	}

	t := sr.Tracks.Tracks[0]
	h.tracks.Add(query, t)
	return t, true, nil
}

// Query builds a field-filtered search such as `track:"hello" artist:"adele"`.
func Query(song entity.Song) string {
	var b strings.Builder
	if song.Title != nil {
		fmt.Fprintf(&b, "track:%q", *song.Title)
	}
	if song.Artist != nil {
		if b.Len() > 0 {
			b.WriteByte(' ')
		}
		fmt.Fprintf(&b, "artist:%q", *song.Artist)
	}
	return b.String()
}

// pickDevice prefers the active device and falls back to the first one.
func pickDevice(devices []spotify.PlayerDevice) (spotify.PlayerDevice, bool) {
	if len(devices) == 0 {
		return spotify.PlayerDevice{}, false
	}
	for _, d := range devices {
		if d.Active {
			return d, true
		}
	}
	return devices[0], true
}
