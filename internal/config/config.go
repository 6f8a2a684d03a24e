package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"vox-assistant/internal/nlu"
)

const (
	InputMic    = "mic"
	InputSocket = "socket"
	InputFile   = "file"

	STTWhisper = "whisper"
	STTOpenAI  = "openai"
)

type Config struct {
	Log      string
	Timezone string
	Input    string
	Args     []string // positional arguments, audio files for input "file"
	Socket   string
	Proxy    string

	NLU      NLUConfig
	STT      STTConfig
	TTS      TTSConfig
	Timer    TimerConfig
	Listen   ListenConfig
	Bus      BusConfig
	Calendar CalendarConfig
	Spotify  SpotifyConfig
}

type NLUConfig struct {
	Threshold int
	Fillers   []string
	Intents   []nlu.IntentSpec
}

type STTConfig struct {
	Backend   string
	Model     string
	Language  string
	Threads   int
	OpenAIKey string
}

type TTSConfig struct {
	Voice string
}

type TimerConfig struct {
	Tick time.Duration
}

type ListenConfig struct {
	Timeout     time.Duration
	PhraseLimit time.Duration
	Chime       string
	Duck        bool
	Transcript  string // append captured commands here; empty disables
}

type BusConfig struct {
	URL string
}

type CalendarConfig struct {
	Credentials string
	Token       string
	ID          string
	EventLength time.Duration
}

type SpotifyConfig struct {
	ClientID     string
	ClientSecret string
	RedirectURL  string
	Token        string
}

// Load reads flags from args, then the .env file, the YAML config and the
// environment. Flags set explicitly win over everything else.
func Load(name string, args []string) (*Config, error) {
	fs := pflag.NewFlagSet(name, pflag.ContinueOnError)
	fs.StringP("env", "e", ".env", "Env file path")
	fs.StringP("config", "c", "", "Config file path")
	fs.StringP("log", "l", "info", "Log level")
	fs.StringP("input", "i", InputMic, "Command source: mic, socket or file")
	fs.StringP("proxy", "p", "", "Socks proxy address for remote APIs")
	fs.String("socket", "/tmp/vox.sock", "Control socket path")
	fs.String("timezone", "", "IANA timezone for calendar events")
	fs.String("stt", STTWhisper, "Speech-to-text backend: whisper or openai")
	fs.String("model", "", "Whisper model path")
	fs.String("bus", "", "Websocket URL for timer events")

	if err := fs.Parse(args); err != nil {
		return nil, err
	}

	envFile, _ := fs.GetString("env")
	if err := godotenv.Load(envFile); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("load env %s: %w", envFile, err)
	}

	v := viper.New()
	setDefaults(v)

	if path, _ := fs.GetString("config"); path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("vox")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./config")
		if home, err := os.UserHomeDir(); err == nil {
			v.AddConfigPath(filepath.Join(home, ".config", "vox"))
		}
	}

	v.SetEnvPrefix("VOX")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	_ = v.BindEnv("stt.openai_key", "VOX_STT_OPENAI_KEY", "OPENAI_API_KEY")
	_ = v.BindEnv("spotify.client_id", "VOX_SPOTIFY_CLIENT_ID", "SPOTIFY_ID")
	_ = v.BindEnv("spotify.client_secret", "VOX_SPOTIFY_CLIENT_SECRET", "SPOTIFY_SECRET")

	for key, flag := range map[string]string{
		"log":         "log",
		"input":       "input",
		"proxy":       "proxy",
		"socket":      "socket",
		"timezone":    "timezone",
		"stt.backend": "stt",
		"stt.model":   "model",
		"bus.url":     "bus",
	} {
		if err := v.BindPFlag(key, fs.Lookup(flag)); err != nil {
			return nil, fmt.Errorf("bind flag %s: %w", flag, err)
		}
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	cfg := &Config{
		Log:      v.GetString("log"),
		Timezone: v.GetString("timezone"),
		Input:    strings.ToLower(v.GetString("input")),
		Args:     fs.Args(),
		Socket:   v.GetString("socket"),
		Proxy:    v.GetString("proxy"),
	}

	cfg.NLU.Threshold = v.GetInt("nlu.threshold")
	cfg.NLU.Fillers = v.GetStringSlice("nlu.fillers")
	if err := v.UnmarshalKey("nlu.intents", &cfg.NLU.Intents); err != nil {
		return nil, fmt.Errorf("decode nlu.intents: %w", err)
	}

	cfg.STT.Backend = strings.ToLower(v.GetString("stt.backend"))
	cfg.STT.Model = v.GetString("stt.model")
	cfg.STT.Language = v.GetString("stt.language")
	cfg.STT.Threads = v.GetInt("stt.threads")
	cfg.STT.OpenAIKey = v.GetString("stt.openai_key")

	cfg.TTS.Voice = v.GetString("tts.voice")
	cfg.Timer.Tick = v.GetDuration("timer.tick")

	cfg.Listen.Timeout = v.GetDuration("listen.timeout")
	cfg.Listen.PhraseLimit = v.GetDuration("listen.phrase_limit")
	cfg.Listen.Chime = v.GetString("listen.chime")
	cfg.Listen.Duck = v.GetBool("listen.duck")
	cfg.Listen.Transcript = v.GetString("listen.transcript")

	cfg.Bus.URL = v.GetString("bus.url")

	cfg.Calendar.Credentials = v.GetString("calendar.credentials")
	cfg.Calendar.Token = v.GetString("calendar.token")
	cfg.Calendar.ID = v.GetString("calendar.id")
	cfg.Calendar.EventLength = v.GetDuration("calendar.event_length")

	cfg.Spotify.ClientID = v.GetString("spotify.client_id")
	cfg.Spotify.ClientSecret = v.GetString("spotify.client_secret")
	cfg.Spotify.RedirectURL = v.GetString("spotify.redirect_url")
	cfg.Spotify.Token = v.GetString("spotify.token")

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("log", "info")
	v.SetDefault("input", InputMic)
	v.SetDefault("socket", "/tmp/vox.sock")

	v.SetDefault("nlu.threshold", nlu.DefaultThreshold)
	v.SetDefault("nlu.fillers", nlu.DefaultFillers)

	v.SetDefault("stt.backend", STTWhisper)
	v.SetDefault("stt.model", "third_party/whisper.cpp/models/ggml-base.en.bin")
	v.SetDefault("stt.language", "en")

	v.SetDefault("tts.voice", "en")
	v.SetDefault("timer.tick", time.Second)

	v.SetDefault("listen.timeout", 4*time.Second)
	v.SetDefault("listen.phrase_limit", 30*time.Second)
	v.SetDefault("listen.chime", "beep.mp3")
	v.SetDefault("listen.duck", true)

	v.SetDefault("calendar.credentials", "credentials.json")
	v.SetDefault("calendar.token", "token.json")
	v.SetDefault("calendar.id", "primary")
	v.SetDefault("calendar.event_length", time.Hour)

	v.SetDefault("spotify.redirect_url", "http://127.0.0.1:8888/callback")
	v.SetDefault("spotify.token", "spotify_token.json")
}

func (c *Config) Validate() error {
	switch c.Input {
	case InputMic, InputSocket:
	case InputFile:
		if len(c.Args) == 0 {
			return fmt.Errorf("input %q needs at least one audio file argument", InputFile)
		}
	default:
		return fmt.Errorf("unknown input %q", c.Input)
	}

	switch c.STT.Backend {
	case STTWhisper, STTOpenAI:
	default:
		return fmt.Errorf("unknown stt backend %q", c.STT.Backend)
	}

	if c.NLU.Threshold < 0 || c.NLU.Threshold > 100 {
		return fmt.Errorf("nlu.threshold %d out of range [0, 100]", c.NLU.Threshold)
	}

	if _, err := c.Location(); err != nil {
		return err
	}
	if _, err := c.Registry(); err != nil {
		return err
	}

	return nil
}

// Location resolves the configured timezone. Empty means the system zone.
func (c *Config) Location() (*time.Location, error) {
	if c.Timezone == "" {
		return time.Local, nil
	}
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return nil, fmt.Errorf("timezone %q: %w", c.Timezone, err)
	}
	return loc, nil
}

// Registry builds the intent registry, falling back to the built-in table.
func (c *Config) Registry() (*nlu.Registry, error) {
	if len(c.NLU.Intents) == 0 {
		return nlu.DefaultRegistry(), nil
	}
	return nlu.NewRegistry(c.NLU.Intents)
}
