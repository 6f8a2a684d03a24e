package main

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"vox-assistant/internal/config"
	"vox-assistant/internal/ipc"
)

func TestRunSendsControlMessages(t *testing.T) {
	dir, err := os.MkdirTemp("", "voxctl")
	require.NoError(t, err)
	defer os.RemoveAll(dir)

	cfg := &config.Config{Socket: filepath.Join(dir, "s.sock")}
	got := make(chan ipc.ControlMessage, 2)

	srv, err := ipc.Listen(cfg.Socket, func(m ipc.ControlMessage) { got <- m })
	require.NoError(t, err)
	defer srv.Close()

	ctx := context.Background()
	require.NoError(t, run(ctx, cfg, "say", []string{"set", "a", "timer", "for", "5", "seconds"}))

	select {
	case m := <-got:
		assert.Equal(t, ipc.ControlMessage{Cmd: ipc.CmdSay, Text: "set a timer for 5 seconds"}, m)
	case <-time.After(2 * time.Second):
		t.Fatal("say not delivered")
	}

	require.NoError(t, run(ctx, cfg, "stop-timer", nil))
	select {
	case m := <-got:
		assert.Equal(t, ipc.ControlMessage{Cmd: ipc.CmdStopTimer}, m)
	case <-time.After(2 * time.Second):
		t.Fatal("stop-timer not delivered")
	}
}

func TestRunErrors(t *testing.T) {
	cfg := &config.Config{Socket: filepath.Join(t.TempDir(), "absent.sock")}
	ctx := context.Background()

	assert.ErrorContains(t, run(ctx, cfg, "say", nil), "nothing to say")
	assert.ErrorContains(t, run(ctx, cfg, "stop-timer", nil), "vox-daemon not running")
	assert.ErrorContains(t, run(ctx, cfg, "dance", nil), `unknown command "dance"`)

	cfg.Calendar.Credentials = filepath.Join(t.TempDir(), "missing.json")
	assert.ErrorContains(t, run(ctx, cfg, "auth-calendar", nil), "read credentials")
}
