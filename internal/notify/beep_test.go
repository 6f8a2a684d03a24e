package notify

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestChimeMissingFile(t *testing.T) {
	err := Chime(filepath.Join(t.TempDir(), "nope.mp3"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "open chime")
}

func TestChimeBadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.mp3")
	require.NoError(t, os.WriteFile(path, []byte("definitely not mpeg"), 0o600))

	err := Chime(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "decode chime")
}
