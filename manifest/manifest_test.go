package manifest

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeManifest(t *testing.T, dir, content string) string {
	t.Helper()
	path := filepath.Join(dir, FileName)
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestLoadManifest(t *testing.T) {
	dir := t.TempDir()
	writeManifest(t, dir, `
[program]
path = "day9.txt"

[run]
input = [1, 2]
ascii = true
max-memory = 4096

[pipeline]
phases = [5, 6, 7, 8, 9]
feedback = true
search = true

[network]
size = 4
nat = 99
mode = "first"

[log]
verbosity = 2
file = "logs/run.log"

[trace]
output = "/tmp/run.trace"
`)

	m, err := Load(dir)
	require.NoError(t, err)

	assert.Equal(t, filepath.Join(m.Dir, "day9.txt"), m.ProgramPath())
	assert.Equal(t, []int64{1, 2}, m.Run.Input)
	assert.True(t, m.Run.ASCII)
	assert.Equal(t, 4096, m.Run.MaxMemory)
	assert.Equal(t, []int64{5, 6, 7, 8, 9}, m.Pipeline.Phases)
	assert.True(t, m.Pipeline.Feedback)
	assert.True(t, m.Pipeline.Search)
	assert.True(t, m.Network.Enabled)
	assert.Equal(t, 4, m.Network.Size)
	assert.Equal(t, int64(99), m.Network.NAT)
	assert.Equal(t, ModeFirst, m.Network.Mode)
	assert.Equal(t, 2, m.Log.Verbosity)
	require.NotNil(t, m.LogPath())
	assert.Equal(t, filepath.Join(m.Dir, "logs", "run.log"), *m.LogPath())
	assert.Equal(t, "/tmp/run.trace", m.TracePath())
}

func TestLoadManifestDefaults(t *testing.T) {
	dir := t.TempDir()
	writeManifest(t, dir, `
[program]
path = "prog.txt"
`)

	m, err := Load(dir)
	require.NoError(t, err)

	assert.False(t, m.Network.Enabled)
	assert.Equal(t, DefaultNetworkSize, m.Network.Size)
	assert.Equal(t, int64(DefaultNATAddress), m.Network.NAT)
	assert.Equal(t, ModeNAT, m.Network.Mode)
	assert.Nil(t, m.LogPath())
	assert.Empty(t, m.TracePath())
	assert.Empty(t, m.Pipeline.Phases)
}

func TestDefaultManifest(t *testing.T) {
	m := Default("/work")
	assert.NoError(t, m.Validate())
	assert.Equal(t, "/work", m.Dir)
	assert.Empty(t, m.ProgramPath())
	assert.Equal(t, DefaultNetworkSize, m.Network.Size)
}

func TestLoadManifestInvalid(t *testing.T) {
	tests := []struct {
		name    string
		content string
		want    string
	}{
		{"bad toml", "[program\npath = 1", "parse error"},
		{"wrong type", "[run]\ninput = \"1,2\"", "parse error"},
		{"nat collides", "[network]\nsize = 10\nnat = 3", "collides"},
		{"bad mode", "[network]\nmode = \"ring\"", "network.mode"},
		{"negative memory", "[run]\nmax-memory = -1", "max-memory"},
		{"search without phases", "[pipeline]\nsearch = true", "pipeline.search"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := t.TempDir()
			writeManifest(t, dir, tt.content)
			_, err := Load(dir)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestLoadManifestMissing(t *testing.T) {
	_, err := Load(t.TempDir())
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestLoadFileResolvesAgainstItsDirectory(t *testing.T) {
	dir := t.TempDir()
	sub := filepath.Join(dir, "configs")
	require.NoError(t, os.Mkdir(sub, 0755))
	path := filepath.Join(sub, "custom.toml")
	require.NoError(t, os.WriteFile(path, []byte("[program]\npath = \"../prog.txt\"\n"), 0644))

	m, err := LoadFile(path)
	require.NoError(t, err)

	abs, err := filepath.Abs(filepath.Join(dir, "prog.txt"))
	require.NoError(t, err)
	assert.Equal(t, abs, m.ProgramPath())
}

func TestFindAndLoad(t *testing.T) {
	dir := t.TempDir()
	writeManifest(t, dir, "[program]\npath = \"prog.txt\"\n")
	nested := filepath.Join(dir, "a", "b")
	require.NoError(t, os.MkdirAll(nested, 0755))

	m, err := FindAndLoad(nested)
	require.NoError(t, err)
	require.NotNil(t, m)

	abs, err := filepath.Abs(dir)
	require.NoError(t, err)
	assert.Equal(t, abs, m.Dir)
}

func TestFindAndLoadNotFound(t *testing.T) {
	m, err := FindAndLoad(t.TempDir())
	require.NoError(t, err)
	assert.Nil(t, m)
}
