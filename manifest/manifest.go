// Package manifest handles intcode.toml run configuration.
package manifest

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
)

// FileName is the manifest file looked up by Load and FindAndLoad.
const FileName = "intcode.toml"

const (
	DefaultNetworkSize = 50
	DefaultNATAddress  = 255

	ModeNAT   = "nat"
	ModeFirst = "first"
)

// Manifest represents an intcode.toml configuration.
type Manifest struct {
	Program  Program  `toml:"program"`
	Run      Run      `toml:"run"`
	Pipeline Pipeline `toml:"pipeline"`
	Network  Network  `toml:"network"`
	Log      Log      `toml:"log"`
	Trace    Trace    `toml:"trace"`

	// Dir is the directory containing the manifest (set at load time).
	Dir string `toml:"-"`
}

// Program locates the Intcode program text.
type Program struct {
	Path string `toml:"path"`
}

// Run configures a plain run.
type Run struct {
	Input     []int64 `toml:"input"`
	ASCII     bool    `toml:"ascii"`
	MaxMemory int     `toml:"max-memory"`
}

// Pipeline configures an amplifier chain. An empty Phases disables it.
type Pipeline struct {
	Phases   []int64 `toml:"phases"`
	Feedback bool    `toml:"feedback"`
	Search   bool    `toml:"search"`
}

// Network configures a packet network. A zero Size disables it unless the
// section sets Enabled.
type Network struct {
	Enabled bool   `toml:"enabled"`
	Size    int    `toml:"size"`
	NAT     int64  `toml:"nat"`
	Mode    string `toml:"mode"`
}

// Log configures commonlog.
type Log struct {
	Verbosity int    `toml:"verbosity"`
	File      string `toml:"file"`
}

// Trace configures action recording.
type Trace struct {
	Output string `toml:"output"`
}

// Default returns the manifest used when no file is present.
func Default(dir string) *Manifest {
	m := &Manifest{Dir: dir}
	m.applyDefaults()
	return m
}

// Load parses intcode.toml from the given directory.
func Load(dir string) (*Manifest, error) {
	return LoadFile(filepath.Join(dir, FileName))
}

// LoadFile parses the manifest at path. Relative paths inside it resolve
// against its directory.
func LoadFile(path string) (*Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("cannot read %s: %w", path, err)
	}

	var m Manifest
	if err := toml.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("parse error in %s: %w", path, err)
	}

	m.Dir, err = filepath.Abs(filepath.Dir(path))
	if err != nil {
		return nil, fmt.Errorf("cannot resolve path %s: %w", path, err)
	}

	m.applyDefaults()
	if err := m.Validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return &m, nil
}

// FindAndLoad walks up from startDir to find an intcode.toml file,
// then loads and returns the manifest. Returns nil if no manifest is found.
func FindAndLoad(startDir string) (*Manifest, error) {
	dir, err := filepath.Abs(startDir)
	if err != nil {
		return nil, err
	}

	for {
		path := filepath.Join(dir, FileName)
		if _, err := os.Stat(path); err == nil {
			return LoadFile(path)
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			return nil, nil
		}
		dir = parent
	}
}

func (m *Manifest) applyDefaults() {
	if m.Network.Size == 0 {
		m.Network.Size = DefaultNetworkSize
	} else {
		m.Network.Enabled = true
	}
	if m.Network.NAT == 0 {
		m.Network.NAT = DefaultNATAddress
	}
	if m.Network.Mode == "" {
		m.Network.Mode = ModeNAT
	}
}

// Validate reports settings no run could use.
func (m *Manifest) Validate() error {
	var errs []error
	if m.Run.MaxMemory < 0 {
		errs = append(errs, fmt.Errorf("run.max-memory must not be negative, got %d", m.Run.MaxMemory))
	}
	if m.Network.Size < 0 {
		errs = append(errs, fmt.Errorf("network.size must be positive, got %d", m.Network.Size))
	}
	if m.Network.NAT >= 0 && m.Network.NAT < int64(m.Network.Size) {
		errs = append(errs, fmt.Errorf("network.nat %d collides with a node address", m.Network.NAT))
	}
	switch m.Network.Mode {
	case ModeNAT, ModeFirst:
	default:
		errs = append(errs, fmt.Errorf("network.mode must be %q or %q, got %q", ModeNAT, ModeFirst, m.Network.Mode))
	}
	if m.Pipeline.Search && len(m.Pipeline.Phases) == 0 {
		errs = append(errs, errors.New("pipeline.search needs pipeline.phases"))
	}
	return errors.Join(errs...)
}

// resolve returns p relative to the manifest directory unless it is
// already absolute or empty.
func (m *Manifest) resolve(p string) string {
	if p == "" || filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(m.Dir, p)
}

// ProgramPath returns the absolute program path, or "" if none is set.
func (m *Manifest) ProgramPath() string {
	return m.resolve(m.Program.Path)
}

// LogPath returns the log file path, or nil to log to stderr.
func (m *Manifest) LogPath() *string {
	if m.Log.File == "" {
		return nil
	}
	p := m.resolve(m.Log.File)
	return &p
}

// TracePath returns the trace output path, or "" if tracing is off.
func (m *Manifest) TracePath() string {
	return m.resolve(m.Trace.Output)
}
