// Package manifest handles howl.toml project configuration.
package manifest

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"

	"github.com/chazu/howl/vm"
)

// FileName is the manifest file looked up in project directories.
const FileName = "howl.toml"

// EnvFileName is the optional environment file next to the manifest.
const EnvFileName = ".env"

// DefaultEntry is the entry file used when [source] names none.
const DefaultEntry = "main.howl"

// Environment variables that override [runtime] settings.
const (
	EnvHeapCapacity = "HOWL_HEAP_CAPACITY"
	EnvMapCapacity  = "HOWL_MAP_CAPACITY"
	EnvTrace        = "HOWL_TRACE"
)

// Manifest represents a howl.toml project configuration.
type Manifest struct {
	Project Project       `toml:"project"`
	Source  Source        `toml:"source"`
	Runtime RuntimeConfig `toml:"runtime"`

	// Dir is the directory containing the howl.toml file (set at load time).
	Dir string `toml:"-"`
}

// Project contains project metadata.
type Project struct {
	Name    string `toml:"name"`
	Version string `toml:"version"`
}

// Source configures source file locations.
type Source struct {
	Entry string `toml:"entry"`
}

// RuntimeConfig configures the runtime a project runs on.
type RuntimeConfig struct {
	HeapCapacity int    `toml:"heap-capacity"`
	MapCapacity  uint64 `toml:"map-capacity"`
	Trace        bool   `toml:"trace"`
}

// Load parses a howl.toml file from the given directory, applies defaults
// and then the environment overlay.
func Load(dir string) (*Manifest, error) {
	path := filepath.Join(dir, FileName)
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("cannot read %s: %w", path, err)
	}

	var m Manifest
	if err := toml.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("parse error in %s: %w", path, err)
	}

	m.Dir, err = filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("cannot resolve path %s: %w", dir, err)
	}

	// Defaults
	if m.Source.Entry == "" {
		m.Source.Entry = DefaultEntry
	}
	if m.Runtime.HeapCapacity <= 0 {
		m.Runtime.HeapCapacity = vm.DefaultHeapCapacity
	}
	if m.Runtime.MapCapacity == 0 {
		m.Runtime.MapCapacity = vm.DefaultMapCapacity
	}

	env, err := m.environment()
	if err != nil {
		return nil, err
	}
	if err := m.ApplyEnv(env); err != nil {
		return nil, err
	}
	return &m, nil
}

// FindAndLoad walks up from startDir to find a howl.toml file,
// then loads and returns the manifest. Returns nil if no manifest is found.
func FindAndLoad(startDir string) (*Manifest, error) {
	dir, err := filepath.Abs(startDir)
	if err != nil {
		return nil, err
	}

	for {
		path := filepath.Join(dir, FileName)
		if _, err := os.Stat(path); err == nil {
			return Load(dir)
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			// Reached root
			return nil, nil
		}
		dir = parent
	}
}

// environment returns the project's .env entries overlaid with the process
// environment. Process variables win.
func (m *Manifest) environment() (map[string]string, error) {
	env := map[string]string{}
	path := filepath.Join(m.Dir, EnvFileName)
	if vals, err := godotenv.Read(path); err == nil {
		env = vals
	} else if !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("parse error in %s: %w", path, err)
	}
	for _, key := range []string{EnvHeapCapacity, EnvMapCapacity, EnvTrace} {
		if v, ok := os.LookupEnv(key); ok {
			env[key] = v
		}
	}
	return env, nil
}

// ApplyEnv overrides [runtime] settings from HOWL_* entries in env.
func (m *Manifest) ApplyEnv(env map[string]string) error {
	if v, ok := env[EnvHeapCapacity]; ok {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			return fmt.Errorf("%s: invalid heap capacity %q", EnvHeapCapacity, v)
		}
		m.Runtime.HeapCapacity = n
	}
	if v, ok := env[EnvMapCapacity]; ok {
		n, err := strconv.ParseUint(v, 10, 64)
		if err != nil || n == 0 {
			return fmt.Errorf("%s: invalid map capacity %q", EnvMapCapacity, v)
		}
		m.Runtime.MapCapacity = n
	}
	if v, ok := env[EnvTrace]; ok {
		on, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("%s: %w", EnvTrace, err)
		}
		m.Runtime.Trace = on
	}
	return nil
}

// EntryPath returns the absolute path of the entry file.
func (m *Manifest) EntryPath() string {
	if filepath.IsAbs(m.Source.Entry) {
		return m.Source.Entry
	}
	return filepath.Join(m.Dir, m.Source.Entry)
}

// RuntimeOptions returns the runtime options the manifest configures.
func (m *Manifest) RuntimeOptions() []vm.Option {
	return []vm.Option{
		vm.WithHeapCapacity(m.Runtime.HeapCapacity),
		vm.WithMapCapacity(m.Runtime.MapCapacity),
		vm.WithTrace(m.Runtime.Trace),
	}
}
