package config

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/BurntSushi/toml"
)

// Config represents the compiler's on-disk configuration.
type Config struct {
	Codegen struct {
		Target        string   `toml:"target"` // "elf" or "macho", empty means autodetect from GOOS
		Assembler     string   `toml:"assembler"`
		AssemblerArgs []string `toml:"assembler_args"`
		FormatAsm     bool     `toml:"format_asm"`
	} `toml:"codegen"`

	Diagnostics struct {
		DumpDir     string `toml:"dump_dir"`
		ColorOutput bool   `toml:"color_output"`
	} `toml:"diagnostics"`

	Driver struct {
		Quiet         bool `toml:"quiet"`
		RunAfterBuild bool `toml:"run_after_build"`
	} `toml:"driver"`
}

// DefaultConfig returns a Config with the compiler's built-in defaults.
func DefaultConfig() *Config {
	cfg := &Config{}

	cfg.Codegen.Target = ""
	cfg.Codegen.Assembler = "cc"
	cfg.Codegen.AssemblerArgs = []string{"-m64", "-no-pie"}
	cfg.Codegen.FormatAsm = true

	cfg.Diagnostics.DumpDir = "out"
	cfg.Diagnostics.ColorOutput = true

	cfg.Driver.Quiet = false
	cfg.Driver.RunAfterBuild = false

	return cfg
}

// GetConfigPath returns the default configuration file path: minic.toml
// in the current working directory.
func GetConfigPath() string {
	return "minic.toml"
}

// Load reads minic.toml from the working directory, or falls back to
// DefaultConfig() when it is absent.
func Load() (*Config, error) {
	return LoadFrom(GetConfigPath())
}

// LoadFrom overlays the TOML file at path onto DefaultConfig() and
// validates the result, so every caller downstream of Load sees a
// Config whose [codegen].target (if pinned) is one Emit actually
// knows how to handle. A missing file is not an error: it just means
// the built-in defaults apply.
func LoadFrom(path string) (*Config, error) {
	cfg := DefaultConfig()

	if _, statErr := os.Stat(path); os.IsNotExist(statErr) {
		return cfg, nil
	}

	raw, readErr := os.ReadFile(path) // #nosec G304 -- path is either the fixed minic.toml default or a --config flag the caller chose
	if readErr != nil {
		return nil, fmt.Errorf("minic: reading config %s: %w", path, readErr)
	}
	if _, decodeErr := toml.Decode(string(raw), cfg); decodeErr != nil {
		return nil, fmt.Errorf("minic: config %s is not valid TOML: %w", path, decodeErr)
	}

	if t := cfg.Codegen.Target; t != "" && t != "elf" && t != "macho" {
		return nil, fmt.Errorf("minic: config %s: [codegen].target %q must be \"elf\" or \"macho\"", path, t)
	}

	return cfg, nil
}

// Save pins the current TargetOS() resolution into [codegen].target and
// writes the result to minic.toml in the working directory, so a saved
// config always records the concrete platform choice rather than an
// autodetect placeholder.
func (c *Config) Save() error {
	return c.SaveTo(GetConfigPath())
}

// SaveTo renders c as TOML and writes it to path, creating any missing
// parent directory first.
func (c *Config) SaveTo(path string) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0750); err != nil {
			return fmt.Errorf("minic: creating directory for config %s: %w", path, err)
		}
	}

	pinned := *c
	pinned.Codegen.Target = c.TargetOS()

	var rendered strings.Builder
	if err := toml.NewEncoder(&rendered).Encode(pinned); err != nil {
		return fmt.Errorf("minic: rendering config as TOML: %w", err)
	}

	if err := os.WriteFile(path, []byte(rendered.String()), 0644); err != nil {
		return fmt.Errorf("minic: writing config %s: %w", path, err)
	}

	return nil
}

// TargetOS resolves the configured codegen target, falling back to the
// host GOOS when Target is unset.
func (c *Config) TargetOS() string {
	if c.Codegen.Target != "" {
		return c.Codegen.Target
	}
	if runtime.GOOS == "darwin" {
		return "macho"
	}
	return "elf"
}
