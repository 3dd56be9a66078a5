// Package config loads the optional tabpack configuration.
//
// Values are read from the first existing file of tabpack.yml (project directory) and
// $XDG_CONFIG_HOME/tabpack/config.yml, or from an explicitly passed file, and can be overridden
// with TABPACK_* environment variables (i.e. TABPACK_TOOLS_CARGO).
package config

import (
	"os"
	"path/filepath"

	"github.com/adrg/xdg"
	"github.com/cristalhq/aconfig"
	"github.com/rotisserie/eris"
	"gopkg.in/yaml.v3"
)

// ProjectFile is the name of the per-project config file
const ProjectFile = "tabpack.yml"

// Tools lists the executables tabpack calls
type Tools struct {
	Cargo   string `yaml:"cargo" env:"CARGO" usage:"cargo executable"`
	Elf2Tab string `yaml:"elf2tab" env:"ELF2TAB" usage:"elf2tab executable"`
}

// Config describes all configuration options
type Config struct {
	Tools Tools             `yaml:"tools" env:"TOOLS"`
	Env   map[string]string `yaml:"env" env:"ENV" usage:"Additional environment variables for cargo and elf2tab"`

	// File is the config file the values were read from, empty if none was found
	File string `yaml:"-" env:"-"`
}

// Default returns the configuration used when no file exists
func Default() *Config {
	return &Config{
		Tools: Tools{
			Cargo:   "cargo",
			Elf2Tab: "elf2tab",
		},
		Env: map[string]string{},
	}
}

// UserFile returns the location of the user-wide config file
func UserFile() string {
	return filepath.Join(xdg.ConfigHome, "tabpack", "config.yml")
}

// Load reads the configuration for the project in dir. If file is not empty, only that file is
// considered and it has to exist.
func Load(dir, file string) (*Config, error) {
	cfg := Default()

	candidates := []string{filepath.Join(dir, ProjectFile), UserFile()}
	if file != "" {
		candidates = []string{file}
	}

	for _, path := range candidates {
		data, err := os.ReadFile(path)
		if err != nil {
			if eris.Is(err, os.ErrNotExist) && file == "" {
				continue
			}
			return nil, eris.Wrapf(err, "Could not open file %s.", path)
		}

		err = yaml.Unmarshal(data, cfg)
		if err != nil {
			return nil, eris.Wrapf(err, "Failed to parse %s.", path)
		}

		cfg.File = path
		break
	}

	// environment variables take precedence over files
	loader := aconfig.LoaderFor(cfg, aconfig.Config{
		SkipDefaults:     true,
		SkipFiles:        true,
		SkipFlags:        true,
		EnvPrefix:        "TABPACK",
		AllowUnknownEnvs: true,
	})

	err := loader.Load()
	if err != nil {
		return nil, eris.Wrap(err, "failed to read environment overrides")
	}

	err = cfg.Validate()
	if err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate verifies that all config fields have valid values
func (cfg *Config) Validate() error {
	if cfg.Tools.Cargo == "" {
		return eris.New("tools.cargo must not be empty")
	}

	if cfg.Tools.Elf2Tab == "" {
		return eris.New("tools.elf2tab must not be empty")
	}

	return nil
}
