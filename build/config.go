package build

import (
	"os"

	"github.com/BurntSushi/toml"
)

// Config represents nova.toml, an optional project file. Its absence is
// not an error: the CLI falls back to its flag/argument defaults.
type Config struct {
	Package struct {
		Name         string `toml:"name"`
		Entry        string `toml:"entry"`
		TargetTriple string `toml:"target_triple"`
		OptLevel     int    `toml:"opt_level"`
	} `toml:"package"`
}

// LoadConfig reads nova.toml at path. A missing file yields a zero
// Config and a nil error; any other read or parse failure is returned.
func LoadConfig(path string) (*Config, error) {
	var cfg Config

	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return &cfg, nil
		}
		return nil, err
	}

	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}
