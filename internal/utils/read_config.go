// Package utils holds small, dependency-light helpers shared by the CLI
// commands.
package utils

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/pelletier/go-toml"

	"github.com/nullbyte-labs/proxyharvest/internal/config"
)

// ReadConfig loads a pipeline config from path. JSON is canonical; a
// ".toml" extension is accepted as a local-dev convenience and converted
// to JSON before unmarshaling, mirroring the teacher's acceptance of more
// than one serialization for the same config shape.
func ReadConfig(path string) (config.Config, error) {
	var conf config.Config

	data, err := os.ReadFile(path)
	if err != nil {
		return conf, fmt.Errorf("cannot read config file %s: %w", path, err)
	}

	if strings.HasSuffix(path, ".toml") {
		data, err = tomlToJSON(data)
		if err != nil {
			return conf, fmt.Errorf("cannot convert toml config: %w", err)
		}
	}

	if err := json.Unmarshal(data, &conf); err != nil {
		return conf, fmt.Errorf("cannot parse config %s: %w", path, err)
	}

	if err := conf.Validate(); err != nil {
		return conf, fmt.Errorf("invalid config %s: %w", path, err)
	}

	return conf, nil
}

func tomlToJSON(data []byte) ([]byte, error) {
	tree, err := toml.LoadBytes(data)
	if err != nil {
		return nil, fmt.Errorf("cannot parse toml: %w", err)
	}

	asMap := tree.ToMap()

	out, err := json.Marshal(asMap)
	if err != nil {
		return nil, fmt.Errorf("cannot re-encode toml as json: %w", err)
	}

	return out, nil
}
