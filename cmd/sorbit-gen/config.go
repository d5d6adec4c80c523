package main

import (
	"fmt"
	"os"

	"github.com/creasty/defaults"
	"gopkg.in/yaml.v3"
)

// config is the optional sorbit.yaml file. Flags override it.
type config struct {
	// Out is an explicit output path. When empty the output lands next
	// to the first input as <package><suffix>.go.
	Out     string `yaml:"out"`
	Suffix  string `yaml:"suffix" default:"_sorbit"`
	Verbose bool   `yaml:"verbose"`
}

// loadConfig reads the config at path, or sorbit.yaml in the working
// directory if it exists. A missing config is not an error.
func loadConfig(path string) (*config, error) {
	cfg := &config{}
	if err := defaults.Set(cfg); err != nil {
		return nil, err
	}

	if path == "" {
		if _, err := os.Stat("sorbit.yaml"); err != nil {
			return cfg, nil
		}
		path = "sorbit.yaml"
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}
	return cfg, nil
}
