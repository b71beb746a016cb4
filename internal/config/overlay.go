package config

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// env resolves settings from the process environment first and then from
// an optional YAML file whose keys are the lower-cased variable names.
type env map[string]string

func (e env) get(key string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return e[strings.ToLower(key)]
}

// loadOverlay reads the YAML file named by MEDIAQA_CONFIG, if any.
func loadOverlay() (env, error) {
	path := os.Getenv("MEDIAQA_CONFIG")
	if path == "" {
		return env{}, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}

	var raw map[string]any
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}

	overlay := make(env, len(raw))
	for k, v := range raw {
		switch v.(type) {
		case map[string]any, []any:
			return nil, fmt.Errorf("config %s: %s must be a scalar", path, k)
		case nil:
			continue
		}
		overlay[strings.ToLower(k)] = fmt.Sprint(v)
	}

	return overlay, nil
}
