// Package config loads steplab settings from, in ascending precedence,
// built-in defaults, a steplab.yaml file, STEPLAB_* environment
// variables, and command-line flags.
package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/posflag"
	"github.com/knadh/koanf/v2"
	"github.com/spf13/pflag"
)

// Config is the resolved steplab configuration.
type Config struct {
	Server ServerConfig `koanf:"server"`
	Mesh   MeshConfig   `koanf:"mesh"`
	Watch  bool         `koanf:"watch"`
}

// ServerConfig holds the HTTP server settings.
type ServerConfig struct {
	Port        int    `koanf:"port"`
	UploadDir   string `koanf:"upload_dir"`
	MaxUploadMB int    `koanf:"max_upload_mb"`
}

// MeshConfig holds the default tessellation tolerances.
type MeshConfig struct {
	LinearDeflection  float64 `koanf:"linear_deflection"`
	AngularDeflection float64 `koanf:"angular_deflection"`
}

// defaults mirrors the original tool: port 5000, 100MB uploads, 0.1mm
// linear and 0.5rad angular deflection.
func defaults() map[string]interface{} {
	return map[string]interface{}{
		"server.port":             5000,
		"server.upload_dir":       "",
		"server.max_upload_mb":    100,
		"mesh.linear_deflection":  0.1,
		"mesh.angular_deflection": 0.5,
		"watch":                   false,
	}
}

// flagKeys maps CLI flag names to config keys for the posflag provider.
var flagKeys = map[string]string{
	"port":       "server.port",
	"upload-dir": "server.upload_dir",
	"max-upload": "server.max_upload_mb",
	"linear":     "mesh.linear_deflection",
	"angular":    "mesh.angular_deflection",
	"watch":      "watch",
}

// findConfigFile returns the config file to use.
// Priority: explicit path > steplab.yaml > steplab.yml.
func findConfigFile(explicit string) string {
	if explicit != "" {
		return explicit
	}
	for _, name := range []string{"steplab.yaml", "steplab.yml"} {
		if _, err := os.Stat(name); err == nil {
			return name
		}
	}
	return ""
}

// Load resolves the configuration. path may be empty (auto-discover);
// flags may be nil.
func Load(path string, flags *pflag.FlagSet) (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(confmap.Provider(defaults(), "."), nil); err != nil {
		return nil, fmt.Errorf("config: defaults: %w", err)
	}

	if cfgFile := findConfigFile(path); cfgFile != "" {
		if err := k.Load(file.Provider(cfgFile), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("config: %s: %w", cfgFile, err)
		}
	} else if path != "" {
		return nil, fmt.Errorf("config: %s: not found", path)
	}

	// STEPLAB_SERVER__PORT -> server.port; double underscore nests,
	// single underscores stay part of the key.
	err := k.Load(env.Provider("STEPLAB_", ".", func(s string) string {
		key := strings.ToLower(strings.TrimPrefix(s, "STEPLAB_"))
		return strings.ReplaceAll(key, "__", ".")
	}), nil)
	if err != nil {
		return nil, fmt.Errorf("config: env: %w", err)
	}

	if flags != nil {
		err := k.Load(posflag.ProviderWithValue(flags, ".", k, func(key, value string) (string, interface{}) {
			if mapped, ok := flagKeys[key]; ok {
				return mapped, value
			}
			return "", nil
		}), nil)
		if err != nil {
			return nil, fmt.Errorf("config: flags: %w", err)
		}
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("config: unmarshal: %w", err)
	}
	return &cfg, nil
}
