// Package config provides configuration loading for the contextify gateway.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/spf13/viper"
)

// InitViper initializes Viper with the configuration file and environment
// variables. If configFile is empty, it searches for contextify-gateway.yaml
// in standard locations. The explicit extension requirement avoids Viper
// matching the binary's own name.
func InitViper(configFile string) {
	if configFile != "" {
		viper.SetConfigFile(configFile)
	} else if found := findConfigFile(); found != "" {
		viper.SetConfigFile(found)
	} else {
		viper.SetConfigName("contextify-gateway")
		viper.SetConfigType("yaml")
	}

	viper.SetEnvPrefix("CONTEXTIFY_GATEWAY")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	viper.AutomaticEnv()

	bindNestedEnvKeys()
}

func findConfigFile() string {
	home, _ := os.UserHomeDir()
	paths := []string{
		".",
		filepath.Join(home, ".contextify-gateway"),
	}
	if runtime.GOOS == "windows" {
		if pd := os.Getenv("ProgramData"); pd != "" {
			paths = append(paths, filepath.Join(pd, "contextify-gateway"))
		}
	} else {
		paths = append(paths, "/etc/contextify-gateway")
	}
	return findConfigFileInPaths(paths)
}

func findConfigFileInPaths(paths []string) string {
	for _, dir := range paths {
		for _, ext := range []string{".yaml", ".yml"} {
			path := filepath.Join(dir, "contextify-gateway"+ext)
			if _, err := os.Stat(path); err == nil {
				return path
			}
		}
	}
	return ""
}

// ConfigFileUsed returns the path Viper actually loaded, or empty if no
// config file was found.
func ConfigFileUsed() string {
	return viper.ConfigFileUsed()
}

// bindNestedEnvKeys binds the config keys most useful to override via
// environment variable in container deployments.
func bindNestedEnvKeys() {
	_ = viper.BindEnv("server.http_addr")
	_ = viper.BindEnv("server.log_level")
	_ = viper.BindEnv("policy.path")
	_ = viper.BindEnv("policy.endpoints_path")
	_ = viper.BindEnv("registry.db_path")
	_ = viper.BindEnv("admin.state_path")
	_ = viper.BindEnv("telemetry.enabled")
}

// Load reads the active config file into a GatewayHostConfig, validates it,
// and returns it. A config file that Viper cannot find is never an error:
// Load then unmarshals whatever the environment bindings supply, and
// validation decides whether that is enough. Callers typically call
// InitViper first.
func Load() (*GatewayHostConfig, error) {
	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("config: read config file: %w", err)
		}
	}

	var cfg GatewayHostConfig
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("config: unmarshal: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}

	return &cfg, nil
}
