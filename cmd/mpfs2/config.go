package main

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

const (
	// AppName is used for config file and directory names.
	AppName = "mpfs2"

	// EnvPrefix is the prefix for environment variables (MPFS2_DEBUG, ...).
	EnvPrefix = "MPFS2"
)

var v *viper.Viper

// initConfig sets up the configuration system: defaults, environment
// variables, then an optional config file. A missing config file is fine
// unless one was named explicitly.
func initConfig(cfgFile string) error {
	v = viper.New()

	v.SetDefault("debug", false)
	v.SetDefault("log_format", "human")
	v.SetDefault("extract_dir", "export")

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
		if err := v.ReadInConfig(); err != nil {
			return fmt.Errorf("read config %s: %w", cfgFile, err)
		}
		return nil
	}

	v.SetConfigName(AppName)
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("$HOME/.config/" + AppName)
	// config file is optional in the default locations
	_ = v.ReadInConfig()
	return nil
}
