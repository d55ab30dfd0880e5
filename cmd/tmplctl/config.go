package main

import (
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"strings"

	"github.com/go-viper/mapstructure/v2"
	"github.com/spf13/viper"

	"github.com/joshuapare/tmplkit/internal/logging"
	"github.com/joshuapare/tmplkit/pkg/types"
	"github.com/joshuapare/tmplkit/tmpl"
)

const (
	configName = ".tmplctl"
	envPrefix  = "TMPLCTL"
)

// Config is the decoded tmplctl configuration. It is read from
// ~/.tmplctl.yaml (or --config) and TMPLCTL_* environment variables.
//
//	support:
//	  - ~/Library/ResEdit Templates
//	format: text
//	keep_trailing: false
//	limits:
//	  max_depth: 64
//	log:
//	  level: info
//	  path: /tmp/tmplctl.log
type Config struct {
	Support      []string       `mapstructure:"support"`
	Format       string         `mapstructure:"format"`
	KeepTrailing bool           `mapstructure:"keep_trailing"`
	Limits       LimitsConfig   `mapstructure:"limits"`
	Log          logging.Config `mapstructure:"log"`
}

// LimitsConfig mirrors types.Limits for the config file.
type LimitsConfig struct {
	MaxDepth    int `mapstructure:"max_depth"`
	MaxEntries  int `mapstructure:"max_entries"`
	MaxElements int `mapstructure:"max_elements"`
	MaxDataSize int `mapstructure:"max_data_size"`
}

// DecodeOptions converts the config into tmpl decode options.
func (c *Config) DecodeOptions() tmpl.DecodeOptions {
	return tmpl.DecodeOptions{
		KeepTrailing: c.KeepTrailing,
		Limits: types.Limits{
			MaxDepth:    c.Limits.MaxDepth,
			MaxEntries:  c.Limits.MaxEntries,
			MaxElements: c.Limits.MaxElements,
			MaxDataSize: c.Limits.MaxDataSize,
		},
	}
}

func setDefaults(v *viper.Viper) {
	lim := types.DefaultLimits()
	logCfg := logging.DefaultConfig()
	v.SetDefault("support", []string{})
	v.SetDefault("format", "text")
	v.SetDefault("keep_trailing", false)
	v.SetDefault("limits.max_depth", lim.MaxDepth)
	v.SetDefault("limits.max_entries", lim.MaxEntries)
	v.SetDefault("limits.max_elements", lim.MaxElements)
	v.SetDefault("limits.max_data_size", lim.MaxDataSize)
	v.SetDefault("log.level", logCfg.Level)
	v.SetDefault("log.path", "")
	v.SetDefault("log.max_size", logCfg.MaxSize)
	v.SetDefault("log.max_backups", logCfg.MaxBackups)
	v.SetDefault("log.max_age", logCfg.MaxAge)
	v.SetDefault("log.compress", false)
	v.SetDefault("log.json", false)
}

func newViper() *viper.Viper {
	v := viper.New()
	setDefaults(v)
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	return v
}

// loadConfig reads path, or ~/.tmplctl.yaml when path is empty. A missing
// default file is not an error.
func loadConfig(path string) (*Config, error) {
	v := newViper()
	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, err
		}
	} else {
		v.SetConfigName(configName)
		v.SetConfigType("yaml")
		if home, err := os.UserHomeDir(); err == nil {
			v.AddConfigPath(home)
		}
		v.AddConfigPath(".")
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return nil, err
			}
		}
	}
	return decodeConfig(v)
}

func decodeConfig(v *viper.Viper) (*Config, error) {
	var cfg Config
	hook := mapstructure.ComposeDecodeHookFunc(
		mapstructure.StringToSliceHookFunc(","),
		expandHomeHook(),
	)
	if err := v.Unmarshal(&cfg, viper.DecodeHook(hook)); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// expandHomeHook replaces a leading ~/ in path settings.
func expandHomeHook() mapstructure.DecodeHookFuncKind {
	return func(_, _ reflect.Kind, data any) (any, error) {
		s, ok := data.(string)
		if !ok || !strings.HasPrefix(s, "~/") {
			return data, nil
		}
		home, err := os.UserHomeDir()
		if err != nil {
			return data, nil
		}
		return filepath.Join(home, s[2:]), nil
	}
}
