package internal

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

type FlatSQLConfig struct {
	AppName string `mapstructure:"app_name"`

	Storage struct {
		Root       string `mapstructure:"root"`
		ResultFile string `mapstructure:"result_file"`
	} `mapstructure:"storage"`

	Catalog struct {
		// IDColumn is the INTEGER column every new table starts with.
		IDColumn string `mapstructure:"id_column"`
	} `mapstructure:"catalog"`

	Session struct {
		File    string `mapstructure:"file"`
		Persist bool   `mapstructure:"persist"`
	} `mapstructure:"session"`

	Snapshot struct {
		MaxDepth int `mapstructure:"max_depth"`
	} `mapstructure:"snapshot"`

	History struct {
		Enabled bool   `mapstructure:"enabled"`
		Path    string `mapstructure:"path"`
	} `mapstructure:"history"`

	Log struct {
		Level       string `mapstructure:"level"`
		Development bool   `mapstructure:"development"`
	} `mapstructure:"log"`

	Repl struct {
		Prompt string `mapstructure:"prompt"`
	} `mapstructure:"repl"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("app_name", "flatsql")
	v.SetDefault("storage.root", "DATABASES")
	v.SetDefault("storage.result_file", "RESULT.csv")
	v.SetDefault("catalog.id_column", "ID")
	v.SetDefault("session.file", "flatsql_session.yaml")
	v.SetDefault("session.persist", true)
	v.SetDefault("snapshot.max_depth", 0)
	v.SetDefault("history.enabled", false)
	v.SetDefault("history.path", "flatsql_history.db")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.development", false)
	v.SetDefault("repl.prompt", "flatsql> ")
}

// LoadConfig reads the YAML file at path over the defaults. An empty path
// uses defaults and FLATSQL_* environment variables only.
func LoadConfig(path string) (*FlatSQLConfig, error) {
	v := viper.New()
	setDefaults(v)
	v.SetEnvPrefix("FLATSQL")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		v.SetConfigType("yaml")
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg FlatSQLConfig
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	return &cfg, nil
}
