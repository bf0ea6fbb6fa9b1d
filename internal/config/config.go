// Package config loads collector and agent configuration from file,
// environment, and defaults.
package config

import (
	"fmt"
	"time"

	"github.com/spf13/viper"
)

// Config holds the collector daemon configuration.
type Config struct {
	Listen        string        `mapstructure:"listen"`
	EnableSwagger bool          `mapstructure:"enable_swagger"`
	DatabasePath  string        `mapstructure:"database"`
	RetentionDays int           `mapstructure:"retention_days"`
	PurgeInterval time.Duration `mapstructure:"purge_interval"`
	CommandWait   time.Duration `mapstructure:"command_wait"`
	ClientSecret  string        `mapstructure:"client_secret"`
	ApiSecret     string        `mapstructure:"api_secret"`
}

// Load reads collector configuration from file and environment.
func Load(cfgFile string) (*Config, error) {
	v := viper.New()
	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		v.SetConfigName("collector")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./configs")
		v.AddConfigPath("/etc/facts-collector")
	}

	v.SetDefault("listen", ":9560")
	v.SetDefault("enable_swagger", true)
	v.SetDefault("database", "facts.db")
	v.SetDefault("retention_days", 0)
	v.SetDefault("purge_interval", "24h")
	v.SetDefault("command_wait", "25s")

	v.SetEnvPrefix("COLLECTOR")
	v.AutomaticEnv()

	_ = v.ReadInConfig()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	return &cfg, nil
}

// AgentConfig holds the facter agent configuration.
type AgentConfig struct {
	CollectorAddr string        `mapstructure:"collector_addr"`
	ClientSecret  string        `mapstructure:"client_secret"`
	Interval      time.Duration `mapstructure:"interval"`
	StateDir      string        `mapstructure:"state_dir"`
}

// LoadAgent reads agent configuration from file and environment.
func LoadAgent(cfgFile string) (*AgentConfig, error) {
	v := viper.New()
	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		v.SetConfigName("facter")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./configs")
		v.AddConfigPath("/etc/facter")
	}

	v.SetDefault("collector_addr", "127.0.0.1:9560")
	v.SetDefault("interval", "1h")
	v.SetDefault("state_dir", "")

	v.SetEnvPrefix("FACTER")
	v.AutomaticEnv()

	_ = v.ReadInConfig()

	var cfg AgentConfig
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	return &cfg, nil
}
