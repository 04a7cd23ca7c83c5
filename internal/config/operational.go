package config

import (
	"errors"
	"log"
	"strings"
	"sync/atomic"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"
)

// OperationalConfig carries tunables that an operator may change without a
// restart: trash retention and the recurring sweep cadence.
type OperationalConfig struct {
	TrashRetentionDays int `mapstructure:"trashRetentionDays"`
	SweepIntervalHours int `mapstructure:"sweepIntervalHours"`
	SweepBatchSize     int `mapstructure:"sweepBatchSize"`
}

func DefaultOperationalConfig() OperationalConfig {
	return OperationalConfig{
		TrashRetentionDays: 30,
		SweepIntervalHours: 24,
		SweepBatchSize:     50,
	}
}

type OperationalConfigHolder struct {
	current atomic.Value // holds OperationalConfig
}

func NewOperationalConfigHolder() (*OperationalConfigHolder, error) {
	v := viper.New()

	v.SetConfigName("fakturo")
	v.SetConfigType("yml")
	v.AddConfigPath("/var/lib/fakturo/config") // Volume-mounted config
	v.AddConfigPath("/etc/fakturo")            // System config
	v.AddConfigPath(".")                       // Current directory (dev mode)

	v.SetEnvPrefix("FAKTURO")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, err
		}
		defaults := DefaultOperationalConfig()
		v.SetDefault("operational.trashRetentionDays", defaults.TrashRetentionDays)
		v.SetDefault("operational.sweepIntervalHours", defaults.SweepIntervalHours)
		v.SetDefault("operational.sweepBatchSize", defaults.SweepBatchSize)
	}

	var cfg OperationalConfig
	if err := v.UnmarshalKey("operational", &cfg); err != nil {
		return nil, err
	}
	if err := validateOperationalConfig(cfg); err != nil {
		return nil, err
	}

	holder := &OperationalConfigHolder{}
	holder.current.Store(cfg)

	v.WatchConfig()
	v.OnConfigChange(func(e fsnotify.Event) {
		var updated OperationalConfig
		if err := v.UnmarshalKey("operational", &updated); err != nil {
			log.Printf("[operational-config] reload failed: %v", err)
			return
		}
		if err := validateOperationalConfig(updated); err != nil {
			log.Printf("[operational-config] invalid config ignored: %v", err)
			return
		}
		holder.current.Store(updated)
		log.Printf("[operational-config] reloaded from %s", e.Name)
	})

	return holder, nil
}

func (h *OperationalConfigHolder) Get() OperationalConfig {
	return h.current.Load().(OperationalConfig)
}

// StaticOperationalConfig pins a holder to a fixed value, for tests and
// one-shot tools that do not watch a config file.
func StaticOperationalConfig(cfg OperationalConfig) *OperationalConfigHolder {
	holder := &OperationalConfigHolder{}
	holder.current.Store(cfg)
	return holder
}

func validateOperationalConfig(cfg OperationalConfig) error {
	if cfg.TrashRetentionDays <= 0 {
		return errors.New("operational.trashRetentionDays must be positive")
	}
	if cfg.SweepIntervalHours <= 0 {
		return errors.New("operational.sweepIntervalHours must be positive")
	}
	if cfg.SweepBatchSize <= 0 {
		return errors.New("operational.sweepBatchSize must be positive")
	}
	return nil
}
