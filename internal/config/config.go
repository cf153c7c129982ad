// Package config loads configs/config.yml, with CHAMBER_* environment overrides.
package config

import (
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/spf13/viper"

	"chamber_monitor/internal/gylelog"
	"chamber_monitor/internal/logger"
	"chamber_monitor/internal/optimise"
)

const envPrefix = "CHAMBER"

// Config is decoded once at startup and passed by value.
type Config struct {
	LogLevel  string
	LogFormat string
	HTTPPort  string
	DBPath    string
	DataDir   string

	ReadingPeriod   time.Duration
	Gen1Capacity    int
	GenMultiplier   int
	MaxGeneration   int
	ThresholdHeight int
	ThresholdWidths []int

	SmoothTemperatureReadings   bool
	NullOutRedundantValues      bool
	RemoveRedundantIntermediate bool

	IgnoreFirstHours int
	FridgeOnTimeMins int
	HeaterOnTimeMins int

	SimulatedChambers bool

	KafkaEnabled bool
	KafkaBrokers []string
	KafkaTopic   string
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("log.level", logger.InfoLevel)
	v.SetDefault("log.format", logger.ConsoleFormat)
	v.SetDefault("http.port", "8080")
	v.SetDefault("db.path", "app.db")
	v.SetDefault("data.dir", "data")

	v.SetDefault("readings.periodMillis", 60_000)
	v.SetDefault("readings.gen1.readingsCount", 30)
	v.SetDefault("readings.gen.multiplier", 4)
	v.SetDefault("readings.gen.max", 5)
	v.SetDefault("readings.temp.smoothing.thresholdHeight", 3)
	v.SetDefault("readings.temp.smoothing.thresholdWidths", []int{})

	v.SetDefault("readings.optimise.smoothTemperatureReadings", true)
	v.SetDefault("readings.optimise.nullOutRedundantValues", true)
	v.SetDefault("readings.optimise.removeRedundantIntermediate", true)

	v.SetDefault("readings.switchedOff.ignoreFirstHours", 6)
	v.SetDefault("readings.switchedOff.fridgeOnTimeMins", 90)
	v.SetDefault("readings.switchedOff.heaterOnTimeMins", 60)

	v.SetDefault("chamberManager.simulated", true)

	v.SetDefault("notify.kafka.enabled", false)
	v.SetDefault("notify.kafka.brokers", []string{"localhost:9092"})
	v.SetDefault("notify.kafka.topic", "chamber-events")
}

// Load reads config.yml from dir. A missing file is not an error: defaults
// and environment variables still apply.
func Load(dir string) (Config, error) {
	v := viper.New()
	v.AddConfigPath(dir)
	v.SetConfigName("config")
	v.SetConfigType("yml")
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return Config{}, errors.Wrap(err, "read config")
		}
	}

	cfg := Config{
		LogLevel:  v.GetString("log.level"),
		LogFormat: v.GetString("log.format"),
		HTTPPort:  v.GetString("http.port"),
		DBPath:    v.GetString("db.path"),
		DataDir:   v.GetString("data.dir"),

		ReadingPeriod:   time.Duration(v.GetInt64("readings.periodMillis")) * time.Millisecond,
		Gen1Capacity:    v.GetInt("readings.gen1.readingsCount"),
		GenMultiplier:   v.GetInt("readings.gen.multiplier"),
		MaxGeneration:   v.GetInt("readings.gen.max"),
		ThresholdHeight: v.GetInt("readings.temp.smoothing.thresholdHeight"),
		ThresholdWidths: v.GetIntSlice("readings.temp.smoothing.thresholdWidths"),

		SmoothTemperatureReadings:   v.GetBool("readings.optimise.smoothTemperatureReadings"),
		NullOutRedundantValues:      v.GetBool("readings.optimise.nullOutRedundantValues"),
		RemoveRedundantIntermediate: v.GetBool("readings.optimise.removeRedundantIntermediate"),

		IgnoreFirstHours: v.GetInt("readings.switchedOff.ignoreFirstHours"),
		FridgeOnTimeMins: v.GetInt("readings.switchedOff.fridgeOnTimeMins"),
		HeaterOnTimeMins: v.GetInt("readings.switchedOff.heaterOnTimeMins"),

		SimulatedChambers: v.GetBool("chamberManager.simulated"),

		KafkaEnabled: v.GetBool("notify.kafka.enabled"),
		KafkaBrokers: v.GetStringSlice("notify.kafka.brokers"),
		KafkaTopic:   v.GetString("notify.kafka.topic"),
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks everything the gyle log and optimiser would reject later.
func (c Config) Validate() error {
	if _, err := c.Thresholds(); err != nil {
		return errors.Wrap(err, "invalid smoothing thresholds")
	}
	if err := c.GyleLog().Validate(); err != nil {
		return errors.Wrap(err, "invalid readings config")
	}
	if c.DataDir == "" {
		return errors.New("data.dir must be set")
	}
	if c.KafkaEnabled && (len(c.KafkaBrokers) == 0 || c.KafkaTopic == "") {
		return errors.New("notify.kafka needs brokers and a topic when enabled")
	}
	return nil
}

// Thresholds falls back to the default widths when none are configured.
func (c Config) Thresholds() (optimise.Thresholds, error) {
	if len(c.ThresholdWidths) == 0 {
		return optimise.DefaultThresholds(c.ThresholdHeight)
	}
	return optimise.NewThresholds(c.ThresholdHeight, c.ThresholdWidths)
}

func (c Config) GyleLog() gylelog.Config {
	return gylelog.Config{
		Gen1Capacity:  c.Gen1Capacity,
		ReadingPeriod: c.ReadingPeriod,
		Compaction: gylelog.CompactionConfig{
			GenMultiplier: c.GenMultiplier,
			MaxGeneration: c.MaxGeneration,
		},
		SwitchedOff: gylelog.SwitchedOffConfig{
			IgnoreFirstHours: c.IgnoreFirstHours,
			FridgeOnTimeMins: c.FridgeOnTimeMins,
			HeaterOnTimeMins: c.HeaterOnTimeMins,
		},
	}
}

// Optimiser assumes Validate has passed.
func (c Config) Optimiser() optimise.Config {
	th, _ := c.Thresholds()
	return optimise.Config{
		SmoothTemperatureReadings:   c.SmoothTemperatureReadings,
		NullOutRedundantValues:      c.NullOutRedundantValues,
		RemoveRedundantIntermediate: c.RemoveRedundantIntermediate,
		Thresholds:                  th,
	}
}
