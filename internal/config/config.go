package config

import (
	"fmt"
	"time"

	"github.com/spf13/viper"
)

// MemoryConfig holds in-memory/JSON storage backend settings
type MemoryConfig struct {
	OutputDir      string `json:"outputDir" mapstructure:"outputDir"`
	CompressOutput bool   `json:"compressOutput" mapstructure:"compressOutput"`
}

// SQLiteConfig holds SQLite storage backend settings
type SQLiteConfig struct {
	Path         string        `json:"path" mapstructure:"path"`
	DumpInterval time.Duration `json:"dumpInterval" mapstructure:"dumpInterval"`
}

// StorageConfig selects and parameterizes the session storage backend
type StorageConfig struct {
	Type   string       `json:"type" mapstructure:"type"`
	Memory MemoryConfig `json:"memory" mapstructure:"memory"`
	SQLite SQLiteConfig `json:"sqlite" mapstructure:"sqlite"`
}

// OTelConfig holds OpenTelemetry export settings
type OTelConfig struct {
	Enabled      bool          `json:"enabled" mapstructure:"enabled"`
	ServiceName  string        `json:"serviceName" mapstructure:"serviceName"`
	BatchTimeout time.Duration `json:"batchTimeout" mapstructure:"batchTimeout"`
	Endpoint     string        `json:"endpoint" mapstructure:"endpoint"`
	Insecure     bool          `json:"insecure" mapstructure:"insecure"`
}

// SensorConfig describes the trackball sensor stream and its framing
type SensorConfig struct {
	ListenAddr     string  `json:"listenAddr" mapstructure:"listenAddr"`
	Separator      string  `json:"separator" mapstructure:"separator"`
	BallRadius     float64 `json:"ballRadius" mapstructure:"ballRadius"`
	FieldForward   int     `json:"fieldForward" mapstructure:"fieldForward"`
	FieldSideways  int     `json:"fieldSideways" mapstructure:"fieldSideways"`
	FieldHeading   int     `json:"fieldHeading" mapstructure:"fieldHeading"`
	FieldTimestamp int     `json:"fieldTimestamp" mapstructure:"fieldTimestamp"`
}

// GateConfig parameterizes the angular-speed gate
type GateConfig struct {
	ThresholdDegPerSec float64 `json:"thresholdDegPerSec" mapstructure:"thresholdDegPerSec"`
	SmoothingAlpha     float64 `json:"smoothingAlpha" mapstructure:"smoothingAlpha"`
}

// WriteConfig parameterizes adaptive session-log flushing
type WriteConfig struct {
	StillFrames      int `json:"stillFrames" mapstructure:"stillFrames"`
	MinWriteInterval int `json:"minWriteInterval" mapstructure:"minWriteInterval"`
	MaxWriteInterval int `json:"maxWriteInterval" mapstructure:"maxWriteInterval"`
}

// BehaviorConfig parameterizes the timed two-state behavior machine
type BehaviorConfig struct {
	PrimaryDuration   time.Duration `json:"primaryDuration" mapstructure:"primaryDuration"`
	SecondaryDuration time.Duration `json:"secondaryDuration" mapstructure:"secondaryDuration"`
	RotationRate      float64       `json:"rotationRate" mapstructure:"rotationRate"`
}

// Load reads configuration from JSON file and sets default values.
// configDir is the directory containing the config file.
func Load(configDir string) error {
	// Set default values
	viper.SetDefault("logLevel", "info")
	viper.SetDefault("logsDir", "./riglogs")
	viper.SetDefault("frameRate", 60)

	viper.SetDefault("rig.name", "ballrig")
	viper.SetDefault("rig.stage", "lab")
	viper.SetDefault("rig.agent", "agent")
	viper.SetDefault("rig.site.longitude", 0.0)
	viper.SetDefault("rig.site.latitude", 0.0)

	viper.SetDefault("sensor.listenAddr", "127.0.0.1:9001")
	viper.SetDefault("sensor.separator", ",")
	viper.SetDefault("sensor.ballRadius", 0.5)
	viper.SetDefault("sensor.fieldForward", 6)
	viper.SetDefault("sensor.fieldSideways", 7)
	viper.SetDefault("sensor.fieldHeading", 17)
	viper.SetDefault("sensor.fieldTimestamp", -1)

	viper.SetDefault("motion.gain", 1.0)
	viper.SetDefault("motion.smoothingWindow", 4)
	viper.SetDefault("motion.headingWindow", 90)

	viper.SetDefault("gate.thresholdDegPerSec", 120.0)
	viper.SetDefault("gate.smoothingAlpha", 0.2)

	viper.SetDefault("write.stillFrames", 5)
	viper.SetDefault("write.minWriteInterval", 100)
	viper.SetDefault("write.maxWriteInterval", 200)

	viper.SetDefault("behavior.primaryDuration", "10s")
	viper.SetDefault("behavior.secondaryDuration", "5s")
	viper.SetDefault("behavior.rotationRate", 30.0)

	viper.SetDefault("storage.type", "sqlite")
	viper.SetDefault("storage.memory.outputDir", "./recordings")
	viper.SetDefault("storage.memory.compressOutput", true)
	viper.SetDefault("storage.sqlite.path", "")
	viper.SetDefault("storage.sqlite.dumpInterval", "3m")

	viper.SetDefault("db.host", "localhost")
	viper.SetDefault("db.port", "5432")
	viper.SetDefault("db.username", "postgres")
	viper.SetDefault("db.password", "postgres")
	viper.SetDefault("db.database", "ballrig")

	viper.SetDefault("influx.enabled", false)
	viper.SetDefault("influx.host", "localhost")
	viper.SetDefault("influx.port", "8086")
	viper.SetDefault("influx.protocol", "http")
	viper.SetDefault("influx.token", "")
	viper.SetDefault("influx.org", "rig-metrics")

	viper.SetDefault("graylog.enabled", false)
	viper.SetDefault("graylog.address", "localhost:12201")

	viper.SetDefault("otel.enabled", false)
	viper.SetDefault("otel.serviceName", "ballrig")
	viper.SetDefault("otel.batchTimeout", "5s")
	viper.SetDefault("otel.endpoint", "")
	viper.SetDefault("otel.insecure", true)

	viper.SetConfigName("ballrig.cfg.json")
	viper.AddConfigPath(configDir)
	viper.SetConfigType("json")

	err := viper.ReadInConfig()
	if err != nil {
		return fmt.Errorf("error reading config file: %v", err)
	}

	return nil
}

// GetString returns a string config value.
func GetString(key string) string {
	return viper.GetString(key)
}

// GetInt returns an int config value.
func GetInt(key string) int {
	return viper.GetInt(key)
}

// GetBool returns a bool config value.
func GetBool(key string) bool {
	return viper.GetBool(key)
}

// GetFloat returns a float config value.
func GetFloat(key string) float64 {
	return viper.GetFloat64(key)
}

// GetStorageConfig returns the storage section.
func GetStorageConfig() StorageConfig {
	return StorageConfig{
		Type: viper.GetString("storage.type"),
		Memory: MemoryConfig{
			OutputDir:      viper.GetString("storage.memory.outputDir"),
			CompressOutput: viper.GetBool("storage.memory.compressOutput"),
		},
		SQLite: SQLiteConfig{
			Path:         viper.GetString("storage.sqlite.path"),
			DumpInterval: viper.GetDuration("storage.sqlite.dumpInterval"),
		},
	}
}

// GetOTelConfig returns the otel section.
func GetOTelConfig() OTelConfig {
	return OTelConfig{
		Enabled:      viper.GetBool("otel.enabled"),
		ServiceName:  viper.GetString("otel.serviceName"),
		BatchTimeout: viper.GetDuration("otel.batchTimeout"),
		Endpoint:     viper.GetString("otel.endpoint"),
		Insecure:     viper.GetBool("otel.insecure"),
	}
}

// GetSensorConfig returns the sensor section.
func GetSensorConfig() SensorConfig {
	return SensorConfig{
		ListenAddr:     viper.GetString("sensor.listenAddr"),
		Separator:      viper.GetString("sensor.separator"),
		BallRadius:     viper.GetFloat64("sensor.ballRadius"),
		FieldForward:   viper.GetInt("sensor.fieldForward"),
		FieldSideways:  viper.GetInt("sensor.fieldSideways"),
		FieldHeading:   viper.GetInt("sensor.fieldHeading"),
		FieldTimestamp: viper.GetInt("sensor.fieldTimestamp"),
	}
}

// GetGateConfig returns the gate section.
func GetGateConfig() GateConfig {
	return GateConfig{
		ThresholdDegPerSec: viper.GetFloat64("gate.thresholdDegPerSec"),
		SmoothingAlpha:     viper.GetFloat64("gate.smoothingAlpha"),
	}
}

// GetWriteConfig returns the write-scheduling section.
func GetWriteConfig() WriteConfig {
	return WriteConfig{
		StillFrames:      viper.GetInt("write.stillFrames"),
		MinWriteInterval: viper.GetInt("write.minWriteInterval"),
		MaxWriteInterval: viper.GetInt("write.maxWriteInterval"),
	}
}

// GetBehaviorConfig returns the behavior section.
func GetBehaviorConfig() BehaviorConfig {
	return BehaviorConfig{
		PrimaryDuration:   viper.GetDuration("behavior.primaryDuration"),
		SecondaryDuration: viper.GetDuration("behavior.secondaryDuration"),
		RotationRate:      viper.GetFloat64("behavior.rotationRate"),
	}
}
