// Package config loads mimic settings from mimic.yaml, .env and MIMIC_*
// environment variables.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// EnvPrefix is prepended to every environment override, e.g. MIMIC_SERVER_ADDR.
const EnvPrefix = "MIMIC"

type Config struct {
	Log      LogConfig      `mapstructure:"log"`
	Camera   CameraConfig   `mapstructure:"camera"`
	Detector DetectorConfig `mapstructure:"detector"`
	Overlay  OverlayConfig  `mapstructure:"overlay"`
	Display  DisplayConfig  `mapstructure:"display"`
	Tray     TrayConfig     `mapstructure:"tray"`
	Server   ServerConfig   `mapstructure:"server"`
	Store    StoreConfig    `mapstructure:"store"`
	Redis    RedisConfig    `mapstructure:"redis"`
}

type LogConfig struct {
	Mode string `mapstructure:"mode"`
}

type CameraConfig struct {
	// Device is the camera index; -1 uses the remembered camera or asks.
	Device int  `mapstructure:"device"`
	Width  int  `mapstructure:"width"`
	Height int  `mapstructure:"height"`
	Mirror bool `mapstructure:"mirror"`
}

type DetectorConfig struct {
	MaxHands               int     `mapstructure:"max_hands"`
	MinDetectionConfidence float64 `mapstructure:"min_detection_confidence"`
	MinTrackingConfidence  float64 `mapstructure:"min_tracking_confidence"`
	Script                 string  `mapstructure:"script"`
	Python                 string  `mapstructure:"python"`
}

type OverlayConfig struct {
	AssetDir    string `mapstructure:"asset_dir"`
	Width       int    `mapstructure:"width"`
	Height      int    `mapstructure:"height"`
	OffsetRight int    `mapstructure:"offset_right"`
	OffsetTop   int    `mapstructure:"offset_top"`
}

type DisplayConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Title   string `mapstructure:"title"`
}

type TrayConfig struct {
	Enabled bool `mapstructure:"enabled"`
}

type ServerConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Addr    string `mapstructure:"addr"`
}

type StoreConfig struct {
	Path string `mapstructure:"path"`
}

type RedisConfig struct {
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
	Channel  string `mapstructure:"channel"`
}

// Load reads configuration. An explicit path must exist; with an empty path
// mimic.yaml is looked up in the working directory and ~/.mimic, and
// defaults are used when none is found. A .env file in the working
// directory is loaded into the environment first.
func Load(path string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env: %w", err)
	}

	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("mimic")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		if home, err := os.UserHomeDir(); err == nil {
			v.AddConfigPath(filepath.Join(home, ".mimic"))
		}
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Default returns the built-in configuration.
func Default() *Config {
	v := viper.New()
	setDefaults(v)

	var cfg Config
	_ = v.Unmarshal(&cfg)
	return &cfg
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("log.mode", "debug")

	v.SetDefault("camera.device", -1)
	v.SetDefault("camera.width", 640)
	v.SetDefault("camera.height", 480)
	v.SetDefault("camera.mirror", true)

	v.SetDefault("detector.max_hands", 2)
	v.SetDefault("detector.min_detection_confidence", 0.5)
	v.SetDefault("detector.min_tracking_confidence", 0.5)
	v.SetDefault("detector.script", "")
	v.SetDefault("detector.python", "")

	v.SetDefault("overlay.asset_dir", "monkey_images")
	v.SetDefault("overlay.width", 300)
	v.SetDefault("overlay.height", 300)
	v.SetDefault("overlay.offset_right", 320)
	v.SetDefault("overlay.offset_top", 10)

	v.SetDefault("display.enabled", true)
	v.SetDefault("display.title", "Monkey Mimic")

	v.SetDefault("tray.enabled", false)

	v.SetDefault("server.enabled", true)
	v.SetDefault("server.addr", "127.0.0.1:8080")

	v.SetDefault("store.path", "")

	v.SetDefault("redis.addr", "")
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)
	v.SetDefault("redis.channel", "mimic:gestures")
}

// Validate checks value ranges.
func (c *Config) Validate() error {
	var errs []error

	if c.Camera.Device < -1 {
		errs = append(errs, fmt.Errorf("camera.device must be -1 or a device index, got %d", c.Camera.Device))
	}
	if c.Camera.Width <= 0 || c.Camera.Height <= 0 {
		errs = append(errs, fmt.Errorf("camera size must be positive, got %dx%d", c.Camera.Width, c.Camera.Height))
	}
	if c.Detector.MaxHands < 1 {
		errs = append(errs, fmt.Errorf("detector.max_hands must be at least 1, got %d", c.Detector.MaxHands))
	}
	for name, v := range map[string]float64{
		"detector.min_detection_confidence": c.Detector.MinDetectionConfidence,
		"detector.min_tracking_confidence":  c.Detector.MinTrackingConfidence,
	} {
		if v < 0 || v > 1 {
			errs = append(errs, fmt.Errorf("%s must be within [0,1], got %g", name, v))
		}
	}
	if c.Overlay.Width <= 0 || c.Overlay.Height <= 0 {
		errs = append(errs, fmt.Errorf("overlay size must be positive, got %dx%d", c.Overlay.Width, c.Overlay.Height))
	}
	if c.Overlay.AssetDir == "" {
		errs = append(errs, errors.New("overlay.asset_dir must not be empty"))
	}
	if c.Server.Enabled && c.Server.Addr == "" {
		errs = append(errs, errors.New("server.addr must be set when the server is enabled"))
	}
	if c.Redis.Addr != "" && c.Redis.Channel == "" {
		errs = append(errs, errors.New("redis.channel must be set when redis.addr is set"))
	}

	if len(errs) > 0 {
		return fmt.Errorf("invalid config: %w", errors.Join(errs...))
	}
	return nil
}

// StorePath returns the database path, defaulting to ~/.mimic/mimic.db.
func (c *Config) StorePath() (string, error) {
	if c.Store.Path != "" {
		return c.Store.Path, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}
	return filepath.Join(home, ".mimic", "mimic.db"), nil
}
