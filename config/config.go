// Package config loads nmwatch settings from YAML with environment overrides.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// Config is the root configuration structure.
type Config struct {
	Logging LoggingConfig `yaml:"logging"`
	Display DisplayConfig `yaml:"display"`
	Metrics MetricsConfig `yaml:"metrics"`
	MQTT    MQTTConfig    `yaml:"mqtt"`
}

// LoggingConfig controls logger construction.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
	Output string `yaml:"output"`
}

// DisplayConfig controls how states are written to stdout.
type DisplayConfig struct {
	Format string      `yaml:"format"`
	Icons  IconsConfig `yaml:"icons"`
}

// IconsConfig names the icon used for each technology and state.
// An empty name hides the technology.
type IconsConfig struct {
	Wired    WiredIcons    `yaml:"wired"`
	Wifi     WifiIcons     `yaml:"wifi"`
	Cellular CellularIcons `yaml:"cellular"`
	VPN      VPNIcons      `yaml:"vpn"`
}

type WiredIcons struct {
	Connected    string `yaml:"connected"`
	Disconnected string `yaml:"disconnected"`
}

// WifiIcons.Levels is ordered from weakest to strongest signal.
type WifiIcons struct {
	Levels       []string `yaml:"levels"`
	Disconnected string   `yaml:"disconnected"`
	Disabled     string   `yaml:"disabled"`
}

type CellularIcons struct {
	Connected    string `yaml:"connected"`
	Disconnected string `yaml:"disconnected"`
	Disabled     string `yaml:"disabled"`
}

type VPNIcons struct {
	Connected string `yaml:"connected"`
}

// MetricsConfig controls the Prometheus endpoint.
type MetricsConfig struct {
	Enabled bool   `yaml:"enabled"`
	Address string `yaml:"address"`
}

// MQTTConfig controls the optional MQTT state sink.
type MQTTConfig struct {
	Enabled bool             `yaml:"enabled"`
	Broker  MQTTBrokerConfig `yaml:"broker"`
	Auth    MQTTAuthConfig   `yaml:"auth"`
	Topic   string           `yaml:"topic"`
	QoS     int              `yaml:"qos"`
	Retain  bool             `yaml:"retain"`
}

type MQTTBrokerConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	TLS      bool   `yaml:"tls"`
	ClientID string `yaml:"client_id"`
}

type MQTTAuthConfig struct {
	Username string `yaml:"username"`
	Password string `yaml:"password"`
}

// Load reads the YAML file at path over the defaults. An empty path uses the
// defaults alone. Environment overrides are applied before validation.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing config file: %w", err)
		}
	}

	applyEnvOverrides(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}
	return cfg, nil
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
			Output: "stderr",
		},
		Display: DisplayConfig{
			Format: "text",
			Icons:  DefaultIcons(),
		},
		Metrics: MetricsConfig{
			Address: "127.0.0.1:9477",
		},
		MQTT: MQTTConfig{
			Broker: MQTTBrokerConfig{
				Host:     "localhost",
				Port:     1883,
				ClientID: "nmwatch",
			},
			Topic:  "nmwatch/state",
			QoS:    1,
			Retain: true,
		},
	}
}

// DefaultIcons returns the freedesktop symbolic icon names.
func DefaultIcons() IconsConfig {
	return IconsConfig{
		Wired: WiredIcons{
			Connected:    "network-wired-symbolic",
			Disconnected: "network-wired-disconnected-symbolic",
		},
		Wifi: WifiIcons{
			Levels: []string{
				"network-wireless-signal-none-symbolic",
				"network-wireless-signal-weak-symbolic",
				"network-wireless-signal-ok-symbolic",
				"network-wireless-signal-good-symbolic",
				"network-wireless-signal-excellent-symbolic",
			},
			Disconnected: "network-wireless-offline-symbolic",
			Disabled:     "network-wireless-hardware-disabled-symbolic",
		},
		Cellular: CellularIcons{
			Connected:    "network-cellular-connected-symbolic",
			Disconnected: "network-cellular-offline-symbolic",
			Disabled:     "network-cellular-hardware-disabled-symbolic",
		},
		VPN: VPNIcons{
			Connected: "network-vpn-symbolic",
		},
	}
}

func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("NMWATCH_LOG_LEVEL"); v != "" {
		cfg.Logging.Level = v
	}
	if v := os.Getenv("NMWATCH_LOG_FORMAT"); v != "" {
		cfg.Logging.Format = v
	}
	if v := os.Getenv("NMWATCH_METRICS_ADDRESS"); v != "" {
		cfg.Metrics.Address = v
	}
	if v := os.Getenv("NMWATCH_MQTT_HOST"); v != "" {
		cfg.MQTT.Broker.Host = v
	}
	if v := os.Getenv("NMWATCH_MQTT_USERNAME"); v != "" {
		cfg.MQTT.Auth.Username = v
	}
	if v := os.Getenv("NMWATCH_MQTT_PASSWORD"); v != "" {
		cfg.MQTT.Auth.Password = v
	}
}

// Validate checks the configuration for values the program cannot run with.
func (c *Config) Validate() error {
	var errs []error

	switch strings.ToLower(c.Display.Format) {
	case "text", "json":
	default:
		errs = append(errs, fmt.Errorf("display.format must be text or json, got %q", c.Display.Format))
	}
	if len(c.Display.Icons.Wifi.Levels) < 2 {
		errs = append(errs, errors.New("display.icons.wifi.levels needs at least two entries"))
	}
	if c.Metrics.Enabled && c.Metrics.Address == "" {
		errs = append(errs, errors.New("metrics.address is required when metrics are enabled"))
	}
	if c.MQTT.Enabled {
		if c.MQTT.Broker.Host == "" {
			errs = append(errs, errors.New("mqtt.broker.host is required when mqtt is enabled"))
		}
		if c.MQTT.Broker.Port <= 0 || c.MQTT.Broker.Port > 65535 {
			errs = append(errs, fmt.Errorf("mqtt.broker.port out of range: %d", c.MQTT.Broker.Port))
		}
		if c.MQTT.Topic == "" {
			errs = append(errs, errors.New("mqtt.topic is required when mqtt is enabled"))
		}
	}
	if c.MQTT.QoS < 0 || c.MQTT.QoS > 2 {
		errs = append(errs, fmt.Errorf("mqtt.qos must be 0, 1 or 2, got %d", c.MQTT.QoS))
	}

	return errors.Join(errs...)
}
