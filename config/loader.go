package config

import (
	"errors"
	"fmt"
	"os"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

// ErrNoConfig is returned when none of the candidate paths exist
var ErrNoConfig = errors.New("config: no configuration file found")

// DefaultPaths are tried in order when Load is given no path
var DefaultPaths = []string{"config.yml", "./config/config.yml"}

// Defaults
const (
	DefaultPort              = 16181
	DefaultMinMovementMeters = 100
	DefaultStoreDir          = "./data"
	DefaultMQTTTopic         = "location"
	DefaultMQTTClientID      = "location-hub"
)

// Load reads, validates and completes the configuration at path, or at the
// first of DefaultPaths that exists when path is empty.
func Load(path string) (*AppConfig, error) {
	data, err := read(path)
	if err != nil {
		return nil, err
	}
	return Parse(data)
}

func read(path string) ([]byte, error) {
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
		return data, nil
	}
	for _, p := range DefaultPaths {
		data, err := os.ReadFile(p)
		if err == nil {
			return data, nil
		}
	}
	return nil, ErrNoConfig
}

// Parse decodes YAML data and validates it
func Parse(data []byte) (*AppConfig, error) {
	var cfg AppConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	cfg.ApplyDefaults()
	return &cfg, nil
}

// Default returns a configuration with every default applied
func Default() *AppConfig {
	var cfg AppConfig
	cfg.ApplyDefaults()
	return &cfg
}

// Validate checks struct tags, then the sections required by each selected kind
func (c *AppConfig) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	switch c.Provider.Kind {
	case "mqtt":
		if c.Provider.MQTT.Broker == "" {
			return errors.New("invalid config: provider.mqtt.broker is required")
		}
	case "gtfsrt":
		if c.Provider.GTFSRT.VehiclePositionsURL == "" || c.Provider.GTFSRT.VehicleID == "" {
			return errors.New("invalid config: provider.gtfsrt needs vehiclePositionsURL and vehicleID")
		}
	}
	if c.Store.Kind == "dynamodb" && c.Store.DynamoDB.Table == "" {
		return errors.New("invalid config: store.dynamodb.table is required")
	}
	if c.Routing.Kind == "osrm" && c.Routing.BaseURL == "" {
		return errors.New("invalid config: routing.baseURL is required for osrm")
	}
	return nil
}

// ApplyDefaults fills zero values
func (c *AppConfig) ApplyDefaults() {
	if c.Server.Port == 0 {
		c.Server.Port = DefaultPort
	}
	if c.Tracking.MinMovementMeters == 0 {
		c.Tracking.MinMovementMeters = DefaultMinMovementMeters
	}
	if c.Provider.MQTT.Topic == "" {
		c.Provider.MQTT.Topic = DefaultMQTTTopic
	}
	if c.Provider.MQTT.ClientID == "" {
		c.Provider.MQTT.ClientID = DefaultMQTTClientID
	}
	if c.Store.Kind == "" {
		c.Store.Kind = "file"
	}
	if c.Store.Dir == "" {
		c.Store.Dir = DefaultStoreDir
	}
	if c.Store.Encoding == "" {
		c.Store.Encoding = "json"
	}
	if c.Routing.Kind == "" {
		c.Routing.Kind = "straight"
	}
}
