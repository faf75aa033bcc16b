package config

// ServerConfig contains HTTP server configuration
type ServerConfig struct {
	Port int `yaml:"port" validate:"gte=0,lte=65535"`
}

// TrackingConfig tunes the location source
type TrackingConfig struct {
	MinMovementMeters float64 `yaml:"minMovementMeters" validate:"gte=0"`
	// Accuracy is a hint: best|nearestTenMeters|hundredMeters|kilometer|threeKilometers
	Accuracy string `yaml:"accuracy" validate:"omitempty,oneof=best nearestTenMeters hundredMeters kilometer threeKilometers"`
	// RouteTimeoutMS bounds one route computation
	RouteTimeoutMS int `yaml:"routeTimeoutMS" validate:"gte=0"`
}

// MQTTConfig configures the MQTT location provider
type MQTTConfig struct {
	Broker   string `yaml:"broker" validate:"omitempty,url"`
	ClientID string `yaml:"clientID"`
	Topic    string `yaml:"topic"`
	QoS      int    `yaml:"qos" validate:"gte=0,lte=2"`
}

// GTFSRTConfig configures the GTFS-Realtime location provider
type GTFSRTConfig struct {
	VehiclePositionsURL string `yaml:"vehiclePositionsURL"`
	VehicleID           string `yaml:"vehicleID"`
	ReadIntervalMS      int    `yaml:"readIntervalMS" validate:"gte=0"`
	TimeoutMS           int    `yaml:"timeoutMS" validate:"gte=0"`
}

// ProviderConfig selects and configures the location provider
type ProviderConfig struct {
	Kind   string       `yaml:"kind" validate:"omitempty,oneof=mqtt gtfsrt"`
	MQTT   MQTTConfig   `yaml:"mqtt"`
	GTFSRT GTFSRTConfig `yaml:"gtfsrt"`
}

// DynamoDBConfig configures the DynamoDB store
type DynamoDBConfig struct {
	Table    string `yaml:"table"`
	Region   string `yaml:"region"`
	Endpoint string `yaml:"endpoint" validate:"omitempty,url"`
}

// StoreConfig selects the persistence backend
type StoreConfig struct {
	Kind     string         `yaml:"kind" validate:"omitempty,oneof=memory file dynamodb"`
	Dir      string         `yaml:"dir"`
	Encoding string         `yaml:"encoding" validate:"omitempty,oneof=json cbor"`
	DynamoDB DynamoDBConfig `yaml:"dynamodb"`
}

// RoutingConfig selects the route provider
type RoutingConfig struct {
	Kind      string  `yaml:"kind" validate:"omitempty,oneof=straight osrm"`
	BaseURL   string  `yaml:"baseURL" validate:"omitempty,url"`
	Profile   string  `yaml:"profile"`
	TimeoutMS int     `yaml:"timeoutMS" validate:"gte=0"`
	SpeedKMH  float64 `yaml:"speedKMH" validate:"gte=0"`
}

// AMQPConfig configures the RabbitMQ relay. An empty URL disables it.
type AMQPConfig struct {
	URL      string `yaml:"url"`
	Exchange string `yaml:"exchange"`
}

// RelayConfig contains downstream relays
type RelayConfig struct {
	AMQP AMQPConfig `yaml:"amqp"`
}

// AppConfig is the root configuration structure
type AppConfig struct {
	Server   ServerConfig   `yaml:"server"`
	Tracking TrackingConfig `yaml:"tracking"`
	Provider ProviderConfig `yaml:"provider"`
	Store    StoreConfig    `yaml:"store"`
	Routing  RoutingConfig  `yaml:"routing"`
	Relay    RelayConfig    `yaml:"relay"`
}
