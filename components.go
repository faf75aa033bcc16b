package locationhub

import (
	"context"
	"fmt"
	"time"

	"github.com/theoremus-urban-solutions/location-hub/config"
	"github.com/theoremus-urban-solutions/location-hub/provider/gtfsrt"
	"github.com/theoremus-urban-solutions/location-hub/provider/mqtt"
	"github.com/theoremus-urban-solutions/location-hub/routing"
	"github.com/theoremus-urban-solutions/location-hub/source"
	"github.com/theoremus-urban-solutions/location-hub/store"
	"github.com/theoremus-urban-solutions/location-hub/store/dynamo"
)

func newStore(ctx context.Context, cfg config.StoreConfig) (store.Store, error) {
	switch cfg.Kind {
	case "memory":
		return store.NewMemory(), nil
	case "", "file":
		return store.NewFile(cfg.Dir)
	case "dynamodb":
		return dynamo.NewFromRegion(ctx, cfg.DynamoDB.Table, cfg.DynamoDB.Region, cfg.DynamoDB.Endpoint)
	}
	return nil, fmt.Errorf("unknown store kind %q", cfg.Kind)
}

func newRouter(cfg config.RoutingConfig) routing.Router {
	if cfg.Kind == "osrm" {
		return routing.NewOSRM(cfg.BaseURL, cfg.Profile, time.Duration(cfg.TimeoutMS)*time.Millisecond)
	}
	return routing.StraightLine{SpeedKMH: cfg.SpeedKMH}
}

// newProvider returns the configured provider and a func releasing it
func newProvider(cfg config.ProviderConfig) (source.Provider, func() error, error) {
	switch cfg.Kind {
	case "mqtt":
		client, err := mqtt.Dial(cfg.MQTT.Broker, cfg.MQTT.ClientID)
		if err != nil {
			return nil, nil, err
		}
		p, err := mqtt.New(client, cfg.MQTT.Topic, byte(cfg.MQTT.QoS))
		if err != nil {
			client.Disconnect(250)
			return nil, nil, err
		}
		return p, func() error {
			client.Disconnect(250)
			return nil
		}, nil
	case "gtfsrt":
		p, err := gtfsrt.New(gtfsrt.Options{
			FeedURL:      cfg.GTFSRT.VehiclePositionsURL,
			VehicleID:    cfg.GTFSRT.VehicleID,
			ReadInterval: time.Duration(cfg.GTFSRT.ReadIntervalMS) * time.Millisecond,
			Timeout:      time.Duration(cfg.GTFSRT.TimeoutMS) * time.Millisecond,
		})
		if err != nil {
			return nil, nil, err
		}
		return p, p.Close, nil
	case "":
		return nil, nil, fmt.Errorf("provider.kind is required")
	}
	return nil, nil, fmt.Errorf("unknown provider kind %q", cfg.Kind)
}
