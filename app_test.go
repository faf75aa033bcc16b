package locationhub

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	gtfsrtpb "github.com/MobilityData/gtfs-realtime-bindings/golang/gtfs"
	"google.golang.org/protobuf/proto"

	"github.com/theoremus-urban-solutions/location-hub/config"
	"github.com/theoremus-urban-solutions/location-hub/geo"
	"github.com/theoremus-urban-solutions/location-hub/permission"
	"github.com/theoremus-urban-solutions/location-hub/tracking"
)

func writeFeed(t *testing.T, path string, lat, lon float32) {
	t.Helper()
	fm := &gtfsrtpb.FeedMessage{
		Header: &gtfsrtpb.FeedHeader{GtfsRealtimeVersion: proto.String("2.0"), Timestamp: proto.Uint64(1)},
		Entity: []*gtfsrtpb.FeedEntity{{
			Id: proto.String("1"),
			Vehicle: &gtfsrtpb.VehiclePosition{
				Vehicle:  &gtfsrtpb.VehicleDescriptor{Id: proto.String("bus-7")},
				Position: &gtfsrtpb.Position{Latitude: proto.Float32(lat), Longitude: proto.Float32(lon)},
			},
		}},
	}
	b, err := proto.Marshal(fm)
	if err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, b, 0o644); err != nil {
		t.Fatal(err)
	}
}

func testConfig(t *testing.T) *config.AppConfig {
	t.Helper()
	feed := filepath.Join(t.TempDir(), "vp.pb")
	writeFeed(t, feed, 41.0, 29.0)

	cfg := config.Default()
	cfg.Server.Port = 0
	cfg.Store.Kind = "memory"
	cfg.Provider.Kind = "gtfsrt"
	cfg.Provider.GTFSRT.VehiclePositionsURL = feed
	cfg.Provider.GTFSRT.VehicleID = "bus-7"
	cfg.Provider.GTFSRT.ReadIntervalMS = 20
	return cfg
}

func waitFor(t *testing.T, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(3 * time.Second)
	for !cond() {
		if time.Now().After(deadline) {
			t.Fatalf("timed out waiting for %s", what)
		}
		time.Sleep(10 * time.Millisecond)
	}
}

func TestBuildTracksFeedVehicle(t *testing.T) {
	ctx := context.Background()
	app, err := Build(ctx, testConfig(t))
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	defer func() { _ = app.Close() }()

	if err := app.Controller.Start(ctx); err != nil {
		t.Fatalf("start: %v", err)
	}
	if app.Controller.Permission() != permission.Authorized {
		t.Errorf("expected feed provider to authorize, got %s", app.Controller.Permission())
	}

	waitFor(t, "first marker", func() bool { return len(app.Controller.Markers(ctx)) > 0 })
	got := app.Controller.Markers(ctx)[0]
	if geo.DistanceMeters(got, geo.New(41.0, 29.0)) > 1 {
		t.Errorf("expected marker near (41, 29), got %v", got)
	}
}

func TestRunStopsOnCancel(t *testing.T) {
	app, err := Build(context.Background(), testConfig(t))
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	defer func() { _ = app.Close() }()

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- app.Run(ctx) }()

	waitFor(t, "tracking", func() bool { return app.Controller.State() == tracking.Tracking })
	cancel()

	select {
	case err := <-done:
		if err != nil {
			t.Errorf("expected clean shutdown, got %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("run did not return after cancel")
	}
}

func TestWithoutAutoStart(t *testing.T) {
	app, err := Build(context.Background(), testConfig(t), WithoutAutoStart())
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	defer func() { _ = app.Close() }()
	if app.autostart {
		t.Error("expected autostart disabled")
	}
}

func TestBuildErrors(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*config.AppConfig)
		want   string
	}{
		{"no provider", func(c *config.AppConfig) { c.Provider.Kind = "" }, "provider.kind"},
		{"unknown store", func(c *config.AppConfig) { c.Store.Kind = "tape" }, "unknown store kind"},
		{"unknown encoding", func(c *config.AppConfig) { c.Store.Encoding = "xml" }, "xml"},
		{"bad accuracy", func(c *config.AppConfig) { c.Tracking.Accuracy = "meh" }, "meh"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := testConfig(t)
			tt.mutate(cfg)
			_, err := Build(context.Background(), cfg)
			if err == nil {
				t.Fatal("expected error")
			}
			if !strings.Contains(err.Error(), tt.want) {
				t.Errorf("expected error containing %q, got %v", tt.want, err)
			}
		})
	}
}
