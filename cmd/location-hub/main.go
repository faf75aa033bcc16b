// location-hub tracks a device through an MQTT broker or a GTFS-Realtime
// feed, keeps its visited markers and active route in a persistent cache,
// and serves the result over HTTP.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/pflag"

	locationhub "github.com/theoremus-urban-solutions/location-hub"
	"github.com/theoremus-urban-solutions/location-hub/config"
	"github.com/theoremus-urban-solutions/location-hub/internal"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	var configPath string
	var port int
	var noAutostart bool

	flagSet := pflag.NewFlagSet("location-hub", pflag.ContinueOnError)
	flagSet.StringVarP(&configPath, "config", "c", "", "path to config.yml (default: config.yml, ./config/config.yml)")
	flagSet.IntVarP(&port, "port", "p", 0, "HTTP port (overrides config)")
	flagSet.BoolVar(&noAutostart, "no-autostart", false, "wait for POST /api/tracking/start before tracking")

	if err := flagSet.Parse(os.Args[1:]); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return nil
		}
		return err
	}

	internal.InitLogging()

	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	if port > 0 {
		cfg.Server.Port = port
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var opts []locationhub.Option
	if noAutostart {
		opts = append(opts, locationhub.WithoutAutoStart())
	}
	app, err := locationhub.Build(ctx, cfg, opts...)
	if err != nil {
		return err
	}
	runErr := app.Run(ctx)
	return errors.Join(runErr, app.Close())
}
