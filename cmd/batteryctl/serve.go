package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"batterycode-go/bus"
	"batterycode-go/services/config"
	"batterycode-go/services/hal"
	acerbatdev "batterycode-go/services/hal/devices/acerbat"
	"batterycode-go/types"
)

func newServeCmd(e *env) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HAL and export battery metrics for Prometheus",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return serve(ctx, e)
		},
	}
	e.opts.AddServeFlags(cmd.Flags())
	return cmd
}

// halConfigFor builds the single-battery HAL document from the options.
func halConfigFor(o *Options) types.HALConfig {
	return types.HALConfig{
		Devices: []types.HALDevice{{
			ID:   "bat0",
			Type: "acerbat",
			Params: acerbatdev.Params{
				Bus: o.Bus, Addr: o.Addr, Domain: "power", Name: o.Serve.Name,
			},
		}},
		Pollers: []types.PollSpec{{
			Domain: "power", Kind: types.KindBattery, Name: o.Serve.Name,
			Verb: "read", IntervalMs: o.Serve.IntervalMs,
		}},
	}
}

func serve(ctx context.Context, e *env) error {
	log := e.log.Named("serve")

	var raw []byte
	ids := []string{e.opts.Bus}
	if dev := e.opts.Serve.Device; dev != "" {
		var ok bool
		if raw, ok = config.EmbeddedConfigLookup(dev); !ok {
			return errors.New("no embedded config for device: " + dev)
		}
		found, err := deviceBuses(raw)
		if err != nil {
			return err
		}
		if len(found) > 0 {
			ids = found
		}
	}
	buses, closeFn, err := openBuses(ids, e.opts.Hz)
	if err != nil {
		return err
	}
	defer closeFn()

	b := bus.NewBus(16)
	halConn := b.NewConnection("hal")
	cfgConn := b.NewConnection("config")
	expConn := b.NewConnection("exporter")

	go hal.Run(ctx, halConn, buses)

	if raw != nil {
		if err := config.Publish(cfgConn, raw); err != nil {
			return err
		}
	} else {
		cfgConn.Publish(cfgConn.NewMessage(bus.T("config", "hal"), halConfigFor(e.opts), true))
	}

	x := newExporter(log)
	go x.run(ctx, expConn)

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(x.reg, promhttp.HandlerOpts{}))
	srv := &http.Server{Addr: e.opts.Serve.Listen, Handler: mux, ReadHeaderTimeout: 5 * time.Second}

	errCh := make(chan error, 1)
	go func() { errCh <- srv.ListenAndServe() }()
	log.Info("serving", zap.String("listen", e.opts.Serve.Listen), zap.Strings("buses", ids),
		zap.Strings("builders", hal.Builders()))

	select {
	case <-ctx.Done():
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			return err
		}
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
