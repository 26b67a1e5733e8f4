// Command beanwire-server hosts the component-invocation and naming
// servers over HTTP, plus a Prometheus metrics endpoint.
//
// Usage:
//
//	beanwire-server serve --addr :8080
package main

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"

	"github.com/beanwire/beanwire/beanserver"
	"github.com/beanwire/beanwire/config"
	"github.com/beanwire/beanwire/namingserver"
	"github.com/beanwire/beanwire/objectstream"
	"github.com/beanwire/beanwire/objectstream/gob"
	"github.com/beanwire/beanwire/observability"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "beanwire-server",
		Short: "beanwire component-invocation and naming server",
	}
	root.AddCommand(newServeCmd())
	return root
}

func newServeCmd() *cobra.Command {
	var addr string
	var metricsAddr string
	var collectorEndpoint string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "run the ejb and naming servers",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(addr, metricsAddr, collectorEndpoint)
		},
	}
	cmd.Flags().StringVar(&addr, "addr", ":8080", "address the ejb+naming servers listen on")
	cmd.Flags().StringVar(&metricsAddr, "metrics-addr", ":9090", "address the Prometheus metrics endpoint listens on")
	cmd.Flags().StringVar(&collectorEndpoint, "otlp-endpoint", "", "OTLP/HTTP collector endpoint; tracing disabled when empty")
	return cmd
}

func runServe(addr, metricsAddr, collectorEndpoint string) error {
	logger := observability.NewZerologLogger("beanwire-server")
	_ = config.DefaultConfig() // loads env-var overrides spec.md §6 declares

	if collectorEndpoint != "" {
		shutdown, err := observability.InitTracer("beanwire-server", collectorEndpoint)
		if err != nil {
			return fmt.Errorf("init tracer: %w", err)
		}
		defer shutdown(context.Background())
	}

	registry := gob.NewDefaultRegistry()
	streams := func(rw io.ReadWriter, filter objectstream.ClassFilter) objectstream.Stream {
		return gob.New(rw, registry, filter)
	}

	beanSrv := beanserver.New(beanserver.Options{
		Dispatcher: newDemoBeanDispatcher(),
		Streams:    beanserver.StreamFactory(streams),
		Logger:     logger,
	})
	namingSrv := namingserver.New(namingserver.Options{
		Dispatcher: newDemoNamingDispatcher(),
		Streams:    namingserver.StreamFactory(streams),
		Logger:     logger,
	})

	mux := http.NewServeMux()
	mux.Handle("/ejb/", beanSrv.Handler())
	mux.Handle("/naming/", namingSrv.Handler())

	httpSrv := &http.Server{Addr: addr, Handler: mux}

	metricsMux := http.NewServeMux()
	metricsMux.Handle("/metrics", promhttp.Handler())
	metricsSrv := &http.Server{Addr: metricsAddr, Handler: metricsMux}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	errCh := make(chan error, 2)
	go func() { errCh <- httpSrv.ListenAndServe() }()
	go func() { errCh <- metricsSrv.ListenAndServe() }()

	logger.Info("beanwire_server_ready", "addr", addr, "metrics_addr", metricsAddr)

	select {
	case sig := <-sigCh:
		logger.Info("shutdown_signal_received", "signal", sig.String())
	case err := <-errCh:
		if err != nil && err != http.ErrServerClosed {
			return err
		}
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	_ = httpSrv.Shutdown(ctx)
	_ = metricsSrv.Shutdown(ctx)
	logger.Info("beanwire_server_stopped")
	return nil
}
