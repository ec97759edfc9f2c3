// icddeviced is a reference "device" process: it accepts a single TCP
// connection, answers the standard Ping/GetAllSchemas endpoints plus a
// small demo endpoint and topic, and exposes Prometheus metrics over
// HTTP. It plays the role internal/ron's minirouter/miniccc agents play
// for the command-and-control subsystem, adapted to this protocol.
package main

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/urfave/cli"

	"github.com/sandia-minimega/icdrpc/v2/internal/demoicd"
	"github.com/sandia-minimega/icdrpc/v2/pkg/codec"
	"github.com/sandia-minimega/icdrpc/v2/pkg/config"
	"github.com/sandia-minimega/icdrpc/v2/pkg/dispatch"
	"github.com/sandia-minimega/icdrpc/v2/pkg/icd"
	"github.com/sandia-minimega/icdrpc/v2/pkg/minilog"
	"github.com/sandia-minimega/icdrpc/v2/pkg/transport/tcp"
)

func main() {
	app := cli.NewApp()
	app.Name = "icddeviced"
	app.Usage = "reference device-side ICD server"

	cfg := config.DefaultServerConfig()
	var (
		listenAddr  string
		envPath     string
		logLevel    = "info"
		metricsBind string
	)

	app.Flags = []cli.Flag{
		cli.StringFlag{Name: "listen", Value: "127.0.0.1:4114", Destination: &listenAddr, Usage: "address to accept the host connection on"},
		cli.StringFlag{Name: "env", Value: ".env", Destination: &envPath, Usage: "optional dotenv file loaded into the process environment at startup"},
		cli.StringFlag{Name: "log-level", Value: logLevel, Destination: &logLevel, Usage: "debug, info, warn, error, or fatal"},
		cli.IntFlag{Name: "max-in-flight-spawns", Value: cfg.MaxInFlightSpawns, Destination: &cfg.MaxInFlightSpawns},
		cli.StringFlag{Name: "metrics-listen", Value: "127.0.0.1:9114", Destination: &metricsBind, Usage: "address to serve /metrics on"},
	}

	app.Action = func(c *cli.Context) error {
		if err := config.LoadDotEnv(envPath); err != nil {
			return fmt.Errorf("loading env: %w", err)
		}
		level, err := minilogLevel(logLevel)
		if err != nil {
			return err
		}
		if err := minilog.Init(level, true, ""); err != nil {
			return err
		}

		deviceID := uuid.NewString()
		minilog.Info("icddeviced %v starting, listening on %v", deviceID, listenAddr)

		reg := prometheus.NewRegistry()
		go serveMetrics(metricsBind, reg)

		return run(context.Background(), listenAddr, cfg, reg)
	}

	if err := app.Run(os.Args); err != nil {
		minilog.Fatal("%v", err)
	}
}

func minilogLevel(s string) (minilog.Level, error) {
	return minilog.ParseLevel(s)
}

func serveMetrics(addr string, reg *prometheus.Registry) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
	if err := http.ListenAndServe(addr, mux); err != nil {
		minilog.Error("metrics server exited: %v", err)
	}
}

func run(ctx context.Context, listenAddr string, cfg config.ServerConfig, reg *prometheus.Registry) error {
	ln, err := net.Listen("tcp", listenAddr)
	if err != nil {
		return err
	}
	defer ln.Close()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, os.Interrupt, syscall.SIGTERM)

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	go func() {
		<-sig
		minilog.Info("icddeviced: shutting down")
		cancel()
		ln.Close()
	}()

	for {
		nc, err := ln.Accept()
		if err != nil {
			select {
			case <-runCtx.Done():
				return nil
			default:
				minilog.Error("accept: %v", err)
				continue
			}
		}
		go serveConn(runCtx, nc, cfg, reg)
	}
}

// serveConn handles one device connection end to end: handshake, bind
// the demo endpoints/topics, finalize, run the dispatcher, and push a
// heartbeat until the connection drops. Grounded on internal/ron's
// per-client goroutine in Server.handleClient.
func serveConn(ctx context.Context, nc net.Conn, cfg config.ServerConfig, reg *prometheus.Registry) {
	defer nc.Close()

	conn, err := tcp.Accept(nc)
	if err != nil {
		minilog.Error("handshake with %v failed: %v", nc.RemoteAddr(), err)
		return
	}
	defer conn.Close()

	minilog.Info("device connection from %v, peer id %v", nc.RemoteAddr(), conn.PeerID())

	m := &icd.DeviceMap{}
	d := dispatch.New(m, reg)
	d.Spawner = conn
	d.MaxFrame = 1 << 16

	start := time.Now()
	dispatch.Bind(d, demoicd.UptimeEndpoint, func(ctx context.Context, _ struct{}) uint32 {
		return uint32(time.Since(start).Seconds())
	})
	d.Map.Topics = append(d.Map.Topics, demoicd.HeartbeatTopic)
	d.RegisterStandard()

	if !d.Finalize() {
		minilog.Error("device map failed to finalize: key collision even at 8 bytes")
		return
	}

	connCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	go heartbeat(connCtx, d)

	if err := d.Run(connCtx, conn, conn); err != nil {
		minilog.Debug("dispatcher for %v exited: %v", nc.RemoteAddr(), err)
	}
}

// heartbeat mirrors internal/ron's Server.mustHeartbeat loop, pushed on
// heartbeatTopic instead of as a typed Client/Heartbeat gob record. It
// waits for Run to finish negotiating the connection before its first
// publish attempt succeeds.
func heartbeat(ctx context.Context, d *dispatch.Dispatcher) {
	var seq uint32
	t := time.NewTicker(time.Second)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			body, err := codec.Default.Marshal(seq)
			if err != nil {
				continue
			}
			if err := d.Publish(ctx, demoicd.HeartbeatTopic, body); err != nil {
				minilog.Debug("heartbeat: %v", err)
				continue
			}
			seq++
		}
	}
}
