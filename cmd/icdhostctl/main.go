// icdhostctl is a reference host-side CLI: it dials an icddeviced
// instance, pings it, calls its uptime endpoint once, then prints every
// heartbeat message until interrupted. It plays the role cmd/rond plays
// for ron's Server, adapted from minicli command dispatch to direct
// typed calls against pkg/hostmux.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/urfave/cli"

	"github.com/sandia-minimega/icdrpc/v2/internal/demoicd"
	"github.com/sandia-minimega/icdrpc/v2/pkg/codec"
	"github.com/sandia-minimega/icdrpc/v2/pkg/config"
	"github.com/sandia-minimega/icdrpc/v2/pkg/hostmux"
	"github.com/sandia-minimega/icdrpc/v2/pkg/icd"
	"github.com/sandia-minimega/icdrpc/v2/pkg/minilog"
	"github.com/sandia-minimega/icdrpc/v2/pkg/transport/tcp"
)

func main() {
	app := cli.NewApp()
	app.Name = "icdhostctl"
	app.Usage = "reference host-side ICD client"

	cfg := config.DefaultHostClientConfig()
	var (
		dialAddr string
		envPath  string
		logLevel = "info"
	)

	flags := config.HostClientFlags(&cfg)
	app.Flags = append([]cli.Flag{
		cli.StringFlag{Name: "dial", Value: "127.0.0.1:4114", Destination: &dialAddr, Usage: "address to connect to icddeviced on"},
		cli.StringFlag{Name: "env", Value: ".env", Destination: &envPath, Usage: "optional dotenv file loaded into the process environment at startup"},
		cli.StringFlag{Name: "log-level", Value: logLevel, Destination: &logLevel, Usage: "debug, info, warn, error, or fatal"},
	}, flags...)

	app.Action = func(c *cli.Context) error {
		if err := config.LoadDotEnv(envPath); err != nil {
			return fmt.Errorf("loading env: %w", err)
		}
		level, err := minilog.ParseLevel(logLevel)
		if err != nil {
			return err
		}
		if err := minilog.Init(level, true, ""); err != nil {
			return err
		}
		return run(dialAddr, cfg)
	}

	if err := app.Run(os.Args); err != nil {
		minilog.Fatal("%v", err)
	}
}

func run(dialAddr string, cfg config.HostClientConfig) error {
	dialCtx, cancelDial := context.WithTimeout(context.Background(), 10*time.Second)
	conn, err := tcp.Dial(dialCtx, dialAddr)
	cancelDial()
	if err != nil {
		return fmt.Errorf("dial %v: %w", dialAddr, err)
	}
	defer conn.Close()
	minilog.Info("connected to %v, device id %v", dialAddr, conn.PeerID())

	hc := hostmux.NewHostClient(conn, conn, cfg)

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, os.Interrupt, syscall.SIGTERM)

	runCtx, cancel := context.WithCancel(context.Background())
	defer cancel()

	runErr := make(chan error, 1)
	go func() { runErr <- hc.Run(runCtx) }()

	pingCtx, cancelPing := context.WithTimeout(context.Background(), 5*time.Second)
	pong, err := hostmux.Call[uint32, uint32](pingCtx, hc, icd.PingEndpoint, 1)
	cancelPing()
	if err != nil {
		cancel()
		return fmt.Errorf("ping: %w", err)
	}
	minilog.Info("ping reply: %v", pong)

	upCtx, cancelUp := context.WithTimeout(context.Background(), 5*time.Second)
	uptime, err := hostmux.Call[struct{}, uint32](upCtx, hc, demoicd.UptimeEndpoint, struct{}{})
	cancelUp()
	if err != nil {
		minilog.Error("uptime: %v", err)
	} else {
		minilog.Info("device uptime: %vs", uptime)
	}

	sub := hc.SubscribeMulti(demoicd.HeartbeatTopic, 8)

	minilog.Info("listening for heartbeats, ctrl-c to exit")
	for {
		select {
		case <-sig:
			minilog.Info("icdhostctl: shutting down")
			cancel()
			<-runErr
			return nil
		case err := <-runErr:
			return err
		case body, ok := <-sub.C():
			if !ok {
				return nil
			}
			var seq uint32
			if err := codec.Default.Unmarshal(body, &seq); err != nil {
				minilog.Debug("bad heartbeat payload: %v", err)
				continue
			}
			minilog.Info("heartbeat %v", seq)
		}
	}
}
