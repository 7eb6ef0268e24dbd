package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/denwilliams/blink1-mqtt/internal/blink1"
	"github.com/denwilliams/blink1-mqtt/internal/bridge"
	"github.com/denwilliams/blink1-mqtt/internal/config"
	"github.com/denwilliams/blink1-mqtt/internal/logging"
	"github.com/denwilliams/blink1-mqtt/internal/mqtt"
	"github.com/denwilliams/blink1-mqtt/internal/web"
	"github.com/joho/godotenv"
	"github.com/spf13/pflag"
)

var (
	Version    = "unknown"
	CommitHash = ""
)

func init() {
	logging.Init(os.Stderr, logging.DefaultFlags)
	logging.Info("Loading .env file")
	if err := godotenv.Load(".env"); err != nil {
		logging.Debug("Unable to load .env: %s", err)
	}
}

func main() {
	os.Exit(run())
}

func run() int {
	cfg, err := config.Load(os.Args, os.Stdout)
	if err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return 0
		}
		logging.Error("%s", err)
		return 1
	}

	if cfg.ShowVersion {
		fmt.Println(Version)
		if CommitHash != "" {
			fmt.Println(CommitHash)
		}
		return 0
	}

	logging.SetLevel(cfg.LogLevel)

	// A missing light is not a fault of the bridge.
	device, err := blink1.Open()
	if err != nil {
		fmt.Println("unable to find device")
		logging.Debug("%s", err)
		return 0
	}
	defer device.Close()

	broker, err := cfg.Validate()
	if err != nil {
		logging.Error("%s", err)
		return 1
	}

	mc, err := mqtt.NewMQTTClient(mqtt.Options{
		Broker:       broker,
		ClientID:     cfg.ClientID,
		CleanSession: cfg.CleanSession,
		CommandTopic: cfg.CommandTopic,
		KeepAlive:    mqtt.DefaultKeepAlive,
	})
	if err != nil {
		logging.Error("%s", err)
		return 1
	}

	info, err := mc.Connect()
	if err != nil {
		logging.Error("Error connecting to the broker: %s", err)
		mc.Shutdown()
		return 1
	}
	logging.Info("Connected to %s (session present: %t)", info.Broker, info.SessionPresent)

	if cfg.Port > 0 {
		go startServer(cfg.Port, mc.IsConnected)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	status := mqtt.NewStatusPublisher(mc, cfg.StatusTopic)
	loop := bridge.NewLoop(mc, device, status, cfg.Reconnect.Attempts, cfg.Reconnect.Interval)

	logging.Info("Ready, waiting for commands on %s", cfg.CommandTopic)

	err = loop.Run(ctx)
	mc.Shutdown()
	if err != nil {
		logging.Error("Terminating: %s", err)
		return 1
	}

	logging.Info("Terminating")
	return 0
}

func startServer(port int, healthy web.HealthFunc) {
	logging.Info("Creating HTTP server")
	server := http.Server{
		Addr:              fmt.Sprintf(":%d", port),
		Handler:           web.CreateHandler(healthy),
		ReadHeaderTimeout: 10 * time.Second,
	}
	logging.Info("Starting HTTP server on port %d", port)
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logging.Error("error running http server: %s", err)
	}
}
