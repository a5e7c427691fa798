package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"thaipool/internal/api"
	"thaipool/internal/config"
	"thaipool/internal/lifecycle"
	"thaipool/internal/stream"
)

func main() {
	_ = godotenv.Load()

	if len(os.Args) < 2 {
		fmt.Fprintln(os.Stderr, "usage: watch <order-id>")
		os.Exit(2)
	}
	orderID := os.Args[1]

	cfg, err := config.Load("")
	if err != nil {
		fmt.Fprintf(os.Stderr, "config load failed: %v\n", err)
		os.Exit(1)
	}

	logger, err := zap.NewProduction()
	if err != nil {
		fmt.Fprintf(os.Stderr, "logger init failed: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	orders := api.NewClient(cfg.API.BaseURL, cfg.API.Token)
	streams := stream.NewClient(cfg.API.BaseURL, cfg.API.Token, logger)

	sync := lifecycle.New(orders, streams, logger, lifecycle.Config{
		OrderID:       orderID,
		TickInterval:  time.Duration(cfg.Payment.TickIntervalSeconds) * time.Second,
		PaymentWindow: time.Duration(cfg.Payment.WindowSeconds) * time.Second,
	})

	var lastStatus string
	sync.OnChange(func(snap lifecycle.Snapshot) {
		status := string(snap.Status())
		if status != lastStatus {
			lastStatus = status
			logger.Info("order status", zap.String("order", orderID), zap.String("status", status))
		}
		if snap.RemainingSeconds != nil {
			logger.Debug("countdown",
				zap.Int64("remaining", *snap.RemainingSeconds),
				zap.Float64("percent", snap.Percent),
				zap.Bool("stream", snap.StreamConnected))
		}
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() {
		stop := make(chan os.Signal, 1)
		signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
		<-stop
		cancel()
	}()

	if err := sync.Run(ctx); err != nil {
		logger.Error("synchronizer failed", zap.String("order", orderID), zap.Error(err))
		os.Exit(1)
	}

	snap := sync.Snapshot()
	logger.Info("done", zap.String("order", orderID), zap.String("status", string(snap.Status())))
}
