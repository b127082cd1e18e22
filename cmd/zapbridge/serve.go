package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"zapbridge/internal/api"
	"zapbridge/internal/bus"
	"zapbridge/internal/metrics"
	"zapbridge/internal/relay"
	"zapbridge/internal/session"
	"zapbridge/internal/store"
	"zapbridge/internal/wa"

	"github.com/spf13/cobra"
)

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the bridge (WhatsApp client + HTTP API)",
		Long:  "Connects the WhatsApp session (pairing on first run), consumes inbound messages into the log and serves the HTTP API. Press Ctrl+C to stop.",
		RunE:  runServe,
	}
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg := loadConfig()

	logger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: logLevel(cfg.General.LogLevel),
	}))

	for _, path := range []string{cfg.Store.SQLitePath, cfg.WhatsApp.SessionPath} {
		if dir := filepath.Dir(path); dir != "" && dir != "." {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return err
			}
		}
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	messageStore, err := store.Open(ctx, cfg.Store, logger)
	if err != nil {
		return err
	}
	defer messageStore.Close()

	queue := bus.NewQueue(cfg.General.QueueSize, logger)
	defer queue.Close()
	events := bus.NewEventBus(logger)

	tracker := session.NewTracker(logger)
	tracker.Bind(events)
	bindMetrics(events)

	client, err := wa.NewClient(ctx, cfg.WhatsApp, cfg.General.OperatorPhone, queue, events, logger)
	if err != nil {
		return err
	}
	defer client.Close()

	mapper := relay.NewMapper(relay.MapperConfig{
		Store:    messageStore,
		Events:   events,
		Operator: client.OperatorPhone,
		Logger:   logger,
	})
	go mapper.Run(ctx, queue.Subscribe())

	go func() {
		if err := client.Connect(ctx); err != nil {
			logger.Error("whatsapp connection failed", "err", err)
		}
	}()

	sender := relay.NewSender(relay.SenderConfig{
		Store:     messageStore,
		Transport: client,
		Events:    events,
		Operator:  client.OperatorPhone,
		Logger:    logger,
	})

	server := api.NewServer(api.ServerConfig{
		HTTP:     cfg.HTTP,
		Store:    messageStore,
		Sender:   sender,
		Tracker:  tracker,
		Operator: client.OperatorPhone,
		Metrics:  cfg.Metrics,
		Logger:   logger,
	})
	return server.Start(ctx)
}

// bindMetrics keeps the counters in step with lifecycle events.
func bindMetrics(events *bus.EventBus) {
	events.On(bus.EventMessageStored, func(bus.Event) { metrics.MessagesStored.Inc() })
	events.On(bus.EventMessageSent, func(bus.Event) { metrics.MessagesSent.Inc() })
	events.On(bus.EventSendFailed, func(bus.Event) { metrics.SendFailures.Inc() })
	events.On(bus.EventSessionQR, func(bus.Event) { metrics.PairingAttempts.Inc() })
	events.On(bus.EventSessionConnected, func(bus.Event) { metrics.SessionUp.Set(1) })
	events.On(bus.EventSessionDisconnected, func(bus.Event) { metrics.SessionUp.Set(0) })
}
