// The notifier consumes ledger events and logs them as a structured audit
// trail. Downstream delivery (email, push, webhooks) plugs into the same
// handler.
package main

import (
	"context"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/earnlift/ledger/internal/ledger/events"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
)

type Config struct {
	KafkaBrokers []string `yaml:"KAFKA_BROKERS"`
	Topic        string   `yaml:"TOPIC"`
	GroupID      string   `yaml:"NOTIFIER_GROUP_ID"`
}

func main() {
	logger, _ := zap.NewProduction()
	defer func(logger *zap.Logger) {
		err := logger.Sync()
		if err != nil {
			logger.Error("failed to sync logger", zap.Error(err))
		}
	}(logger)

	cfg, err := loadConfig()
	if err != nil {
		logger.Fatal("failed to load config", zap.Error(err))
	}
	if cfg.GroupID == "" {
		cfg.GroupID = "ledger-notifier"
	}

	consumer := events.NewConsumer(cfg.KafkaBrokers, cfg.GroupID, cfg.Topic, logger)
	defer consumer.Close()

	consumer.RegisterHandler(func(_ context.Context, event events.Event) error {
		logger.Info("Ledger event",
			zap.String("type", string(event.Type)),
			zap.String("key", string(event.Notification.Key())),
			zap.Int64("amount", event.Notification.Amount),
		)
		return nil
	})

	ctx, cancel := context.WithCancel(context.Background())
	consumer.Start(ctx)

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop
	cancel()
	logger.Info("Notifier stopped properly")
}

func loadConfig() (*Config, error) {
	configPath := os.Getenv("LEDGER_CONFIG")
	if configPath == "" {
		configPath = filepath.Join("internal", "ledger", "config", "config.yaml")
	}
	file, err := os.ReadFile(configPath)
	if err != nil {
		return nil, err
	}
	var cfg Config
	err = yaml.Unmarshal(file, &cfg)
	if err != nil {
		return nil, err
	}
	return &cfg, nil
}
