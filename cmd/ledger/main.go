package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/earnlift/ledger/internal/ledger/auth"
	"github.com/earnlift/ledger/internal/ledger/controller"
	"github.com/earnlift/ledger/internal/ledger/db"
	"github.com/earnlift/ledger/internal/ledger/events"
	"github.com/earnlift/ledger/internal/ledger/handlers"
	"github.com/earnlift/ledger/internal/ledger/models"
	"github.com/earnlift/ledger/internal/ledger/payout"
	"github.com/earnlift/ledger/internal/ledger/receipts"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
)

// Config struct for YAML configuration
type Config struct {
	HTTPPort       int      `yaml:"HTTP_PORT"`
	DBHost         string   `yaml:"DB_HOST"`
	DBPort         int      `yaml:"DB_PORT"`
	DBUser         string   `yaml:"DB_USER"`
	DBPassword     string   `yaml:"DB_PASSWORD"`
	DBName         string   `yaml:"DB_NAME"`
	DBSSLMode      string   `yaml:"DB_SSLMODE"`
	KafkaBrokers   []string `yaml:"KAFKA_BROKERS"`
	Topic          string   `yaml:"TOPIC"`
	JWTSecret      string   `yaml:"JWT_SECRET"`
	PayoutEndpoint string   `yaml:"PAYOUT_ENDPOINT"`
	BootstrapAdmin string   `yaml:"BOOTSTRAP_ADMIN"`
}

func main() {
	logger := initLogger()
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

	repo, err := db.NewRepository(initDatabase(cfg))
	if err != nil {
		log.Fatal("failed to initialize database", err)
	}
	defer repo.Close()

	producer, err := events.NewProducer(cfg.KafkaBrokers, logger, cfg.Topic)
	if err != nil {
		log.Fatal("failed to initialize Kafka producer", err)
	}
	defer producer.Close()

	access := auth.NewService(repo, logger)
	if err := access.Bootstrap(context.Background(), models.Identity(cfg.BootstrapAdmin)); err != nil {
		logger.Fatal("failed to bootstrap admin", zap.Error(err))
	}

	gateway := payout.NewHTTPGateway(cfg.PayoutEndpoint, logger)
	ledgerSvc := controller.NewService(repo, producer, access, gateway, receipts.NewLedger(), logger)

	handler := handlers.NewLedgerHandler(ledgerSvc, access, logger)
	server := handlers.NewServer(cfg.HTTPPort, cfg.JWTSecret, handler, logger)

	if err := server.Start(); err != nil {
		logger.Fatal("Failed to start server", zap.Error(err))
	}

	waitForShutdown(server, logger)
}

// initLogger initializes a Zap production logger.
func initLogger() *zap.Logger {
	logger, _ := zap.NewProduction()
	return logger
}

// loadConfig loads configuration from the YAML file; LEDGER_CONFIG
// overrides the default path.
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

// initDatabase initializes the database connection settings.
func initDatabase(cfg *Config) *db.Config {
	return &db.Config{
		Host:     cfg.DBHost,
		Port:     cfg.DBPort,
		User:     cfg.DBUser,
		Password: cfg.DBPassword,
		DBName:   cfg.DBName,
		SSLMode:  cfg.DBSSLMode,
	}
}

// waitForShutdown blocks until an interrupt or SIGTERM is received, then shuts down the server.
func waitForShutdown(server *handlers.Server, logger *zap.Logger) {
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop

	server.Stop()
	logger.Info("Server stopped properly")
}
