package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/twmb/franz-go/pkg/kgo"

	"github.com/avasilenko/vending-machine/internal/config"
	httphandler "github.com/avasilenko/vending-machine/internal/delivery/http"
	"github.com/avasilenko/vending-machine/internal/delivery/kafka"
	"github.com/avasilenko/vending-machine/internal/repository"
	"github.com/avasilenko/vending-machine/internal/usecase"
)

func main() {
	cfg := config.Load()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var stock usecase.StockStore
	var pool *pgxpool.Pool
	var err error

	if cfg.StockBackend == "postgres" {
		pool, err = initDB(cfg)
		if err != nil {
			log.Fatalf("Failed to connect to database: %v", err)
		}
		defer pool.Close()

		if err := repository.RunMigrations(pool, "db/migrations"); err != nil {
			log.Fatalf("Failed to run migrations: %v", err)
		}
		stock = repository.NewPostgresStore(pool)
	} else {
		stock = repository.NewXMLStore(cfg.StockFilePath)
	}

	supplement := repository.NewXMLStore(cfg.AddStockFilePath)

	events := kafka.NewNoopPublisher()
	var kafkaClient *kgo.Client

	if cfg.TelemetryEnabled == "true" {
		kafkaClient, err = kgo.NewClient(
			kgo.SeedBrokers(strings.Split(cfg.KafkaBrokers, ",")...),
			kgo.ClientID(cfg.KafkaClientID),
		)
		if err != nil {
			log.Fatalf("Failed to create kafka client: %v", err)
		}

		if err := kafka.EnsureTopics(ctx, kafkaClient, cfg); err != nil {
			log.Printf("Warning: failed to ensure topics: %v", err)
		}
		events = kafka.NewPublisher(kafkaClient)
	}

	machine := usecase.NewMachine(stock, supplement, events)

	// The machine powers on with whatever the stock source holds, the
	// same way the console-era machine restocked on boot.
	if err := machine.Restock(ctx); err != nil {
		log.Printf("Warning: initial restock failed, machine is empty: %v", err)
	}

	handler := httphandler.NewHandler(machine)

	r := chi.NewRouter()
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})

	handler.Routes(r)

	srv := &http.Server{
		Addr:    ":" + cfg.AppPort,
		Handler: r,
	}

	go func() {
		log.Printf("Starting server on port %s", cfg.AppPort)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Printf("Server failed: %v", err)
		}
	}()

	<-ctx.Done()
	log.Println("Shutting down...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := machine.SaveStock(shutdownCtx); err != nil {
		log.Printf("Failed to save stock on shutdown: %v", err)
	}

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("HTTP shutdown error: %v", err)
	}

	if kafkaClient != nil {
		kafkaClient.Close()
	}

	log.Println("Shutdown complete")
}

func initDB(cfg *config.Config) (*pgxpool.Pool, error) {
	connStr := fmt.Sprintf(
		"postgresql://%s:%s@%s:%s/%s?sslmode=%s",
		cfg.DBUser,
		cfg.DBPassword,
		cfg.DBHost,
		cfg.DBPort,
		cfg.DBName,
		cfg.DBSSLMode,
	)

	pool, err := pgxpool.New(context.Background(), connStr)
	if err != nil {
		return nil, fmt.Errorf("unable to create connection pool: %w", err)
	}

	if err := pool.Ping(context.Background()); err != nil {
		pool.Close()
		return nil, fmt.Errorf("unable to ping database: %w", err)
	}

	return pool, nil
}
