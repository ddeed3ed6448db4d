package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"

	"github.com/Gokul221/mindfulhaven-app/internal/events"
)

type notifierConfig struct {
	RabbitURL string `envconfig:"RABBIT_URL" required:"true"`
	Exchange  string `envconfig:"EVENTS_EXCHANGE" default:"studio.events"`
	Queue     string `envconfig:"NOTIFIER_QUEUE" default:"studio.notifier"`
	Prefetch  int    `envconfig:"NOTIFIER_PREFETCH" default:"8"`
}

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found")
	}

	var cfg notifierConfig
	if err := envconfig.Process("", &cfg); err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	consumer, err := events.NewConsumer(events.ConsumerConfig{
		URL:      cfg.RabbitURL,
		Exchange: cfg.Exchange,
		Queue:    cfg.Queue,
		Bindings: []string{"booking.*", "payment.*"},
		Prefetch: cfg.Prefetch,
		Tag:      "notifier",
	})
	if err != nil {
		log.Fatalf("Failed to start consumer: %v", err)
	}
	defer consumer.Close()

	log.Printf("[notify] consuming %s from exchange %s", cfg.Queue, cfg.Exchange)
	if err := consumer.Run(ctx, notify(log.Default())); err != nil {
		log.Fatalf("Consumer stopped: %v", err)
	}
	log.Println("[notify] stopped")
}

// notify logs one line per event. Unknown event types are acknowledged so
// they do not clog the queue.
func notify(logger *log.Logger) events.Handler {
	return func(_ context.Context, env events.Envelope) error {
		title, message, ok, err := events.Describe(env)
		if err != nil {
			return err
		}
		if !ok {
			logger.Printf("[notify] skip unknown event type=%s id=%s", env.Type, env.ID)
			return nil
		}
		logger.Printf("[notify] user=%d %s: %s", env.UserID, title, message)
		return nil
	}
}
