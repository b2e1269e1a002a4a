// Command booking-events tails the booking lifecycle topics and logs each event.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"ms-booking/internal/config"
	"ms-booking/internal/kafka"
	"ms-booking/internal/logger"
	"ms-booking/internal/models"

	"github.com/joho/godotenv"
)

func main() {
	group := flag.String("group", "booking-events-tail", "consumer group id")
	flag.Parse()

	_ = godotenv.Load()
	cfg := config.Load()
	log := logger.NewWriterLogger(os.Stdout)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	topics := cfg.Kafka.Topics.All()
	consumer := kafka.NewConsumer(cfg.Kafka.Brokers, topics, *group, log)
	defer consumer.Close()

	log.Info("KAFKA", fmt.Sprintf("Tailing %s on %s", strings.Join(topics, ", "), strings.Join(cfg.Kafka.Brokers, ",")))
	err := consumer.Run(ctx, func(topic string, ev models.BookingEvent) {
		log.LogKafka("CONSUME", topic, fmt.Sprintf("%s %s seats=%v amount=%s", ev.BookingID, ev.Status, ev.SeatIDs, ev.Amount.String()))
	})
	if err != nil {
		log.Fatal("KAFKA", err.Error())
	}
}
