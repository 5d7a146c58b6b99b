package utils

import (
	"log"
	"time"

	"github.com/segmentio/kafka-go"
	"github.com/sharath018/seva-counter-backend/config"
)

var KafkaWriter *kafka.Writer

// InitializeKafka prepares the booking events writer; no brokers means no writer.
func InitializeKafka(cfg *config.Config) {
	if len(cfg.KafkaBrokers) == 0 {
		log.Println("ℹ️ KAFKA_BROKERS not set, Kafka event sink disabled")
		return
	}

	KafkaWriter = &kafka.Writer{
		Addr:         kafka.TCP(cfg.KafkaBrokers...),
		Topic:        cfg.KafkaTopic,
		Balancer:     &kafka.Hash{},
		RequiredAcks: kafka.RequireAll,
		BatchTimeout: 50 * time.Millisecond,
	}
	log.Printf("✅ Kafka writer ready for topic %s", cfg.KafkaTopic)
}

// CloseKafka flushes and closes the writer
func CloseKafka() {
	if KafkaWriter == nil {
		return
	}
	if err := KafkaWriter.Close(); err != nil {
		log.Printf("⚠️ Kafka writer close error: %v", err)
	}
}
