package config

import (
	"log"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

type Config struct {
	Port string

	DBHost     string
	DBPort     string
	DBUser     string
	DBPassword string
	DBName     string
	DBSSLMode  string

	JWTAccessSecret string

	// ✅ Redis Config
	RedisAddr     string
	RedisPassword string
	RedisDB       int

	// ✅ Event sinks
	KafkaBrokers []string
	KafkaTopic   string
	RabbitMQURL  string
	RabbitQueue  string

	// ✅ FCM Config
	FCMCredentialsPath string
	FCMProjectID       string

	// Temple clock used for slot instants and business dates
	Timezone   string
	TempleName string

	// Slot horizon
	SlotHorizonDays int
	SlotHorizonCron string

	// Settlement
	LossStrategy         string // flat | mean
	FlatAveragePrice     float64
	DefaultTargetRevenue float64

	// Counter shifts, e.g. MORNING=05:00-13:00,EVENING=13:00-22:00
	CounterShifts string

	RateLimitPerMinute int64
	EventBufferSize    int
}

// Load reads environment variables and returns a Config object
func Load() *Config {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file, using environment variables")
	}

	return &Config{
		Port: getEnv("PORT", "8080"),

		DBHost:     os.Getenv("DB_HOST"),
		DBPort:     getEnv("DB_PORT", "5432"),
		DBUser:     os.Getenv("DB_USER"),
		DBPassword: os.Getenv("DB_PASSWORD"),
		DBName:     os.Getenv("DB_NAME"),
		DBSSLMode:  getEnv("DB_SSLMODE", "disable"),

		JWTAccessSecret: os.Getenv("JWT_ACCESS_SECRET"),

		RedisAddr:     os.Getenv("REDIS_ADDR"),
		RedisPassword: os.Getenv("REDIS_PASSWORD"),
		RedisDB:       getInt("REDIS_DB", 0),

		KafkaBrokers: splitList(os.Getenv("KAFKA_BROKERS")),
		KafkaTopic:   getEnv("KAFKA_TOPIC", "seva.booking.events"),
		RabbitMQURL:  os.Getenv("RABBITMQ_URL"),
		RabbitQueue:  getEnv("RABBITMQ_QUEUE", "seva.booking.events"),

		FCMCredentialsPath: os.Getenv("FCM_CREDENTIALS_PATH"),
		FCMProjectID:       os.Getenv("FCM_PROJECT_ID"),

		Timezone:   getEnv("APP_TIMEZONE", "Asia/Kolkata"),
		TempleName: getEnv("TEMPLE_NAME", "Seva Counter"),

		SlotHorizonDays: getInt("SLOT_HORIZON_DAYS", 7),
		SlotHorizonCron: os.Getenv("SLOT_HORIZON_CRON"),

		LossStrategy:         getEnv("SETTLEMENT_LOSS_STRATEGY", "mean"),
		FlatAveragePrice:     getFloat("SETTLEMENT_FLAT_AVERAGE_PRICE", 0),
		DefaultTargetRevenue: getFloat("DEFAULT_TARGET_REVENUE", 0),

		CounterShifts: os.Getenv("COUNTER_SHIFTS"),

		RateLimitPerMinute: int64(getInt("RATE_LIMIT_PER_MINUTE", 100)),
		EventBufferSize:    getInt("EVENT_BUFFER_SIZE", 256),
	}
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		log.Printf("⚠️ Invalid %s=%q, using %d", key, v, fallback)
		return fallback
	}
	return n
}

func getFloat(key string, fallback float64) float64 {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		log.Printf("⚠️ Invalid %s=%q, using %v", key, v, fallback)
		return fallback
	}
	return f
}

func splitList(v string) []string {
	var out []string
	for _, part := range strings.Split(v, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
