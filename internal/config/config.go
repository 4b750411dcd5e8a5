package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

var ErrConfiguration = errors.New("configuration error")

// Moderation 举报阈值：达到 Suspend 暂停，达到 Remove 下架
type Moderation struct {
	SuspendThreshold int
	RemoveThreshold  int
}

func DefaultModeration() Moderation {
	return Moderation{SuspendThreshold: 2, RemoveThreshold: 4}
}

func (m Moderation) Validate() error {
	if m.SuspendThreshold <= 0 || m.RemoveThreshold <= 0 {
		return fmt.Errorf("%w: report thresholds must be positive (suspend=%d, remove=%d)",
			ErrConfiguration, m.SuspendThreshold, m.RemoveThreshold)
	}
	if m.RemoveThreshold <= m.SuspendThreshold {
		return fmt.Errorf("%w: remove threshold %d must be greater than suspend threshold %d",
			ErrConfiguration, m.RemoveThreshold, m.SuspendThreshold)
	}
	return nil
}

type Config struct {
	AppEnv   string
	HTTPAddr string
	Storage  string // mysql | memory

	MySQLDSN string

	RedisAddr     string
	RedisPassword string
	RedisDB       int

	KafkaBrokers []string
	KafkaTopic   string

	JWTAccessSecret string

	Moderation Moderation

	OutboxBatchSize int
	OutboxInterval  time.Duration
}

// Load 先尝试读取 .env，再从环境变量取值
func Load() (*Config, error) {
	_ = godotenv.Load()

	var errs []error
	atoi := func(key, def string) int {
		n, err := strconv.Atoi(getEnv(key, def))
		if err != nil {
			errs = append(errs, fmt.Errorf("%w: %s is not an integer", ErrConfiguration, key))
		}
		return n
	}

	cfg := &Config{
		AppEnv:          getEnv("APP_ENV", "prod"),
		HTTPAddr:        getEnv("HTTP_ADDR", ":8080"),
		Storage:         getEnv("STORAGE", "mysql"),
		MySQLDSN:        getEnv("MYSQL_DSN", "root:root@tcp(127.0.0.1:3306)/neighbor_board?charset=utf8mb4&parseTime=True&loc=Local"),
		RedisAddr:       getEnv("REDIS_ADDR", "127.0.0.1:6379"),
		RedisPassword:   getEnv("REDIS_PASSWORD", ""),
		RedisDB:         atoi("REDIS_DB", "0"),
		KafkaBrokers:    splitList(getEnv("KAFKA_BROKERS", "")),
		KafkaTopic:      getEnv("KAFKA_TOPIC", "community-events"),
		JWTAccessSecret: getEnv("JWT_ACCESS_SECRET", "secret-key"),
		Moderation: Moderation{
			SuspendThreshold: atoi("REPORT_SUSPEND_THRESHOLD", "2"),
			RemoveThreshold:  atoi("REPORT_REMOVE_THRESHOLD", "4"),
		},
		OutboxBatchSize: atoi("OUTBOX_BATCH_SIZE", "200"),
	}

	interval, err := time.ParseDuration(getEnv("OUTBOX_INTERVAL", "1s"))
	if err != nil || interval <= 0 {
		errs = append(errs, fmt.Errorf("%w: OUTBOX_INTERVAL is not a positive duration", ErrConfiguration))
	}
	cfg.OutboxInterval = interval

	if cfg.Storage != "mysql" && cfg.Storage != "memory" {
		errs = append(errs, fmt.Errorf("%w: unknown STORAGE %q", ErrConfiguration, cfg.Storage))
	}
	if len(errs) > 0 {
		return nil, errors.Join(errs...)
	}
	if err := cfg.Moderation.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) KafkaEnabled() bool {
	return len(c.KafkaBrokers) > 0
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
