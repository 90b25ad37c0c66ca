package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	NodeURL          string
	NodeTimeout      time.Duration
	HTTPAddr         string
	Network          string
	NetworksFile     string
	BlockDBDriver    string
	BlockDBDSN       string
	RedisAddr        string
	OtelEndpoint     string
	KafkaBrokers     []string
	KafkaTopicPrefix string
	LogLevel         string
	LogFile          string
	LogMaxSizeMB     int
	LogMaxBackups    int
}

type EnvSource interface {
	Lookup(key string) (string, bool)
}

type EnvMap map[string]string

func (e EnvMap) Lookup(key string) (string, bool) {
	value, ok := e[key]
	return value, ok
}

func FromEnviron() EnvSource {
	env := make(EnvMap)
	for _, entry := range os.Environ() {
		if entry == "" {
			continue
		}
		parts := strings.SplitN(entry, "=", 2)
		if len(parts) != 2 {
			continue
		}
		env[parts[0]] = parts[1]
	}
	return env
}

func Load(source EnvSource) (Config, error) {
	if source == nil {
		return Config{}, errors.New("env source is required")
	}

	nodeURL, ok := source.Lookup("NODE_URL")
	if !ok || nodeURL == "" {
		return Config{}, errors.New("NODE_URL is required")
	}

	nodeTimeout := 10 * time.Second
	if raw, ok := source.Lookup("NODE_TIMEOUT"); ok && raw != "" {
		duration, err := time.ParseDuration(raw)
		if err != nil {
			return Config{}, fmt.Errorf("invalid NODE_TIMEOUT: %w", err)
		}
		nodeTimeout = duration
	}

	httpAddr := ":8080"
	if raw, ok := source.Lookup("HTTP_ADDR"); ok && raw != "" {
		httpAddr = raw
	}

	network := "mainnet"
	if raw, ok := source.Lookup("NETWORK"); ok && strings.TrimSpace(raw) != "" {
		network = strings.TrimSpace(raw)
	}
	networksFile, _ := source.Lookup("NETWORKS_FILE")
	networksFile = strings.TrimSpace(networksFile)

	blockDBDriver := "sqlite"
	if raw, ok := source.Lookup("BLOCK_DB_DRIVER"); ok && strings.TrimSpace(raw) != "" {
		blockDBDriver = strings.ToLower(strings.TrimSpace(raw))
	}
	switch blockDBDriver {
	case "sqlite", "mysql":
	default:
		return Config{}, fmt.Errorf("invalid BLOCK_DB_DRIVER: %s", blockDBDriver)
	}

	blockDBDSN, ok := source.Lookup("BLOCK_DB_DSN")
	if !ok || strings.TrimSpace(blockDBDSN) == "" {
		if blockDBDriver == "mysql" {
			blockDBDSN = "root:@tcp(127.0.0.1:3306)/coinbridge?parseTime=true&multiStatements=true"
		} else {
			blockDBDSN = "coinbridge.db"
		}
	}

	redisAddr := "127.0.0.1:6379"
	if raw, ok := source.Lookup("REDIS_ADDR"); ok {
		redisAddr = strings.TrimSpace(raw)
	}

	otelEndpoint, _ := source.Lookup("OTEL_EXPORTER_OTLP_ENDPOINT")
	otelEndpoint = strings.TrimSpace(otelEndpoint)

	kafkaBrokers := parseList(source, "KAFKA_BROKERS")
	kafkaTopicPrefix, ok := source.Lookup("KAFKA_TOPIC_PREFIX")
	if !ok || kafkaTopicPrefix == "" {
		kafkaTopicPrefix = "coinbridge-queries"
	}

	logLevel, _ := source.Lookup("LOG_LEVEL")
	logFile, _ := source.Lookup("LOG_FILE")
	logMaxSizeMB, err := parseIntEnv(source, "LOG_MAX_SIZE_MB", 0)
	if err != nil {
		return Config{}, err
	}
	logMaxBackups, err := parseIntEnv(source, "LOG_MAX_BACKUPS", 0)
	if err != nil {
		return Config{}, err
	}

	return Config{
		NodeURL:          nodeURL,
		NodeTimeout:      nodeTimeout,
		HTTPAddr:         httpAddr,
		Network:          network,
		NetworksFile:     networksFile,
		BlockDBDriver:    blockDBDriver,
		BlockDBDSN:       blockDBDSN,
		RedisAddr:        redisAddr,
		OtelEndpoint:     otelEndpoint,
		KafkaBrokers:     kafkaBrokers,
		KafkaTopicPrefix: kafkaTopicPrefix,
		LogLevel:         logLevel,
		LogFile:          logFile,
		LogMaxSizeMB:     logMaxSizeMB,
		LogMaxBackups:    logMaxBackups,
	}, nil
}

func parseIntEnv(source EnvSource, key string, defaultValue int) (int, error) {
	raw, ok := source.Lookup(key)
	if !ok || raw == "" {
		return defaultValue, nil
	}
	value, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return value, nil
}

func parseList(source EnvSource, key string) []string {
	raw, ok := source.Lookup(key)
	if !ok || strings.TrimSpace(raw) == "" {
		return nil
	}
	items := strings.Split(raw, ",")
	var values []string
	for _, item := range items {
		value := strings.TrimSpace(item)
		if value == "" {
			continue
		}
		values = append(values, value)
	}
	return values
}
