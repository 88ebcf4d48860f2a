package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"

	"time-release-helper/internal/models"
	"time-release-helper/internal/validation"
)

// Config holds all configuration for the application
type Config struct {
	LogLevel     string
	MaxRetries   int
	RetryDelay   time.Duration
	HTTP         HTTPConfig
	RPC          RPCConfig
	Signer       SignerConfig
	Submission   SubmissionConfig
	Kafka        KafkaConfig
	MetricsAddr  string
	NetworksFile string
	Networks     []NetworkConfig
}

// HTTPConfig holds HTTP client configuration
type HTTPConfig struct {
	Timeout time.Duration
}

// RPCConfig holds the node connection. An empty endpoint uses the network default.
type RPCConfig struct {
	Endpoint  string
	ApiKey    string
	RateLimit float64
}

// SignerConfig holds the wallet bridge connection
type SignerConfig struct {
	Endpoint string
	Method   string
}

// SubmissionConfig holds submission policy
type SubmissionConfig struct {
	// Timeout of zero waits for a terminal status indefinitely
	Timeout   time.Duration
	MaxWeight *models.Weight
}

// KafkaConfig holds Kafka configuration. Events are published only when BrokerAddress is set.
type KafkaConfig struct {
	BrokerAddress string
	Topic         string
}

// Enabled reports whether a broker is configured
func (k KafkaConfig) Enabled() bool {
	return k.BrokerAddress != ""
}

// Load loads configuration from environment variables
func Load() (*Config, error) {
	// a missing .env is fine, env vars might be set externally
	_ = godotenv.Load()

	config := &Config{
		LogLevel:   getEnv("LOG_LEVEL", "info"),
		MaxRetries: getEnvAsInt("MAX_RETRIES", 3),
		RetryDelay: getEnvAsDuration("RETRY_DELAY", 2*time.Second),
		HTTP: HTTPConfig{
			Timeout: getEnvAsDuration("HTTP_TIMEOUT", 30*time.Second),
		},
		RPC: RPCConfig{
			Endpoint:  getEnv("RPC_ENDPOINT", ""),
			ApiKey:    getEnv("RPC_API_KEY", ""),
			RateLimit: getEnvAsFloat("RPC_RATE_LIMIT", 10),
		},
		Signer: SignerConfig{
			Endpoint: getEnv("SIGNER_ENDPOINT", "http://127.0.0.1:9955"),
			Method:   getEnv("SIGNER_METHOD", "signer_signExtrinsic"),
		},
		Submission: SubmissionConfig{
			Timeout: getEnvAsDuration("SUBMISSION_TIMEOUT", 0),
		},
		Kafka: KafkaConfig{
			BrokerAddress: getEnv("KAFKA_BROKER_ADDRESS", ""),
			Topic:         getEnv("KAFKA_TOPIC", "time-release-submissions"),
		},
		MetricsAddr:  getEnv("METRICS_ADDR", ""),
		NetworksFile: getEnv("NETWORKS_FILE", ""),
	}

	_, hasRef := os.LookupEnv("MAX_WEIGHT_REF_TIME")
	_, hasProof := os.LookupEnv("MAX_WEIGHT_PROOF_SIZE")
	if hasRef || hasProof {
		config.Submission.MaxWeight = &models.Weight{
			RefTime:   getEnvAsUint64("MAX_WEIGHT_REF_TIME", 1_000_000_000),
			ProofSize: getEnvAsUint64("MAX_WEIGHT_PROOF_SIZE", 0),
		}
	}

	if config.RPC.Endpoint != "" {
		if err := validation.ValidateURL(config.RPC.Endpoint); err != nil {
			return nil, fmt.Errorf("RPC_ENDPOINT: %w", err)
		}
	}
	if err := validation.ValidateURL(config.Signer.Endpoint); err != nil {
		return nil, fmt.Errorf("SIGNER_ENDPOINT: %w", err)
	}

	networks, err := LoadNetworks(config.NetworksFile)
	if err != nil {
		return nil, err
	}
	config.Networks = networks

	return config, nil
}

// getEnv gets an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvAsInt gets an environment variable as int or returns a default value
func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

// getEnvAsUint64 gets an environment variable as uint64 or returns a default value
func getEnvAsUint64(key string, defaultValue uint64) uint64 {
	if value := os.Getenv(key); value != "" {
		if v, err := strconv.ParseUint(value, 10, 64); err == nil {
			return v
		}
	}
	return defaultValue
}

// getEnvAsFloat gets an environment variable as float64 or returns a default value
func getEnvAsFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatValue, err := strconv.ParseFloat(value, 64); err == nil {
			return floatValue
		}
	}
	return defaultValue
}

// getEnvAsDuration accepts a Go duration ("1m30s") or a bare number of seconds
func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	if d, err := time.ParseDuration(value); err == nil {
		return d
	}
	if secs, err := strconv.Atoi(value); err == nil {
		return time.Duration(secs) * time.Second
	}
	return defaultValue
}
