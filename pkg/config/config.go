package config

import (
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

type Config struct {
	ServerPort         string
	Environment        string
	FirebaseProject    string
	ServiceAccountJSON string
	ServiceAccountPath string
	StorageBucket      string
	PublicBaseURL      string
	AllowedOrigins     []string

	AMQPURL      string
	AMQPExchange string
	AMQPQueue    string

	MaxUploadBytes    int64
	SendRatePerMinute int64
}

// PushCredentials are the three values the push provider needs. Any one
// missing disables push delivery.
type PushCredentials struct {
	ProjectID   string
	ClientEmail string
	PrivateKey  string
}

func (c PushCredentials) Complete() bool {
	return c.ProjectID != "" && c.ClientEmail != "" && c.PrivateKey != ""
}

func Load() (*Config, error) {
	godotenv.Load()

	config := &Config{
		ServerPort:         getEnv("SERVER_PORT", "8080"),
		Environment:        getEnv("ENVIRONMENT", "development"),
		FirebaseProject:    getEnv("FIREBASE_PROJECT_ID", ""),
		ServiceAccountJSON: getEnv("FIREBASE_SERVICE_ACCOUNT_JSON", ""),
		ServiceAccountPath: getEnv("FIREBASE_SERVICE_ACCOUNT_PATH", ""),
		StorageBucket:      getEnv("STORAGE_BUCKET", ""),
		PublicBaseURL:      strings.TrimRight(getEnv("PUBLIC_BASE_URL", ""), "/"),
		AllowedOrigins:     getEnvAsList("ALLOWED_ORIGINS"),
		AMQPURL:            getEnv("AMQP_URL", ""),
		AMQPExchange:       getEnv("AMQP_EXCHANGE", "chat.events"),
		AMQPQueue:          getEnv("AMQP_QUEUE", "chat.push"),
		MaxUploadBytes:     getEnvAsInt64("MAX_UPLOAD_BYTES", 10*1024*1024), // 10 MiB
		SendRatePerMinute:  getEnvAsInt64("SEND_RATE_PER_MINUTE", 60),
	}

	return config, nil
}

// PushCredentialsFromEnv re-reads the push credentials on every call so a
// process started without them can pick them up later.
func PushCredentialsFromEnv() PushCredentials {
	return PushCredentials{
		ProjectID:   strings.TrimSpace(os.Getenv("PUSH_PROJECT_ID")),
		ClientEmail: strings.TrimSpace(os.Getenv("PUSH_CLIENT_EMAIL")),
		PrivateKey:  strings.ReplaceAll(os.Getenv("PUSH_PRIVATE_KEY"), `\n`, "\n"),
	}
}

func (c *Config) IsDevelopment() bool {
	return c.Environment == "development"
}

func getEnv(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}

func getEnvAsInt64(key string, defaultValue int64) int64 {
	if value, exists := os.LookupEnv(key); exists {
		intValue, err := strconv.ParseInt(value, 10, 64)
		if err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvAsList(key string) []string {
	var values []string
	for _, v := range strings.Split(os.Getenv(key), ",") {
		if v = strings.TrimSpace(v); v != "" {
			values = append(values, v)
		}
	}
	return values
}
