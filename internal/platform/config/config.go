package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Server captures process level configuration.
type Server struct {
	Addr        string
	Environment string
	LogLevel    string
	Database    DatabaseConfig
	Redis       RedisConfig
	Kafka       KafkaConfig
	Identity    IdentityConfig
	CaseSystem  CaseSystemConfig
	Auth        AuthConfig
}

// DatabaseConfig configures the Postgres document store. An empty URL keeps all
// documents in memory.
type DatabaseConfig struct {
	URL             string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
	LockTimeout     time.Duration
	MigrateOnStart  bool
}

// RedisConfig configures the identity cache. An empty URL disables caching.
type RedisConfig struct {
	URL          string
	PoolSize     int
	MinIdleConns int
	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	IdentityTTL  time.Duration
}

// KafkaConfig configures the submission producer.
type KafkaConfig struct {
	Brokers           []string
	ClientID          string
	SubmissionTopic   string
	SharedCareTopic   string
	CreateTopics      bool
	Partitions        int32
	ReplicationFactor int16
}

// IdentityConfig configures the population register (PDL) client.
type IdentityConfig struct {
	BaseURL    string
	Timeout    time.Duration
	RetryCount int
}

// CaseSystemConfig configures the k9-sak client.
type CaseSystemConfig struct {
	BaseURL string
	Timeout time.Duration
}

// AuthConfig configures bearer token validation. An empty key disables auth.
type AuthConfig struct {
	SigningKey string
	Issuer     string
}

// IsProduction reports whether the service runs in a production environment.
func (s Server) IsProduction() bool {
	return s.Environment == "prod" || s.Environment == "production"
}

// FromEnv builds a Server config from environment variables so main stays lean.
func FromEnv() Server {
	return Server{
		Addr:        getEnv("PUNSJ_ADDR", ":8080"),
		Environment: getEnv("PUNSJ_ENV", "dev"),
		LogLevel:    getEnv("LOG_LEVEL", "info"),
		Database: DatabaseConfig{
			URL:             os.Getenv("DATABASE_URL"),
			MaxOpenConns:    getInt("DATABASE_MAX_OPEN_CONNS", 20),
			MaxIdleConns:    getInt("DATABASE_MAX_IDLE_CONNS", 5),
			ConnMaxLifetime: getDuration("DATABASE_CONN_MAX_LIFETIME", 30*time.Minute),
			LockTimeout:     getDuration("DATABASE_LOCK_TIMEOUT", 5*time.Second),
			MigrateOnStart:  getBool("DATABASE_MIGRATE", true),
		},
		Redis: RedisConfig{
			URL:          os.Getenv("REDIS_URL"),
			PoolSize:     getInt("REDIS_POOL_SIZE", 10),
			MinIdleConns: getInt("REDIS_MIN_IDLE_CONNS", 2),
			DialTimeout:  getDuration("REDIS_DIAL_TIMEOUT", 2*time.Second),
			ReadTimeout:  getDuration("REDIS_READ_TIMEOUT", time.Second),
			WriteTimeout: getDuration("REDIS_WRITE_TIMEOUT", time.Second),
			IdentityTTL:  getDuration("REDIS_IDENTITY_TTL", time.Hour),
		},
		Kafka: KafkaConfig{
			Brokers:           getList("KAFKA_BROKERS", []string{"localhost:9092"}),
			ClientID:          getEnv("KAFKA_CLIENT_ID", "k9-punsj"),
			SubmissionTopic:   getEnv("KAFKA_SUBMISSION_TOPIC", "k9saksbehandling.punsjet-soknad"),
			SharedCareTopic:   getEnv("KAFKA_SHARED_CARE_TOPIC", "k9saksbehandling.deling-av-omsorgsdager-melding"),
			CreateTopics:      getBool("KAFKA_CREATE_TOPICS", false),
			Partitions:        int32(getInt("KAFKA_TOPIC_PARTITIONS", 1)),
			ReplicationFactor: int16(getInt("KAFKA_TOPIC_REPLICATION", 1)),
		},
		Identity: IdentityConfig{
			BaseURL:    getEnv("PDL_BASE_URL", "http://localhost:8081"),
			Timeout:    getDuration("PDL_TIMEOUT", 5*time.Second),
			RetryCount: getInt("PDL_RETRY_COUNT", 2),
		},
		CaseSystem: CaseSystemConfig{
			BaseURL: getEnv("K9SAK_BASE_URL", "http://localhost:8082"),
			Timeout: getDuration("K9SAK_TIMEOUT", 10*time.Second),
		},
		Auth: AuthConfig{
			SigningKey: os.Getenv("JWT_SIGNING_KEY"),
			Issuer:     os.Getenv("JWT_ISSUER"),
		},
	}
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getInt(key string, fallback int) int {
	v, err := strconv.Atoi(os.Getenv(key))
	if err != nil {
		return fallback
	}
	return v
}

func getBool(key string, fallback bool) bool {
	v, err := strconv.ParseBool(os.Getenv(key))
	if err != nil {
		return fallback
	}
	return v
}

func getDuration(key string, fallback time.Duration) time.Duration {
	v, err := time.ParseDuration(os.Getenv(key))
	if err != nil {
		return fallback
	}
	return v
}

func getList(key string, fallback []string) []string {
	raw := os.Getenv(key)
	if raw == "" {
		return fallback
	}
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
