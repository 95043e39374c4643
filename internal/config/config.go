package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// State backend selectors for STATE_BACKEND.
const (
	BackendMemory = "memory"
	BackendRedis  = "redis"
)

// Config holds room-service configuration.
type Config struct {
	AppEnv   string // APP_ENV
	AppHost  string // APP_HOST
	HTTPPort string // APP_PORT or HTTP_PORT
	LogLevel string // LOG_LEVEL

	// PostgreSQL (persisted room metadata)
	DB struct {
		Host     string
		Port     string
		User     string
		Password string
		Database string
		SSLMode  string
	}

	// Room runtime state backend: "memory" or "redis"
	StateBackend string
	RedisURL     string // required when StateBackend == "redis"

	// WebSocket
	WSReadBufferSize  int
	WSWriteBufferSize int
	WSMaxMessageSize  int64
	WSSendQueueSize   int // outbound frames buffered per connection

	// Retention / cleanup
	EmptyRoomGrace  time.Duration // how long room data survives with zero participants
	RoomDataTTL     time.Duration // rolling expiry refreshed on every join
	CleanupInterval time.Duration // background sweep period

	// Position reconciliation
	SyncTolerance float64 // max drift from median before a client is corrected
	SyncQuorum    float64 // fraction of participants that must have reported

	// Virtual browser pool allocator (optional)
	BrowserPoolURL string // BROWSER_POOL_URL, empty disables the pool endpoints
}

// Load loads config from environment (.env if present).
func Load() (*Config, error) {
	_ = godotenv.Load()

	readBuf, _ := strconv.Atoi(getEnv("WS_READ_BUFFER_SIZE", "4096"))
	writeBuf, _ := strconv.Atoi(getEnv("WS_WRITE_BUFFER_SIZE", "4096"))
	maxMsg, _ := strconv.ParseInt(getEnv("WS_MAX_MESSAGE_SIZE", "65536"), 10, 64)
	sendQueue, _ := strconv.Atoi(getEnv("WS_SEND_QUEUE_SIZE", "256"))
	grace, _ := time.ParseDuration(getEnv("EMPTY_ROOM_GRACE", "3h"))
	ttl, _ := time.ParseDuration(getEnv("ROOM_DATA_TTL", "24h"))
	sweep, _ := time.ParseDuration(getEnv("CLEANUP_INTERVAL", "10m"))
	tolerance, _ := strconv.ParseFloat(getEnv("SYNC_TOLERANCE", "3.0"), 64)
	quorum, _ := strconv.ParseFloat(getEnv("SYNC_QUORUM", "0.8"), 64)

	cfg := &Config{
		AppEnv:            getEnv("APP_ENV", "development"),
		AppHost:           getEnv("APP_HOST", "0.0.0.0"),
		HTTPPort:          firstEnv("APP_PORT", "HTTP_PORT", "8090"),
		LogLevel:          getEnv("LOG_LEVEL", "info"),
		StateBackend:      getEnv("STATE_BACKEND", BackendMemory),
		RedisURL:          getEnv("REDIS_URL", ""),
		WSReadBufferSize:  readBuf,
		WSWriteBufferSize: writeBuf,
		WSMaxMessageSize:  maxMsg,
		WSSendQueueSize:   sendQueue,
		EmptyRoomGrace:    grace,
		RoomDataTTL:       ttl,
		CleanupInterval:   sweep,
		SyncTolerance:     tolerance,
		SyncQuorum:        quorum,
		BrowserPoolURL:    getEnv("BROWSER_POOL_URL", ""),
	}
	cfg.DB.Host = getEnv("DB_HOST", "localhost")
	cfg.DB.Port = getEnv("DB_PORT", "5432")
	cfg.DB.User = getEnv("DB_USER", "postgres")
	cfg.DB.Password = getEnv("DB_PASSWORD", "postgres")
	cfg.DB.Database = getEnv("DB_DATABASE", "streamsync")
	cfg.DB.SSLMode = getEnv("DB_SSLMODE", "disable")
	return cfg, nil
}

// Validate checks required fields and production safety.
func (c *Config) Validate() error {
	if c.DB.Host == "" {
		return errors.New("config: DB_HOST is required")
	}
	if c.DB.User == "" {
		return errors.New("config: DB_USER is required")
	}
	if c.DB.Database == "" {
		return errors.New("config: DB_DATABASE is required")
	}
	if c.AppEnv == "production" && c.DB.Password == "" {
		return errors.New("config: in production DB_PASSWORD is required")
	}
	switch c.StateBackend {
	case BackendMemory:
	case BackendRedis:
		if c.RedisURL == "" {
			return errors.New("config: REDIS_URL is required when STATE_BACKEND=redis")
		}
	default:
		return fmt.Errorf("config: unknown STATE_BACKEND %q", c.StateBackend)
	}
	if c.SyncQuorum <= 0 || c.SyncQuorum > 1 {
		return fmt.Errorf("config: SYNC_QUORUM must be in (0, 1], got %v", c.SyncQuorum)
	}
	return nil
}

// DSN returns PostgreSQL connection string for GORM.
func (c *Config) DSN() string {
	return fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		c.DB.Host, c.DB.Port, c.DB.User, c.DB.Password, c.DB.Database, c.DB.SSLMode)
}

// DatabaseURL returns postgres URL for golang-migrate.
func (c *Config) DatabaseURL() string {
	pass := url.QueryEscape(c.DB.Password)
	return fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=%s",
		c.DB.User, pass, c.DB.Host, c.DB.Port, c.DB.Database, c.DB.SSLMode)
}

// Addr returns listen address for HTTP server.
func (c *Config) Addr() string {
	return c.AppHost + ":" + c.HTTPPort
}

func firstEnv(keysAndDef ...string) string {
	if len(keysAndDef) == 0 {
		return ""
	}
	def := keysAndDef[len(keysAndDef)-1]
	keys := keysAndDef[:len(keysAndDef)-1]
	for _, k := range keys {
		if v := os.Getenv(k); v != "" {
			return v
		}
	}
	return def
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}
