package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	EnvDevelopment = "development"
	EnvProduction  = "production"
)

// Config holds the server settings.
type Config struct {
	Environment    string
	LogLevel       string
	ServerAddress  string
	DatabaseURL    string
	MigrationsPath string
	JWTSecret      string
	MetricsEnabled bool

	Redis   RedisConfig
	MQTT    MQTTConfig
	Storage StorageConfig
}

type RedisConfig struct {
	Address  string
	Username string
	Password string
}

type MQTTConfig struct {
	BrokerURL string
	Username  string
	Password  string
}

type StorageConfig struct {
	UseSpaces bool
	UploadDir string
	PublicURL string
	Endpoint  string
	Region    string
	Bucket    string
	CDNURL    string
	AccessKey string
	SecretKey string
}

// ScreenConfig holds the screen client settings.
type ScreenConfig struct {
	Environment  string
	LogLevel     string
	APIBaseURL   string
	StateDir     string
	OutputPath   string
	Width        int
	Height       int
	PollInterval time.Duration
	FadeDuration time.Duration
	ImageCacheMB int

	MQTT MQTTConfig
}

// newViper loads an optional .env file and an optional config file named by LUMEN_CONFIG_FILE,
// then lets environment variables override both.
func newViper() (*viper.Viper, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.AutomaticEnv()

	if path := os.Getenv("LUMEN_CONFIG_FILE"); path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config file %q: %w", path, err)
		}
	}
	return v, nil
}

// Load reads server configuration from the environment.
func Load() (*Config, error) {
	v, err := newViper()
	if err != nil {
		return nil, err
	}

	v.SetDefault("APP_ENV", EnvDevelopment)
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("SERVER_ADDRESS", ":8080")
	v.SetDefault("MIGRATIONS_PATH", "./migrations")
	v.SetDefault("METRICS_ENABLED", true)
	v.SetDefault("REDIS_ADDRESS", "localhost:6379")
	v.SetDefault("MQTT_BROKER_URL", "tcp://localhost:1883")
	v.SetDefault("UPLOAD_DIR", "./uploads")
	v.SetDefault("PUBLIC_URL", "http://localhost:8080")

	cfg := &Config{
		Environment:    v.GetString("APP_ENV"),
		LogLevel:       v.GetString("LOG_LEVEL"),
		ServerAddress:  v.GetString("SERVER_ADDRESS"),
		DatabaseURL:    v.GetString("DATABASE_URL"),
		MigrationsPath: v.GetString("MIGRATIONS_PATH"),
		JWTSecret:      v.GetString("JWT_SECRET"),
		MetricsEnabled: v.GetBool("METRICS_ENABLED"),
		Redis: RedisConfig{
			Address:  v.GetString("REDIS_ADDRESS"),
			Username: v.GetString("REDIS_USERNAME"),
			Password: v.GetString("REDIS_PASSWORD"),
		},
		MQTT: MQTTConfig{
			BrokerURL: v.GetString("MQTT_BROKER_URL"),
			Username:  v.GetString("MQTT_USERNAME"),
			Password:  v.GetString("MQTT_PASSWORD"),
		},
		Storage: StorageConfig{
			UseSpaces: v.GetBool("USE_SPACES"),
			UploadDir: v.GetString("UPLOAD_DIR"),
			PublicURL: v.GetString("PUBLIC_URL"),
			Endpoint:  v.GetString("SPACES_ENDPOINT"),
			Region:    v.GetString("SPACES_REGION"),
			Bucket:    v.GetString("SPACES_BUCKET"),
			CDNURL:    v.GetString("SPACES_CDN_URL"),
			AccessKey: v.GetString("SPACES_ACCESS_KEY"),
			SecretKey: v.GetString("SPACES_SECRET_KEY"),
		},
	}

	if cfg.DatabaseURL == "" {
		return nil, errors.New("DATABASE_URL is required")
	}
	if cfg.JWTSecret == "" {
		return nil, errors.New("JWT_SECRET is required")
	}
	if cfg.Storage.UseSpaces && (cfg.Storage.Bucket == "" || cfg.Storage.Endpoint == "") {
		return nil, errors.New("SPACES_BUCKET and SPACES_ENDPOINT are required when USE_SPACES is set")
	}
	return cfg, nil
}

// LoadScreen reads screen client configuration from the environment.
func LoadScreen() (*ScreenConfig, error) {
	v, err := newViper()
	if err != nil {
		return nil, err
	}

	v.SetDefault("APP_ENV", EnvDevelopment)
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LUMEN_API_URL", "http://localhost:8080")
	v.SetDefault("LUMEN_STATE_DIR", "./state")
	v.SetDefault("LUMEN_OUTPUT_PATH", "./state/frame.jpg")
	v.SetDefault("LUMEN_SCREEN_WIDTH", 1920)
	v.SetDefault("LUMEN_SCREEN_HEIGHT", 1080)
	v.SetDefault("LUMEN_POLL_INTERVAL", "15s")
	v.SetDefault("LUMEN_FADE_DURATION", "800ms")
	v.SetDefault("LUMEN_IMAGE_CACHE_MB", 256)
	v.SetDefault("MQTT_BROKER_URL", "tcp://localhost:1883")

	cfg := &ScreenConfig{
		Environment:  v.GetString("APP_ENV"),
		LogLevel:     v.GetString("LOG_LEVEL"),
		APIBaseURL:   v.GetString("LUMEN_API_URL"),
		StateDir:     v.GetString("LUMEN_STATE_DIR"),
		OutputPath:   v.GetString("LUMEN_OUTPUT_PATH"),
		Width:        v.GetInt("LUMEN_SCREEN_WIDTH"),
		Height:       v.GetInt("LUMEN_SCREEN_HEIGHT"),
		PollInterval: v.GetDuration("LUMEN_POLL_INTERVAL"),
		FadeDuration: v.GetDuration("LUMEN_FADE_DURATION"),
		ImageCacheMB: v.GetInt("LUMEN_IMAGE_CACHE_MB"),
		MQTT: MQTTConfig{
			BrokerURL: v.GetString("MQTT_BROKER_URL"),
			Username:  v.GetString("MQTT_USERNAME"),
			Password:  v.GetString("MQTT_PASSWORD"),
		},
	}

	if cfg.PollInterval <= 0 {
		return nil, fmt.Errorf("LUMEN_POLL_INTERVAL must be positive, got %s", cfg.PollInterval)
	}
	if cfg.Width <= 0 || cfg.Height <= 0 {
		return nil, fmt.Errorf("invalid screen resolution %dx%d", cfg.Width, cfg.Height)
	}
	return cfg, nil
}
