package config

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Port        int
	DatabaseURL string
	AuthUser    string
	AuthPass    string
	LogLevel    string
	Environment string

	FontCacheDir     string
	FontCacheSize    int
	FontFetchTimeout time.Duration

	EventName    string
	FontFamily   string
	FontSize     int
	TextColor    string
	QRSize       int
	OutputFormat string
	OutputDir    string

	Workers         int
	CollisionPolicy string
	FailurePolicy   string
	ItemTimeout     time.Duration
}

// LoadConfig reads an optional .env file and then the process environment.
// Values already present in the environment win over the file.
func LoadConfig() Config {
	_ = godotenv.Load()
	return fromEnv()
}

func fromEnv() Config {
	return Config{
		Port:        getEnvInt("PORT", 8080),
		DatabaseURL: getEnv("DATABASE_URL", "certificates.db"),
		AuthUser:    getEnv("AUTH_USER", "admin"),
		AuthPass:    getEnv("AUTH_PASS", "password"),
		LogLevel:    getEnv("LOG_LEVEL", "INFO"),
		Environment: getEnv("APP_ENV", "development"),

		FontCacheDir:     getEnv("FONT_CACHE_DIR", "fonts"),
		FontCacheSize:    getEnvInt("FONT_CACHE_SIZE", 32),
		FontFetchTimeout: getEnvDuration("FONT_FETCH_TIMEOUT", 15*time.Second),

		EventName:    getEnv("EVENT_NAME", "GDG Basra Event"),
		FontFamily:   getEnv("FONT_FAMILY", "Roboto"),
		FontSize:     getEnvInt("FONT_SIZE", 60),
		TextColor:    getEnv("TEXT_COLOR", "#000000"),
		QRSize:       getEnvInt("QR_SIZE", 150),
		OutputFormat: getEnv("OUTPUT_FORMAT", "PDF"),
		OutputDir:    getEnv("OUTPUT_DIR", "temp/generated"),

		Workers:         getEnvInt("WORKERS", 1),
		CollisionPolicy: getEnv("COLLISION_POLICY", "overwrite"),
		FailurePolicy:   getEnv("FAILURE_POLICY", "abort"),
		ItemTimeout:     getEnvDuration("ITEM_TIMEOUT", 0),
	}
}

func getEnv(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	value, err := strconv.Atoi(getEnv(key, ""))
	if err != nil {
		return defaultValue
	}
	return value
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	value, err := time.ParseDuration(getEnv(key, ""))
	if err != nil {
		return defaultValue
	}
	return value
}
