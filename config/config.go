package config

import (
	"log"
	"os"
	"strconv"
	"time"
)

// Config holds every runtime setting of the service. It is built once in main
// and passed down; business logic never reads the environment directly.
type Config struct {
	Env        string
	Port       string
	CORSOrigin string

	MongoURI string
	MongoDB  string

	RedisAddr     string
	RedisPassword string
	RedisDB       int

	AccessTokenSecret  string
	RefreshTokenSecret string
	AccessTokenTTL     time.Duration
	RefreshTokenTTL    time.Duration

	S3Region    string
	S3Endpoint  string
	S3Bucket    string
	S3AccessKey string
	S3SecretKey string

	SecureCookies bool
}

func Load() *Config {
	return &Config{
		Env:        getEnv("ENV", "development"),
		Port:       getEnv("PORT", "8080"),
		CORSOrigin: getEnv("CORS_ORIGIN", "http://localhost"),

		MongoURI: mustGetEnv("MONGODB_URI"),
		MongoDB:  getEnv("DB_NAME", "videostream"),

		RedisAddr:     getEnv("REDIS_HOST", "localhost:6379"),
		RedisPassword: os.Getenv("REDIS_PASS"),
		RedisDB:       getEnvAsInt("REDIS_DB", 0),

		AccessTokenSecret:  mustGetEnv("ACCESS_TOKEN_SECRET"),
		RefreshTokenSecret: mustGetEnv("REFRESH_TOKEN_SECRET"),
		AccessTokenTTL:     time.Duration(getEnvAsInt("ACCESS_TOKEN_EXPIRY_MIN", 15)) * time.Minute,
		RefreshTokenTTL:    time.Duration(getEnvAsInt("REFRESH_TOKEN_EXPIRY_DAYS", 10)) * 24 * time.Hour,

		S3Region:    getEnv("S3_REGION", "us-east-1"),
		S3Endpoint:  os.Getenv("S3_ENDPOINT"),
		S3Bucket:    mustGetEnv("S3_BUCKET"),
		S3AccessKey: mustGetEnv("S3_ACCESS_KEY"),
		S3SecretKey: mustGetEnv("S3_SECRET_KEY"),

		SecureCookies: getEnv("COOKIE_SECURE", "false") == "true",
	}
}

func getEnv(key string, defaultVal string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultVal
}

func mustGetEnv(key string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	log.Fatalf("missing required environment variable: %s", key)
	return ""
}

func getEnvAsInt(key string, defaultVal int) int {
	valStr := os.Getenv(key)
	if valStr == "" {
		return defaultVal
	}
	val, err := strconv.Atoi(valStr)
	if err != nil {
		log.Printf("invalid value for %s, using default %d", key, defaultVal)
		return defaultVal
	}
	return val
}
