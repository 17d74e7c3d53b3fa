package config

import (
	"log"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

type Config struct {
	AppPort        string
	AppMode        string
	LogMode        string
	BackendURL     string
	HTTPTimeoutSec int
	ViewerTimezone string
	SessionTTLMin  int
	CookieSecure   bool
	CSRFKey        string
	CORSOrigins    []string

	ImageHost              string
	CloudinaryUploadURL    string
	CloudinaryUploadPreset string

	S3Region     string
	S3Bucket     string
	S3AccessKey  string
	S3SecretKey  string
	S3Endpoint   string
	S3PublicBase string
	S3ACL        string

	RedisEnabled   bool
	RedisHost      string
	RedisPort      string
	RedisPassword  string
	RedisDB        int
	AuthRateLimit  int
	AuthRateWindow int
}

const (
	ImageHostCloudinary = "cloudinary"
	ImageHostS3         = "s3"
)

func LoadConfig() *Config {
	// Load .env file if it exists
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	return &Config{
		AppPort:        getEnv("APP_PORT", "8080"),
		AppMode:        getEnv("APP_MODE", "debug"),
		LogMode:        getEnv("LOG_MODE", "development"),
		BackendURL:     getEnv("BACKEND_URL", "http://localhost:8000/api"),
		HTTPTimeoutSec: getEnvAsInt("HTTP_TIMEOUT_SEC", 15),
		ViewerTimezone: getEnv("VIEWER_TIMEZONE", "Local"),
		SessionTTLMin:  getEnvAsInt("SESSION_TTL_MIN", 60),
		CookieSecure:   getEnvAsBool("COOKIE_SECURE", false),
		CSRFKey:        getEnv("CSRF_KEY", ""),
		CORSOrigins:    getEnvAsList("CORS_ORIGINS", []string{"http://localhost:5173"}),

		ImageHost:              getEnv("IMAGE_HOST", ImageHostCloudinary),
		CloudinaryUploadURL:    getEnv("CLOUDINARY_UPLOAD_URL", ""),
		CloudinaryUploadPreset: getEnv("CLOUDINARY_UPLOAD_PRESET", "upload_file"),

		S3Region:     getEnv("S3_REGION", ""),
		S3Bucket:     getEnv("S3_BUCKET", ""),
		S3AccessKey:  getEnv("S3_ACCESS_KEY", ""),
		S3SecretKey:  getEnv("S3_SECRET_KEY", ""),
		S3Endpoint:   getEnv("S3_ENDPOINT", ""),
		S3PublicBase: getEnv("S3_PUBLIC_BASE", ""),
		S3ACL:        getEnv("S3_ACL", "public-read"),

		RedisEnabled:   getEnvAsBool("REDIS_ENABLED", false),
		RedisHost:      getEnv("REDIS_HOST", "localhost"),
		RedisPort:      getEnv("REDIS_PORT", "6379"),
		RedisPassword:  getEnv("REDIS_PASSWORD", ""),
		RedisDB:        getEnvAsInt("REDIS_DB", 0),
		AuthRateLimit:  getEnvAsInt("AUTH_RATE_LIMIT", 5),
		AuthRateWindow: getEnvAsInt("AUTH_RATE_WINDOW_SEC", 60),
	}
}

func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

func getEnvAsInt(key string, fallback int) int {
	valueStr := getEnv(key, "")
	if value, err := strconv.Atoi(valueStr); err == nil {
		return value
	}
	return fallback
}

func getEnvAsBool(key string, fallback bool) bool {
	valueStr := getEnv(key, "")
	if value, err := strconv.ParseBool(valueStr); err == nil {
		return value
	}
	return fallback
}

func getEnvAsList(key string, fallback []string) []string {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return fallback
	}
	var out []string
	for _, part := range strings.Split(valueStr, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
