package config

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	Env  string
	Port int

	// storage backend: "redis", "postgres" or "memory"
	StorageBackend string
	RedisAddr      string
	RedisPassword  string
	RedisDB        int
	DBURL          string

	// bootstrap accounts
	AdminName      string
	AdminEmail     string
	AdminPassword  string
	DoctorName     string
	DoctorEmail    string
	DoctorPassword string

	// upstream tool endpoints
	ChatUpstreamURL    string
	DrugAPIURL         string
	DrugDescriptionURL string
	ImagingURLs        map[string]string

	AllowedOrigins []string
	OTLPEndpoint   string
}

// Imaging tools with configurable upstream prediction endpoints.
var ImagingTools = []string{"chest-xray", "kidney", "dermatology", "ophthalmology", "brain"}

func Load() Config {
	env := getEnv("APP_ENV", "dev")
	port := getEnvInt("PORT", 8080)

	imaging := make(map[string]string, len(ImagingTools))

	for _, tool := range ImagingTools {
		key := "IMAGING_" + strings.ToUpper(strings.ReplaceAll(tool, "-", "_")) + "_URL"
		if url := os.Getenv(key); url != "" {
			imaging[tool] = url
		}
	}

	return Config{
		Env:  env,
		Port: port,

		StorageBackend: getEnv("STORAGE_BACKEND", "redis"),
		RedisAddr:      getEnv("REDIS_ADDR", "127.0.0.1:6379"),
		RedisPassword:  getEnv("REDIS_PASSWORD", ""),
		RedisDB:        getEnvInt("REDIS_DB", 0),
		DBURL:          buildDBURL(),

		AdminName:      getEnv("SEED_ADMIN_NAME", "Admin User"),
		AdminEmail:     getEnv("SEED_ADMIN_EMAIL", "kkshuraim@hotmail.com"),
		AdminPassword:  getEnv("SEED_ADMIN_PASSWORD", "123456789"),
		DoctorName:     getEnv("SEED_DOCTOR_NAME", "Try Doctor"),
		DoctorEmail:    getEnv("SEED_DOCTOR_EMAIL", "try@hotmail.com"),
		DoctorPassword: getEnv("SEED_DOCTOR_PASSWORD", "123456789"),

		ChatUpstreamURL:    getEnv("CHAT_UPSTREAM_URL", ""),
		DrugAPIURL:         getEnv("DRUG_API_URL", "https://durg-interaction.onrender.com"),
		DrugDescriptionURL: getEnv("DRUG_DESCRIPTION_URL", "https://drugs-description-api.onrender.com"),
		ImagingURLs:        imaging,

		AllowedOrigins: splitCSV(getEnv("ALLOWED_ORIGINS", "http://localhost:5173")),
		OTLPEndpoint:   getEnv("OTLP_ENDPOINT", ""),
	}
}

func buildDBURL() string {
	host := getEnv("DB_HOST", "127.0.0.1")
	port := getEnv("DB_PORT", "5432")
	user := getEnv("DB_USER", "medkit")
	pass := getEnv("DB_PASSWORD", "medkit")
	name := getEnv("DB_NAME", "medkit")
	ssl := getEnv("DB_SSLMODE", "disable")

	return "postgres://" + user + ":" + pass + "@" + host + ":" + port + "/" + name + "?sslmode=" + ssl
}

func WithTimeout(duration time.Duration) (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), duration)
}

func splitCSV(s string) []string {
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))

	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}

	return out
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}

	return fallback
}

func getEnvInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		num, err := strconv.Atoi(v)

		if err != nil {
			fmt.Println(err)
		}

		return num
	}
	return fallback
}
