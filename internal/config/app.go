package config

import (
	"os"
	"strconv"
	"time"
)

type AppConfig struct {
	Gateway GatewayConfig
	Voice   VoiceEnvConfig
	App     RuntimeConfig
}

// VoiceEnvConfig окружение голосовых функций
type VoiceEnvConfig struct {
	RecognizerURL string
	Origin        string
}

type RuntimeConfig struct {
	LogLevel        string
	MetricsAddr     string
	ResultsDir      string
	InterviewConfig string
	ShutdownTimeout time.Duration
}

func LoadAppConfig() *AppConfig {
	return &AppConfig{
		Gateway: LoadGatewayConfig(),
		Voice: VoiceEnvConfig{
			RecognizerURL: getEnv("NIA_RECOGNIZER_URL", ""),
			Origin:        getEnv("NIA_ORIGIN", "http://localhost"),
		},
		App: RuntimeConfig{
			LogLevel:        getEnv("NIA_LOG_LEVEL", "info"),
			MetricsAddr:     getEnv("NIA_METRICS_ADDR", ""),
			ResultsDir:      getEnv("NIA_RESULTS_DIR", "results"),
			InterviewConfig: getEnv("NIA_INTERVIEW_CONFIG", "config/interview.yaml"),
			ShutdownTimeout: getEnvAsDuration("NIA_SHUTDOWN_TIMEOUT", 5*time.Second),
		},
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}
