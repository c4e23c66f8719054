package config

import (
	"fmt"
	"net/url"
	"time"
)

// GatewayConfig адреса и таймауты удаленных сервисов
type GatewayConfig struct {
	InterviewURL string
	ChatURL      string
	ResumeURL    string
	RoadmapURL   string
	Timeout      time.Duration
	Retries      int
	RetryBackoff time.Duration
}

// LoadGatewayConfig загружает конфигурацию шлюза из переменных окружения
func LoadGatewayConfig() GatewayConfig {
	return GatewayConfig{
		InterviewURL: getEnv("NIA_INTERVIEW_URL", "https://nia-interview-bot.onrender.com"),
		ChatURL:      getEnv("NIA_CHAT_URL", "https://nia-2-0.onrender.com"),
		ResumeURL:    getEnv("NIA_RESUME_URL", "https://nia-voice-mentor-1.onrender.com"),
		RoadmapURL:   getEnv("NIA_ROADMAP_URL", "https://roadmap-nia.onrender.com"),
		Timeout:      getEnvAsDuration("NIA_GATEWAY_TIMEOUT", 60*time.Second),
		Retries:      getEnvAsInt("NIA_GATEWAY_RETRIES", 2),
		RetryBackoff: getEnvAsDuration("NIA_GATEWAY_BACKOFF", 500*time.Millisecond),
	}
}

// ValidateConfig проверяет корректность конфигурации
func (c *GatewayConfig) ValidateConfig() error {
	for name, raw := range map[string]string{
		"NIA_INTERVIEW_URL": c.InterviewURL,
		"NIA_CHAT_URL":      c.ChatURL,
		"NIA_RESUME_URL":    c.ResumeURL,
		"NIA_ROADMAP_URL":   c.RoadmapURL,
	} {
		u, err := url.Parse(raw)
		if err != nil || u.Scheme == "" || u.Host == "" {
			return fmt.Errorf("%s must be an absolute URL, got %q", name, raw)
		}
	}

	if c.Timeout <= 0 {
		return fmt.Errorf("NIA_GATEWAY_TIMEOUT must be positive")
	}

	if c.Retries < 1 {
		return fmt.Errorf("NIA_GATEWAY_RETRIES must be at least 1")
	}

	return nil
}

// GetEndpointInfo возвращает информацию об используемых сервисах
func (c *GatewayConfig) GetEndpointInfo() map[string]interface{} {
	return map[string]interface{}{
		"interview": c.InterviewURL,
		"chat":      c.ChatURL,
		"resume":    c.ResumeURL,
		"roadmap":   c.RoadmapURL,
		"timeout":   c.Timeout.String(),
		"retries":   c.Retries,
	}
}
