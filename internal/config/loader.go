package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"gopkg.in/yaml.v3"
)

var validDifficulties = map[string]bool{
	"beginner":     true,
	"intermediate": true,
	"advanced":     true,
}

// Load загружает конфигурацию из YAML файла. Незаданные поля берутся из Default.
func Load(filename string) (*Config, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("ошибка чтения файла %s: %w", filename, err)
	}

	config := Default()
	err = yaml.Unmarshal(data, config)
	if err != nil {
		return nil, fmt.Errorf("ошибка парсинга YAML: %w", err)
	}

	// Валидация конфигурации
	err = validateConfig(config)
	if err != nil {
		return nil, fmt.Errorf("ошибка валидации конфигурации: %w", err)
	}

	return config, nil
}

// LoadOrDefault как Load, но отсутствующий файл не ошибка
func LoadOrDefault(filename string) (*Config, error) {
	config, err := Load(filename)
	if errors.Is(err, fs.ErrNotExist) {
		return Default(), nil
	}
	return config, err
}

// validateConfig проверяет корректность конфигурации
func validateConfig(config *Config) error {
	if config.Interview.QuestionCount <= 0 {
		return fmt.Errorf("question_count должно быть больше 0")
	}

	if !validDifficulties[config.Interview.Difficulty] {
		return fmt.Errorf("неизвестная сложность %q", config.Interview.Difficulty)
	}

	timings := map[string]int64{
		"reveal_interval": int64(config.Timing.RevealInterval),
		"speak_delay":     int64(config.Timing.SpeakDelay),
		"advance_delay":   int64(config.Timing.AdvanceDelay),
		"ask_delay":       int64(config.Timing.AskDelay),
	}
	for name, value := range timings {
		if value < 0 {
			return fmt.Errorf("%s не может быть отрицательным", name)
		}
	}

	return nil
}
