package storage

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

const (
	DefaultDir = "results"
	filePrefix = "interview_"
	fileExt    = ".json"
)

var ErrInvalidID = errors.New("invalid interview id")

// Store хранит результаты интервью JSON файлами в одной директории
type Store struct {
	dir string
}

func NewStore(dir string) *Store {
	if dir == "" {
		dir = DefaultDir
	}
	return &Store{dir: dir}
}

func (s *Store) Dir() string { return s.dir }

func (s *Store) path(interviewID string) (string, error) {
	if interviewID == "" || strings.ContainsAny(interviewID, `/\`) || strings.Contains(interviewID, "..") {
		return "", fmt.Errorf("%w: %q", ErrInvalidID, interviewID)
	}
	return filepath.Join(s.dir, filePrefix+interviewID+fileExt), nil
}

// SaveResult сохраняет результат интервью в JSON файл
func (s *Store) SaveResult(result *InterviewResult) (string, error) {
	path, err := s.path(result.InterviewID)
	if err != nil {
		return "", err
	}

	if err := os.MkdirAll(s.dir, 0755); err != nil {
		return "", fmt.Errorf("create results dir %s: %w", s.dir, err)
	}

	jsonData, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		return "", fmt.Errorf("marshal result: %w", err)
	}

	// Пишем во временный файл, чтобы не оставить обрезанный JSON
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, jsonData, 0644); err != nil {
		return "", fmt.Errorf("write %s: %w", tmp, err)
	}
	if err := os.Rename(tmp, path); err != nil {
		_ = os.Remove(tmp)
		return "", fmt.Errorf("rename %s: %w", tmp, err)
	}
	return path, nil
}

// LoadResult загружает результат интервью из JSON файла
func (s *Store) LoadResult(interviewID string) (*InterviewResult, error) {
	path, err := s.path(interviewID)
	if err != nil {
		return nil, err
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}

	var result InterviewResult
	if err := json.Unmarshal(data, &result); err != nil {
		return nil, fmt.Errorf("decode %s: %w", path, err)
	}
	return &result, nil
}

// ListResults возвращает id сохраненных интервью в лексикографическом порядке
func (s *Store) ListResults() ([]string, error) {
	entries, err := os.ReadDir(s.dir)
	if errors.Is(err, fs.ErrNotExist) {
		return []string{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read results dir %s: %w", s.dir, err)
	}

	results := []string{}
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || filepath.Ext(name) != fileExt || !strings.HasPrefix(name, filePrefix) {
			continue
		}
		id := strings.TrimSuffix(strings.TrimPrefix(name, filePrefix), fileExt)
		if id != "" {
			results = append(results, id)
		}
	}
	sort.Strings(results)
	return results, nil
}
