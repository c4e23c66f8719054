package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"path/filepath"
	"strings"
)

// Ask задает вопрос карьерному ассистенту
func (c *Client) Ask(ctx context.Context, query string) (string, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return "", fmt.Errorf("пустой вопрос")
	}
	body, err := c.postJSON(ctx, "ask", endpoint(c.cfg.ChatURL, "/ask"), askRequest{Query: query})
	if err != nil {
		return "", err
	}
	var resp askResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return "", fmt.Errorf("ошибка парсинга ответа: %w", err)
	}
	return resp.Response, nil
}

// AnalyzeResume загружает PDF резюме и возвращает текст анализа
func (c *Client) AnalyzeResume(ctx context.Context, filename string, file io.Reader) (string, error) {
	if !strings.EqualFold(filepath.Ext(filename), ".pdf") {
		return "", ErrUnsupportedFile
	}

	var buf bytes.Buffer
	form := multipart.NewWriter(&buf)
	part, err := form.CreateFormFile("file", filepath.Base(filename))
	if err != nil {
		return "", fmt.Errorf("ошибка создания формы: %w", err)
	}
	if _, err := io.Copy(part, file); err != nil {
		return "", fmt.Errorf("ошибка чтения файла %s: %w", filename, err)
	}
	if err := form.Close(); err != nil {
		return "", fmt.Errorf("ошибка создания формы: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint(c.cfg.ResumeURL, "/analyze-resume"), &buf)
	if err != nil {
		return "", fmt.Errorf("ошибка создания запроса: %w", err)
	}
	req.Header.Set("Content-Type", form.FormDataContentType())

	body, err := c.do("analyze_resume", req)
	if err != nil {
		return "", err
	}
	var resp resumeResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return "", fmt.Errorf("ошибка парсинга ответа: %w", err)
	}
	if resp.Analysis != "" {
		return resp.Analysis, nil
	}
	return resp.Message, nil
}

// GenerateRoadmap строит план обучения для роли
func (c *Client) GenerateRoadmap(ctx context.Context, req RoadmapRequest) (*Roadmap, error) {
	if strings.TrimSpace(req.TargetRole) == "" {
		return nil, fmt.Errorf("target_role is required")
	}
	body, err := c.postJSON(ctx, "generate_roadmap", endpoint(c.cfg.RoadmapURL, "/generate-roadmap"), req)
	if err != nil {
		return nil, err
	}
	var roadmap Roadmap
	if err := json.Unmarshal(body, &roadmap); err != nil {
		return nil, fmt.Errorf("ошибка парсинга плана: %w", err)
	}
	roadmap.Raw = json.RawMessage(body)
	return &roadmap, nil
}
