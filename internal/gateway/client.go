package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"nia-mentor/internal/config"
	"nia-mentor/internal/metrics"
)

var (
	// ErrStatus ответ сервиса с кодом вне 2xx
	ErrStatus          = errors.New("unexpected gateway status")
	ErrUnsupportedFile = errors.New("only PDF files are supported")
)

const maxErrorBody = 512

// Client обращается к удаленным сервисам NIA
type Client struct {
	HTTPClient *http.Client

	cfg     config.GatewayConfig
	metrics *metrics.Metrics
	log     *logrus.Entry
	sleep   func(context.Context, time.Duration) error
}

func New(cfg config.GatewayConfig, m *metrics.Metrics, log *logrus.Entry) *Client {
	if log == nil {
		log = logrus.NewEntry(logrus.StandardLogger())
	}
	if cfg.Retries < 1 {
		cfg.Retries = 1
	}
	return &Client{
		HTTPClient: &http.Client{Timeout: cfg.Timeout},
		cfg:        cfg,
		metrics:    m,
		log:        log.WithField("component", "gateway"),
		sleep:      sleepContext,
	}
}

func endpoint(base, path string) string {
	return strings.TrimRight(base, "/") + path
}

// postJSON отправляет JSON и возвращает тело успешного ответа
func (c *Client) postJSON(ctx context.Context, op, url string, in any) ([]byte, error) {
	jsonData, err := json.Marshal(in)
	if err != nil {
		return nil, fmt.Errorf("ошибка сериализации запроса: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(jsonData))
	if err != nil {
		return nil, fmt.Errorf("ошибка создания запроса: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	return c.do(op, req)
}

func (c *Client) do(op string, req *http.Request) ([]byte, error) {
	started := time.Now()
	logger := c.log.WithFields(logrus.Fields{"operation": op, "url": req.URL.String()})

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		c.metrics.IncrementAPICall(op, false)
		logger.WithError(err).Warn("gateway request failed")
		return nil, fmt.Errorf("%s: ошибка выполнения запроса: %w", op, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		c.metrics.IncrementAPICall(op, false)
		return nil, fmt.Errorf("%s: ошибка чтения ответа: %w", op, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		c.metrics.IncrementAPICall(op, false)
		logger.WithField("status", resp.StatusCode).Warn("gateway returned error status")
		return nil, fmt.Errorf("%w: %s status=%d body=%s", ErrStatus, op, resp.StatusCode, truncate(string(body), maxErrorBody))
	}

	c.metrics.IncrementAPICall(op, true)
	logger.WithField("took", time.Since(started)).Debug("gateway request done")
	return body, nil
}

// retry повторяет fn с линейной задержкой, пока не кончатся попытки или контекст
func retry[T any](ctx context.Context, c *Client, fn func() (T, error)) (T, error) {
	var zero T
	var lastErr error

	for i := 0; i < c.cfg.Retries; i++ {
		result, err := fn()
		if err == nil {
			return result, nil
		}
		lastErr = err
		if ctx.Err() != nil || i == c.cfg.Retries-1 {
			break
		}
		wait := c.cfg.RetryBackoff * time.Duration(i+1)
		if err := c.sleep(ctx, wait); err != nil {
			break
		}
	}
	return zero, fmt.Errorf("after %d attempts: %w", c.cfg.Retries, lastErr)
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
