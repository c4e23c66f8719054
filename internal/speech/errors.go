package speech

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
)

// ErrorCode код ошибки распознавателя
type ErrorCode string

const (
	ErrorNoSpeech            ErrorCode = "no-speech"
	ErrorAborted             ErrorCode = "aborted"
	ErrorNotAllowed          ErrorCode = "not-allowed"
	ErrorAudioCapture        ErrorCode = "audio-capture"
	ErrorNetwork             ErrorCode = "network"
	ErrorServiceNotAllowed   ErrorCode = "service-not-allowed"
	ErrorLanguageUnsupported ErrorCode = "language-not-supported"
)

// Recoverable сообщает, можно ли продолжать запись после ошибки
func (c ErrorCode) Recoverable() bool {
	return c == ErrorNoSpeech || c == ErrorAborted
}

// Message текст ошибки для пользователя
func (c ErrorCode) Message() string {
	switch c {
	case ErrorNotAllowed, ErrorServiceNotAllowed:
		return "Microphone access denied. Please allow microphone access and try again."
	case ErrorAudioCapture:
		return "Microphone not available. Please check your microphone connection."
	case ErrorNetwork:
		return "Network error. Please check your internet connection."
	default:
		return fmt.Sprintf("Speech recognition error: %s", string(c))
	}
}

var (
	ErrPermissionDenied = errors.New("permission denied")
	ErrDeviceNotFound   = errors.New("device not found")
	ErrDeviceBusy       = errors.New("device busy")
	ErrInsecureContext  = errors.New("insecure context")
	ErrNotSupported     = errors.New("capability not supported")
)

// DeviceErrorMessage переводит ошибку доступа к устройству в сообщение для пользователя
func DeviceErrorMessage(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrPermissionDenied):
		return "Microphone access denied. Please allow microphone access in your browser settings and refresh the page."
	case errors.Is(err, ErrDeviceNotFound):
		return "No microphone found. Please connect a microphone and try again."
	case errors.Is(err, ErrDeviceBusy):
		return "Microphone is being used by another application. Please close other applications and try again."
	case errors.Is(err, ErrInsecureContext), errors.Is(err, ErrNotSupported):
		return "Voice features require a secure connection (HTTPS) and a supported environment."
	default:
		return fmt.Sprintf("Failed to access microphone: %v", err)
	}
}

// SecureOrigin проверяет, что источник допускает голосовые функции:
// https, localhost или 127.0.0.1
func SecureOrigin(origin string) bool {
	if origin == "" {
		return false
	}
	u, err := url.Parse(origin)
	if err != nil {
		return false
	}
	if strings.EqualFold(u.Scheme, "https") {
		return true
	}
	host := u.Hostname()
	return host == "localhost" || host == "127.0.0.1"
}
