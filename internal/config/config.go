package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config contains all runtime settings for the dialogue orchestration service.
type Config struct {
	BindAddr                 string
	ShutdownTimeout          time.Duration
	SessionInactivityTimeout time.Duration
	MetricsNamespace         string

	AllowAnyOrigin bool

	// ProviderMode selects how the transcription/synthesis collaborators are
	// reached: auto (http when URLs are set, else mock), http, or mock.
	ProviderMode string

	ASRServiceURL       string
	TTSServiceURL       string
	SentimentServiceURL string
	VADServiceURL       string
	BrainHTTPURL        string
	BrainAdapterMode    string

	RedisURL    string
	DatabaseURL string
	LogDir      string

	SampleRate       int
	VADWindowSamples int
	VADThreshold     float64

	SilenceTimeout    time.Duration
	MinSpeechDuration time.Duration
	CaptureSeconds    float64

	HistoryWindow        int
	SentimentWindow      int
	ContinuationMinChars int
}

// Load reads environment variables and applies safe defaults.
func Load() (Config, error) {
	cfg := Config{
		BindAddr:         envOrDefault("APP_BIND_ADDR", ":8080"),
		MetricsNamespace: envOrDefault("APP_METRICS_NAMESPACE", "aiteacher"),
		AllowAnyOrigin:   false,
		ProviderMode:     envOrDefault("PROVIDER_MODE", "auto"),

		ASRServiceURL:       trimEnv("ASR_SERVICE_URL"),
		TTSServiceURL:       trimEnv("TTS_SERVICE_URL"),
		SentimentServiceURL: trimEnv("SENTIMENT_SERVICE_URL"),
		VADServiceURL:       trimEnv("VAD_SERVICE_URL"),
		BrainHTTPURL:        trimEnv("BRAIN_HTTP_URL"),
		BrainAdapterMode:    envOrDefault("BRAIN_ADAPTER_MODE", "auto"),

		RedisURL:    trimEnv("REDIS_URL"),
		DatabaseURL: trimEnv("DATABASE_URL"),
		LogDir:      trimEnv("LOG_DIR"),

		SampleRate: 16000,
		// Window length is fixed by the VAD classifier's calibration: 512
		// samples at 16 kHz (32 ms).
		VADWindowSamples: 512,
		VADThreshold:     0.5,

		SilenceTimeout: time.Second,
		// 0 accepts any non-zero speech duration.
		MinSpeechDuration: 0,
		CaptureSeconds:    5.0,

		HistoryWindow:        6,
		SentimentWindow:      3,
		ContinuationMinChars: 50,

		ShutdownTimeout:          15 * time.Second,
		SessionInactivityTimeout: 2 * time.Minute,
	}

	var err error
	cfg.ShutdownTimeout, err = durationFromEnv("APP_SHUTDOWN_TIMEOUT", cfg.ShutdownTimeout)
	if err != nil {
		return Config{}, err
	}
	cfg.SessionInactivityTimeout, err = durationFromEnv("APP_SESSION_INACTIVITY_TIMEOUT", cfg.SessionInactivityTimeout)
	if err != nil {
		return Config{}, err
	}
	cfg.AllowAnyOrigin, err = boolFromEnv("APP_ALLOW_ANY_ORIGIN", cfg.AllowAnyOrigin)
	if err != nil {
		return Config{}, err
	}
	cfg.SampleRate, err = intFromEnv("AUDIO_SAMPLE_RATE", cfg.SampleRate)
	if err != nil {
		return Config{}, err
	}
	cfg.VADWindowSamples, err = intFromEnv("VAD_WINDOW_SAMPLES", cfg.VADWindowSamples)
	if err != nil {
		return Config{}, err
	}
	cfg.VADThreshold, err = floatFromEnv("VAD_THRESHOLD", cfg.VADThreshold)
	if err != nil {
		return Config{}, err
	}
	cfg.SilenceTimeout, err = durationFromEnv("SILENCE_TIMEOUT", cfg.SilenceTimeout)
	if err != nil {
		return Config{}, err
	}
	cfg.MinSpeechDuration, err = durationFromEnv("MIN_SPEECH_DURATION", cfg.MinSpeechDuration)
	if err != nil {
		return Config{}, err
	}
	cfg.CaptureSeconds, err = floatFromEnv("CAPTURE_SECONDS", cfg.CaptureSeconds)
	if err != nil {
		return Config{}, err
	}
	cfg.HistoryWindow, err = intFromEnv("HISTORY_WINDOW", cfg.HistoryWindow)
	if err != nil {
		return Config{}, err
	}
	cfg.SentimentWindow, err = intFromEnv("SENTIMENT_WINDOW", cfg.SentimentWindow)
	if err != nil {
		return Config{}, err
	}
	cfg.ContinuationMinChars, err = intFromEnv("CONTINUATION_MIN_CHARS", cfg.ContinuationMinChars)
	if err != nil {
		return Config{}, err
	}

	if cfg.SessionInactivityTimeout < 5*time.Second {
		return Config{}, fmt.Errorf("APP_SESSION_INACTIVITY_TIMEOUT must be at least 5s")
	}
	if cfg.SampleRate <= 0 {
		return Config{}, fmt.Errorf("AUDIO_SAMPLE_RATE must be positive")
	}
	if cfg.VADWindowSamples <= 0 {
		return Config{}, fmt.Errorf("VAD_WINDOW_SAMPLES must be positive")
	}
	if cfg.VADThreshold < 0 || cfg.VADThreshold > 1 {
		return Config{}, fmt.Errorf("VAD_THRESHOLD must be in [0,1]")
	}
	if cfg.SilenceTimeout <= 0 {
		return Config{}, fmt.Errorf("SILENCE_TIMEOUT must be positive")
	}
	if cfg.MinSpeechDuration < 0 {
		return Config{}, fmt.Errorf("MIN_SPEECH_DURATION must be >= 0")
	}
	if cfg.CaptureSeconds <= 0 {
		return Config{}, fmt.Errorf("CAPTURE_SECONDS must be positive")
	}
	if cfg.HistoryWindow <= 0 {
		return Config{}, fmt.Errorf("HISTORY_WINDOW must be positive")
	}
	if cfg.SentimentWindow <= 0 {
		return Config{}, fmt.Errorf("SENTIMENT_WINDOW must be positive")
	}
	if cfg.ContinuationMinChars < 0 {
		return Config{}, fmt.Errorf("CONTINUATION_MIN_CHARS must be >= 0")
	}

	mode := strings.ToLower(strings.TrimSpace(cfg.ProviderMode))
	switch mode {
	case "auto", "http", "mock":
		cfg.ProviderMode = mode
	default:
		return Config{}, fmt.Errorf("invalid PROVIDER_MODE: %q (expected auto|http|mock)", cfg.ProviderMode)
	}

	return cfg, nil
}

// WindowDuration is the playback duration of one VAD analysis window.
func (c Config) WindowDuration() time.Duration {
	return time.Duration(float64(c.VADWindowSamples) / float64(c.SampleRate) * float64(time.Second))
}

func envOrDefault(key, fallback string) string {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	return v
}

func trimEnv(key string) string {
	return strings.TrimSpace(os.Getenv(key))
}

func durationFromEnv(key string, fallback time.Duration) (time.Duration, error) {
	v := trimEnv(key)
	if v == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("%s parse error: %w", key, err)
	}
	return d, nil
}

func intFromEnv(key string, fallback int) (int, error) {
	v := trimEnv(key)
	if v == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("%s parse error: %w", key, err)
	}
	return n, nil
}

func floatFromEnv(key string, fallback float64) (float64, error) {
	v := trimEnv(key)
	if v == "" {
		return fallback, nil
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return 0, fmt.Errorf("%s parse error: %w", key, err)
	}
	return f, nil
}

func boolFromEnv(key string, fallback bool) (bool, error) {
	v := strings.ToLower(trimEnv(key))
	if v == "" {
		return fallback, nil
	}
	switch v {
	case "1", "true", "t", "yes", "y", "on":
		return true, nil
	case "0", "false", "f", "no", "n", "off":
		return false, nil
	default:
		return false, fmt.Errorf("%s parse error: expected bool", key)
	}
}
