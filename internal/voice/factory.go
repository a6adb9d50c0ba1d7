package voice

import (
	"fmt"
	"strings"

	"github.com/amritansh005/Ai-Teacher/internal/config"
)

// Providers bundles the collaborator clients one deployment uses.
type Providers struct {
	Transcriber Transcriber
	Synthesizer Synthesizer
}

// NewProviders selects collaborator providers by mode: auto picks http when
// both service URLs are configured, mock otherwise.
func NewProviders(cfg config.Config) (Providers, error) {
	mode := strings.ToLower(strings.TrimSpace(cfg.ProviderMode))
	haveURLs := cfg.ASRServiceURL != "" && cfg.TTSServiceURL != ""

	switch mode {
	case "", "auto":
		if haveURLs {
			return httpProviders(cfg), nil
		}
		return mockProviders(cfg), nil
	case "http":
		if !haveURLs {
			return Providers{}, fmt.Errorf("PROVIDER_MODE=http requires ASR_SERVICE_URL and TTS_SERVICE_URL")
		}
		return httpProviders(cfg), nil
	case "mock":
		return mockProviders(cfg), nil
	default:
		return Providers{}, fmt.Errorf("invalid PROVIDER_MODE: %q (expected auto|http|mock)", mode)
	}
}

func httpProviders(cfg config.Config) Providers {
	return Providers{
		Transcriber: NewHTTPTranscriber(cfg.ASRServiceURL, cfg.SampleRate),
		Synthesizer: NewHTTPSynthesizer(cfg.TTSServiceURL),
	}
}

func mockProviders(cfg config.Config) Providers {
	return Providers{
		Transcriber: MockTranscriber{SampleRate: cfg.SampleRate},
		Synthesizer: NewMockSynthesizer(),
	}
}
