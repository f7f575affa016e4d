// Package speech wraps the ElevenLabs text-to-speech API.
package speech

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"go.uber.org/zap"

	"github.com/lydiaBn/mcp-market-research-agent/internal/metrics"
)

// ErrTimeout 语音合成超时
var ErrTimeout = errors.New("speech synthesis timeout")

// Synthesizer 文本转语音
type Synthesizer interface {
	// Synthesize 返回完整的 mp3 音频字节
	Synthesize(ctx context.Context, text, voiceID string) ([]byte, error)
}

// ElevenLabs ElevenLabs TTS 客户端
type ElevenLabs struct {
	baseURL    string
	apiKey     string
	modelID    string
	timeout    time.Duration
	httpClient *http.Client
	log        *zap.Logger
}

// NewElevenLabs 创建 ElevenLabs 客户端，proxyURL 为空时直连
func NewElevenLabs(baseURL, apiKey, modelID string, timeout time.Duration, proxyURL string, log *zap.Logger) *ElevenLabs {
	transport := http.DefaultTransport.(*http.Transport).Clone()
	if proxyURL != "" {
		if proxy, err := url.Parse(proxyURL); err == nil {
			transport.Proxy = http.ProxyURL(proxy)
		}
	}

	return &ElevenLabs{
		baseURL:    baseURL,
		apiKey:     apiKey,
		modelID:    modelID,
		timeout:    timeout,
		httpClient: &http.Client{Transport: transport},
		log:        log.With(zap.String("provider", "elevenlabs")),
	}
}

type ttsRequest struct {
	Text    string `json:"text"`
	ModelID string `json:"model_id"`
}

// Synthesize 调用 /v1/text-to-speech/{voice}
func (e *ElevenLabs) Synthesize(ctx context.Context, text, voiceID string) (audio []byte, err error) {
	start := time.Now()
	defer func() { metrics.ObserveUpstream("elevenlabs", start, err) }()

	if e.apiKey == "" {
		return nil, fmt.Errorf("elevenlabs api key is not configured")
	}

	if e.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, e.timeout)
		defer cancel()
	}

	jsonBody, err := json.Marshal(ttsRequest{Text: text, ModelID: e.modelID})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	endpoint := e.baseURL + "/v1/text-to-speech/" + url.PathEscape(voiceID)
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(jsonBody))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "audio/mpeg")
	httpReq.Header.Set("xi-api-key", e.apiKey)

	resp, err := e.httpClient.Do(httpReq)
	if err != nil {
		return nil, e.wrap(ctx, fmt.Errorf("failed to synthesize: %w", err))
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("elevenlabs returned status %d: %s", resp.StatusCode, string(body))
	}

	// 音频以分块流返回，拼成一个完整缓冲区
	audio, err = io.ReadAll(resp.Body)
	if err != nil {
		return nil, e.wrap(ctx, fmt.Errorf("failed to read audio stream: %w", err))
	}

	e.log.Debug("speech synthesized", zap.String("voice_id", voiceID), zap.Int("bytes", len(audio)))
	return audio, nil
}

func (e *ElevenLabs) wrap(ctx context.Context, err error) error {
	if errors.Is(ctx.Err(), context.DeadlineExceeded) || errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%w: %w", ErrTimeout, err)
	}
	return err
}
