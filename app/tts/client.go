package tts

import (
	"bytes"
	"context"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"github.com/zyjarge/podcast-studio/app/pipeline"
)

const (
	defaultBaseURL = "https://api.minimaxi.com"
	defaultModel   = "speech-02-hd"
)

// Client wraps the MiniMax text-to-speech API. Synthesized audio is written
// to audioDir and served by the HTTP server under /audio/.
type Client struct {
	apiKey     string
	baseURL    string
	model      string
	audioDir   string
	httpClient *http.Client
}

// Option customizes the MiniMax client.
type Option func(*Client)

// WithHTTPClient overrides the default HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		if client != nil {
			c.httpClient = client
		}
	}
}

// WithBaseURL overrides the default API base (useful for tests/mocks).
func WithBaseURL(base string) Option {
	return func(c *Client) {
		base = strings.TrimSpace(base)
		if base != "" {
			c.baseURL = strings.TrimRight(base, "/")
		}
	}
}

// WithModel overrides the default speech model.
func WithModel(model string) Option {
	return func(c *Client) {
		model = strings.TrimSpace(model)
		if model != "" {
			c.model = model
		}
	}
}

// NewClient constructs a MiniMax API client that stores audio under audioDir.
func NewClient(apiKey, audioDir string, opts ...Option) *Client {
	client := &Client{
		apiKey:     strings.TrimSpace(apiKey),
		baseURL:    defaultBaseURL,
		model:      defaultModel,
		audioDir:   audioDir,
		httpClient: http.DefaultClient,
	}
	for _, opt := range opts {
		opt(client)
	}
	if client.baseURL == "" {
		client.baseURL = defaultBaseURL
	}
	if client.httpClient == nil {
		client.httpClient = http.DefaultClient
	}
	return client
}

type synthesisRequest struct {
	Model        string       `json:"model"`
	Text         string       `json:"text"`
	Stream       bool         `json:"stream"`
	VoiceSetting voiceSetting `json:"voice_setting"`
	AudioSetting audioSetting `json:"audio_setting"`
}

type voiceSetting struct {
	VoiceID string  `json:"voice_id"`
	Speed   float64 `json:"speed"`
	Vol     float64 `json:"vol"`
	Pitch   int     `json:"pitch"`
}

type audioSetting struct {
	SampleRate int    `json:"sample_rate"`
	Format     string `json:"format"`
	Bitrate    int    `json:"bitrate"`
	Channel    int    `json:"channel"`
}

type synthesisResponse struct {
	Data struct {
		Audio string `json:"audio"`
	} `json:"data"`
	ExtraInfo struct {
		AudioLength int `json:"audio_length"`
	} `json:"extra_info"`
	BaseResp struct {
		StatusCode int    `json:"status_code"`
		StatusMsg  string `json:"status_msg"`
	} `json:"base_resp"`
}

// Synthesize converts a script into an MP3 file and returns its public URL
// path plus the reported duration. Implements pipeline.SpeechSynthesizer.
func (c *Client) Synthesize(ctx context.Context, script, voiceID string) (pipeline.SynthesisResult, error) {
	var empty pipeline.SynthesisResult

	if strings.TrimSpace(c.apiKey) == "" {
		return empty, errors.New("minimax: api key required")
	}
	if strings.TrimSpace(script) == "" {
		return empty, errors.New("minimax: script required")
	}
	if strings.TrimSpace(voiceID) == "" {
		return empty, errors.New("minimax: voice id required")
	}

	body := synthesisRequest{
		Model:  c.model,
		Text:   script,
		Stream: false,
		VoiceSetting: voiceSetting{
			VoiceID: voiceID,
			Speed:   1.0,
			Vol:     1.0,
			Pitch:   0,
		},
		AudioSetting: audioSetting{
			SampleRate: 32000,
			Format:     "mp3",
			Bitrate:    128000,
			Channel:    1,
		},
	}
	encoded, err := json.Marshal(body)
	if err != nil {
		return empty, fmt.Errorf("minimax: encode request: %w", err)
	}

	endpoint, err := url.JoinPath(c.baseURL, "/v1/t2a_v2")
	if err != nil {
		return empty, fmt.Errorf("minimax: build url: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(encoded))
	if err != nil {
		return empty, fmt.Errorf("minimax: request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return empty, fmt.Errorf("minimax: request failed: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return empty, fmt.Errorf("minimax: read body: %w", err)
	}
	if resp.StatusCode >= http.StatusMultipleChoices {
		return empty, fmt.Errorf("minimax: http %d: %s", resp.StatusCode, strings.TrimSpace(string(raw)))
	}

	var parsed synthesisResponse
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return empty, fmt.Errorf("minimax: decode response: %w", err)
	}
	if parsed.BaseResp.StatusCode != 0 {
		return empty, fmt.Errorf("minimax: api error %d: %s", parsed.BaseResp.StatusCode, parsed.BaseResp.StatusMsg)
	}
	if parsed.Data.Audio == "" {
		return empty, errors.New("minimax: empty audio payload")
	}

	audio, err := hex.DecodeString(parsed.Data.Audio)
	if err != nil {
		return empty, fmt.Errorf("minimax: decode audio: %w", err)
	}

	fileName := uuid.NewString() + ".mp3"
	if err := c.writeAudio(fileName, audio); err != nil {
		return empty, err
	}

	// audio_length is reported in milliseconds; round up so a segment is
	// never scheduled shorter than its actual audio.
	seconds := (parsed.ExtraInfo.AudioLength + 999) / 1000
	if seconds < 1 {
		seconds = 1
	}

	return pipeline.SynthesisResult{
		AudioURL:        "/audio/" + fileName,
		DurationSeconds: seconds,
	}, nil
}

func (c *Client) writeAudio(fileName string, audio []byte) error {
	if err := os.MkdirAll(c.audioDir, 0o755); err != nil {
		return fmt.Errorf("minimax: create audio dir: %w", err)
	}
	path := filepath.Join(c.audioDir, fileName)
	if err := os.WriteFile(path, audio, 0o644); err != nil {
		return fmt.Errorf("minimax: write audio file: %w", err)
	}
	return nil
}
