package tts

import (
	"context"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func synthesisServer(t *testing.T, audio []byte, lengthMS int, capture *synthesisRequest) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/t2a_v2" {
			t.Errorf("Expected path /v1/t2a_v2, got %s", r.URL.Path)
		}
		if auth := r.Header.Get("Authorization"); auth != "Bearer test-key" {
			t.Errorf("Expected bearer auth, got %q", auth)
		}
		if capture != nil {
			if err := json.NewDecoder(r.Body).Decode(capture); err != nil {
				t.Errorf("Failed to decode request: %v", err)
			}
		}
		fmt.Fprintf(w, `{"data":{"audio":%q},"extra_info":{"audio_length":%d},"base_resp":{"status_code":0}}`,
			hex.EncodeToString(audio), lengthMS)
	}))
}

func TestSynthesize(t *testing.T) {
	audio := []byte("fake mp3 bytes")
	var captured synthesisRequest
	server := synthesisServer(t, audio, 204400, &captured)
	defer server.Close()

	audioDir := t.TempDir()
	client := NewClient("test-key", audioDir, WithBaseURL(server.URL))

	result, err := client.Synthesize(context.Background(), "**Host A:** Hello!", "male-qn-qingse")
	if err != nil {
		t.Fatal(err)
	}

	if !strings.HasPrefix(result.AudioURL, "/audio/") || !strings.HasSuffix(result.AudioURL, ".mp3") {
		t.Errorf("Expected /audio/<file>.mp3 URL, got %q", result.AudioURL)
	}
	// 204400ms rounds up to 205 seconds.
	if result.DurationSeconds != 205 {
		t.Errorf("Expected duration 205, got %d", result.DurationSeconds)
	}

	fileName := strings.TrimPrefix(result.AudioURL, "/audio/")
	written, err := os.ReadFile(filepath.Join(audioDir, fileName))
	if err != nil {
		t.Fatalf("Expected audio file on disk: %v", err)
	}
	if string(written) != string(audio) {
		t.Error("Expected decoded audio bytes to be written verbatim")
	}

	if captured.Model != "speech-02-hd" {
		t.Errorf("Expected default model, got %q", captured.Model)
	}
	if captured.VoiceSetting.VoiceID != "male-qn-qingse" {
		t.Errorf("Expected voice id passed through, got %q", captured.VoiceSetting.VoiceID)
	}
	if captured.AudioSetting.Format != "mp3" || captured.AudioSetting.SampleRate != 32000 {
		t.Errorf("Expected mp3/32000 audio settings, got %+v", captured.AudioSetting)
	}
	if captured.Stream {
		t.Error("Expected non-streaming request")
	}
}

func TestSynthesizeMinimumDuration(t *testing.T) {
	server := synthesisServer(t, []byte("x"), 0, nil)
	defer server.Close()

	client := NewClient("test-key", t.TempDir(), WithBaseURL(server.URL))

	result, err := client.Synthesize(context.Background(), "short", "voice")
	if err != nil {
		t.Fatal(err)
	}
	if result.DurationSeconds != 1 {
		t.Errorf("Expected minimum duration 1, got %d", result.DurationSeconds)
	}
}

func TestSynthesizeAPIError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"base_resp":{"status_code":1004,"status_msg":"invalid api key"}}`))
	}))
	defer server.Close()

	client := NewClient("test-key", t.TempDir(), WithBaseURL(server.URL))

	_, err := client.Synthesize(context.Background(), "script", "voice")
	if err == nil {
		t.Fatal("Expected error from api status code")
	}
	if !strings.Contains(err.Error(), "invalid api key") {
		t.Errorf("Expected status message surfaced, got %v", err)
	}
}

func TestSynthesizeHTTPError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer server.Close()

	client := NewClient("test-key", t.TempDir(), WithBaseURL(server.URL))

	if _, err := client.Synthesize(context.Background(), "script", "voice"); err == nil {
		t.Error("Expected error for HTTP 502")
	}
}

func TestSynthesizeEmptyAudio(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"data":{"audio":""},"base_resp":{"status_code":0}}`))
	}))
	defer server.Close()

	client := NewClient("test-key", t.TempDir(), WithBaseURL(server.URL))

	if _, err := client.Synthesize(context.Background(), "script", "voice"); err == nil {
		t.Error("Expected error for empty audio payload")
	}
}

func TestSynthesizeValidation(t *testing.T) {
	client := NewClient("test-key", t.TempDir())

	if _, err := client.Synthesize(context.Background(), "", "voice"); err == nil {
		t.Error("Expected error for empty script")
	}
	if _, err := client.Synthesize(context.Background(), "script", ""); err == nil {
		t.Error("Expected error for empty voice id")
	}

	unkeyed := NewClient("", t.TempDir())
	if _, err := unkeyed.Synthesize(context.Background(), "script", "voice"); err == nil {
		t.Error("Expected error without api key")
	}
}
