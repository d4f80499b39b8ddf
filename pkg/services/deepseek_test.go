package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"AksaraAI/pkg/config"
)

func TestReadDeepSeekStream(t *testing.T) {
	stream := strings.Join([]string{
		`data: {"choices":[{"delta":{"content":"hi"}}]}`,
		`data: [DONE]`,
		`data: {"choices":[{"delta":{"content":"after done"}}]}`,
	}, "\n")

	var got []string
	full, err := readDeepSeekStream(strings.NewReader(stream), func(s string) {
		got = append(got, s)
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if full != "hi" {
		t.Errorf("full = %q, want %q", full, "hi")
	}
	if len(got) != 1 || got[0] != "hi" {
		t.Errorf("fragments = %v, want exactly [hi]", got)
	}
}

func TestReadDeepSeekStreamSkipsMalformedLines(t *testing.T) {
	stream := strings.Join([]string{
		`data: {"choices":[{"delta":{"content":"a"}}]}`,
		`data: not-json`,
		``,
		`: keep-alive comment`,
		`data: {"choices":[]}`,
		`data: {"choices":[{"delta":{"content":"b"}}]}`,
		`data: [DONE]`,
	}, "\n")

	full, err := readDeepSeekStream(strings.NewReader(stream), nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if full != "ab" {
		t.Errorf("full = %q, want %q", full, "ab")
	}
}

func TestDeepSeekStreamChat(t *testing.T) {
	var gotAuth string
	var gotBody map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		if err := json.NewDecoder(r.Body).Decode(&gotBody); err != nil {
			t.Errorf("decode request: %v", err)
		}
		w.Header().Set("Content-Type", "text/event-stream")
		fmt.Fprint(w, "data: {\"choices\":[{\"delta\":{\"content\":\"halo\"}}]}\n\n")
		fmt.Fprint(w, "data: {\"choices\":[{\"delta\":{\"content\":\" dunia\"}}]}\n\n")
		fmt.Fprint(w, "data: [DONE]\n\n")
	}))
	defer srv.Close()

	ds := NewDeepSeekService(&config.Config{
		DeepSeekAPIKey:  "sk-test",
		DeepSeekModel:   "deepseek-chat",
		DeepSeekBaseURL: srv.URL,
	})

	history := []ChatMessage{{Role: "assistant", Text: "hai"}}
	full, err := ds.StreamChat(context.Background(), "kamu adalah asisten", history, "halo", nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if full != "halo dunia" {
		t.Errorf("full = %q, want %q", full, "halo dunia")
	}
	if gotAuth != "Bearer sk-test" {
		t.Errorf("auth header = %q", gotAuth)
	}
	if gotBody["stream"] != true {
		t.Errorf("stream = %v, want true", gotBody["stream"])
	}

	msgs, _ := gotBody["messages"].([]any)
	if len(msgs) != 3 {
		t.Fatalf("got %d messages, want system+history+user", len(msgs))
	}
	first, _ := msgs[0].(map[string]any)
	if first["role"] != "system" {
		t.Errorf("first role = %v, want system", first["role"])
	}
	last, _ := msgs[2].(map[string]any)
	if last["role"] != "user" || last["content"] != "halo" {
		t.Errorf("last message = %v", last)
	}
}

func TestDeepSeekStreamChatBadStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "quota exceeded", http.StatusTooManyRequests)
	}))
	defer srv.Close()

	ds := NewDeepSeekService(&config.Config{
		DeepSeekAPIKey:  "sk-test",
		DeepSeekModel:   "deepseek-chat",
		DeepSeekBaseURL: srv.URL,
	})

	_, err := ds.StreamChat(context.Background(), "", nil, "halo", nil)
	if !errors.Is(err, ErrProvider) {
		t.Fatalf("expected ErrProvider, got %v", err)
	}
}

func TestDeepSeekStreamChatMissingKey(t *testing.T) {
	ds := NewDeepSeekService(&config.Config{DeepSeekModel: "deepseek-chat"})
	_, err := ds.StreamChat(context.Background(), "", nil, "halo", nil)
	if !errors.Is(err, ErrProvider) {
		t.Fatalf("expected ErrProvider, got %v", err)
	}
}
