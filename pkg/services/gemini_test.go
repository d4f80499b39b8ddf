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

func TestReadGeminiStream(t *testing.T) {
	// mix of prefixed and bare lines; empty parts are skipped
	stream := strings.Join([]string{
		`data: {"candidates":[{"content":{"parts":[{"text":"Halo"}]}}]}`,
		`{"candidates":[{"content":{"parts":[{"text":""}]}}]}`,
		`not json at all`,
		`{"candidates":[{"content":{"parts":[{"text":", apa kabar?"}]}}]}`,
	}, "\n")

	var got []string
	full, err := readGeminiStream(strings.NewReader(stream), func(s string) {
		got = append(got, s)
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if full != "Halo, apa kabar?" {
		t.Errorf("full = %q, want %q", full, "Halo, apa kabar?")
	}
	if len(got) != 2 {
		t.Errorf("fragments = %v, want two non-empty fragments", got)
	}
}

func TestGeminiStreamChat(t *testing.T) {
	var gotPath string
	var gotBody map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path + "?" + r.URL.RawQuery
		if err := json.NewDecoder(r.Body).Decode(&gotBody); err != nil {
			t.Errorf("decode request: %v", err)
		}
		fmt.Fprint(w, `{"candidates":[{"content":{"parts":[{"text":"Hai!"}]}}]}`+"\n")
	}))
	defer srv.Close()

	g := NewGeminiService(&config.Config{
		GeminiAPIKey:  "test-key",
		GeminiModel:   "gemini-2.0-flash",
		GeminiBaseURL: srv.URL,
	})

	history := []ChatMessage{
		{Role: "user", Text: "halo"},
		{Role: "model", Text: "hai"},
		{Role: "weird", Text: "???"},
	}
	img := &ImagePart{MIMEType: "image/png", Data: "aGVsbG8="}
	full, err := g.StreamChat(context.Background(), "kamu adalah Aksara AI", history, "lihat ini", img, false, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if full != "Hai!" {
		t.Errorf("full = %q, want %q", full, "Hai!")
	}
	if !strings.Contains(gotPath, "models/gemini-2.0-flash:streamGenerateContent") {
		t.Errorf("path = %q", gotPath)
	}
	if !strings.Contains(gotPath, "key=test-key") {
		t.Errorf("missing api key in %q", gotPath)
	}

	if _, ok := gotBody["systemInstruction"]; !ok {
		t.Error("systemInstruction missing from payload")
	}

	contents, _ := gotBody["contents"].([]any)
	if len(contents) != 4 {
		t.Fatalf("got %d contents, want history(3)+current(1)", len(contents))
	}
	// unknown roles are coerced to user
	third, _ := contents[2].(map[string]any)
	if third["role"] != "user" {
		t.Errorf("unknown role mapped to %v, want user", third["role"])
	}

	last, _ := contents[3].(map[string]any)
	parts, _ := last["parts"].([]any)
	if len(parts) != 2 {
		t.Fatalf("current turn has %d parts, want image+text", len(parts))
	}
	imgPart, _ := parts[0].(map[string]any)
	inline, _ := imgPart["inline_data"].(map[string]any)
	if inline["mime_type"] != "image/png" {
		t.Errorf("inline_data = %v", inline)
	}
	if _, ok := gotBody["tools"]; ok {
		t.Error("tools present without search grounding")
	}
}

func TestGeminiStreamChatSearchGrounding(t *testing.T) {
	var gotBody map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := json.NewDecoder(r.Body).Decode(&gotBody); err != nil {
			t.Errorf("decode request: %v", err)
		}
		fmt.Fprint(w, `{"candidates":[{"content":{"parts":[{"text":"ok"}]}}]}`+"\n")
	}))
	defer srv.Close()

	g := NewGeminiService(&config.Config{
		GeminiAPIKey:  "test-key",
		GeminiModel:   "gemini-2.0-flash",
		GeminiBaseURL: srv.URL,
	})

	if _, err := g.StreamChat(context.Background(), "", nil, "berita hari ini", nil, true, nil); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	tools, ok := gotBody["tools"].([]any)
	if !ok || len(tools) != 1 {
		t.Fatalf("tools = %v", gotBody["tools"])
	}
	tool, _ := tools[0].(map[string]any)
	if _, ok := tool["google_search"]; !ok {
		t.Errorf("tool = %v, want google_search", tool)
	}
}

func TestGeminiStreamChatBadStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "invalid key", http.StatusForbidden)
	}))
	defer srv.Close()

	g := NewGeminiService(&config.Config{
		GeminiAPIKey:  "bad-key",
		GeminiModel:   "gemini-2.0-flash",
		GeminiBaseURL: srv.URL,
	})

	_, err := g.StreamChat(context.Background(), "", nil, "halo", nil, false, nil)
	if !errors.Is(err, ErrProvider) {
		t.Fatalf("expected ErrProvider, got %v", err)
	}
}
