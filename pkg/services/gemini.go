package services

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"strings"

	"AksaraAI/pkg/config"
)

const geminiDefaultBaseURL = "https://generativelanguage.googleapis.com/v1beta"

// GeminiService streams replies from the Gemini generateContent API.
// It speaks the REST surface directly; multi-turn history plus one
// optional inline image are sent in a single streaming call.
type GeminiService struct {
	apiKey  string
	model   string
	baseURL string
	client  *http.Client
}

func NewGeminiService(cfg *config.Config) *GeminiService {
	baseURL := strings.TrimSpace(cfg.GeminiBaseURL)
	if baseURL == "" {
		baseURL = geminiDefaultBaseURL
	}
	return &GeminiService{
		apiKey:  cfg.GeminiAPIKey,
		model:   cfg.GeminiModel,
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  http.DefaultClient,
	}
}

// StreamChat sends the history plus the new turn (text and/or image)
// and forwards every non-empty text chunk to onDelta as it arrives.
// Returns the concatenated text. Does not retry.
func (s *GeminiService) StreamChat(ctx context.Context, systemInstruction string, history []ChatMessage, message string, img *ImagePart, useSearch bool, onDelta func(string)) (string, error) {
	if strings.TrimSpace(s.apiKey) == "" {
		return "", fmt.Errorf("%w: GEMINI_API_KEY is not set", ErrProvider)
	}

	body, err := s.buildPayload(systemInstruction, history, message, img, useSearch)
	if err != nil {
		return "", err
	}

	url := fmt.Sprintf("%s/models/%s:streamGenerateContent?key=%s", s.baseURL, s.model, s.apiKey)
	log.Printf("[gemini] streaming model %s", s.model)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "text/event-stream")

	resp, err := s.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrProvider, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		b, _ := io.ReadAll(resp.Body)
		return "", fmt.Errorf("%w: status %d: %s", ErrProvider, resp.StatusCode, strings.TrimSpace(string(b)))
	}

	return readGeminiStream(resp.Body, onDelta)
}

func (s *GeminiService) buildPayload(systemInstruction string, history []ChatMessage, message string, img *ImagePart, useSearch bool) ([]byte, error) {
	contents := make([]any, 0, len(history)+1)
	for _, m := range history {
		role := strings.ToLower(strings.TrimSpace(m.Role))
		if role != "user" && role != "model" {
			role = "user"
		}
		contents = append(contents, map[string]any{
			"role":  role,
			"parts": []any{map[string]any{"text": m.Text}},
		})
	}

	parts := []any{}
	if img != nil {
		parts = append(parts, map[string]any{
			"inline_data": map[string]any{
				"mime_type": img.MIMEType,
				"data":      img.Data,
			},
		})
	}
	if message != "" {
		parts = append(parts, map[string]any{"text": message})
	}
	contents = append(contents, map[string]any{"role": "user", "parts": parts})

	reqBody := map[string]any{
		"systemInstruction": map[string]any{
			"parts": []any{map[string]any{"text": systemInstruction}},
		},
		"contents": contents,
		"generationConfig": map[string]any{
			"temperature":     0.7,
			"maxOutputTokens": 4096,
			"topK":            40,
			"topP":            0.9,
		},
	}
	if useSearch {
		// Google Search grounding tool
		reqBody["tools"] = []any{map[string]any{"google_search": map[string]any{}}}
	}
	return json.Marshal(reqBody)
}

// readGeminiStream walks the streamed response line by line. Lines may
// or may not carry an SSE "data:" prefix depending on the transport;
// anything that does not parse as a candidates object is skipped.
func readGeminiStream(r io.Reader, onDelta func(string)) (string, error) {
	full := strings.Builder{}
	scanner := bufio.NewScanner(r)
	buf := make([]byte, 0, 64*1024)
	scanner.Buffer(buf, 1024*1024)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		if strings.HasPrefix(strings.ToLower(line), "data:") {
			line = strings.TrimSpace(line[5:])
		}
		var obj map[string]any
		if err := json.Unmarshal([]byte(line), &obj); err != nil {
			continue
		}
		for _, txt := range candidateTexts(obj) {
			if txt == "" {
				continue
			}
			full.WriteString(txt)
			if onDelta != nil {
				onDelta(txt)
			}
		}
	}
	if err := scanner.Err(); err != nil {
		return full.String(), fmt.Errorf("%w: stream read: %v", ErrProvider, err)
	}
	return full.String(), nil
}

func candidateTexts(obj map[string]any) []string {
	cands, ok := obj["candidates"].([]any)
	if !ok || len(cands) == 0 {
		return nil
	}
	first, ok := cands[0].(map[string]any)
	if !ok {
		return nil
	}
	content, ok := first["content"].(map[string]any)
	if !ok {
		return nil
	}
	parts, ok := content["parts"].([]any)
	if !ok {
		return nil
	}
	var out []string
	for _, p := range parts {
		if pm, ok := p.(map[string]any); ok {
			if txt, ok := pm["text"].(string); ok {
				out = append(out, txt)
			}
		}
	}
	return out
}
