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
	"time"

	"AksaraAI/pkg/config"
)

const (
	deepseekDefaultBaseURL = "https://api.deepseek.com/v1"
	deepseekMaxTokens      = 4096
	deepseekTemperature    = 0.7
	deepseekDoneSentinel   = "[DONE]"
)

// DeepSeekService streams replies from the DeepSeek chat-completions
// endpoint. Text only; the response is an OpenAI-style SSE stream that
// is parsed here into plain text deltas.
type DeepSeekService struct {
	apiKey  string
	model   string
	baseURL string
	client  *http.Client
}

func NewDeepSeekService(cfg *config.Config) *DeepSeekService {
	baseURL := strings.TrimSpace(cfg.DeepSeekBaseURL)
	if baseURL == "" {
		baseURL = deepseekDefaultBaseURL
	}
	return &DeepSeekService{
		apiKey:  cfg.DeepSeekAPIKey,
		model:   cfg.DeepSeekModel,
		baseURL: strings.TrimRight(baseURL, "/"),
		client: &http.Client{
			// bounded connection setup, no overall deadline on the
			// stream itself
			Transport: &http.Transport{ResponseHeaderTimeout: 60 * time.Second},
		},
	}
}

// StreamChat posts one stream=true completion request and forwards
// each delta fragment to onDelta until the [DONE] sentinel or the
// connection closes. Does not retry.
func (s *DeepSeekService) StreamChat(ctx context.Context, systemInstruction string, history []ChatMessage, message string, onDelta func(string)) (string, error) {
	if strings.TrimSpace(s.apiKey) == "" {
		return "", fmt.Errorf("%w: DEEPSEEK_API_KEY is not set", ErrProvider)
	}

	messages := make([]map[string]string, 0, len(history)+2)
	messages = append(messages, map[string]string{"role": "system", "content": systemInstruction})
	for _, m := range history {
		role := strings.ToLower(strings.TrimSpace(m.Role))
		if role != "user" && role != "assistant" {
			role = "user"
		}
		messages = append(messages, map[string]string{"role": role, "content": m.Text})
	}
	messages = append(messages, map[string]string{"role": "user", "content": message})

	body, err := json.Marshal(map[string]any{
		"model":       s.model,
		"messages":    messages,
		"temperature": deepseekTemperature,
		"max_tokens":  deepseekMaxTokens,
		"stream":      true,
	})
	if err != nil {
		return "", err
	}

	url := s.baseURL + "/chat/completions"
	log.Printf("[deepseek] streaming model %s", s.model)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+s.apiKey)

	resp, err := s.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrProvider, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		b, _ := io.ReadAll(resp.Body)
		return "", fmt.Errorf("%w: status %d: %s", ErrProvider, resp.StatusCode, strings.TrimSpace(string(b)))
	}

	return readDeepSeekStream(resp.Body, onDelta)
}

// deltaChunk is the subset of the SSE payload we care about.
type deltaChunk struct {
	Choices []struct {
		Delta struct {
			Content string `json:"content"`
		} `json:"delta"`
	} `json:"choices"`
}

// readDeepSeekStream consumes "data: " lines until the [DONE] sentinel
// or EOF. Lines that fail to parse as JSON are skipped, never fatal.
func readDeepSeekStream(r io.Reader, onDelta func(string)) (string, error) {
	full := strings.Builder{}
	scanner := bufio.NewScanner(r)
	buf := make([]byte, 0, 64*1024)
	scanner.Buffer(buf, 1024*1024)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if !strings.HasPrefix(line, "data:") {
			continue
		}
		data := strings.TrimSpace(line[5:])
		if data == deepseekDoneSentinel {
			break
		}
		var chunk deltaChunk
		if err := json.Unmarshal([]byte(data), &chunk); err != nil {
			log.Printf("[deepseek] skipping malformed stream line: %v", err)
			continue
		}
		if len(chunk.Choices) == 0 {
			continue
		}
		content := chunk.Choices[0].Delta.Content
		if content == "" {
			continue
		}
		full.WriteString(content)
		if onDelta != nil {
			onDelta(content)
		}
	}
	if err := scanner.Err(); err != nil {
		return full.String(), fmt.Errorf("%w: stream read: %v", ErrProvider, err)
	}
	return full.String(), nil
}
