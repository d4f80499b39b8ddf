package services

import (
	"bytes"
	"context"
	"encoding/base64"
	"fmt"
	"image"
	"log"
	"strings"
	"time"

	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	"AksaraAI/pkg/config"
)

// Model ids accepted at the API boundary.
const (
	ModelGemini   = "gemini"
	ModelDeepSeek = "deepseek"
)

// Fallback fragments pushed in-band when a provider dies after the
// stream has started. Distinct per provider so the client can tell
// which backend misbehaved.
const (
	geminiFallback   = "Maaf, terjadi kesalahan saat menghubungi AI."
	deepseekFallback = "Maaf, terjadi kesalahan saat menghubungi DeepSeek."
)

// ChatTurn is one prior message as the client sends it.
type ChatTurn struct {
	IsUser bool   `json:"isUser"`
	Text   string `json:"text"`
}

// ChatMessage is a provider-shaped turn: Role is already in the
// selected provider's vocabulary.
type ChatMessage struct {
	Role string
	Text string
}

// ImagePart is a decoded inline attachment for the multi-modal provider.
type ImagePart struct {
	MIMEType string
	Data     string // base64, prefix already stripped
}

// RelayRequest is the input of one relay call.
type RelayRequest struct {
	Message      string
	History      []ChatTurn
	ImageData    string // "<metadata>,<base64>" or empty
	Model        string // ModelGemini / ModelDeepSeek, empty = gemini
	SystemPrompt string // per-user override, empty = default
	UseSearch    bool   // Google Search grounding; gemini only, others ignore it
}

// ChatService selects a provider adapter and relays its fragment
// stream to the caller. It never touches the conversation store.
type ChatService struct {
	gemini   *GeminiService
	deepseek *DeepSeekService
}

func NewChatService(cfg *config.Config) *ChatService {
	return &ChatService{
		gemini:   NewGeminiService(cfg),
		deepseek: NewDeepSeekService(cfg),
	}
}

// Relay validates the request, invokes the selected adapter in
// streaming mode and forwards each text fragment to onDelta in arrival
// order. Validation failures are returned as errors before any network
// call; provider failures after that point are reported in-band as one
// final fallback fragment and a nil error. The returned string is the
// full text the caller saw, fallback included.
func (s *ChatService) Relay(ctx context.Context, req RelayRequest, onDelta func(string)) (string, error) {
	message := strings.TrimSpace(req.Message)
	hasImage := strings.TrimSpace(req.ImageData) != ""

	if message == "" && !hasImage {
		return "", ErrEmptyRequest
	}

	model := strings.ToLower(strings.TrimSpace(req.Model))
	if model == "" {
		model = ModelGemini
	}

	systemPrompt := strings.TrimSpace(req.SystemPrompt)
	if systemPrompt == "" {
		systemPrompt = DefaultSystemInstruction(time.Now())
	}

	switch model {
	case ModelGemini:
		var img *ImagePart
		if hasImage {
			decoded, err := DecodeImagePayload(req.ImageData)
			if err != nil {
				return "", err
			}
			img = decoded
		}
		full, err := s.gemini.StreamChat(ctx, systemPrompt, geminiHistory(req.History), message, img, req.UseSearch, onDelta)
		if err != nil {
			log.Printf("[relay] gemini stream failed: %v", err)
			if onDelta != nil {
				onDelta(geminiFallback)
			}
			return full + geminiFallback, nil
		}
		return full, nil

	case ModelDeepSeek:
		if hasImage {
			return "", ErrUnsupportedAttachment
		}
		full, err := s.deepseek.StreamChat(ctx, systemPrompt, deepseekHistory(req.History), message, onDelta)
		if err != nil {
			log.Printf("[relay] deepseek stream failed: %v", err)
			if onDelta != nil {
				onDelta(deepseekFallback)
			}
			return full + deepseekFallback, nil
		}
		return full, nil

	default:
		return "", ErrUnknownModel
	}
}

// geminiHistory maps prior turns to Gemini roles (user/model).
func geminiHistory(turns []ChatTurn) []ChatMessage {
	out := make([]ChatMessage, 0, len(turns))
	for _, t := range turns {
		role := "model"
		if t.IsUser {
			role = "user"
		}
		out = append(out, ChatMessage{Role: role, Text: t.Text})
	}
	return out
}

// deepseekHistory maps prior turns to OpenAI-style roles (user/assistant).
func deepseekHistory(turns []ChatTurn) []ChatMessage {
	out := make([]ChatMessage, 0, len(turns))
	for _, t := range turns {
		role := "assistant"
		if t.IsUser {
			role = "user"
		}
		out = append(out, ChatMessage{Role: role, Text: t.Text})
	}
	return out
}

// DecodeImagePayload splits a "<metadata>,<base64>" attachment on the
// first comma, base64-decodes the remainder and checks that it really
// is an image. The MIME type comes from the metadata prefix when it
// has the usual "data:image/png;base64" shape.
func DecodeImagePayload(payload string) (*ImagePart, error) {
	payload = strings.TrimSpace(payload)
	meta := ""
	data := payload
	if i := strings.Index(payload, ","); i >= 0 {
		meta = payload[:i]
		data = payload[i+1:]
	}

	raw, err := base64.StdEncoding.DecodeString(data)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidImage, err)
	}
	if _, _, err := image.DecodeConfig(bytes.NewReader(raw)); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidImage, err)
	}

	mime := "image/png"
	if rest, ok := strings.CutPrefix(meta, "data:"); ok {
		if m, _, _ := strings.Cut(rest, ";"); m != "" {
			mime = m
		}
	}
	return &ImagePart{MIMEType: mime, Data: data}, nil
}

// DefaultSystemInstruction is the Aksara AI persona prompt, stamped
// with the current date so the model can answer time questions.
func DefaultSystemInstruction(now time.Time) string {
	currentDate := now.Format("Monday, 02 January 2006")
	return fmt.Sprintf(`Kamu adalah 'Aksara AI', sebuah asisten cerdas dari Indonesia. Tujuan utamamu adalah membantu pengguna dengan memberikan informasi yang akurat, jawaban yang mendalam, dan ide-ide kreatif. Selalu bersikap ramah, sopan, dan profesional namun tetap mudah didekati.

## Konteks Penting:
Tanggal hari ini adalah %s. Gunakan informasi ini jika pengguna bertanya tentang waktu atau hal-hal yang relevan dengan hari ini.

## Aturan & Gaya Komunikasi:
1. **Bahasa:** Selalu gunakan Bahasa Indonesia yang baik dan benar. Boleh menggunakan istilah populer atau bahasa gaul jika konteksnya santai, tapi tetap jaga kesopanan.
2. **Format Jawaban:** Selalu format jawabanmu menggunakan Markdown untuk keterbacaan yang lebih baik. Gunakan heading, bullet points, dan bold jika diperlukan untuk menyusun informasi.
3. **Kejujuran & Keterbatasan:** Jika kamu tidak yakin atau tidak tahu jawaban dari suatu pertanyaan, jujur saja. Katakan sesuatu seperti, 'Maaf, saya belum memiliki informasi mengenai hal itu.' Jangan mengarang jawaban.
4. **Klarifikasi:** Jika pertanyaan pengguna ambigu atau kurang jelas, jangan langsung menjawab. Ajukan pertanyaan klarifikasi terlebih dahulu.
5. **Proaktif:** Jangan hanya menjawab pertanyaan. Jika memungkinkan, berikan informasi tambahan yang relevan atau ajukan pertanyaan lanjutan untuk memancing diskusi yang lebih dalam.`, currentDate)
}
