package controllers

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"AksaraAI/middleware"
	"AksaraAI/models"
	svc "AksaraAI/pkg/services"
)

// Relayer is what SendMessage needs from the chat service.
type Relayer interface {
	Relay(ctx context.Context, req svc.RelayRequest, onDelta func(string)) (string, error)
}

type sendMessageBody struct {
	Message   string         `json:"message"`
	History   []svc.ChatTurn `json:"history"`
	ImageData string         `json:"imageData"`
	ModelID   string         `json:"modelId"`
	UseSearch bool           `json:"useSearch"`
}

// SendMessage relays one chat request to the selected provider and
// streams the reply. Gemini replies are a plain text/plain fragment
// stream; DeepSeek replies are re-framed as SSE. Persistence is the
// client's job via /save_message.
func SendMessage(db *gorm.DB, relay Relayer) gin.HandlerFunc {
	return func(c *gin.Context) {
		var body sendMessageBody
		if err := c.ShouldBindJSON(&body); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
			return
		}

		req := svc.RelayRequest{
			Message:   body.Message,
			History:   body.History,
			ImageData: body.ImageData,
			Model:     body.ModelID,
			UseSearch: body.UseSearch,
		}

		// per-user system prompt override, when the owner set one
		var user models.User
		if err := db.First(&user, middleware.UserID(c)).Error; err == nil {
			req.SystemPrompt = user.SystemPrompt
		}

		flusher, ok := c.Writer.(http.Flusher)
		if !ok {
			c.String(http.StatusInternalServerError, "streaming unsupported")
			return
		}

		useSSE := strings.ToLower(strings.TrimSpace(body.ModelID)) == svc.ModelDeepSeek

		started := false
		onDelta := func(chunk string) {
			if !started {
				started = true
				if useSSE {
					c.Writer.Header().Set("Content-Type", "text/event-stream")
					c.Writer.Header().Set("Cache-Control", "no-cache")
					c.Writer.Header().Set("Connection", "keep-alive")
					c.Writer.Header().Set("X-Accel-Buffering", "no") // nginx buffering off
				} else {
					c.Writer.Header().Set("Content-Type", "text/plain; charset=utf-8")
					c.Writer.Header().Set("X-Accel-Buffering", "no")
				}
				c.Writer.WriteHeader(http.StatusOK)
			}
			if useSSE {
				// one data: line per newline keeps the fragment intact;
				// the client joins multi-line events back with \n
				for _, line := range strings.Split(chunk, "\n") {
					fmt.Fprintf(c.Writer, "data: %s\n", line)
				}
				fmt.Fprint(c.Writer, "\n")
			} else {
				fmt.Fprint(c.Writer, chunk)
			}
			flusher.Flush()
		}

		if _, err := relay.Relay(c.Request.Context(), req, onDelta); err != nil {
			// validation errors surface before the first byte, so a
			// structured status is still possible here
			if !started {
				c.JSON(relayErrorStatus(err), gin.H{"error": relayErrorKind(err)})
			}
			return
		}
	}
}

func relayErrorStatus(err error) int {
	if errors.Is(err, svc.ErrProvider) {
		return http.StatusBadGateway
	}
	return http.StatusBadRequest
}

func relayErrorKind(err error) string {
	switch {
	case errors.Is(err, svc.ErrEmptyRequest):
		return "EmptyRequest"
	case errors.Is(err, svc.ErrInvalidImage):
		return "InvalidImage"
	case errors.Is(err, svc.ErrUnsupportedAttachment):
		return "UnsupportedAttachment"
	case errors.Is(err, svc.ErrUnknownModel):
		return "UnknownModel"
	case errors.Is(err, svc.ErrProvider):
		return "ProviderError"
	default:
		return "InternalError"
	}
}
