package controllers

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"gorm.io/gorm"

	"AksaraAI/middleware"
	"AksaraAI/models"
	"AksaraAI/pkg/cache"
	svc "AksaraAI/pkg/services"
	"AksaraAI/pkg/store"
	tokenstore "AksaraAI/pkg/token"
	utils "AksaraAI/pkg/utills"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		// CORS handled at HTTP level; allow WS here
		return true
	},
}

// WSChat bundles everything the websocket chat surface needs.
type WSChat struct {
	DB          *gorm.DB
	Store       *store.Store
	Relay       Relayer
	Limiter     *middleware.Limiter
	Cache       *cache.Cache
	CacheTTL    time.Duration
	JWTSecret   string
	Revocations *tokenstore.Revocations
}

type wsStartPayload struct {
	Type           string `json:"type"`
	Message        string `json:"message"`
	ModelID        string `json:"model_id"`
	ImageData      string `json:"image_data"`
	ConversationID *uint  `json:"conversation_id"`
	UseSearch      bool   `json:"use_search"`
}

// Handle upgrades to a websocket and streams one exchange.
// Client protocol (JSON messages):
//
//	-> {type: "start", message: string, model_id?: string, image_data?: string, conversation_id?: number}
//	<- {type: "user_saved", conversation_id: number}
//	<- {type: "delta", data: string}
//	<- {type: "done", ok: true}
//	<- {type: "error", error: string}
//
// The websocket surface owns the whole exchange, so unlike
// /send_message it persists both turns itself.
func (h *WSChat) Handle() gin.HandlerFunc {
	return func(c *gin.Context) {
		// Authenticate via ?token=JWT
		tokenStr := strings.TrimSpace(c.Query("token"))
		if tokenStr == "" {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
			return
		}
		userIDStr, _, ok := middleware.ParseBearerToken(tokenStr, h.JWTSecret, h.Revocations)
		if !ok {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
			return
		}
		uid64, _ := strconv.ParseUint(userIDStr, 10, 64)
		uid := uint(uid64)

		conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
		if err != nil {
			log.Printf("[ws] upgrade error: %v", err)
			return
		}
		defer conn.Close()

		conn.SetReadLimit(1 << 20) // 1MB
		_ = conn.SetReadDeadline(time.Now().Add(60 * time.Second))
		conn.SetPongHandler(func(string) error {
			return conn.SetReadDeadline(time.Now().Add(60 * time.Second))
		})

		// One start message per connection
		_, msgBytes, err := conn.ReadMessage()
		if err != nil {
			log.Printf("[ws] read message error: %v", err)
			return
		}
		var start wsStartPayload
		if err := json.Unmarshal(msgBytes, &start); err != nil || strings.ToLower(start.Type) != "start" {
			_ = conn.WriteJSON(gin.H{"type": "error", "error": "invalid start payload"})
			return
		}
		message := strings.TrimSpace(start.Message)
		hasImage := strings.TrimSpace(start.ImageData) != ""
		if message == "" && !hasImage {
			_ = conn.WriteJSON(gin.H{"type": "error", "error": "EmptyRequest"})
			return
		}
		if message != "" && !h.Limiter.AllowMessage(userIDStr, message) {
			_ = conn.WriteJSON(gin.H{"type": "error", "error": "duplicate message"})
			return
		}

		// Create or find conversation
		var conv *models.Conversation
		if start.ConversationID != nil {
			conv, err = h.Store.GetConversation(uid, *start.ConversationID)
			if err != nil {
				_ = conn.WriteJSON(gin.H{"type": "error", "error": "conversation not found"})
				return
			}
		} else {
			title := store.DeriveTitle(message, hasImage)
			conv, err = h.Store.CreateConversation(uid, title)
			if err != nil {
				_ = conn.WriteJSON(gin.H{"type": "error", "error": "failed to create conversation"})
				return
			}
		}

		// Concurrency guard per user
		release := h.Limiter.AcquireUserSlot(userIDStr)
		defer release()

		userMsg := models.Message{IsUser: true, Text: message, ImageData: start.ImageData}
		if err := h.Store.AppendMessage(conv.ID, &userMsg); err != nil {
			_ = conn.WriteJSON(gin.H{"type": "error", "error": "failed to save message"})
			return
		}
		_ = conn.WriteJSON(gin.H{"type": "user_saved", "conversation_id": conv.ID})

		// Recent prior turns only; long histories are trimmed to keep
		// the provider payload small.
		var history []svc.ChatTurn
		for _, m := range conv.Messages {
			history = append(history, svc.ChatTurn{IsUser: m.IsUser, Text: utils.TruncateRunes(m.Text, 200)})
		}
		if len(history) > 6 {
			history = history[len(history)-6:]
		}

		// per-user system prompt override
		systemPrompt := ""
		var user models.User
		if err := h.DB.First(&user, uid).Error; err == nil {
			systemPrompt = user.SystemPrompt
		}

		parentCtx, cancelTimeout := context.WithTimeout(c.Request.Context(), 75*time.Second)
		ctx, cancel := context.WithCancel(parentCtx)
		defer func() {
			cancel()
			cancelTimeout()
		}()

		// Listen for {type:"stop"} while streaming
		stopCh := make(chan struct{})
		go func() {
			for {
				if err := conn.SetReadDeadline(time.Now().Add(60 * time.Second)); err != nil {
					return
				}
				mt, msg, err := conn.ReadMessage()
				if err != nil {
					return
				}
				if mt != websocket.TextMessage && mt != websocket.BinaryMessage {
					continue
				}
				var obj struct {
					Type string `json:"type"`
				}
				_ = json.Unmarshal(msg, &obj)
				if strings.ToLower(strings.TrimSpace(obj.Type)) == "stop" {
					select {
					case <-stopCh:
					default:
						close(stopCh)
					}
					return
				}
			}
		}()
		isStopped := func() bool {
			select {
			case <-stopCh:
				return true
			default:
				return false
			}
		}

		var full strings.Builder
		writeDelta := func(chunk string) {
			if isStopped() {
				return
			}
			full.WriteString(chunk)
			_ = conn.WriteJSON(gin.H{"type": "delta", "data": chunk})
		}

		modelID := strings.ToLower(strings.TrimSpace(start.ModelID))
		if modelID == "" {
			modelID = svc.ModelGemini
		}

		// Cache only plain text requests; image turns are never reused
		// and grounded replies are keyed apart from ungrounded ones.
		ck := cache.KeyFromStrings("chat-final", userIDStr, modelID, strconv.FormatBool(start.UseSearch), strings.ToLower(message))
		served := false
		if !hasImage {
			if cached, ok := h.Cache.GetChatReply(ck); ok {
				streamCachedReply(cached, writeDelta, isStopped)
				served = true
			}
		}

		if !served && !isStopped() {
			req := svc.RelayRequest{
				Message:      message,
				History:      history,
				ImageData:    start.ImageData,
				Model:        modelID,
				SystemPrompt: systemPrompt,
				UseSearch:    start.UseSearch,
			}
			if _, err := h.Relay.Relay(ctx, req, writeDelta); err != nil {
				_ = conn.WriteJSON(gin.H{"type": "error", "error": relayErrorKind(err)})
				return
			}
		}

		if isStopped() {
			cancel()
		}

		botText := strings.TrimSpace(full.String())
		if botText == "" {
			botText = "Maaf, belum ada jawaban."
		}
		// persist bot message (best-effort) and cache completed replies
		_ = h.Store.AppendMessage(conv.ID, &models.Message{IsUser: false, Text: botText})
		status := cache.StatusCompleted
		if isStopped() {
			status = cache.StatusCanceled
		}
		if !hasImage {
			h.Cache.SetChatReply(ck, botText, status, h.CacheTTL)
		}

		if isStopped() {
			_ = conn.WriteJSON(gin.H{"type": "done", "ok": true, "stopped": true})
			return
		}
		_ = conn.WriteJSON(gin.H{"type": "done", "ok": true})
	}
}

// streamCachedReply replays a cached reply in small chunks so the
// client renders it like a live stream, whitespace preserved.
func streamCachedReply(text string, writeDelta func(string), isStopped func() bool) {
	runes := []rune(text)
	const chunk = 28
	for i := 0; i < len(runes); i += chunk {
		if isStopped() {
			return
		}
		end := i + chunk
		if end > len(runes) {
			end = len(runes)
		}
		writeDelta(string(runes[i:end]))
		time.Sleep(12 * time.Millisecond)
	}
}
