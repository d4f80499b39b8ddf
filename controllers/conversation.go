package controllers

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"AksaraAI/middleware"
	"AksaraAI/models"
	"AksaraAI/pkg/store"
)

type messageData struct {
	IsUser      bool   `json:"isUser"`
	Text        string `json:"text"`
	HTMLContent string `json:"htmlContent"`
	ImageData   string `json:"imageData"`
}

// SaveMessage appends one turn to a conversation, creating the
// conversation lazily on the first message. The title is derived from
// that first message and never changes again except via /update_title.
func SaveMessage(st *store.Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		uid := middleware.UserID(c)

		var body struct {
			ConversationID *uint        `json:"conversationId"`
			MessageData    *messageData `json:"messageData"`
		}
		if err := c.ShouldBindJSON(&body); err != nil || body.MessageData == nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "messageData is required"})
			return
		}
		md := body.MessageData
		if strings.TrimSpace(md.Text) == "" && strings.TrimSpace(md.ImageData) == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "EmptyRequest"})
			return
		}

		var convID uint
		if body.ConversationID != nil {
			conv, err := st.GetConversation(uid, *body.ConversationID)
			if err != nil {
				c.JSON(http.StatusNotFound, gin.H{"error": "conversation not found"})
				return
			}
			convID = conv.ID
		} else {
			title := store.DeriveTitle(md.Text, strings.TrimSpace(md.ImageData) != "")
			conv, err := st.CreateConversation(uid, title)
			if err != nil {
				c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to create conversation"})
				return
			}
			convID = conv.ID
		}

		msg := models.Message{
			IsUser:      md.IsUser,
			Text:        md.Text,
			HTMLContent: md.HTMLContent,
			ImageData:   md.ImageData,
		}
		if err := st.AppendMessage(convID, &msg); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to save message"})
			return
		}

		c.JSON(http.StatusOK, gin.H{"status": "success", "conversationId": convID})
	}
}

// ListConversations returns the owner's conversations, most recently
// active first.
func ListConversations(st *store.Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		uid := middleware.UserID(c)

		convs, err := st.ListConversations(uid)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "db error"})
			return
		}

		result := make([]gin.H, 0, len(convs))
		for _, conv := range convs {
			result = append(result, gin.H{
				"id":          conv.ID,
				"title":       conv.Title,
				"lastUpdated": conv.LastUpdated,
			})
		}
		c.JSON(http.StatusOK, gin.H{"conversations": result})
	}
}

// GetConversation returns one conversation's messages in replay order.
func GetConversation(st *store.Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		uid := middleware.UserID(c)
		convID := parseConvID(c)

		conv, err := st.GetConversation(uid, convID)
		if err != nil {
			c.JSON(http.StatusNotFound, gin.H{"error": "conversation not found"})
			return
		}

		messages := make([]gin.H, 0, len(conv.Messages))
		for _, m := range conv.Messages {
			messages = append(messages, gin.H{
				"id":          m.ID,
				"isUser":      m.IsUser,
				"text":        m.Text,
				"htmlContent": m.HTMLContent,
				"imageData":   m.ImageData,
				"timestamp":   m.Timestamp,
			})
		}
		c.JSON(http.StatusOK, gin.H{
			"conversationId": conv.ID,
			"title":          conv.Title,
			"messages":       messages,
		})
	}
}

// UpdateTitle renames a conversation.
func UpdateTitle(st *store.Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		uid := middleware.UserID(c)
		convID := parseConvID(c)

		var body struct {
			Title string `json:"title"`
		}
		if err := c.ShouldBindJSON(&body); err != nil || strings.TrimSpace(body.Title) == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "title is required"})
			return
		}

		if err := st.RenameConversation(uid, convID, strings.TrimSpace(body.Title)); err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				c.JSON(http.StatusNotFound, gin.H{"error": "conversation not found"})
				return
			}
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to rename conversation"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "success"})
	}
}

// DeleteConversation removes a conversation and every message in it.
func DeleteConversation(st *store.Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		uid := middleware.UserID(c)
		convID := parseConvID(c)

		if err := st.DeleteConversation(uid, convID); err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				c.JSON(http.StatusNotFound, gin.H{"error": "conversation not found"})
				return
			}
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to delete conversation"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "success"})
	}
}

// DeleteAllConversations wipes the owner's whole history.
func DeleteAllConversations(st *store.Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		uid := middleware.UserID(c)

		if err := st.DeleteAllConversations(uid); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to delete conversations"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "success"})
	}
}

func parseConvID(c *gin.Context) uint {
	id, _ := strconv.ParseUint(c.Param("conversation_id"), 10, 64)
	return uint(id)
}
