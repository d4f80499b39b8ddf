// Package store is the conversation persistence layer. Conversations
// own their messages: deletes cascade child-first so no message ever
// outlives its conversation.
package store

import (
	"strings"
	"time"

	"gorm.io/gorm"

	"AksaraAI/models"
)

const (
	// placeholder title when the first message has no usable text
	defaultTitle = "Obrolan Baru"
	// prefix for conversations opened with an image attachment
	imageTitlePrefix = "Gambar: "
	// max words taken from the first message for the title
	titleWordLimit = 5

	// page size for cascading message deletes
	deleteBatchSize = 100
)

type Store struct {
	db *gorm.DB
}

func New(db *gorm.DB) *Store {
	return &Store{db: db}
}

// DeriveTitle builds a conversation title from the opening message:
// the first few words of the text, the fixed placeholder when there is
// no text, and a "Gambar: " prefix when an image is attached.
func DeriveTitle(text string, hasImage bool) string {
	words := strings.Fields(text)
	if len(words) > titleWordLimit {
		words = words[:titleWordLimit]
	}
	title := strings.Join(words, " ")
	if title == "" {
		title = defaultTitle
	}
	if hasImage {
		title = imageTitlePrefix + title
	}
	return title
}

// CreateConversation persists a new conversation for the owner with
// last_updated set to now.
func (s *Store) CreateConversation(userID uint, title string) (*models.Conversation, error) {
	conv := &models.Conversation{
		UserID:      userID,
		Title:       title,
		LastUpdated: time.Now(),
	}
	if err := s.db.Create(conv).Error; err != nil {
		return nil, err
	}
	return conv, nil
}

// GetConversation loads one conversation owned by userID with its
// messages in timestamp order.
func (s *Store) GetConversation(userID, convID uint) (*models.Conversation, error) {
	var conv models.Conversation
	err := s.db.
		Preload("Messages", func(db *gorm.DB) *gorm.DB { return db.Order("timestamp asc, id asc") }).
		Where("id = ? AND user_id = ?", convID, userID).
		First(&conv).Error
	if err != nil {
		return nil, err
	}
	return &conv, nil
}

// AppendMessage stores one message with a server-assigned timestamp
// and bumps the owning conversation's last_updated. Messages are never
// mutated afterwards.
func (s *Store) AppendMessage(convID uint, msg *models.Message) error {
	msg.ConversationID = convID
	msg.Timestamp = time.Now()
	if err := s.db.Create(msg).Error; err != nil {
		return err
	}
	return s.TouchConversation(convID)
}

// TouchConversation bumps last_updated. Last write wins.
func (s *Store) TouchConversation(convID uint) error {
	return s.db.Model(&models.Conversation{}).
		Where("id = ?", convID).
		Update("last_updated", time.Now()).Error
}

// ListConversations returns the owner's conversations newest-activity
// first.
func (s *Store) ListConversations(userID uint) ([]models.Conversation, error) {
	var convs []models.Conversation
	err := s.db.
		Where("user_id = ?", userID).
		Order("last_updated desc").
		Find(&convs).Error
	return convs, err
}

// ListMessages returns a conversation's messages oldest first.
func (s *Store) ListMessages(convID uint) ([]models.Message, error) {
	var msgs []models.Message
	err := s.db.
		Where("conversation_id = ?", convID).
		Order("timestamp asc, id asc").
		Find(&msgs).Error
	return msgs, err
}

// RenameConversation sets a new title; the only way a title changes
// after creation.
func (s *Store) RenameConversation(userID, convID uint, title string) error {
	res := s.db.Model(&models.Conversation{}).
		Where("id = ? AND user_id = ?", convID, userID).
		Update("title", title)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// DeleteConversation removes all messages in bounded batches, then the
// conversation row.
func (s *Store) DeleteConversation(userID, convID uint) error {
	var conv models.Conversation
	if err := s.db.Where("id = ? AND user_id = ?", convID, userID).First(&conv).Error; err != nil {
		return err
	}
	if err := s.deleteMessages(conv.ID); err != nil {
		return err
	}
	return s.db.Unscoped().Delete(&conv).Error
}

// DeleteAllConversations removes every conversation the owner has,
// messages first.
func (s *Store) DeleteAllConversations(userID uint) error {
	convs, err := s.ListConversations(userID)
	if err != nil {
		return err
	}
	for _, conv := range convs {
		if err := s.deleteMessages(conv.ID); err != nil {
			return err
		}
		if err := s.db.Unscoped().Delete(&conv).Error; err != nil {
			return err
		}
	}
	return nil
}

// deleteMessages pages through the conversation's messages with a
// stable batch size. A plain loop, so arbitrarily long histories never
// grow the stack.
func (s *Store) deleteMessages(convID uint) error {
	for {
		var ids []uint
		if err := s.db.Model(&models.Message{}).
			Where("conversation_id = ?", convID).
			Limit(deleteBatchSize).
			Pluck("id", &ids).Error; err != nil {
			return err
		}
		if len(ids) == 0 {
			return nil
		}
		if err := s.db.Unscoped().Where("id IN ?", ids).Delete(&models.Message{}).Error; err != nil {
			return err
		}
		if len(ids) < deleteBatchSize {
			return nil
		}
	}
}
