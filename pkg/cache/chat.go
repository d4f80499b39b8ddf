package cache

import (
	"strings"
	"time"
)

// Stream outcome reported when caching an assistant reply.
type StreamStatus int

const (
	StatusCompleted StreamStatus = iota
	StatusCanceled
)

// Fallback fragments must never be served from cache; a cached apology
// would shadow a later healthy provider call.
var uncacheablePrefixes = []string{
	"Maaf, terjadi kesalahan",
	"Maaf, belum ada jawaban",
}

// SetChatReply caches a finished assistant reply. Canceled streams,
// empty text and fallback apologies are dropped.
func (c *Cache) SetChatReply(key, text string, status StreamStatus, ttl time.Duration) {
	if status != StatusCompleted {
		return
	}
	text = strings.TrimSpace(text)
	if text == "" || isUncacheable(text) {
		return
	}
	c.Set(key, text, ttl)
}

// GetChatReply returns a previously cached reply, re-checking that it
// is still servable.
func (c *Cache) GetChatReply(key string) (string, bool) {
	v, ok := c.Get(key)
	if !ok {
		return "", false
	}
	text, ok := v.(string)
	if !ok || strings.TrimSpace(text) == "" || isUncacheable(text) {
		return "", false
	}
	return text, true
}

// InvalidateChatReply drops a cached reply.
func (c *Cache) InvalidateChatReply(key string) {
	c.Delete(key)
}

func isUncacheable(text string) bool {
	// the fallback can also be appended to a partially streamed reply
	for _, p := range uncacheablePrefixes {
		if strings.Contains(text, p) {
			return true
		}
	}
	return false
}
