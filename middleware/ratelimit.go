package middleware

import (
	"net"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
)

type bucket struct {
	tokens     int
	lastRefill time.Time
}

// Limiter bundles the per-user request guards: a token bucket for burst
// control, a duplicate-message window and a concurrency cap for
// in-flight streams.
type Limiter struct {
	rlMu     sync.Mutex
	buckets  map[string]*bucket
	window   time.Duration
	capacity int

	dupMu   sync.Mutex
	lastMsg map[string]lastEntry
	dupTTL  time.Duration

	cgMu     sync.Mutex
	userSem  map[string]chan struct{}
	userConc int
}

type lastEntry struct {
	text string
	ts   time.Time
}

func NewLimiter(window time.Duration, capacity, concurrency int, dupTTL time.Duration) *Limiter {
	return &Limiter{
		buckets:  map[string]*bucket{},
		window:   window,
		capacity: capacity,
		lastMsg:  map[string]lastEntry{},
		dupTTL:   dupTTL,
		userSem:  map[string]chan struct{}{},
		userConc: concurrency,
	}
}

func clientIP(c *gin.Context) string {
	ip := strings.TrimSpace(c.ClientIP())
	if ip == "" {
		host, _, _ := net.SplitHostPort(strings.TrimSpace(c.Request.RemoteAddr))
		ip = host
	}
	return ip
}

func userKey(c *gin.Context) string {
	uidRaw, _ := c.Get(ContextUserIDKey)
	uid, _ := uidRaw.(string)
	return uid + "@" + clientIP(c)
}

// RateLimit is a token-bucket guard keyed by user@ip.
func (l *Limiter) RateLimit() gin.HandlerFunc {
	return func(c *gin.Context) {
		key := userKey(c)
		now := time.Now()

		l.rlMu.Lock()
		b := l.buckets[key]
		if b == nil {
			b = &bucket{tokens: l.capacity, lastRefill: now}
			l.buckets[key] = b
		}
		elapsed := now.Sub(b.lastRefill)
		if elapsed > 0 {
			add := int(float64(l.capacity) * (float64(elapsed) / float64(l.window)))
			if add > 0 {
				b.tokens += add
				if b.tokens > l.capacity {
					b.tokens = l.capacity
				}
				b.lastRefill = now
			}
		}
		if b.tokens <= 0 {
			l.rlMu.Unlock()
			c.Header("Retry-After", strconv.Itoa(int(l.window.Seconds())))
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{"error": "too many requests"})
			return
		}
		b.tokens--
		l.rlMu.Unlock()

		c.Next()
	}
}

// AllowMessage reports whether uid may send text now; an identical
// message inside the duplicate window is rejected.
func (l *Limiter) AllowMessage(uid, text string) bool {
	now := time.Now()
	l.dupMu.Lock()
	defer l.dupMu.Unlock()
	entry, ok := l.lastMsg[uid]
	if ok && entry.text == strings.TrimSpace(text) && now.Sub(entry.ts) < l.dupTTL {
		return false
	}
	l.lastMsg[uid] = lastEntry{text: strings.TrimSpace(text), ts: now}
	return true
}

// AcquireUserSlot blocks until uid has a free streaming slot and
// returns the release func.
func (l *Limiter) AcquireUserSlot(uid string) (release func()) {
	l.cgMu.Lock()
	sem := l.userSem[uid]
	if sem == nil {
		sem = make(chan struct{}, l.userConc)
		l.userSem[uid] = sem
	}
	l.cgMu.Unlock()
	sem <- struct{}{}
	return func() { <-sem }
}
