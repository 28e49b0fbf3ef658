package core

import (
	"fmt"
	"log"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"sacredmelodies/internal/store"
)

// MessageStore is the append-only bounded message feed contract. Implemented
// by the SQLite store and by the in-memory fallback below.
type MessageStore interface {
	CreateMessage(msg *store.Message) error
	GetRecentMessages(limit int) ([]store.Message, error)
}

// Broadcaster pushes a published message to live subscribers.
type Broadcaster interface {
	Broadcast(msg store.Message)
}

type ChatService struct {
	primary  MessageStore
	fallback MessageStore
	hub      Broadcaster
	limit    int
}

func NewChatService(primary MessageStore, hub Broadcaster, limit int) *ChatService {
	return &ChatService{
		primary:  primary,
		fallback: NewMemoryMessageStore(limit),
		hub:      hub,
		limit:    limit,
	}
}

// Recent returns at most the configured number of newest messages, oldest first.
func (s *ChatService) Recent() ([]store.Message, error) {
	messages, err := s.primary.GetRecentMessages(s.limit)
	if err != nil {
		log.Printf("Primary message store unavailable, serving local fallback: %v", err)
		return s.fallback.GetRecentMessages(s.limit)
	}
	if len(messages) > 0 {
		return messages, nil
	}
	// An empty feed still greets newcomers.
	return s.fallback.GetRecentMessages(s.limit)
}

// Post appends a message and notifies subscribers. If the primary store
// rejects the write the message lands in the local fallback list so the feed
// keeps moving; there is no replay once the store recovers.
func (s *ChatService) Post(sender store.User, text string) (*store.Message, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, fmt.Errorf("message text cannot be empty")
	}

	msg := store.Message{
		ID:          uuid.NewString(),
		Text:        text,
		SenderID:    fmt.Sprintf("user-%d", sender.ID),
		SenderName:  sender.Name,
		SenderPhoto: sender.Photo,
		Timestamp:   time.Now(),
	}

	if err := s.primary.CreateMessage(&msg); err != nil {
		log.Printf("Failed to store chat message, keeping it locally: %v", err)
		if err := s.fallback.CreateMessage(&msg); err != nil {
			return nil, fmt.Errorf("failed to store message: %w", err)
		}
	}

	if s.hub != nil {
		s.hub.Broadcast(msg)
	}
	return &msg, nil
}

// MemoryMessageStore is a bounded in-memory message list with the same
// external shape as the durable store. It stands in when SQLite is unavailable,
// the way the original client fell back to a localStorage mock without Firebase.
type MemoryMessageStore struct {
	mu       sync.Mutex
	messages []store.Message
	cap      int
}

func NewMemoryMessageStore(capacity int) *MemoryMessageStore {
	if capacity <= 0 {
		capacity = 50
	}
	return &MemoryMessageStore{
		cap: capacity,
		messages: []store.Message{{
			ID:          "welcome-1",
			Text:        "স্বাগতম! বাইবেল সং অ্যাপের ফেলোশিপে আপনাকে স্বাগতম।",
			SenderID:    "system",
			SenderName:  "Sacred Melodies",
			SenderPhoto: "https://api.dicebear.com/7.x/bottts/svg?seed=system",
			Timestamp:   time.Now(),
		}},
	}
}

func (m *MemoryMessageStore) CreateMessage(msg *store.Message) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.messages = append(m.messages, *msg)
	if len(m.messages) > m.cap {
		m.messages = m.messages[len(m.messages)-m.cap:]
	}
	return nil
}

func (m *MemoryMessageStore) GetRecentMessages(limit int) ([]store.Message, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	start := 0
	if limit > 0 && len(m.messages) > limit {
		start = len(m.messages) - limit
	}
	out := make([]store.Message, len(m.messages)-start)
	copy(out, m.messages[start:])
	return out, nil
}
