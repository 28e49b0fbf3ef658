package store

import "time"

// Song categories as accepted from clients and from the AI lookup schema.
const (
	CategoryWorship = "Worship"
	CategoryPraise  = "Praise"
	CategoryHymn    = "Hymn"
	CategoryKids    = "Kids"
)

func ValidCategory(c string) bool {
	switch c {
	case CategoryWorship, CategoryPraise, CategoryHymn, CategoryKids:
		return true
	}
	return false
}

type Song struct {
	ID        string    `json:"id"` // UUID, or a fixed id for built-ins
	Title     string    `json:"title"`
	Reference string    `json:"reference"`
	Category  string    `json:"category"`
	Lyrics    []string  `json:"lyrics"`
	Image     string    `json:"image"`
	Builtin   bool      `json:"builtin"`
	CreatedAt time.Time `json:"created_at"`
}

type User struct {
	ID        int64     `json:"id"`
	Email     string    `json:"email"`
	Name      string    `json:"name"`
	Photo     string    `json:"photo"`
	Provider  string    `json:"provider,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

type SavedStudy struct {
	ID        string    `json:"id"` // UUID, or a fixed id for built-ins
	UserID    int64     `json:"-"`
	Reference string    `json:"reference"`
	Content   string    `json:"content"`
	Builtin   bool      `json:"builtin"`
	CreatedAt time.Time `json:"created_at"`
}

type Message struct {
	ID          string    `json:"id"` // UUID
	Text        string    `json:"text"`
	SenderID    string    `json:"sender_id"`
	SenderName  string    `json:"sender_name"`
	SenderPhoto string    `json:"sender_photo"`
	Timestamp   time.Time `json:"timestamp"`
}
