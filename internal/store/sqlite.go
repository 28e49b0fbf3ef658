package store

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"log"
	"strings"
	"time"

	_ "github.com/mattn/go-sqlite3" // SQLite driver
)

type SQLiteStore struct {
	db *sql.DB
}

func NewSQLiteStore(dataSourceName string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite3", dataSourceName)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if err = db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	store := &SQLiteStore{db: db}
	if err = store.initSchema(); err != nil {
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}
	return store, nil
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) initSchema() error {
	schema := `
    CREATE TABLE IF NOT EXISTS users (
        id INTEGER PRIMARY KEY AUTOINCREMENT,
        email TEXT UNIQUE NOT NULL,
        name TEXT NOT NULL,
        photo TEXT NOT NULL DEFAULT '',
        provider TEXT NOT NULL DEFAULT '',
        created_at DATETIME DEFAULT CURRENT_TIMESTAMP
    );

    CREATE TABLE IF NOT EXISTS songs (
        id TEXT PRIMARY KEY,
        title TEXT NOT NULL,
        reference TEXT NOT NULL,
        category TEXT NOT NULL CHECK (category IN ('Worship', 'Praise', 'Hymn', 'Kids')),
        lyrics_json TEXT NOT NULL,
        image TEXT NOT NULL DEFAULT '',
        builtin BOOLEAN NOT NULL DEFAULT FALSE,
        created_at DATETIME DEFAULT CURRENT_TIMESTAMP
    );

    CREATE TABLE IF NOT EXISTS favorites (
        user_id INTEGER NOT NULL,
        song_id TEXT NOT NULL,
        PRIMARY KEY (user_id, song_id),
        FOREIGN KEY (user_id) REFERENCES users (id)
    );

    CREATE TABLE IF NOT EXISTS studies (
        id TEXT PRIMARY KEY,
        user_id INTEGER NOT NULL DEFAULT 0, -- 0 for built-in studies
        reference TEXT NOT NULL,
        content TEXT NOT NULL,
        builtin BOOLEAN NOT NULL DEFAULT FALSE,
        created_at DATETIME DEFAULT CURRENT_TIMESTAMP
    );

    CREATE TABLE IF NOT EXISTS deleted_builtin_studies (
        user_id INTEGER NOT NULL,
        study_id TEXT NOT NULL,
        PRIMARY KEY (user_id, study_id)
    );

    CREATE TABLE IF NOT EXISTS messages (
        id TEXT PRIMARY KEY,
        text TEXT NOT NULL,
        sender_id TEXT NOT NULL,
        sender_name TEXT NOT NULL,
        sender_photo TEXT NOT NULL DEFAULT '',
        timestamp DATETIME DEFAULT CURRENT_TIMESTAMP
    );

    CREATE TABLE IF NOT EXISTS settings (
        user_id INTEGER NOT NULL,
        key TEXT NOT NULL,
        value_json TEXT NOT NULL,
        PRIMARY KEY (user_id, key)
    );
    `
	_, err := s.db.Exec(schema)
	return err
}

// User methods

func (s *SQLiteStore) UpsertUser(email, name, photo, provider string) (*User, error) {
	_, err := s.db.Exec(`
        INSERT INTO users (email, name, photo, provider) VALUES (?, ?, ?, ?)
        ON CONFLICT(email) DO UPDATE SET name = excluded.name, photo = excluded.photo, provider = excluded.provider`,
		email, name, photo, provider)
	if err != nil {
		return nil, fmt.Errorf("failed to upsert user: %w", err)
	}
	return s.GetUserByEmail(email)
}

func (s *SQLiteStore) GetUserByEmail(email string) (*User, error) {
	var user User
	err := s.db.QueryRow("SELECT id, email, name, photo, provider, created_at FROM users WHERE email = ?", email).
		Scan(&user.ID, &user.Email, &user.Name, &user.Photo, &user.Provider, &user.CreatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil // User not found
		}
		return nil, fmt.Errorf("failed to query user: %w", err)
	}
	return &user, nil
}

// Song methods

func (s *SQLiteStore) CreateSong(song *Song) error {
	lyricsJSON, err := json.Marshal(song.Lyrics)
	if err != nil {
		return fmt.Errorf("failed to marshal lyrics: %w", err)
	}
	if song.CreatedAt.IsZero() {
		song.CreatedAt = time.Now()
	}

	// OR IGNORE keeps seeding idempotent for built-ins with fixed ids.
	_, err = s.db.Exec("INSERT OR IGNORE INTO songs (id, title, reference, category, lyrics_json, image, builtin, created_at) VALUES (?, ?, ?, ?, ?, ?, ?, ?)",
		song.ID, song.Title, song.Reference, song.Category, string(lyricsJSON), song.Image, song.Builtin, song.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to insert song: %w", err)
	}
	return nil
}

func (s *SQLiteStore) GetSongByID(songID string) (*Song, error) {
	row := s.db.QueryRow("SELECT id, title, reference, category, lyrics_json, image, builtin, created_at FROM songs WHERE id = ?", songID)
	song, err := scanSong(row)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil // Not found
		}
		return nil, fmt.Errorf("failed to get song: %w", err)
	}
	return song, nil
}

func (s *SQLiteStore) ListSongs() ([]Song, error) {
	rows, err := s.db.Query("SELECT id, title, reference, category, lyrics_json, image, builtin, created_at FROM songs ORDER BY builtin DESC, created_at ASC")
	if err != nil {
		return nil, fmt.Errorf("failed to query songs: %w", err)
	}
	defer rows.Close()

	var songs []Song
	for rows.Next() {
		song, err := scanSong(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan song row: %w", err)
		}
		songs = append(songs, *song)
	}
	return songs, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanSong(row rowScanner) (*Song, error) {
	var song Song
	var lyricsJSON string
	if err := row.Scan(&song.ID, &song.Title, &song.Reference, &song.Category, &lyricsJSON, &song.Image, &song.Builtin, &song.CreatedAt); err != nil {
		return nil, err
	}
	if err := json.Unmarshal([]byte(lyricsJSON), &song.Lyrics); err != nil {
		// A song with unreadable lyrics is still listable; the reader just shows nothing.
		log.Printf("Warning: failed to unmarshal lyrics for song %s: %v", song.ID, err)
		song.Lyrics = nil
	}
	return &song, nil
}

// Favorite methods

// ToggleFavorite flips membership of songID in the user's favorites set and
// reports the new state.
func (s *SQLiteStore) ToggleFavorite(userID int64, songID string) (bool, error) {
	res, err := s.db.Exec("DELETE FROM favorites WHERE user_id = ? AND song_id = ?", userID, songID)
	if err != nil {
		return false, fmt.Errorf("failed to remove favorite: %w", err)
	}
	affected, _ := res.RowsAffected()
	if affected > 0 {
		return false, nil
	}

	_, err = s.db.Exec("INSERT INTO favorites (user_id, song_id) VALUES (?, ?)", userID, songID)
	if err != nil {
		return false, fmt.Errorf("failed to add favorite: %w", err)
	}
	return true, nil
}

func (s *SQLiteStore) ListFavoriteIDs(userID int64) ([]string, error) {
	rows, err := s.db.Query("SELECT song_id FROM favorites WHERE user_id = ?", userID)
	if err != nil {
		return nil, fmt.Errorf("failed to query favorites: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan favorite row: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// Study methods

// SaveStudy inserts a study, replacing any existing study of the same user with
// the same reference (case-insensitive). One study per reference.
func (s *SQLiteStore) SaveStudy(study *SavedStudy) error {
	if study.CreatedAt.IsZero() {
		study.CreatedAt = time.Now()
	}

	_, err := s.db.Exec("DELETE FROM studies WHERE user_id = ? AND builtin = FALSE AND LOWER(reference) = LOWER(?)",
		study.UserID, study.Reference)
	if err != nil {
		return fmt.Errorf("failed to replace existing study: %w", err)
	}

	_, err = s.db.Exec("INSERT OR IGNORE INTO studies (id, user_id, reference, content, builtin, created_at) VALUES (?, ?, ?, ?, ?, ?)",
		study.ID, study.UserID, study.Reference, study.Content, study.Builtin, study.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to insert study: %w", err)
	}
	return nil
}

// ListStudies returns the user's studies plus built-in studies the user has
// neither deleted nor shadowed with a study of the same reference.
func (s *SQLiteStore) ListStudies(userID int64) ([]SavedStudy, error) {
	rows, err := s.db.Query(`
        SELECT id, user_id, reference, content, builtin, created_at FROM studies
        WHERE user_id = ?
           OR (builtin = TRUE
               AND id NOT IN (SELECT study_id FROM deleted_builtin_studies WHERE user_id = ?)
               AND LOWER(reference) NOT IN (SELECT LOWER(reference) FROM studies WHERE user_id = ?))
        ORDER BY created_at DESC`, userID, userID, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to query studies: %w", err)
	}
	defer rows.Close()

	var studies []SavedStudy
	for rows.Next() {
		var study SavedStudy
		if err := rows.Scan(&study.ID, &study.UserID, &study.Reference, &study.Content, &study.Builtin, &study.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan study row: %w", err)
		}
		studies = append(studies, study)
	}
	return studies, rows.Err()
}

// DeleteStudy removes a user study, or hides a built-in study for this user only.
func (s *SQLiteStore) DeleteStudy(userID int64, studyID string) error {
	var builtin bool
	err := s.db.QueryRow("SELECT builtin FROM studies WHERE id = ? AND (user_id = ? OR builtin = TRUE)", studyID, userID).Scan(&builtin)
	if err != nil {
		if err == sql.ErrNoRows {
			return fmt.Errorf("study not found")
		}
		return fmt.Errorf("failed to look up study: %w", err)
	}

	if builtin {
		_, err = s.db.Exec("INSERT OR IGNORE INTO deleted_builtin_studies (user_id, study_id) VALUES (?, ?)", userID, studyID)
		if err != nil {
			return fmt.Errorf("failed to hide built-in study: %w", err)
		}
		return nil
	}

	_, err = s.db.Exec("DELETE FROM studies WHERE id = ? AND user_id = ?", studyID, userID)
	if err != nil {
		return fmt.Errorf("failed to delete study: %w", err)
	}
	return nil
}

// Message methods

func (s *SQLiteStore) CreateMessage(msg *Message) error {
	if msg.Timestamp.IsZero() {
		msg.Timestamp = time.Now()
	}
	_, err := s.db.Exec("INSERT INTO messages (id, text, sender_id, sender_name, sender_photo, timestamp) VALUES (?, ?, ?, ?, ?, ?)",
		msg.ID, msg.Text, msg.SenderID, msg.SenderName, msg.SenderPhoto, msg.Timestamp)
	if err != nil {
		return fmt.Errorf("failed to insert message: %w", err)
	}
	return nil
}

// GetRecentMessages returns at most limit of the newest messages, ordered by
// timestamp ascending.
func (s *SQLiteStore) GetRecentMessages(limit int) ([]Message, error) {
	rows, err := s.db.Query(`
        SELECT id, text, sender_id, sender_name, sender_photo, timestamp
        FROM messages ORDER BY timestamp DESC, id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query messages: %w", err)
	}
	defer rows.Close()

	var messages []Message
	for rows.Next() {
		var msg Message
		if err := rows.Scan(&msg.ID, &msg.Text, &msg.SenderID, &msg.SenderName, &msg.SenderPhoto, &msg.Timestamp); err != nil {
			return nil, fmt.Errorf("failed to scan message row: %w", err)
		}
		messages = append(messages, msg)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	// Query is newest-first for the LIMIT; callers want oldest-first.
	for i, j := 0, len(messages)-1; i < j; i, j = i+1, j-1 {
		messages[i], messages[j] = messages[j], messages[i]
	}
	return messages, nil
}

// Setting methods
//
// Settings are per-user whole-value JSON blobs (theme, font size, ...). A row
// that no longer parses is treated as absent for that key only, never as an error.

func (s *SQLiteStore) LoadSetting(userID int64, key string, out any) (bool, error) {
	var valueJSON string
	err := s.db.QueryRow("SELECT value_json FROM settings WHERE user_id = ? AND key = ?", userID, key).Scan(&valueJSON)
	if err != nil {
		if err == sql.ErrNoRows {
			return false, nil
		}
		return false, fmt.Errorf("failed to query setting %q: %w", key, err)
	}

	if err := json.Unmarshal([]byte(valueJSON), out); err != nil {
		log.Printf("Warning: corrupt setting %q for user %d, using default: %v", key, userID, err)
		return false, nil
	}
	return true, nil
}

func (s *SQLiteStore) SaveSetting(userID int64, key string, value any) error {
	valueJSON, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("failed to marshal setting %q: %w", key, err)
	}
	_, err = s.db.Exec(`
        INSERT INTO settings (user_id, key, value_json) VALUES (?, ?, ?)
        ON CONFLICT(user_id, key) DO UPDATE SET value_json = excluded.value_json`,
		userID, key, string(valueJSON))
	if err != nil {
		return fmt.Errorf("failed to save setting %q: %w", key, err)
	}
	return nil
}

// PutRawSetting stores a value without JSON validation. Exists for tests that
// exercise corrupt-row recovery; not used by handlers.
func (s *SQLiteStore) PutRawSetting(userID int64, key, raw string) error {
	_, err := s.db.Exec(`
        INSERT INTO settings (user_id, key, value_json) VALUES (?, ?, ?)
        ON CONFLICT(user_id, key) DO UPDATE SET value_json = excluded.value_json`,
		userID, key, raw)
	return err
}

// CountMessages reports how many messages the feed has retained in total.
func (s *SQLiteStore) CountMessages() (int, error) {
	var n int
	if err := s.db.QueryRow("SELECT COUNT(*) FROM messages").Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count messages: %w", err)
	}
	return n, nil
}

// NormalizeReference trims and lowercases a scripture reference for comparisons.
func NormalizeReference(ref string) string {
	return strings.ToLower(strings.TrimSpace(ref))
}
