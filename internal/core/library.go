package core

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/url"
	"strings"

	"github.com/google/uuid"

	"sacredmelodies/internal/store"
)

// ErrSongNotFound covers both "nothing matched locally" and "the AI lookup
// failed or returned an unusable result" — the caller sees one soft failure.
var ErrSongNotFound = errors.New("song not found")

const reflectionFallback = "দুঃখিত, এই মুহূর্তে ব্যাখ্যা তৈরি করা সম্ভব হচ্ছে না। আপনার API Key চেক করুন।"

// SongFinder looks up songs through the generative API.
type SongFinder interface {
	FindSong(ctx context.Context, query string) (*FoundSong, error)
}

// Reflector generates a spiritual reflection for a song.
type Reflector interface {
	Reflect(ctx context.Context, title string, lyrics []string) (string, error)
}

// Speaker converts text to raw PCM audio.
type Speaker interface {
	Speak(ctx context.Context, text string) ([]byte, error)
}

type LibraryService struct {
	dbStore   *store.SQLiteStore
	finder    SongFinder
	reflector Reflector
	speaker   Speaker
}

func NewLibraryService(db *store.SQLiteStore, finder SongFinder, reflector Reflector, speaker Speaker) *LibraryService {
	return &LibraryService{
		dbStore:   db,
		finder:    finder,
		reflector: reflector,
		speaker:   speaker,
	}
}

// ListSongs returns the library filtered by free-text query, category and
// optionally the user's favorites.
func (s *LibraryService) ListSongs(userID int64, query, category string, favoritesOnly bool) ([]store.Song, error) {
	songs, err := s.dbStore.ListSongs()
	if err != nil {
		return nil, fmt.Errorf("failed to list songs: %w", err)
	}

	var favorites map[string]bool
	if favoritesOnly {
		ids, err := s.dbStore.ListFavoriteIDs(userID)
		if err != nil {
			return nil, fmt.Errorf("failed to list favorites: %w", err)
		}
		favorites = make(map[string]bool, len(ids))
		for _, id := range ids {
			favorites[id] = true
		}
	}

	q := strings.ToLower(strings.TrimSpace(query))
	var filtered []store.Song
	for _, song := range songs {
		if category != "" && !strings.EqualFold(song.Category, category) {
			continue
		}
		if favoritesOnly && !favorites[song.ID] {
			continue
		}
		if q != "" && !matchesSong(song, q) {
			continue
		}
		filtered = append(filtered, song)
	}
	return filtered, nil
}

func matchesSong(song store.Song, q string) bool {
	return strings.Contains(strings.ToLower(song.Title), q) ||
		strings.Contains(strings.ToLower(song.Reference), q) ||
		strings.Contains(strings.ToLower(song.Category), q)
}

func (s *LibraryService) GetSong(songID string) (*store.Song, error) {
	return s.dbStore.GetSongByID(songID)
}

// SearchSong resolves a query to a song: a local match wins, otherwise the AI
// lookup runs and the result is validated, persisted and returned. Any AI or
// validation failure degrades to ErrSongNotFound.
func (s *LibraryService) SearchSong(ctx context.Context, userID int64, query string) (*store.Song, error) {
	if strings.TrimSpace(query) == "" {
		return nil, ErrSongNotFound
	}

	local, err := s.ListSongs(userID, query, "", false)
	if err != nil {
		return nil, err
	}
	if len(local) > 0 {
		return &local[0], nil
	}

	found, err := s.finder.FindSong(ctx, query)
	if err != nil {
		if errors.Is(err, ErrAIUnavailable) {
			return nil, ErrAIUnavailable
		}
		log.Printf("AI song lookup for %q failed: %v", query, err)
		return nil, ErrSongNotFound
	}
	if err := validateFoundSong(found); err != nil {
		log.Printf("AI song lookup for %q returned an unusable result: %v", query, err)
		return nil, ErrSongNotFound
	}

	song := &store.Song{
		ID:        uuid.NewString(),
		Title:     found.Title,
		Reference: found.Reference,
		Category:  found.Category,
		Lyrics:    found.Lyrics,
		Image:     fmt.Sprintf("https://picsum.photos/seed/%s/800/600", url.PathEscape(found.Title)),
	}
	if err := s.dbStore.CreateSong(song); err != nil {
		return nil, fmt.Errorf("failed to store AI song: %w", err)
	}
	return song, nil
}

func validateFoundSong(song *FoundSong) error {
	if song == nil {
		return fmt.Errorf("nil song")
	}
	if strings.TrimSpace(song.Title) == "" {
		return fmt.Errorf("missing title")
	}
	if strings.TrimSpace(song.Reference) == "" {
		return fmt.Errorf("missing reference")
	}
	if !store.ValidCategory(song.Category) {
		return fmt.Errorf("invalid category %q", song.Category)
	}
	nonEmpty := false
	for _, line := range song.Lyrics {
		if strings.TrimSpace(line) != "" {
			nonEmpty = true
			break
		}
	}
	if !nonEmpty {
		return fmt.Errorf("empty lyrics")
	}
	return nil
}

func (s *LibraryService) ToggleFavorite(userID int64, songID string) (bool, error) {
	song, err := s.dbStore.GetSongByID(songID)
	if err != nil {
		return false, err
	}
	if song == nil {
		return false, ErrSongNotFound
	}
	return s.dbStore.ToggleFavorite(userID, songID)
}

func (s *LibraryService) ListFavoriteIDs(userID int64) ([]string, error) {
	return s.dbStore.ListFavoriteIDs(userID)
}

// Reflection returns an AI reflection for the song, or a canned fallback when
// the model misbehaves. ErrAIUnavailable still surfaces so the handler can
// report the missing configuration.
func (s *LibraryService) Reflection(ctx context.Context, songID string) (string, error) {
	song, err := s.dbStore.GetSongByID(songID)
	if err != nil {
		return "", err
	}
	if song == nil {
		return "", ErrSongNotFound
	}

	text, err := s.reflector.Reflect(ctx, song.Title, song.Lyrics)
	if err != nil {
		if errors.Is(err, ErrAIUnavailable) {
			return "", err
		}
		log.Printf("Reflection for song %s failed: %v", songID, err)
		return reflectionFallback, nil
	}
	return text, nil
}

// Speech returns the song's lyrics read aloud, as raw s16le 24kHz mono PCM.
func (s *LibraryService) Speech(ctx context.Context, songID string) ([]byte, error) {
	song, err := s.dbStore.GetSongByID(songID)
	if err != nil {
		return nil, err
	}
	if song == nil {
		return nil, ErrSongNotFound
	}
	return s.speaker.Speak(ctx, strings.Join(song.Lyrics, " "))
}
