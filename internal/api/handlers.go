package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"sacredmelodies/internal/audio"
	"sacredmelodies/internal/auth"
	"sacredmelodies/internal/chat"
	"sacredmelodies/internal/core"
	"sacredmelodies/internal/store"
	"sacredmelodies/internal/study"
)

type contextKey string

const userContextKey contextKey = "user"

type APIHandler struct {
	dbStore        *store.SQLiteStore
	libraryService *core.LibraryService
	studyService   *core.StudyService
	chatService    *core.ChatService
	hub            *chat.Hub
}

func NewAPIHandler(db *store.SQLiteStore, library *core.LibraryService, studies *core.StudyService, chatSvc *core.ChatService, hub *chat.Hub) *APIHandler {
	return &APIHandler{
		dbStore:        db,
		libraryService: library,
		studyService:   studies,
		chatService:    chatSvc,
		hub:            hub,
	}
}

func (h *APIHandler) JWTAuthMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		authHeader := r.Header.Get("Authorization")
		if authHeader == "" {
			http.Error(w, "Authorization header is required", http.StatusUnauthorized)
			return
		}

		tokenString := strings.TrimPrefix(authHeader, "Bearer ")
		email, err := auth.ValidateJWT(tokenString)
		if err != nil {
			http.Error(w, "Invalid token", http.StatusUnauthorized)
			return
		}

		user, err := h.dbStore.GetUserByEmail(email)
		if err != nil {
			log.Printf("Error in JWTAuthMiddleware for %s: %v", email, err)
			http.Error(w, "Failed to process user identity", http.StatusInternalServerError)
			return
		}
		if user == nil {
			http.Error(w, "User not found", http.StatusUnauthorized)
			return
		}

		ctx := context.WithValue(r.Context(), userContextKey, user)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func currentUser(r *http.Request) *store.User {
	return r.Context().Value(userContextKey).(*store.User)
}

type LoginRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Photo    string `json:"photo"`
	Provider string `json:"provider"`
}

// LoginHandler is the mocked login flow: the profile is taken at face value
// and exchanged for a token. Real identity management is out of scope.
func (h *APIHandler) LoginHandler(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body: "+err.Error(), http.StatusBadRequest)
		return
	}
	if req.Name == "" || req.Email == "" {
		http.Error(w, "Name and email are required", http.StatusBadRequest)
		return
	}

	user, err := h.dbStore.UpsertUser(req.Email, req.Name, req.Photo, req.Provider)
	if err != nil {
		log.Printf("Error upserting user %s: %v", req.Email, err)
		http.Error(w, "Failed to create user", http.StatusInternalServerError)
		return
	}

	token, err := auth.GenerateJWT(user.Email)
	if err != nil {
		log.Printf("Error generating JWT for %s: %v", user.Email, err)
		http.Error(w, "Failed to generate token", http.StatusInternalServerError)
		return
	}

	json.NewEncoder(w).Encode(map[string]any{"token": token, "user": user})
}

func (h *APIHandler) ProfileHandler(w http.ResponseWriter, r *http.Request) {
	json.NewEncoder(w).Encode(currentUser(r))
}

// Song handlers

func (h *APIHandler) ListSongsHandler(w http.ResponseWriter, r *http.Request) {
	user := currentUser(r)
	q := r.URL.Query()

	songs, err := h.libraryService.ListSongs(user.ID, q.Get("q"), q.Get("category"), q.Get("favorites") == "true")
	if err != nil {
		log.Printf("Error listing songs for user %d: %v", user.ID, err)
		http.Error(w, "Failed to list songs", http.StatusInternalServerError)
		return
	}
	if songs == nil {
		songs = []store.Song{}
	}
	json.NewEncoder(w).Encode(songs)
}

func (h *APIHandler) GetSongHandler(w http.ResponseWriter, r *http.Request) {
	songID := chi.URLParam(r, "songID")
	song, err := h.libraryService.GetSong(songID)
	if err != nil {
		log.Printf("Error getting song %s: %v", songID, err)
		http.Error(w, "Failed to get song", http.StatusInternalServerError)
		return
	}
	if song == nil {
		http.Error(w, "Song not found", http.StatusNotFound)
		return
	}
	json.NewEncoder(w).Encode(song)
}

type SearchSongRequest struct {
	Query string `json:"query"`
}

func (h *APIHandler) SearchSongHandler(w http.ResponseWriter, r *http.Request) {
	user := currentUser(r)

	var req SearchSongRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body: "+err.Error(), http.StatusBadRequest)
		return
	}
	if strings.TrimSpace(req.Query) == "" {
		http.Error(w, "Query cannot be empty", http.StatusBadRequest)
		return
	}

	song, err := h.libraryService.SearchSong(r.Context(), user.ID, req.Query)
	if err != nil {
		switch {
		case errors.Is(err, core.ErrSongNotFound):
			http.Error(w, "Song not found", http.StatusNotFound)
		case errors.Is(err, core.ErrAIUnavailable):
			http.Error(w, "AI search is not configured", http.StatusServiceUnavailable)
		default:
			log.Printf("Error searching song %q: %v", req.Query, err)
			http.Error(w, "Failed to search song", http.StatusInternalServerError)
		}
		return
	}
	json.NewEncoder(w).Encode(song)
}

func (h *APIHandler) ReflectionHandler(w http.ResponseWriter, r *http.Request) {
	songID := chi.URLParam(r, "songID")

	reflection, err := h.libraryService.Reflection(r.Context(), songID)
	if err != nil {
		switch {
		case errors.Is(err, core.ErrSongNotFound):
			http.Error(w, "Song not found", http.StatusNotFound)
		case errors.Is(err, core.ErrAIUnavailable):
			http.Error(w, "AI reflections are not configured", http.StatusServiceUnavailable)
		default:
			log.Printf("Error generating reflection for song %s: %v", songID, err)
			http.Error(w, "Failed to generate reflection", http.StatusInternalServerError)
		}
		return
	}
	json.NewEncoder(w).Encode(map[string]string{"reflection": reflection})
}

func (h *APIHandler) SpeechHandler(w http.ResponseWriter, r *http.Request) {
	songID := chi.URLParam(r, "songID")

	pcm, err := h.libraryService.Speech(r.Context(), songID)
	if err != nil {
		switch {
		case errors.Is(err, core.ErrSongNotFound):
			http.Error(w, "Song not found", http.StatusNotFound)
		case errors.Is(err, core.ErrAIUnavailable):
			http.Error(w, "Text-to-speech is not configured", http.StatusServiceUnavailable)
		default:
			log.Printf("Error synthesizing speech for song %s: %v", songID, err)
			http.Error(w, "Failed to synthesize speech", http.StatusInternalServerError)
		}
		return
	}

	wav, err := audio.WAV(pcm, audio.DefaultSampleRate, audio.DefaultChannels)
	if err != nil {
		log.Printf("Error encoding speech for song %s: %v", songID, err)
		http.Error(w, "Failed to encode audio", http.StatusInternalServerError)
		return
	}

	duration := audio.Duration(pcm, audio.DefaultSampleRate, audio.DefaultChannels)
	w.Header().Set("Content-Type", "audio/wav")
	w.Header().Set("X-Audio-Duration", fmt.Sprintf("%.3f", duration.Seconds()))
	w.Write(wav)
}

// Favorite handlers

func (h *APIHandler) ListFavoritesHandler(w http.ResponseWriter, r *http.Request) {
	user := currentUser(r)

	ids, err := h.libraryService.ListFavoriteIDs(user.ID)
	if err != nil {
		log.Printf("Error listing favorites for user %d: %v", user.ID, err)
		http.Error(w, "Failed to list favorites", http.StatusInternalServerError)
		return
	}
	if ids == nil {
		ids = []string{}
	}
	json.NewEncoder(w).Encode(ids)
}

func (h *APIHandler) ToggleFavoriteHandler(w http.ResponseWriter, r *http.Request) {
	user := currentUser(r)
	songID := chi.URLParam(r, "songID")

	favorite, err := h.libraryService.ToggleFavorite(user.ID, songID)
	if err != nil {
		if errors.Is(err, core.ErrSongNotFound) {
			http.Error(w, "Song not found", http.StatusNotFound)
			return
		}
		log.Printf("Error toggling favorite %s for user %d: %v", songID, user.ID, err)
		http.Error(w, "Failed to toggle favorite", http.StatusInternalServerError)
		return
	}
	json.NewEncoder(w).Encode(map[string]bool{"favorite": favorite})
}

// Study handlers

type ExplainRequest struct {
	Reference string `json:"reference"`
}

type explainSnapshot struct {
	Text     string          `json:"text"`
	Sources  []study.Source  `json:"sources,omitempty"`
	Sections []study.Section `json:"sections"`
}

// ExplainHandler streams explanation snapshots as server-sent events. Each
// event carries the full accumulated text re-parsed into sections, so clients
// simply replace what they display.
func (h *APIHandler) ExplainHandler(w http.ResponseWriter, r *http.Request) {
	user := currentUser(r)

	var req ExplainRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body: "+err.Error(), http.StatusBadRequest)
		return
	}
	if strings.TrimSpace(req.Reference) == "" {
		http.Error(w, "Reference cannot be empty", http.StatusBadRequest)
		return
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "Streaming unsupported", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	writeEvent := func(event string, text string, sources []study.Source) {
		snap := explainSnapshot{Text: text, Sources: sources, Sections: study.Parse(text)}
		data, err := json.Marshal(snap)
		if err != nil {
			return
		}
		if event != "" {
			fmt.Fprintf(w, "event: %s\n", event)
		}
		fmt.Fprintf(w, "data: %s\n\n", data)
		flusher.Flush()
	}

	text, sources, err := h.studyService.Explain(r.Context(), user.ID, req.Reference, func(text string, sources []study.Source) {
		writeEvent("", text, sources)
	})
	if err != nil {
		log.Printf("Error explaining %q for user %d: %v", req.Reference, user.ID, err)
		fmt.Fprintf(w, "event: error\ndata: %q\n\n", "ব্যাখ্যা তৈরি করা সম্ভব হচ্ছে না। পরে আবার চেষ্টা করুন।")
		flusher.Flush()
		return
	}

	writeEvent("done", text, sources)
}

type SaveStudyRequest struct {
	Reference string `json:"reference"`
	Content   string `json:"content"`
}

func (h *APIHandler) SaveStudyHandler(w http.ResponseWriter, r *http.Request) {
	user := currentUser(r)

	var req SaveStudyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body: "+err.Error(), http.StatusBadRequest)
		return
	}

	saved, err := h.studyService.Save(user.ID, req.Reference, req.Content)
	if err != nil {
		http.Error(w, "Reference and content are required", http.StatusBadRequest)
		return
	}

	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(saved)
}

func (h *APIHandler) ListStudiesHandler(w http.ResponseWriter, r *http.Request) {
	user := currentUser(r)

	studies, err := h.studyService.List(user.ID)
	if err != nil {
		log.Printf("Error listing studies for user %d: %v", user.ID, err)
		http.Error(w, "Failed to list studies", http.StatusInternalServerError)
		return
	}
	if studies == nil {
		studies = []store.SavedStudy{}
	}
	json.NewEncoder(w).Encode(studies)
}

func (h *APIHandler) DeleteStudyHandler(w http.ResponseWriter, r *http.Request) {
	user := currentUser(r)
	studyID := chi.URLParam(r, "studyID")

	if err := h.studyService.Delete(user.ID, studyID); err != nil {
		if err.Error() == "study not found" {
			http.Error(w, err.Error(), http.StatusNotFound)
			return
		}
		log.Printf("Error deleting study %s for user %d: %v", studyID, user.ID, err)
		http.Error(w, "Failed to delete study", http.StatusInternalServerError)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Chat handlers

func (h *APIHandler) ListMessagesHandler(w http.ResponseWriter, r *http.Request) {
	messages, err := h.chatService.Recent()
	if err != nil {
		log.Printf("Error listing chat messages: %v", err)
		http.Error(w, "Failed to list messages", http.StatusInternalServerError)
		return
	}
	if messages == nil {
		messages = []store.Message{}
	}
	json.NewEncoder(w).Encode(messages)
}

type PostMessageRequest struct {
	Text string `json:"text"`
}

func (h *APIHandler) PostMessageHandler(w http.ResponseWriter, r *http.Request) {
	user := currentUser(r)

	var req PostMessageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body: "+err.Error(), http.StatusBadRequest)
		return
	}
	if strings.TrimSpace(req.Text) == "" {
		http.Error(w, "Message text cannot be empty", http.StatusBadRequest)
		return
	}

	msg, err := h.chatService.Post(*user, req.Text)
	if err != nil {
		log.Printf("Error posting message for user %d: %v", user.ID, err)
		http.Error(w, "Failed to post message", http.StatusInternalServerError)
		return
	}

	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(msg)
}

func (h *APIHandler) ChatWSHandler(w http.ResponseWriter, r *http.Request) {
	snapshot, err := h.chatService.Recent()
	if err != nil {
		log.Printf("Error loading chat snapshot: %v", err)
		snapshot = nil
	}
	h.hub.ServeWS(w, r, snapshot)
}

// Setting handlers

var settingDefaults = map[string]json.RawMessage{
	"theme":     json.RawMessage(`"light"`),
	"font_size": json.RawMessage(`20`),
}

func (h *APIHandler) GetSettingHandler(w http.ResponseWriter, r *http.Request) {
	user := currentUser(r)
	key := chi.URLParam(r, "key")

	var value json.RawMessage
	found, err := h.dbStore.LoadSetting(user.ID, key, &value)
	if err != nil {
		log.Printf("Error loading setting %q for user %d: %v", key, user.ID, err)
		http.Error(w, "Failed to load setting", http.StatusInternalServerError)
		return
	}
	if !found {
		if def, ok := settingDefaults[key]; ok {
			value = def
		} else {
			value = json.RawMessage("null")
		}
	}
	json.NewEncoder(w).Encode(map[string]json.RawMessage{key: value})
}

func (h *APIHandler) PutSettingHandler(w http.ResponseWriter, r *http.Request) {
	user := currentUser(r)
	key := chi.URLParam(r, "key")

	var value json.RawMessage
	if err := json.NewDecoder(r.Body).Decode(&value); err != nil {
		http.Error(w, "Setting value must be valid JSON: "+err.Error(), http.StatusBadRequest)
		return
	}

	if err := h.dbStore.SaveSetting(user.ID, key, value); err != nil {
		log.Printf("Error saving setting %q for user %d: %v", key, user.ID, err)
		http.Error(w, "Failed to save setting", http.StatusInternalServerError)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
