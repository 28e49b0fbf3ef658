package store

import (
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// A file-backed database per test: ":memory:" gives every pooled connection
// its own empty database.
func newTestStore(t *testing.T) *SQLiteStore {
	t.Helper()
	s, err := NewSQLiteStore(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func testUser(t *testing.T, s *SQLiteStore) *User {
	t.Helper()
	user, err := s.UpsertUser("test@example.com", "Test User", "", "google")
	require.NoError(t, err)
	return user
}

func TestToggleFavoriteRoundTrip(t *testing.T) {
	s := newTestStore(t)
	user := testUser(t, s)

	before, err := s.ListFavoriteIDs(user.ID)
	require.NoError(t, err)

	on, err := s.ToggleFavorite(user.ID, "builtin-1")
	require.NoError(t, err)
	assert.True(t, on)

	mid, err := s.ListFavoriteIDs(user.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{"builtin-1"}, mid)

	off, err := s.ToggleFavorite(user.ID, "builtin-1")
	require.NoError(t, err)
	assert.False(t, off)

	after, err := s.ListFavoriteIDs(user.ID)
	require.NoError(t, err)
	assert.Equal(t, before, after)
}

func TestSaveStudyReplacesSameReference(t *testing.T) {
	s := newTestStore(t)
	user := testUser(t, s)

	first := &SavedStudy{ID: "s1", UserID: user.ID, Reference: "John 3:16", Content: "first"}
	require.NoError(t, s.SaveStudy(first))

	// Same reference, different case: the old study must be replaced.
	second := &SavedStudy{ID: "s2", UserID: user.ID, Reference: "JOHN 3:16", Content: "second"}
	require.NoError(t, s.SaveStudy(second))

	studies, err := s.ListStudies(user.ID)
	require.NoError(t, err)
	require.Len(t, studies, 1)
	assert.Equal(t, "s2", studies[0].ID)
	assert.Equal(t, "second", studies[0].Content)
}

func TestBuiltinStudiesVisibleUntilDeletedOrShadowed(t *testing.T) {
	s := newTestStore(t)
	user := testUser(t, s)
	_, err := s.SeedBuiltins()
	require.NoError(t, err)

	studies, err := s.ListStudies(user.ID)
	require.NoError(t, err)
	require.Len(t, studies, 2)

	// Hiding a built-in affects only this user.
	require.NoError(t, s.DeleteStudy(user.ID, "pre-1"))
	studies, err = s.ListStudies(user.ID)
	require.NoError(t, err)
	require.Len(t, studies, 1)

	other, err := s.UpsertUser("other@example.com", "Other", "", "")
	require.NoError(t, err)
	otherStudies, err := s.ListStudies(other.ID)
	require.NoError(t, err)
	assert.Len(t, otherStudies, 2)

	// Saving a study with a built-in's reference shadows it.
	shadow := &SavedStudy{ID: "s3", UserID: user.ID, Reference: BuiltinStudies[1].Reference, Content: "mine"}
	require.NoError(t, s.SaveStudy(shadow))
	studies, err = s.ListStudies(user.ID)
	require.NoError(t, err)
	require.Len(t, studies, 1)
	assert.Equal(t, "s3", studies[0].ID)
}

func TestDeleteStudyUnknownID(t *testing.T) {
	s := newTestStore(t)
	user := testUser(t, s)
	assert.EqualError(t, s.DeleteStudy(user.ID, "missing"), "study not found")
}

func TestGetRecentMessagesBoundedAndAscending(t *testing.T) {
	s := newTestStore(t)

	base := time.Now().Add(-time.Hour)
	for i := 0; i < 60; i++ {
		msg := &Message{
			ID:         fmt.Sprintf("m-%02d", i),
			Text:       fmt.Sprintf("message %d", i),
			SenderID:   "user-1",
			SenderName: "Test",
			Timestamp:  base.Add(time.Duration(i) * time.Second),
		}
		require.NoError(t, s.CreateMessage(msg))
	}

	total, err := s.CountMessages()
	require.NoError(t, err)
	assert.Equal(t, 60, total)

	messages, err := s.GetRecentMessages(50)
	require.NoError(t, err)
	require.Len(t, messages, 50)

	// Only the newest 50, oldest first.
	assert.Equal(t, "m-10", messages[0].ID)
	assert.Equal(t, "m-59", messages[49].ID)
	for i := 1; i < len(messages); i++ {
		assert.False(t, messages[i].Timestamp.Before(messages[i-1].Timestamp))
	}
}

func TestLoadSettingCorruptJSONFallsBack(t *testing.T) {
	s := newTestStore(t)
	user := testUser(t, s)

	require.NoError(t, s.SaveSetting(user.ID, "theme", "dark"))
	require.NoError(t, s.PutRawSetting(user.ID, "font_size", "{not json"))

	// The corrupt key reads as absent...
	var fontSize int
	found, err := s.LoadSetting(user.ID, "font_size", &fontSize)
	require.NoError(t, err)
	assert.False(t, found)

	// ...without affecting other keys.
	var theme string
	found, err = s.LoadSetting(user.ID, "theme", &theme)
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, "dark", theme)
}

func TestSeedBuiltinsIdempotent(t *testing.T) {
	s := newTestStore(t)

	n, err := s.SeedBuiltins()
	require.NoError(t, err)
	assert.Equal(t, len(BuiltinSongs)+len(BuiltinStudies), n)

	_, err = s.SeedBuiltins()
	require.NoError(t, err)

	songs, err := s.ListSongs()
	require.NoError(t, err)
	assert.Len(t, songs, len(BuiltinSongs))

	song, err := s.GetSongByID("builtin-1")
	require.NoError(t, err)
	require.NotNil(t, song)
	assert.Equal(t, "Amazing Grace", song.Title)
	assert.True(t, song.Builtin)
	assert.NotEmpty(t, song.Lyrics)
}

func TestUpsertUserUpdatesProfile(t *testing.T) {
	s := newTestStore(t)

	first, err := s.UpsertUser("a@example.com", "Alpha", "p1", "google")
	require.NoError(t, err)

	second, err := s.UpsertUser("a@example.com", "Alpha Renamed", "p2", "facebook")
	require.NoError(t, err)

	assert.Equal(t, first.ID, second.ID)
	assert.Equal(t, "Alpha Renamed", second.Name)
	assert.Equal(t, "p2", second.Photo)
}
