package core

import (
	"context"
	"fmt"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sacredmelodies/internal/store"
)

type fakeFinder struct {
	song *FoundSong
	err  error
}

func (f *fakeFinder) FindSong(ctx context.Context, query string) (*FoundSong, error) {
	return f.song, f.err
}

type fakeReflector struct {
	text string
	err  error
}

func (f *fakeReflector) Reflect(ctx context.Context, title string, lyrics []string) (string, error) {
	return f.text, f.err
}

type fakeSpeaker struct {
	pcm []byte
	err error
}

func (f *fakeSpeaker) Speak(ctx context.Context, text string) ([]byte, error) {
	return f.pcm, f.err
}

func newLibraryFixture(t *testing.T, finder SongFinder, reflector Reflector, speaker Speaker) (*LibraryService, *store.SQLiteStore, *store.User) {
	t.Helper()
	dbStore, err := store.NewSQLiteStore(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { dbStore.Close() })
	_, err = dbStore.SeedBuiltins()
	require.NoError(t, err)

	user, err := dbStore.UpsertUser("test@example.com", "Test User", "", "")
	require.NoError(t, err)

	return NewLibraryService(dbStore, finder, reflector, speaker), dbStore, user
}

func TestSearchSongPrefersLocalMatch(t *testing.T) {
	finder := &fakeFinder{err: fmt.Errorf("should not be called")}
	svc, _, user := newLibraryFixture(t, finder, nil, nil)

	song, err := svc.SearchSong(context.Background(), user.ID, "amazing grace")
	require.NoError(t, err)
	assert.Equal(t, "builtin-1", song.ID)
}

func TestSearchSongAIResultIsValidatedAndPersisted(t *testing.T) {
	finder := &fakeFinder{song: &FoundSong{
		Title:     "Blessed Assurance",
		Reference: "Hebrews 10:22",
		Category:  store.CategoryHymn,
		Lyrics:    []string{"Blessed assurance, Jesus is mine!"},
	}}
	svc, dbStore, user := newLibraryFixture(t, finder, nil, nil)

	song, err := svc.SearchSong(context.Background(), user.ID, "blessed assurance")
	require.NoError(t, err)

	// Everything the reader view needs is present.
	assert.NotEmpty(t, song.Title)
	assert.NotEmpty(t, song.Reference)
	assert.True(t, store.ValidCategory(song.Category))
	assert.NotEmpty(t, song.Lyrics)
	assert.NotEmpty(t, song.Image)
	assert.False(t, song.Builtin)

	stored, err := dbStore.GetSongByID(song.ID)
	require.NoError(t, err)
	require.NotNil(t, stored)
	assert.Equal(t, song.Title, stored.Title)
}

func TestSearchSongSoftFailures(t *testing.T) {
	tests := []struct {
		name   string
		finder *fakeFinder
	}{
		{"api error", &fakeFinder{err: fmt.Errorf("network down")}},
		{"missing title", &fakeFinder{song: &FoundSong{Reference: "r", Category: "Hymn", Lyrics: []string{"l"}}}},
		{"invalid category", &fakeFinder{song: &FoundSong{Title: "t", Reference: "r", Category: "Rock", Lyrics: []string{"l"}}}},
		{"empty lyrics", &fakeFinder{song: &FoundSong{Title: "t", Reference: "r", Category: "Hymn", Lyrics: []string{" "}}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, _, user := newLibraryFixture(t, tt.finder, nil, nil)
			_, err := svc.SearchSong(context.Background(), user.ID, "unknown hymn")
			assert.ErrorIs(t, err, ErrSongNotFound)
		})
	}
}

func TestSearchSongAIUnavailable(t *testing.T) {
	svc, _, user := newLibraryFixture(t, &fakeFinder{err: ErrAIUnavailable}, nil, nil)
	_, err := svc.SearchSong(context.Background(), user.ID, "unknown hymn")
	assert.ErrorIs(t, err, ErrAIUnavailable)
}

func TestListSongsFilters(t *testing.T) {
	svc, _, user := newLibraryFixture(t, nil, nil, nil)

	hymns, err := svc.ListSongs(user.ID, "", store.CategoryHymn, false)
	require.NoError(t, err)
	require.Len(t, hymns, 2)
	for _, song := range hymns {
		assert.Equal(t, store.CategoryHymn, song.Category)
	}

	_, err = svc.ToggleFavorite(user.ID, "builtin-3")
	require.NoError(t, err)

	favs, err := svc.ListSongs(user.ID, "", "", true)
	require.NoError(t, err)
	require.Len(t, favs, 1)
	assert.Equal(t, "builtin-3", favs[0].ID)

	byRef, err := svc.ListSongs(user.ID, "psalm 145", "", false)
	require.NoError(t, err)
	require.Len(t, byRef, 1)
	assert.Equal(t, "How Great Thou Art", byRef[0].Title)
}

func TestToggleFavoriteUnknownSong(t *testing.T) {
	svc, _, user := newLibraryFixture(t, nil, nil, nil)
	_, err := svc.ToggleFavorite(user.ID, "missing")
	assert.ErrorIs(t, err, ErrSongNotFound)
}

func TestReflectionFallsBackOnModelError(t *testing.T) {
	svc, _, _ := newLibraryFixture(t, nil, &fakeReflector{err: fmt.Errorf("model exploded")}, nil)

	text, err := svc.Reflection(context.Background(), "builtin-1")
	require.NoError(t, err)
	assert.Equal(t, reflectionFallback, text)
}

func TestReflectionAIUnavailable(t *testing.T) {
	svc, _, _ := newLibraryFixture(t, nil, &fakeReflector{err: ErrAIUnavailable}, nil)
	_, err := svc.Reflection(context.Background(), "builtin-1")
	assert.ErrorIs(t, err, ErrAIUnavailable)
}

func TestSpeechUsesSongLyrics(t *testing.T) {
	svc, _, _ := newLibraryFixture(t, nil, nil, &fakeSpeaker{pcm: []byte{1, 2, 3, 4}})

	pcm, err := svc.Speech(context.Background(), "builtin-2")
	require.NoError(t, err)
	assert.Equal(t, []byte{1, 2, 3, 4}, pcm)

	_, err = svc.Speech(context.Background(), "missing")
	assert.ErrorIs(t, err, ErrSongNotFound)
}
