package core

import (
	"context"
	"fmt"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sacredmelodies/internal/store"
	"sacredmelodies/internal/study"
)

type fakeExplainer struct {
	chunks []string
	err    error
}

func (f *fakeExplainer) ExplainVerse(ctx context.Context, reference string, onUpdate func(string, []study.Source)) (string, []study.Source, error) {
	if f.err != nil {
		return "", nil, f.err
	}
	var acc study.Accumulator
	for _, chunk := range f.chunks {
		acc.Append(chunk)
		if onUpdate != nil {
			onUpdate(acc.Text(), nil)
		}
	}
	return acc.Text(), nil, nil
}

func newStudyFixture(t *testing.T, explainer VerseExplainer) (*StudyService, *store.User) {
	t.Helper()
	dbStore, err := store.NewSQLiteStore(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { dbStore.Close() })

	user, err := dbStore.UpsertUser("test@example.com", "Test User", "", "")
	require.NoError(t, err)

	return NewStudyService(dbStore, explainer), user
}

func TestExplainStreamsGrowingPrefixes(t *testing.T) {
	explainer := &fakeExplainer{chunks: []string{"[[VERSE]]in the ", "beginning", "\n[[CONTEXT]]genesis"}}
	svc, user := newStudyFixture(t, explainer)

	var snapshots []string
	text, _, err := svc.Explain(context.Background(), user.ID, "Genesis 1:1", func(text string, _ []study.Source) {
		snapshots = append(snapshots, text)
	})
	require.NoError(t, err)

	require.Len(t, snapshots, 3)
	for i := 1; i < len(snapshots); i++ {
		assert.True(t, len(snapshots[i]) > len(snapshots[i-1]))
		assert.Equal(t, snapshots[i-1], snapshots[i][:len(snapshots[i-1])])
	}
	assert.Equal(t, snapshots[len(snapshots)-1], text)
}

func TestExplainOfflineFallbackUsesSavedStudy(t *testing.T) {
	svc, user := newStudyFixture(t, &fakeExplainer{err: ErrAIUnavailable})

	_, err := svc.Save(user.ID, "John 3:16", "saved explanation")
	require.NoError(t, err)

	text, _, err := svc.Explain(context.Background(), user.ID, "john 3:16", nil)
	require.NoError(t, err)
	assert.Equal(t, "saved explanation", text)

	// No saved study for this one: the configuration error surfaces.
	_, _, err = svc.Explain(context.Background(), user.ID, "Ruth 1:16", nil)
	assert.ErrorIs(t, err, ErrAIUnavailable)
}

func TestExplainPropagatesStreamErrors(t *testing.T) {
	svc, user := newStudyFixture(t, &fakeExplainer{err: fmt.Errorf("stream broke")})
	_, _, err := svc.Explain(context.Background(), user.ID, "John 3:16", nil)
	assert.EqualError(t, err, "stream broke")
}

func TestSaveValidatesInput(t *testing.T) {
	svc, user := newStudyFixture(t, nil)

	_, err := svc.Save(user.ID, "", "content")
	assert.Error(t, err)
	_, err = svc.Save(user.ID, "John 3:16", "  ")
	assert.Error(t, err)

	saved, err := svc.Save(user.ID, "John 3:16", "content")
	require.NoError(t, err)
	assert.NotEmpty(t, saved.ID)

	studies, err := svc.List(user.ID)
	require.NoError(t, err)
	require.Len(t, studies, 1)

	require.NoError(t, svc.Delete(user.ID, saved.ID))
	studies, err = svc.List(user.ID)
	require.NoError(t, err)
	assert.Empty(t, studies)
}
