package core

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"sacredmelodies/internal/store"
	"sacredmelodies/internal/study"
)

// VerseExplainer streams a grounded explanation for a scripture reference.
type VerseExplainer interface {
	ExplainVerse(ctx context.Context, reference string, onUpdate func(text string, sources []study.Source)) (string, []study.Source, error)
}

type StudyService struct {
	dbStore   *store.SQLiteStore
	explainer VerseExplainer
}

func NewStudyService(db *store.SQLiteStore, explainer VerseExplainer) *StudyService {
	return &StudyService{dbStore: db, explainer: explainer}
}

// Explain streams an explanation for the reference. When the AI is not
// configured, a previously saved study with the same reference serves as an
// offline answer; otherwise ErrAIUnavailable propagates.
func (s *StudyService) Explain(ctx context.Context, userID int64, reference string, onUpdate func(text string, sources []study.Source)) (string, []study.Source, error) {
	reference = strings.TrimSpace(reference)
	if reference == "" {
		return "", nil, fmt.Errorf("empty reference")
	}

	text, sources, err := s.explainer.ExplainVerse(ctx, reference, onUpdate)
	if err == nil {
		return text, sources, nil
	}
	if !errors.Is(err, ErrAIUnavailable) {
		return "", nil, err
	}

	if cached := s.findSaved(userID, reference); cached != nil {
		if onUpdate != nil {
			onUpdate(cached.Content, nil)
		}
		return cached.Content, nil, nil
	}
	return "", nil, ErrAIUnavailable
}

func (s *StudyService) findSaved(userID int64, reference string) *store.SavedStudy {
	studies, err := s.dbStore.ListStudies(userID)
	if err != nil {
		return nil
	}
	want := store.NormalizeReference(reference)
	for i := range studies {
		if store.NormalizeReference(studies[i].Reference) == want {
			return &studies[i]
		}
	}
	return nil
}

// Save stores an explanation under its reference, replacing any earlier study
// with the same reference.
func (s *StudyService) Save(userID int64, reference, content string) (*store.SavedStudy, error) {
	reference = strings.TrimSpace(reference)
	if reference == "" || strings.TrimSpace(content) == "" {
		return nil, fmt.Errorf("reference and content are required")
	}

	saved := &store.SavedStudy{
		ID:        uuid.NewString(),
		UserID:    userID,
		Reference: reference,
		Content:   content,
	}
	if err := s.dbStore.SaveStudy(saved); err != nil {
		return nil, fmt.Errorf("failed to save study: %w", err)
	}
	return saved, nil
}

func (s *StudyService) List(userID int64) ([]store.SavedStudy, error) {
	return s.dbStore.ListStudies(userID)
}

func (s *StudyService) Delete(userID int64, studyID string) error {
	return s.dbStore.DeleteStudy(userID, studyID)
}
