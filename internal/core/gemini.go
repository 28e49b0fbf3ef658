package core

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"strings"

	"google.golang.org/genai"

	"sacredmelodies/internal/config"
	"sacredmelodies/internal/study"
)

const (
	defaultTextModelName = "gemini-3-flash-preview"
	defaultTTSModelName  = "gemini-2.5-flash-preview-tts"

	reflectionSystemInstruction = "You are a thoughtful spiritual guide. Provide encouraging and deep reflections in Bengali."

	explainSystemInstruction = "You are an expert Bible Scholar. Always use the googleSearch tool to find accurate verse wording. " +
		"Your response MUST be in Bengali."
)

// ErrAIUnavailable is returned by every AI method when no API key is configured.
var ErrAIUnavailable = errors.New("AI features are not configured")

// FoundSong is the fixed-shape JSON object the lookup prompt asks for.
type FoundSong struct {
	Title     string   `json:"title"`
	Reference string   `json:"reference"`
	Category  string   `json:"category"`
	Lyrics    []string `json:"lyrics"`
}

var songSchema = &genai.Schema{
	Type: genai.TypeObject,
	Properties: map[string]*genai.Schema{
		"title":     {Type: genai.TypeString},
		"reference": {Type: genai.TypeString},
		"category":  {Type: genai.TypeString, Enum: []string{"Worship", "Praise", "Hymn", "Kids"}},
		"lyrics":    {Type: genai.TypeArray, Items: &genai.Schema{Type: genai.TypeString}},
	},
	Required: []string{"title", "reference", "category", "lyrics"},
}

type GeminiService struct {
	client *genai.Client // nil when GEMINI_API_KEY is unset
	voice  string
}

func NewGeminiService(ctx context.Context) (*GeminiService, error) {
	if config.AppConfig.GeminiAPIKey == "" {
		return &GeminiService{voice: config.AppConfig.TTSVoice}, nil
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  config.AppConfig.GeminiAPIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create GenAI client: %w", err)
	}
	return &GeminiService{client: client, voice: config.AppConfig.TTSVoice}, nil
}

// FindSong asks the model for song lyrics as structured JSON. A nil result with
// a nil error never happens: callers get either a validated song or an error.
func (s *GeminiService) FindSong(ctx context.Context, query string) (*FoundSong, error) {
	if s.client == nil {
		return nil, ErrAIUnavailable
	}

	prompt := fmt.Sprintf("Find the lyrics for the Bible song: %q. Return as JSON.", query)
	cfg := &genai.GenerateContentConfig{
		ResponseMIMEType: "application/json",
		ResponseSchema:   songSchema,
	}

	var resp *genai.GenerateContentResponse
	err := withRetry(ctx, func() error {
		var callErr error
		resp, callErr = s.client.Models.GenerateContent(ctx, defaultTextModelName, genai.Text(prompt), cfg)
		return callErr
	})
	if err != nil {
		return nil, fmt.Errorf("gemini song lookup failed: %w", err)
	}

	text := strings.TrimSpace(resp.Text())
	if text == "" {
		return nil, fmt.Errorf("gemini song lookup returned no text")
	}

	var song FoundSong
	if err := json.Unmarshal([]byte(text), &song); err != nil {
		return nil, fmt.Errorf("gemini song lookup returned malformed JSON: %w", err)
	}
	return &song, nil
}

// Reflect generates a short spiritual reflection for a song's lyrics.
func (s *GeminiService) Reflect(ctx context.Context, title string, lyrics []string) (string, error) {
	if s.client == nil {
		return "", ErrAIUnavailable
	}

	prompt := fmt.Sprintf("Based on the lyrics of the Bible song %q, provide a short spiritual reflection and a related Bible verse in Bengali.\nLyrics: %s",
		title, strings.Join(lyrics, " "))
	cfg := &genai.GenerateContentConfig{
		SystemInstruction: &genai.Content{Parts: []*genai.Part{genai.NewPartFromText(reflectionSystemInstruction)}},
	}

	var resp *genai.GenerateContentResponse
	err := withRetry(ctx, func() error {
		var callErr error
		resp, callErr = s.client.Models.GenerateContent(ctx, defaultTextModelName, genai.Text(prompt), cfg)
		return callErr
	})
	if err != nil {
		return "", fmt.Errorf("gemini reflection request failed: %w", err)
	}

	text := strings.TrimSpace(resp.Text())
	if text == "" {
		return "", fmt.Errorf("gemini reflection was empty")
	}
	return text, nil
}

func explainPrompt(reference string) string {
	return fmt.Sprintf(`Please search for and provide a comprehensive explanation for the Bible verse: %q.
MANDATORY: You must search the web to find the EXACT text of this verse in Bengali.

Structure your response accurately in Bengali using these markers:
[[VERSE]]
(The full verse text in Bengali)

[[CONTEXT]]
(The historical and biblical context)

[[MEANING]]
(The spiritual meaning)

[[APPLICATION]]
(Practical life application)

[[PRAYER]]
(A short prayer)

Use ONLY Bengali for all sections.`, reference)
}

// ExplainVerse streams a search-grounded explanation. onUpdate is invoked after
// every chunk with the accumulated text and the deduplicated grounding sources
// so far. Returns the final text and sources.
func (s *GeminiService) ExplainVerse(ctx context.Context, reference string, onUpdate func(text string, sources []study.Source)) (string, []study.Source, error) {
	if s.client == nil {
		return "", nil, ErrAIUnavailable
	}

	cfg := &genai.GenerateContentConfig{
		SystemInstruction: &genai.Content{Parts: []*genai.Part{genai.NewPartFromText(explainSystemInstruction)}},
		Tools:             []*genai.Tool{{GoogleSearch: &genai.GoogleSearch{}}},
		Temperature:       genai.Ptr(float32(0.2)),
	}

	var acc study.Accumulator
	for chunk, err := range s.client.Models.GenerateContentStream(ctx, defaultTextModelName, genai.Text(explainPrompt(reference)), cfg) {
		if err != nil {
			return "", nil, fmt.Errorf("gemini explanation stream failed: %w", err)
		}

		if text := chunk.Text(); text != "" {
			acc.Append(text)
		}
		for _, src := range groundingSources(chunk) {
			acc.AddSource(src)
		}
		if onUpdate != nil {
			onUpdate(acc.Text(), acc.Sources())
		}
	}

	if strings.TrimSpace(acc.Text()) == "" {
		return "", nil, fmt.Errorf("gemini explanation was empty")
	}
	return acc.Text(), acc.Sources(), nil
}

func groundingSources(resp *genai.GenerateContentResponse) []study.Source {
	var sources []study.Source
	for _, cand := range resp.Candidates {
		if cand.GroundingMetadata == nil {
			continue
		}
		for _, gc := range cand.GroundingMetadata.GroundingChunks {
			if gc.Web != nil && gc.Web.URI != "" {
				sources = append(sources, study.Source{URI: gc.Web.URI, Title: gc.Web.Title})
			}
		}
	}
	return sources
}

// Speak converts text to raw s16le 24kHz mono PCM via the TTS model.
func (s *GeminiService) Speak(ctx context.Context, text string) ([]byte, error) {
	if s.client == nil {
		return nil, ErrAIUnavailable
	}

	prompt := "Read these lyrics warmly and clearly: " + text
	cfg := &genai.GenerateContentConfig{
		ResponseModalities: []string{"AUDIO"},
		SpeechConfig: &genai.SpeechConfig{
			VoiceConfig: &genai.VoiceConfig{
				PrebuiltVoiceConfig: &genai.PrebuiltVoiceConfig{VoiceName: s.voice},
			},
		},
	}

	resp, err := s.client.Models.GenerateContent(ctx, defaultTTSModelName, genai.Text(prompt), cfg)
	if err != nil {
		return nil, fmt.Errorf("gemini TTS request failed: %w", err)
	}

	for _, cand := range resp.Candidates {
		if cand.Content == nil {
			continue
		}
		for _, part := range cand.Content.Parts {
			if part.InlineData != nil && len(part.InlineData.Data) > 0 {
				return part.InlineData.Data, nil
			}
		}
	}

	log.Println("Gemini TTS response contained no audio data")
	return nil, fmt.Errorf("gemini TTS returned no audio")
}
