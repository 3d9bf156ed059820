package service

import (
	"context"
	"fmt"
	"math/rand"
	"regexp"
	"strings"

	"github.com/praxis-labs/lorebase/internal/domain"
)

const (
	suggestionSamplePool = 20
	suggestionCount      = 3
	suggestionTitleChars = 15
	suggestionDescChars  = 120
)

var suggestionActions = []string{"ANALYZE", "SUMMARIZE", "EXPLAIN", "REVIEW"}

var (
	fileExtPattern  = regexp.MustCompile(`\.[^/.]+$`)
	nonAlnumPattern = regexp.MustCompile(`[^a-zA-Z0-9 ]`)
	whitespaceRuns  = regexp.MustCompile(`\s+`)
)

// Suggestion is one ready-made prompt offered to the user, derived from a
// knowledge item in the project.
type Suggestion struct {
	Title       string `json:"title"`
	Desc        string `json:"desc"`
	Prompt      string `json:"prompt"`
	Placeholder string `json:"placeholder"`
}

// SuggestionSampler draws a random pool of items to build suggestions from.
type SuggestionSampler interface {
	SampleByProject(ctx context.Context, projectID string, limit int) ([]*domain.KnowledgeItem, error)
}

// SuggestionService builds prompt suggestions from a random sample of the
// project's knowledge items.
type SuggestionService struct {
	sampler SuggestionSampler
	intn    func(n int) int
}

// NewSuggestionService creates a new SuggestionService instance
func NewSuggestionService(sampler SuggestionSampler) *SuggestionService {
	return &SuggestionService{sampler: sampler, intn: rand.Intn}
}

// Suggest returns up to three prompt suggestions for the project. An empty
// project yields an empty list, not an error.
func (s *SuggestionService) Suggest(ctx context.Context, projectID string) ([]Suggestion, error) {
	if projectID == "" {
		return nil, domain.ErrMissingProjectID
	}

	items, err := s.sampler.SampleByProject(ctx, projectID, suggestionSamplePool)
	if err != nil {
		return nil, err
	}
	if len(items) == 0 {
		return []Suggestion{}, nil
	}

	count := suggestionCount
	if len(items) < count {
		count = len(items)
	}

	suggestions := make([]Suggestion, 0, count)
	for i := 0; i < count; i++ {
		suggestions = append(suggestions, s.buildSuggestion(items[i], i))
	}
	return suggestions, nil
}

func (s *SuggestionService) buildSuggestion(item *domain.KnowledgeItem, index int) Suggestion {
	fileName := item.FileName

	// Fall back to the first few words of content when the name is missing
	// or a generic placeholder.
	if fileName == "" || strings.EqualFold(fileName, "document") {
		if len(item.Content) > 5 {
			words := strings.Fields(item.Content)
			if len(words) > 3 {
				words = words[:3]
			}
			fileName = nonAlnumPattern.ReplaceAllString(strings.Join(words, " "), "")
		} else {
			fileName = fmt.Sprintf("Document %d", index+1)
		}
	}

	cleanName := strings.TrimSpace(fileExtPattern.ReplaceAllString(fileName, ""))
	action := suggestionActions[s.intn(len(suggestionActions))]

	title := strings.ToUpper(fmt.Sprintf("%s %s", action, clipRunes(cleanName, suggestionTitleChars)))

	desc := fmt.Sprintf("Ask about details in %s.", fileName)
	if item.Content != "" {
		snippet := item.Content
		if len(snippet) > suggestionDescChars {
			snippet = snippet[:suggestionDescChars]
		}
		desc = strings.TrimSpace(whitespaceRuns.ReplaceAllString(snippet, " "))
	}

	placeholder := fmt.Sprintf("Ask about %s...", cleanName)
	switch action {
	case "SUMMARIZE":
		placeholder = fmt.Sprintf("Summarize %s...", headRunes(cleanName, 20))
	case "EXPLAIN":
		placeholder = fmt.Sprintf("Explain the logic in %s...", headRunes(cleanName, 20))
	case "ANALYZE":
		placeholder = fmt.Sprintf("Analyze key points of %s...", headRunes(cleanName, 20))
	}

	return Suggestion{
		Title:       title,
		Desc:        fmt.Sprintf("%q...", desc),
		Prompt:      fmt.Sprintf("Tell me about %s and its key details.", cleanName),
		Placeholder: placeholder,
	}
}

// clipRunes truncates s to at most max runes, appending an ellipsis when the
// original exceeds the cap.
func clipRunes(s string, max int) string {
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max]) + "..."
}

// headRunes truncates s to at most max runes with no ellipsis.
func headRunes(s string, max int) string {
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max])
}
