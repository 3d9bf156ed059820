package service

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/praxis-labs/lorebase/internal/domain"
)

const (
	maxTopics        = 5
	topicTitleChars  = 60
	topicPreviewChars = 120
)

var markdownHeaderPattern = regexp.MustCompile(`^#+\s*`)

// ExtractTopics derives disambiguation choices from matched documents: the
// first non-blank line becomes the title (markdown header markers stripped),
// the remaining lines become the preview. Capped at five topics.
func ExtractTopics(matches []*domain.Match) []*domain.Topic {
	topics := make([]*domain.Topic, 0, maxTopics)

	for _, m := range matches {
		if len(topics) >= maxTopics {
			break
		}

		var lines []string
		for _, line := range strings.Split(m.Content, "\n") {
			if strings.TrimSpace(line) != "" {
				lines = append(lines, line)
			}
		}

		title := "Untitled Topic"
		if len(lines) > 0 {
			title = truncateRunes(lines[0], topicTitleChars)
		}
		title = markdownHeaderPattern.ReplaceAllString(title, "")

		preview := ""
		if len(lines) > 1 {
			preview = truncateRunes(strings.Join(lines[1:], " "), topicPreviewChars)
		}
		if preview == "" {
			preview = truncateRunes(m.Content, topicPreviewChars)
		}

		topics = append(topics, &domain.Topic{
			ID:      m.ID,
			Title:   title,
			Preview: preview,
		})
	}

	return topics
}

// FormatTopicList renders topics as the numbered list embedded in the
// disambiguation prompt.
func FormatTopicList(topics []*domain.Topic) string {
	entries := make([]string, 0, len(topics))
	for i, t := range topics {
		entries = append(entries, fmt.Sprintf("%d. **%s**\n   %s", i+1, t.Title, t.Preview))
	}
	return strings.Join(entries, "\n\n")
}

// truncateRunes caps s at max runes, appending an ellipsis marker when the
// cap was reached.
func truncateRunes(s string, max int) string {
	runes := []rune(s)
	if len(runes) < max {
		return s
	}
	return string(runes[:max]) + "..."
}
