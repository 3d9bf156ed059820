package service

import (
	"fmt"
	"strings"

	"github.com/praxis-labs/lorebase/internal/domain"
)

// NoDataFoundMessage is the fixed refusal string the assistant must emit
// verbatim whenever the answer is not determinable from the indexed context.
const NoDataFoundMessage = `I couldn't find any relevant information about this in our knowledge base yet. This topic may not have been added by the admin. Please reach out to your administrator if you believe this information should be available.`

// contextSeparator keeps individual documents visibly distinct inside the
// grounding context.
const contextSeparator = "\n\n---\n\n"

// BuildSystemPrompt constructs the system prompt that restricts the
// completion model to the retrieved context. With no matches it returns a
// stricter prompt that refuses every question.
func BuildSystemPrompt(matches []*domain.Match) string {
	if len(matches) == 0 {
		return fmt.Sprintf(`You are a knowledge assistant for this platform. There is currently no knowledge indexed in this project.

For ANY question the user asks, respond with: "%s"

You are NOT allowed to:
- Answer questions using your training data
- Have general conversations
- Provide any information not from this platform's knowledge base

Simply inform the user that no knowledge has been added yet and they should contact their administrator.`, NoDataFoundMessage)
	}

	contents := make([]string, 0, len(matches))
	for _, m := range matches {
		contents = append(contents, m.Content)
	}
	context := strings.Join(contents, contextSeparator)

	return fmt.Sprintf(`You are a knowledge assistant for this platform. You MUST answer questions based EXCLUSIVELY on the context provided below.

CRITICAL INSTRUCTIONS - FOLLOW THESE WITHOUT EXCEPTION:
1. You are FORBIDDEN from using ANY knowledge from your training data or general knowledge.
2. You can ONLY use information that appears in the CONTEXT section below.
3. If the user's question cannot be fully answered using ONLY the context below, respond with: "%s"
4. Do NOT fill gaps with assumptions, inferences, or external knowledge.
5. Do NOT provide additional information beyond what is explicitly stated in the context.
6. If you are even slightly unsure whether information is in the context, say you don't have that information.
7. When answering, quote or closely paraphrase the context. Do not elaborate beyond it.
8. Never say "based on my knowledge" or similar phrases - you have NO knowledge outside this context.
9. SEARCH THE ENTIRE CONTEXT THOROUGHLY before saying information is not available.
10. The context may contain the answer in different words - look for semantic matches, not just exact phrases.

CONTEXT FROM KNOWLEDGE BASE (%d documents):
%s

Remember: If it's not in the context above, you don't know it. Period. But SEARCH THOROUGHLY before concluding that.`, NoDataFoundMessage, len(matches), context)
}

// disambiguationSystemPrompt instructs the model while presenting topic choices.
const disambiguationSystemPrompt = `You are a helpful knowledge assistant. Format the disambiguation options clearly and invite the user to choose one.`

// BuildDisambiguationPrompt constructs the single-turn user prompt that asks
// the model to present topic choices as a numbered list. Only titles and
// previews are exposed, never the underlying content.
func BuildDisambiguationPrompt(topics []*domain.Topic) string {
	return fmt.Sprintf(`The user asked a broad question. I found %d different topics in the knowledge base.

Please respond with a friendly message asking which topic they'd like to explore. Format the options as a numbered list with the title in bold and a brief preview. Here are the topics:

%s

Respond naturally, like: "I found a few topics that might match what you're looking for:

1. **Topic Title**
   Brief preview...

2. **Topic Title**
   Brief preview...

Which one would you like to know more about? Just say the number or topic name!"`, len(topics), FormatTopicList(topics))
}
