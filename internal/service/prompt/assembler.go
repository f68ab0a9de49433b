// Package prompt builds the single completion prompt sent to the model.
package prompt

import (
	"context"
	"fmt"
	"strings"

	"github.com/cloudwego/eino/components/prompt"
	"github.com/cloudwego/eino/schema"

	"github.com/saarthi/companion/backend/internal/model/chat"
	"github.com/saarthi/companion/backend/internal/model/persona"
)

// DefaultHistoryLimit is the number of prior messages included in a prompt.
const DefaultHistoryLimit = 10

const promptLayout = `{persona}
---
Conversation so far:
{history}

Context (from knowledge base):
{context}

User: {query}
`

// Assembler combines a persona template, recent history, retrieved passages
// and the new query, in that fixed order.
type Assembler struct {
	personas     persona.Store
	historyLimit int
	template     prompt.ChatTemplate
}

// NewAssembler returns an Assembler; a non-positive historyLimit selects the default.
func NewAssembler(personas persona.Store, historyLimit int) *Assembler {
	if historyLimit <= 0 {
		historyLimit = DefaultHistoryLimit
	}
	return &Assembler{
		personas:     personas,
		historyLimit: historyLimit,
		template:     prompt.FromMessages(schema.FString, schema.UserMessage(promptLayout)),
	}
}

// Assemble renders the prompt. history must not include the current query.
// Unknown persona ids fall back to the default persona.
func (a *Assembler) Assemble(ctx context.Context, personaID string, history []chat.Message, passages []string, query string) (string, error) {
	p := a.personas.Resolve(personaID)

	messages, err := a.template.Format(ctx, map[string]any{
		"persona": p.Prompt,
		"history": a.renderHistory(history),
		"context": strings.Join(passages, "\n\n"),
		"query":   query,
	})
	if err != nil {
		return "", fmt.Errorf("format prompt: %w", err)
	}
	if len(messages) != 1 {
		return "", fmt.Errorf("format prompt: expected 1 message, got %d", len(messages))
	}
	return messages[0].Content, nil
}

func (a *Assembler) renderHistory(history []chat.Message) string {
	start := 0
	if len(history) > a.historyLimit {
		start = len(history) - a.historyLimit
	}

	var b strings.Builder
	for _, msg := range history[start:] {
		role := "User"
		if msg.Role == chat.RoleAssistant {
			role = "Assistant"
		}
		b.WriteString(role)
		b.WriteString(": ")
		b.WriteString(msg.Content)
		b.WriteString("\n")
	}
	return b.String()
}
