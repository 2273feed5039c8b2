// Package ai defines the generative backend boundary of the assistant core.
package ai

import (
	"context"
	"fmt"
	"strings"
	"time"
)

const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Turn is one entry of a conversation, owned by the calling UI session.
type Turn struct {
	Role      string
	Content   string
	Timestamp time.Time
}

// Request carries everything a backend needs for one reply.
type Request struct {
	SystemInstruction string
	ContextText       string
	Turns             []Turn
	// MaxTokens caps the reply length. Zero means backend default.
	MaxTokens int
}

// Backend produces one reply for a conversation. Implementations may fail with
// a transport error, in which case the orchestrator falls through to the next
// backend.
type Backend interface {
	Name() string
	GenerateReply(ctx context.Context, req *Request) (string, error)
}

// SystemText combines the system instruction with the scoped context the way
// both backends present it to their models.
func (r *Request) SystemText() string {
	system := strings.TrimSpace(r.SystemInstruction)
	contextText := strings.TrimSpace(r.ContextText)
	if contextText == "" {
		return system
	}
	if system == "" {
		return "Context: " + contextText
	}
	return system + "\n\nContext: " + contextText
}

// Transcript flattens the conversation into a single prompt, one line per
// turn, for backends that take plain text instead of structured history.
func (r *Request) Transcript() string {
	var sb strings.Builder
	sb.WriteString("Conversation:\n")
	for _, turn := range r.Turns {
		fmt.Fprintf(&sb, "%s: %s\n", turn.Role, turn.Content)
	}
	return sb.String()
}

// LastUserText returns the content of the most recent user turn, or "".
func LastUserText(turns []Turn) string {
	for i := len(turns) - 1; i >= 0; i-- {
		if turns[i].Role == RoleUser {
			return turns[i].Content
		}
	}
	return ""
}
