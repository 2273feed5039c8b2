// Package interpreter detects an embedded "send a message" directive inside a
// chat turn and executes it deterministically. The interpreter, not the model,
// enforces who a user can message.
package interpreter

import (
	"context"
	"fmt"
	"strings"

	"github.com/devcaliber/assistant/internal/directory"
	"go.uber.org/zap"
)

// maxListedRecipients bounds the directory listing shown when a recipient
// cannot be resolved.
const maxListedRecipients = 16

// Directive is a parsed in-band messaging command.
type Directive struct {
	RecipientFragment string
	Body              string
}

// Deliverer persists a directed message. Implemented by messaging.Store.
type Deliverer interface {
	Append(ctx context.Context, from, to, content string) bool
}

// Outcome is the result of post-processing one turn.
type Outcome struct {
	// Reply is the final reply text. When a directive fired it replaces the
	// AI-generated reply entirely.
	Reply string
	// Sent reports whether a message was delivered.
	Sent bool
	// Recipient is the resolved recipient when a directive matched.
	Recipient directory.Ref
}

// Interpreter resolves and executes messaging directives against the
// addressable set declared by the context builder.
type Interpreter struct {
	store   Deliverer
	aliases []directory.Ref
	logger  *zap.Logger
}

// New creates an Interpreter. Aliases are configuration-supplied shorthand
// names (demo identities) checked before the addressable directory.
func New(store Deliverer, aliases []directory.Ref, logger *zap.Logger) *Interpreter {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Interpreter{store: store, aliases: aliases, logger: logger}
}

// Interpret scans the user's turn for a directive. Without one, the
// AI-generated reply passes through unchanged.
func (i *Interpreter) Interpret(ctx context.Context, userText, sender, aiReply string, addressable []directory.Ref) Outcome {
	directive := ParseDirective(userText)
	if directive == nil {
		return Outcome{Reply: aiReply}
	}

	recipient, found := i.resolve(directive.RecipientFragment, addressable)
	if !found {
		i.logger.Debug("directive recipient not found",
			zap.String("fragment", directive.RecipientFragment),
			zap.Int("addressable", len(addressable)),
		)
		return Outcome{Reply: unresolvedNotice(directive.RecipientFragment, addressable)}
	}

	if !i.store.Append(ctx, sender, recipient.Email, directive.Body) {
		return Outcome{
			Reply:     fmt.Sprintf("I couldn't deliver your message to **%s** right now. Please try again in a moment.", recipient.Name),
			Recipient: recipient,
		}
	}

	i.logger.Info("directive message delivered",
		zap.String("from", sender),
		zap.String("to", recipient.Email),
	)

	reply := fmt.Sprintf("**Message Sent**\n\nYour message has been delivered to **%s** (%s):\n\n\"%s\"",
		recipient.Name, recipient.Email, directive.Body)

	return Outcome{Reply: reply, Sent: true, Recipient: recipient}
}

// resolve finds the recipient for a name fragment: configured aliases by exact
// lowercase name first, then exact case-insensitive name equality in the
// addressable set, then exact email equality.
func (i *Interpreter) resolve(fragment string, addressable []directory.Ref) (directory.Ref, bool) {
	for _, alias := range i.aliases {
		if strings.EqualFold(alias.Name, fragment) {
			return alias, true
		}
	}

	for _, ref := range addressable {
		if strings.EqualFold(ref.Name, fragment) {
			return ref, true
		}
	}

	for _, ref := range addressable {
		if strings.EqualFold(ref.Email, fragment) {
			return ref, true
		}
	}

	return directory.Ref{}, false
}

func unresolvedNotice(fragment string, addressable []directory.Ref) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "I couldn't find \"%s\" among the people you can message.\n", fragment)

	if len(addressable) == 0 {
		sb.WriteString("\nThere is no one you can message right now.")
		return sb.String()
	}

	sb.WriteString("\nYou can send messages to:\n")
	listed := addressable
	if len(listed) > maxListedRecipients {
		listed = listed[:maxListedRecipients]
	}
	for _, ref := range listed {
		fmt.Fprintf(&sb, "- %s\n", ref.Name)
	}

	sb.WriteString("\nPlease retry with one of these exact names.")
	return sb.String()
}
