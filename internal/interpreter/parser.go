package interpreter

import "strings"

// Directive grammar: a verb ("send message to" or "message"), a recipient name
// fragment, a separator, and a free-text body. The verb may appear anywhere in
// the turn; the leftmost occurrence wins, so "Please send message to Alex: hi"
// is a directive. Separator precedence is fixed and tested: colon, then
// "about", then "saying", then a plain space with the first word taken as the
// name.
var directiveVerbs = []string{"send message to ", "message "}

// ParseDirective returns the directive embedded in text, or nil when no
// command pattern matches. A matched colon separator with nothing after it is
// still a directive with an empty body.
func ParseDirective(text string) *Directive {
	trimmed := strings.TrimSpace(text)

	verbIdx := -1
	verbLen := 0
	for _, verb := range directiveVerbs {
		idx := indexFold(trimmed, verb)
		if idx < 0 {
			continue
		}
		if verbIdx < 0 || idx < verbIdx {
			verbIdx = idx
			verbLen = len(verb)
		}
	}
	if verbIdx < 0 {
		return nil
	}

	rest := strings.TrimSpace(trimmed[verbIdx+verbLen:])
	if rest == "" {
		return nil
	}

	if idx := strings.Index(rest, ":"); idx >= 0 {
		name := strings.TrimSpace(rest[:idx])
		if name == "" {
			return nil
		}
		return &Directive{
			RecipientFragment: name,
			Body:              strings.TrimSpace(rest[idx+1:]),
		}
	}

	for _, separator := range []string{" about ", " saying "} {
		if idx := indexFold(rest, separator); idx >= 0 {
			name := strings.TrimSpace(rest[:idx])
			body := strings.TrimSpace(rest[idx+len(separator):])
			if name == "" || body == "" {
				continue
			}
			return &Directive{RecipientFragment: name, Body: body}
		}
	}

	// Last resort: first word is the name, the remainder is the body.
	fields := strings.Fields(rest)
	if len(fields) < 2 {
		return nil
	}
	return &Directive{
		RecipientFragment: fields[0],
		Body:              strings.Join(fields[1:], " "),
	}
}

// indexFold returns the index of the first case-insensitive occurrence of
// substr in s, or -1.
func indexFold(s, substr string) int {
	return strings.Index(strings.ToLower(s), strings.ToLower(substr))
}
