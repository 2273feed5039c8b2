package interpreter

import "testing"

func TestParseDirective(t *testing.T) {
	cases := []struct {
		name string
		text string
		want *Directive
	}{
		{
			name: "colon separator",
			text: "Send message to Alex Johnson: Let's talk salary",
			want: &Directive{RecipientFragment: "Alex Johnson", Body: "Let's talk salary"},
		},
		{
			name: "short verb",
			text: "message Sarah Chen: are you free tomorrow?",
			want: &Directive{RecipientFragment: "Sarah Chen", Body: "are you free tomorrow?"},
		},
		{
			name: "about separator",
			text: "send message to Maria Lopez about the backend role",
			want: &Directive{RecipientFragment: "Maria Lopez", Body: "the backend role"},
		},
		{
			name: "saying separator",
			text: "message Alex Johnson saying thanks for your time",
			want: &Directive{RecipientFragment: "Alex Johnson", Body: "thanks for your time"},
		},
		{
			name: "colon wins over about",
			text: "send message to Alex: ask about the salary",
			want: &Directive{RecipientFragment: "Alex", Body: "ask about the salary"},
		},
		{
			name: "about wins over saying",
			text: "message Alex about what I was saying yesterday",
			want: &Directive{RecipientFragment: "Alex", Body: "what I was saying yesterday"},
		},
		{
			name: "first word fallback",
			text: "message Alex hello there",
			want: &Directive{RecipientFragment: "Alex", Body: "hello there"},
		},
		{
			name: "case-insensitive verb",
			text: "SEND MESSAGE TO Alex: hi",
			want: &Directive{RecipientFragment: "Alex", Body: "hi"},
		},
		{
			name: "empty body after colon is still a directive",
			text: "message Alex Johnson:",
			want: &Directive{RecipientFragment: "Alex Johnson", Body: ""},
		},
		{
			name: "colon with no name",
			text: "message : hello",
			want: nil,
		},
		{
			name: "no verb",
			text: "what roles are open right now?",
			want: nil,
		},
		{
			name: "verb with nothing after it",
			text: "send message to ",
			want: nil,
		},
		{
			name: "single word after verb",
			text: "message Alex",
			want: nil,
		},
		{
			name: "verb embedded mid-sentence",
			text: "Please send message to Alex Johnson: hi",
			want: &Directive{RecipientFragment: "Alex Johnson", Body: "hi"},
		},
		{
			name: "short verb embedded mid-sentence",
			text: "Could you message Sarah Chen saying thanks",
			want: &Directive{RecipientFragment: "Sarah Chen", Body: "thanks"},
		},
		{
			name: "leftmost verb wins",
			text: "send message to Alex: message Sarah later",
			want: &Directive{RecipientFragment: "Alex", Body: "message Sarah later"},
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := ParseDirective(tc.text)
			if tc.want == nil {
				if got != nil {
					t.Fatalf("expected no directive, got %+v", got)
				}
				return
			}
			if got == nil {
				t.Fatal("expected a directive, got nil")
			}
			if got.RecipientFragment != tc.want.RecipientFragment || got.Body != tc.want.Body {
				t.Fatalf("got %+v, want %+v", got, tc.want)
			}
		})
	}
}
