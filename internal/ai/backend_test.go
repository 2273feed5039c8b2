package ai

import "testing"

func TestSystemText(t *testing.T) {
	cases := []struct {
		name string
		req  Request
		want string
	}{
		{
			name: "instruction and context",
			req:  Request{SystemInstruction: "be helpful", ContextText: "profile"},
			want: "be helpful\n\nContext: profile",
		},
		{
			name: "instruction only",
			req:  Request{SystemInstruction: "be helpful"},
			want: "be helpful",
		},
		{
			name: "context only",
			req:  Request{ContextText: "profile"},
			want: "Context: profile",
		},
		{
			name: "whitespace trimmed",
			req:  Request{SystemInstruction: " be helpful \n", ContextText: "  "},
			want: "be helpful",
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := tc.req.SystemText(); got != tc.want {
				t.Fatalf("got %q, want %q", got, tc.want)
			}
		})
	}
}

func TestTranscript(t *testing.T) {
	req := Request{Turns: []Turn{
		{Role: RoleUser, Content: "hi"},
		{Role: RoleAssistant, Content: "hello"},
	}}

	want := "Conversation:\nuser: hi\nassistant: hello\n"
	if got := req.Transcript(); got != want {
		t.Fatalf("got %q, want %q", got, want)
	}
}

func TestLastUserText(t *testing.T) {
	turns := []Turn{
		{Role: RoleUser, Content: "first"},
		{Role: RoleAssistant, Content: "reply"},
		{Role: RoleUser, Content: "second"},
		{Role: RoleAssistant, Content: "another reply"},
	}

	if got := LastUserText(turns); got != "second" {
		t.Fatalf("got %q", got)
	}
	if got := LastUserText(nil); got != "" {
		t.Fatalf("expected empty for no turns, got %q", got)
	}
}
