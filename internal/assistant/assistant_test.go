package assistant

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/devcaliber/assistant/internal/ai"
	"github.com/devcaliber/assistant/internal/directory"
	"github.com/devcaliber/assistant/internal/interpreter"
	"github.com/devcaliber/assistant/internal/kv"
	"github.com/devcaliber/assistant/internal/messaging"
	"github.com/devcaliber/assistant/internal/quota"
	"github.com/devcaliber/assistant/internal/rag"
	"go.uber.org/zap"
)

type fakeBackend struct {
	name    string
	reply   string
	err     error
	calls   int
	lastReq *ai.Request
}

func (f *fakeBackend) Name() string { return f.name }

func (f *fakeBackend) GenerateReply(_ context.Context, req *ai.Request) (string, error) {
	f.calls++
	f.lastReq = req
	return f.reply, f.err
}

type fixedProvider struct {
	snapshot *directory.Snapshot
	err      error
}

func (f fixedProvider) Snapshot(context.Context) (*directory.Snapshot, error) {
	return f.snapshot, f.err
}

var demoSnapshot = &directory.Snapshot{
	Candidates: []directory.CandidateProfile{
		{Name: "Alex Johnson", Email: "alex.johnson@email.com", Skills: []string{"Go"}},
	},
	Recruiters: []directory.RecruiterProfile{
		{Name: "Maria Lopez", Email: "maria.lopez@email.com"},
	},
}

type harness struct {
	assistant *Assistant
	ledger    *quota.Ledger
	messages  *messaging.Store
	primary   *fakeBackend
	fallback  *fakeBackend
}

func newHarness(t *testing.T, provider directory.Provider) *harness {
	t.Helper()

	store := kv.NewMemoryStore()
	ledger := quota.NewLedger(store, zap.NewNop())
	messages := messaging.NewStore(store, zap.NewNop())
	primary := &fakeBackend{name: "primary", reply: "primary reply"}
	fallback := &fakeBackend{name: "fallback", reply: "fallback reply"}

	assistant := New(Deps{
		Ledger:      ledger,
		Builder:     rag.NewBuilder(provider, zap.NewNop()),
		Interpreter: interpreter.New(messages, nil, zap.NewNop()),
		Primary:     primary,
		Fallback:    fallback,
		Logger:      zap.NewNop(),
	})

	return &harness{assistant: assistant, ledger: ledger, messages: messages, primary: primary, fallback: fallback}
}

func userTurn(text string) []ai.Turn {
	return []ai.Turn{{Role: ai.RoleUser, Content: text}}
}

func TestGenerateReplyHappyPath(t *testing.T) {
	h := newHarness(t, fixedProvider{snapshot: demoSnapshot})
	ctx := context.Background()

	reply := h.assistant.GenerateReply(ctx, userTurn("who is in the talent pool?"), directory.RoleRecruiter, "recruiter@x.com", nil)
	if reply != "primary reply" {
		t.Fatalf("unexpected reply: %q", reply)
	}
	if h.fallback.calls != 0 {
		t.Fatal("fallback must not be called when primary succeeds")
	}

	stats := h.ledger.UsageStats(ctx, "recruiter@x.com", directory.RoleRecruiter)
	if stats.SessionUsed != 1 || stats.DailyUsed != 1 {
		t.Fatalf("expected exactly one recorded use, got %d/%d", stats.SessionUsed, stats.DailyUsed)
	}
}

func TestGenerateReplyRequestShape(t *testing.T) {
	h := newHarness(t, fixedProvider{snapshot: demoSnapshot})

	h.assistant.GenerateReply(context.Background(), userTurn("hello"), directory.RoleAdmin, "admin@x.com",
		map[string]any{"turns": 3})

	req := h.primary.lastReq
	if req == nil {
		t.Fatal("primary was never called")
	}
	if req.MaxTokens != 2000 {
		t.Fatalf("admin replies cap at 2000 tokens, got %d", req.MaxTokens)
	}
	if req.SystemInstruction == "" {
		t.Fatal("system instruction must come from the role prompt")
	}
	if !strings.Contains(req.ContextText, "Platform Overview") {
		t.Fatal("admin request must carry the admin context")
	}
	if !strings.Contains(req.ContextText, "Session Context:") || !strings.Contains(req.ContextText, `"turns":3`) {
		t.Fatalf("session memory missing from context: %q", req.ContextText)
	}
}

func TestGenerateReplyFallsBack(t *testing.T) {
	h := newHarness(t, fixedProvider{snapshot: demoSnapshot})
	h.primary.err = errors.New("primary down")
	h.primary.reply = ""

	reply := h.assistant.GenerateReply(context.Background(), userTurn("hi"), directory.RoleCandidate, "c@x.com", nil)
	if reply != "fallback reply" {
		t.Fatalf("expected the fallback reply, got %q", reply)
	}
	if h.primary.calls != 1 || h.fallback.calls != 1 {
		t.Fatalf("unexpected call counts: primary=%d fallback=%d", h.primary.calls, h.fallback.calls)
	}
}

func TestGenerateReplyAllBackendsFail(t *testing.T) {
	h := newHarness(t, fixedProvider{snapshot: demoSnapshot})
	h.primary.err = errors.New("primary down")
	h.fallback.err = errors.New("fallback down")

	reply := h.assistant.GenerateReply(context.Background(), userTurn("hi"), directory.RoleCandidate, "c@x.com", nil)
	if reply != technicalDifficulties {
		t.Fatalf("expected the technical difficulties notice, got %q", reply)
	}

	stats := h.ledger.UsageStats(context.Background(), "c@x.com", directory.RoleCandidate)
	if stats.SessionUsed != 0 {
		t.Fatal("failed turns must not consume quota")
	}
}

func TestGenerateReplyRateLimited(t *testing.T) {
	h := newHarness(t, fixedProvider{snapshot: demoSnapshot})
	ctx := context.Background()

	for i := 0; i < quota.SessionLimit; i++ {
		h.ledger.RecordUsage(ctx, "c@x.com", directory.RoleCandidate)
	}

	reply := h.assistant.GenerateReply(ctx, userTurn("hi"), directory.RoleCandidate, "c@x.com", nil)
	if !strings.Contains(reply, "**Rate Limit Reached**") {
		t.Fatalf("expected a rate limit reply, got %q", reply)
	}
	if !strings.Contains(reply, "Session: 50/50") {
		t.Fatalf("rate limit reply missing usage labels: %q", reply)
	}
	if h.primary.calls != 0 {
		t.Fatal("no backend call may happen for a denied turn")
	}
}

func TestGenerateReplyExecutesDirective(t *testing.T) {
	h := newHarness(t, fixedProvider{snapshot: demoSnapshot})
	ctx := context.Background()

	reply := h.assistant.GenerateReply(ctx,
		userTurn("Send message to Maria Lopez: interested in the Go role"),
		directory.RoleCandidate, "c@x.com", nil)

	if !strings.Contains(reply, "**Message Sent**") {
		t.Fatalf("directive should replace the model reply, got %q", reply)
	}

	inbox := h.messages.ListFor(ctx, "maria.lopez@email.com")
	if len(inbox) != 1 || inbox[0].Content != "interested in the Go role" {
		t.Fatalf("unexpected inbox: %+v", inbox)
	}
}

func TestGenerateReplyDirectiveScopeEnforced(t *testing.T) {
	h := newHarness(t, fixedProvider{snapshot: demoSnapshot})
	ctx := context.Background()

	// Candidates can address recruiters only; Alex Johnson is a candidate.
	reply := h.assistant.GenerateReply(ctx,
		userTurn("message Alex Johnson: hi"),
		directory.RoleCandidate, "c@x.com", nil)

	if strings.Contains(reply, "**Message Sent**") {
		t.Fatal("candidate must not be able to message another candidate")
	}
	if inbox := h.messages.ListFor(ctx, "alex.johnson@email.com"); len(inbox) != 0 {
		t.Fatalf("message leaked outside the addressable set: %+v", inbox)
	}
}

func TestGenerateReplyDirectoryFailureDegrades(t *testing.T) {
	h := newHarness(t, fixedProvider{err: errors.New("directory down")})

	reply := h.assistant.GenerateReply(context.Background(), userTurn("hi"), directory.RoleCandidate, "c@x.com", nil)
	if reply != "primary reply" {
		t.Fatalf("directory failure must not break the turn, got %q", reply)
	}
	if !strings.Contains(h.primary.lastReq.ContextText, "No directory data available") {
		t.Fatalf("expected the empty-directory placeholder, got %q", h.primary.lastReq.ContextText)
	}
}

func TestPromptOverrides(t *testing.T) {
	store := kv.NewMemoryStore()
	primary := &fakeBackend{name: "primary", reply: "ok"}

	assistant := New(Deps{
		Ledger:      quota.NewLedger(store, zap.NewNop()),
		Builder:     rag.NewBuilder(fixedProvider{snapshot: demoSnapshot}, zap.NewNop()),
		Interpreter: interpreter.New(messaging.NewStore(store, zap.NewNop()), nil, zap.NewNop()),
		Primary:     primary,
		Prompts:     map[directory.Role]string{directory.RoleCandidate: "custom instruction"},
		Logger:      zap.NewNop(),
	})

	assistant.GenerateReply(context.Background(), userTurn("hi"), directory.RoleCandidate, "c@x.com", nil)
	if primary.lastReq.SystemInstruction != "custom instruction" {
		t.Fatalf("override not applied: %q", primary.lastReq.SystemInstruction)
	}

	assistant.GenerateReply(context.Background(), userTurn("hi"), directory.RoleAdmin, "a@x.com", nil)
	if primary.lastReq.SystemInstruction == "custom instruction" {
		t.Fatal("other roles must keep their default prompts")
	}
}
