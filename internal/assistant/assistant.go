// Package assistant sequences one chat turn: quota check, context build,
// backend call with fallback, directive post-processing, usage recording. Its
// outward contract is that GenerateReply always returns a string; every
// failure mode degrades to assistant text.
package assistant

import (
	"context"
	_ "embed"
	"encoding/json"
	"fmt"
	"time"

	"github.com/devcaliber/assistant/internal/ai"
	"github.com/devcaliber/assistant/internal/directory"
	"github.com/devcaliber/assistant/internal/interpreter"
	"github.com/devcaliber/assistant/internal/quota"
	"github.com/devcaliber/assistant/internal/rag"
	"go.uber.org/zap"
)

const (
	defaultBackendTimeout = 45 * time.Second

	technicalDifficulties = "I'm currently experiencing technical difficulties. " +
		"Please try again in a moment, or contact support if the issue persists."
)

//go:embed prompts/candidate.md
var candidatePrompt string

//go:embed prompts/recruiter.md
var recruiterPrompt string

//go:embed prompts/admin.md
var adminPrompt string

// defaultPrompts are the embedded per-role system instructions. They are
// configuration: Deps.Prompts overrides them per role.
func defaultPrompts() map[directory.Role]string {
	return map[directory.Role]string{
		directory.RoleCandidate: candidatePrompt,
		directory.RoleRecruiter: recruiterPrompt,
		directory.RoleAdmin:     adminPrompt,
	}
}

// maxTokensFor caps reply length per role, broadest visibility gets the
// longest replies.
func maxTokensFor(role directory.Role) int {
	switch role {
	case directory.RoleAdmin:
		return 2000
	case directory.RoleRecruiter:
		return 1500
	default:
		return 1000
	}
}

// Deps aggregates the collaborators the orchestrator composes. Construct them
// once at startup and inject here.
type Deps struct {
	Ledger      *quota.Ledger
	Builder     *rag.Builder
	Interpreter *interpreter.Interpreter
	Primary     ai.Backend
	// Fallback is tried when the primary backend fails. Optional.
	Fallback ai.Backend
	// Prompts overrides the embedded per-role system instructions.
	Prompts map[directory.Role]string
	// BackendTimeout bounds each backend attempt. Zero means the default.
	BackendTimeout time.Duration
	Logger         *zap.Logger
}

// Assistant drives one request/response cycle per call.
type Assistant struct {
	ledger         *quota.Ledger
	builder        *rag.Builder
	interp         *interpreter.Interpreter
	primary        ai.Backend
	fallback       ai.Backend
	prompts        map[directory.Role]string
	backendTimeout time.Duration
	logger         *zap.Logger
}

func New(deps Deps) *Assistant {
	prompts := defaultPrompts()
	for role, prompt := range deps.Prompts {
		prompts[role] = prompt
	}

	timeout := deps.BackendTimeout
	if timeout <= 0 {
		timeout = defaultBackendTimeout
	}

	log := deps.Logger
	if log == nil {
		log = zap.NewNop()
	}

	return &Assistant{
		ledger:         deps.Ledger,
		builder:        deps.Builder,
		interp:         deps.Interpreter,
		primary:        deps.Primary,
		fallback:       deps.Fallback,
		prompts:        prompts,
		backendTimeout: timeout,
		logger:         log,
	}
}

// GenerateReply runs one assistant turn. sessionMemory is an opaque map the
// caller maintains; it is echoed into the context and never interpreted here.
func (a *Assistant) GenerateReply(ctx context.Context, turns []ai.Turn, role directory.Role, identity string, sessionMemory map[string]any) string {
	limit := a.ledger.CheckLimit(ctx, identity, role)
	if !limit.Allowed {
		return a.rateLimitReply(ctx, limit, role, identity)
	}

	bundle := a.buildBundle(ctx, role, identity)

	contextText := bundle.Text
	if len(sessionMemory) > 0 {
		if memory, err := json.Marshal(sessionMemory); err == nil {
			contextText += "\n\nSession Context: " + string(memory)
		}
	}

	req := &ai.Request{
		SystemInstruction: a.prompts[role],
		ContextText:       contextText,
		Turns:             turns,
		MaxTokens:         maxTokensFor(role),
	}

	reply, err := a.callBackends(ctx, req)
	if err != nil {
		a.logger.Warn("all backends failed", zap.String("identity", identity), zap.Error(err))
		return technicalDifficulties
	}

	outcome := a.interp.Interpret(ctx, ai.LastUserText(turns), identity, reply, bundle.Addressable)

	a.ledger.RecordUsage(ctx, identity, role)

	return outcome.Reply
}

func (a *Assistant) buildBundle(ctx context.Context, role directory.Role, identity string) *rag.Bundle {
	bundle, err := a.builder.Build(ctx, role, identity)
	if err != nil {
		a.logger.Warn("building context bundle", zap.String("identity", identity), zap.Error(err))
		return &rag.Bundle{Text: "No directory data available"}
	}
	return bundle
}

// callBackends tries the primary backend, then the fallback. Each attempt is
// bounded by the configured timeout.
func (a *Assistant) callBackends(ctx context.Context, req *ai.Request) (string, error) {
	backends := []ai.Backend{a.primary}
	if a.fallback != nil {
		backends = append(backends, a.fallback)
	}

	var lastErr error
	for _, backend := range backends {
		attemptCtx, cancel := context.WithTimeout(ctx, a.backendTimeout)
		reply, err := backend.GenerateReply(attemptCtx, req)
		cancel()

		if err == nil {
			return reply, nil
		}

		lastErr = err
		a.logger.Warn("backend failed",
			zap.String("backend", backend.Name()),
			zap.Error(err),
		)
	}

	return "", lastErr
}

func (a *Assistant) rateLimitReply(ctx context.Context, limit quota.Result, role directory.Role, identity string) string {
	until := "soon"
	if !limit.ResetTime.IsZero() {
		until = quota.TimeUntil(limit.ResetTime, time.Now())
	}

	stats := a.ledger.UsageStats(ctx, identity, role)

	return fmt.Sprintf("**Rate Limit Reached**\n\n"+
		"You've reached your chat limit. Please try again in %s.\n\n"+
		"**Current Usage:**\n- Session: %s\n- Daily: %s",
		until, stats.SessionLabel, stats.DailyLabel)
}
