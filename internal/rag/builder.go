// Package rag renders the role-scoped context a generative backend is allowed
// to see. It is the single authorization boundary between platform data and
// the model: no other component hands data to a backend.
package rag

import (
	"context"
	"fmt"

	"github.com/devcaliber/assistant/internal/directory"
	"go.uber.org/zap"
)

// DashboardSlice is how many candidates a recruiter's dashboard shows; the
// recruiter context and addressable set are capped to the same slice.
const DashboardSlice = 16

// Bundle is the rendered context for one turn plus the identities a messaging
// directive issued in the same turn may address. It is built fresh per request
// and never cached.
type Bundle struct {
	Text        string
	Addressable []directory.Ref
}

// Builder produces role-scoped context bundles from directory snapshots.
type Builder struct {
	provider directory.Provider
	logger   *zap.Logger
}

func NewBuilder(provider directory.Provider, logger *zap.Logger) *Builder {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Builder{provider: provider, logger: logger}
}

// scopePolicy renders the context bundle one role is entitled to. Policies are
// pure functions of the snapshot and identity.
type scopePolicy interface {
	Name() string
	Build(snapshot *directory.Snapshot, identity string) *Bundle
}

func policyFor(role directory.Role) scopePolicy {
	switch role {
	case directory.RoleRecruiter:
		return recruiterScope{}
	case directory.RoleAdmin:
		return adminScope{}
	default:
		return candidateScope{}
	}
}

// Build returns the context bundle for the given role and identity.
func (b *Builder) Build(ctx context.Context, role directory.Role, identity string) (*Bundle, error) {
	snapshot, err := b.provider.Snapshot(ctx)
	if err != nil {
		return nil, fmt.Errorf("directory snapshot: %w", err)
	}

	policy := policyFor(role)
	bundle := policy.Build(snapshot, identity)

	b.logger.Debug("built context bundle",
		zap.String("policy", policy.Name()),
		zap.String("identity", identity),
		zap.Int("context_length", len(bundle.Text)),
		zap.Int("addressable", len(bundle.Addressable)),
	)

	return bundle, nil
}
