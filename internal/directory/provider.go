package directory

import (
	"context"
	_ "embed"
	"encoding/json"
	"fmt"
	"os"
)

// Provider supplies directory snapshots. The assistant core reads through this
// interface only and never caches the result across turns.
type Provider interface {
	Snapshot(ctx context.Context) (*Snapshot, error)
}

//go:embed seed.json
var seedJSON []byte

// StaticProvider serves a fixed, pre-loaded snapshot.
type StaticProvider struct {
	snapshot *Snapshot
}

func NewStaticProvider(snapshot *Snapshot) *StaticProvider {
	if snapshot == nil {
		snapshot = &Snapshot{}
	}
	return &StaticProvider{snapshot: snapshot}
}

func (p *StaticProvider) Snapshot(context.Context) (*Snapshot, error) {
	return p.snapshot, nil
}

// LoadFile reads a directory snapshot from a JSON file. An empty path falls
// back to the embedded demo dataset.
func LoadFile(path string) (*StaticProvider, error) {
	data := seedJSON
	if path != "" {
		fileData, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading directory file %q: %w", path, err)
		}
		data = fileData
	}

	var snapshot Snapshot
	if err := json.Unmarshal(data, &snapshot); err != nil {
		return nil, fmt.Errorf("parsing directory data: %w", err)
	}

	return NewStaticProvider(&snapshot), nil
}
