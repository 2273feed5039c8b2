package directory

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"go.uber.org/zap"
)

func TestParseRole(t *testing.T) {
	cases := []struct {
		in   string
		want Role
	}{
		{"candidate", RoleCandidate},
		{"recruiter", RoleRecruiter},
		{"admin", RoleAdmin},
		{" Admin ", RoleAdmin},
		{"RECRUITER", RoleRecruiter},
		{"", RoleCandidate},
		{"superuser", RoleCandidate},
	}

	for _, tc := range cases {
		if got := ParseRole(tc.in); got != tc.want {
			t.Fatalf("ParseRole(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestSkillAt(t *testing.T) {
	c := CandidateProfile{
		Skills:      []string{"Go", "", "Rust"},
		Proficiency: []string{"Expert"},
	}

	if got := c.SkillAt(0); got.Skill != "Go" || got.Proficiency != "Expert" {
		t.Fatalf("unexpected skill 0: %+v", got)
	}
	if got := c.SkillAt(1); got.Skill != UnknownSkill || got.Proficiency != "Not specified" {
		t.Fatalf("blank skill must fall back: %+v", got)
	}
	if got := c.SkillAt(2); got.Skill != "Rust" || got.Proficiency != "Not specified" {
		t.Fatalf("ragged proficiency must fall back: %+v", got)
	}
}

func TestFindCandidateByEmail(t *testing.T) {
	s := &Snapshot{Candidates: []CandidateProfile{
		{Name: "Alex", Email: "Alex.Johnson@Email.com"},
	}}

	if got := s.FindCandidateByEmail("alex.johnson@email.com"); got == nil || got.Name != "Alex" {
		t.Fatalf("case-insensitive match failed: %+v", got)
	}
	if got := s.FindCandidateByEmail("nobody@email.com"); got != nil {
		t.Fatalf("expected nil for unknown email, got %+v", got)
	}
}

func TestLoadFileEmbeddedSeed(t *testing.T) {
	provider, err := LoadFile("")
	if err != nil {
		t.Fatalf("loading embedded seed: %v", err)
	}

	snapshot, err := provider.Snapshot(context.Background())
	if err != nil {
		t.Fatalf("snapshot: %v", err)
	}
	if len(snapshot.Candidates) == 0 || len(snapshot.Recruiters) == 0 {
		t.Fatalf("embedded seed must contain demo records, got %d/%d",
			len(snapshot.Candidates), len(snapshot.Recruiters))
	}
}

func TestLoadFileFromDisk(t *testing.T) {
	path := filepath.Join(t.TempDir(), "dir.json")
	content := `{"candidates":[{"name":"X","email":"x@x.com"}],"recruiters":[]}`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("writing fixture: %v", err)
	}

	provider, err := LoadFile(path)
	if err != nil {
		t.Fatalf("loading file: %v", err)
	}

	snapshot, _ := provider.Snapshot(context.Background())
	if len(snapshot.Candidates) != 1 || snapshot.Candidates[0].Name != "X" {
		t.Fatalf("unexpected snapshot: %+v", snapshot)
	}

	if _, err := LoadFile(filepath.Join(t.TempDir(), "missing.json")); err == nil {
		t.Fatal("expected error for missing file")
	}
}

func listing(items ...map[string]any) map[string]any {
	return map[string]any{"items": items, "page": 0, "pages": 1}
}

func TestHTTPProviderSnapshot(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("Authorization"); got != "Bearer secret" {
			t.Errorf("unexpected auth header %q", got)
		}
		switch r.URL.Path {
		case "/candidates":
			json.NewEncoder(w).Encode(listing(map[string]any{
				"name":           "Alex",
				"email":          "alex@x.com",
				"githubUsername": "alexj",
				"skills":         []string{"Go"},
				"githubAnalysis": map[string]any{
					"summary":     "solid",
					"codeQuality": map[string]any{"rating": 9, "justification": "clean"},
				},
			}))
		case "/recruiters":
			json.NewEncoder(w).Encode(listing(map[string]any{
				"name": "Maria", "email": "maria@x.com", "hiredCount": 12,
			}))
		default:
			t.Errorf("unexpected path %q", r.URL.Path)
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer server.Close()

	provider := NewHTTPProvider(server.URL, "secret", zap.NewNop())

	snapshot, err := provider.Snapshot(context.Background())
	if err != nil {
		t.Fatalf("snapshot: %v", err)
	}
	if len(snapshot.Candidates) != 1 || snapshot.Candidates[0].Name != "Alex" {
		t.Fatalf("unexpected candidates: %+v", snapshot.Candidates)
	}

	alex := snapshot.Candidates[0]
	if alex.GithubUsername != "alexj" || len(alex.Skills) != 1 {
		t.Fatalf("item fields not decoded: %+v", alex)
	}
	if alex.Analysis == nil || alex.Analysis.CodeQuality.Rating != 9 {
		t.Fatalf("nested analysis not decoded: %+v", alex.Analysis)
	}

	if len(snapshot.Recruiters) != 1 || snapshot.Recruiters[0].HiredCount != 12 {
		t.Fatalf("unexpected recruiters: %+v", snapshot.Recruiters)
	}
}

func TestHTTPProviderWalksPages(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/recruiters" {
			json.NewEncoder(w).Encode(listing())
			return
		}
		page := 0
		if r.URL.Query().Get("page") == "1" {
			page = 1
		}
		names := []string{"Alex", "Sarah"}
		json.NewEncoder(w).Encode(map[string]any{
			"items": []map[string]any{{"name": names[page]}},
			"page":  page,
			"pages": 2,
		})
	}))
	defer server.Close()

	provider := NewHTTPProvider(server.URL, "", zap.NewNop())

	snapshot, err := provider.Snapshot(context.Background())
	if err != nil {
		t.Fatalf("snapshot: %v", err)
	}
	if len(snapshot.Candidates) != 2 {
		t.Fatalf("expected items from both pages, got %+v", snapshot.Candidates)
	}
	if snapshot.Candidates[0].Name != "Alex" || snapshot.Candidates[1].Name != "Sarah" {
		t.Fatalf("pages out of order: %+v", snapshot.Candidates)
	}
}

func TestHTTPProviderBadStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	provider := NewHTTPProvider(server.URL, "", zap.NewNop())

	if _, err := provider.Snapshot(context.Background()); err == nil {
		t.Fatal("expected error for server failure")
	}
}
