package rag

import (
	"fmt"
	"strings"

	"github.com/devcaliber/assistant/internal/directory"
)

type candidateScope struct{}

func (candidateScope) Name() string { return "candidate" }

// Build renders the candidate's own profile plus the recruiter directory.
// Other candidates never appear here.
func (candidateScope) Build(snapshot *directory.Snapshot, identity string) *Bundle {
	own := snapshot.FindCandidateByEmail(identity)
	if own == nil {
		return &Bundle{
			Text:        "No profile data available",
			Addressable: recruiterRefs(snapshot.Recruiters),
		}
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "Your Profile:\nName: %s\n", own.Name)
	fmt.Fprintf(&sb, "Skills: %s\n", orFallback(strings.Join(own.Skills, ", "), "None"))
	fmt.Fprintf(&sb, "Experience: %s\n", orFallback(own.Experience, "Not specified"))
	fmt.Fprintf(&sb, "Location: %s\n", orFallback(own.Location, "Not specified"))

	fmt.Fprintf(&sb, "\nAvailable Recruiters (%d total):\n", len(snapshot.Recruiters))
	for _, r := range snapshot.Recruiters {
		fmt.Fprintf(&sb, "- %s (%s at %s) - %s, %s experience, specializes in %s\n",
			r.Name, r.Title, r.Company, r.Location, r.Experience, r.Specialization)
	}

	sb.WriteString("\nIMPORTANT: Only provide information about these specific recruiters. Do not create or mention any other recruiters.")

	return &Bundle{Text: sb.String(), Addressable: recruiterRefs(snapshot.Recruiters)}
}

type recruiterScope struct{}

func (recruiterScope) Name() string { return "recruiter" }

// Build renders the same candidate slice the recruiter's dashboard displays
// and declares it as the addressable set. No aggregates, no recruiter or admin
// data.
func (recruiterScope) Build(snapshot *directory.Snapshot, _ string) *Bundle {
	candidates := snapshot.Candidates
	if len(candidates) > DashboardSlice {
		candidates = candidates[:DashboardSlice]
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "TALENT POOL - AVAILABLE CANDIDATES (%d total):\n\n", len(candidates))

	for _, c := range candidates {
		fmt.Fprintf(&sb, "**%s** (%s)\n", c.Name, c.Email)
		fmt.Fprintf(&sb, "  Location: %s\n", orFallback(c.Location, "Not specified"))
		fmt.Fprintf(&sb, "  Experience: %s\n", orFallback(c.Experience, "Not specified"))
		fmt.Fprintf(&sb, "  GitHub: %s\n", c.GithubUsername)
		sb.WriteString("\n  Skills & Proficiency:\n")
		writeSkills(&sb, &c)
		sb.WriteString("\n  ---\n\n")
	}

	fmt.Fprintf(&sb, "MESSAGING SCOPE: You can ONLY send messages to these %d candidates listed above.\n", len(candidates))
	sb.WriteString("IMPORTANT: When sending messages, specify the exact candidate name from this list.")

	return &Bundle{Text: sb.String(), Addressable: candidateRefs(candidates)}
}

type adminScope struct{}

func (adminScope) Name() string { return "admin" }

// Build renders complete candidate and recruiter detail plus directory counts.
// Admin is the only role with aggregate visibility.
func (adminScope) Build(snapshot *directory.Snapshot, _ string) *Bundle {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Platform Overview:\n- Total Candidates: %d\n- Total Recruiters: %d\n\n",
		len(snapshot.Candidates), len(snapshot.Recruiters))

	sb.WriteString("**COMPLETE CANDIDATE PROFILES:**\n")
	for _, c := range snapshot.Candidates {
		fmt.Fprintf(&sb, "**%s** (%s)\n", c.Name, c.Email)
		fmt.Fprintf(&sb, "  Location: %s\n", orFallback(c.Location, "Not specified"))
		fmt.Fprintf(&sb, "  Experience: %s\n", orFallback(c.Experience, "Not specified"))
		fmt.Fprintf(&sb, "  GitHub: %s\n", c.GithubUsername)
		sb.WriteString("\n  Skills & Proficiency:\n")
		writeSkills(&sb, &c)

		sb.WriteString("\n  Verified Badges:\n")
		if len(c.Badges) == 0 {
			sb.WriteString("    No badges\n")
		}
		for _, b := range c.Badges {
			fmt.Fprintf(&sb, "    %s (%s) - Issued: %s\n", b.Skill, b.Level, b.DateIssued)
		}

		if c.Analysis != nil {
			fmt.Fprintf(&sb, "\n  Tech Stack: %s\n", orFallback(strings.Join(c.Analysis.TechStack, ", "), "Not specified"))
			fmt.Fprintf(&sb, "\n  GitHub Analysis Summary:\n  %s\n", orFallback(c.Analysis.Summary, "No analysis available"))

			sb.WriteString("\n  Top Repositories:\n")
			if len(c.Analysis.TopRepositories) == 0 {
				sb.WriteString("    No repositories\n")
			}
			for _, repo := range c.Analysis.TopRepositories {
				fmt.Fprintf(&sb, "    %s: %s\n", repo.Name, repo.Justification)
			}

			fmt.Fprintf(&sb, "\n  Code Quality: %d/10 - %s\n",
				c.Analysis.CodeQuality.Rating, orFallback(c.Analysis.CodeQuality.Justification, "No rating"))
		} else {
			sb.WriteString("\n  GitHub Analysis Summary:\n  No analysis available\n")
		}

		sb.WriteString("\n  ---\n\n")
	}

	sb.WriteString("**COMPLETE RECRUITER PROFILES:**\n")
	for _, r := range snapshot.Recruiters {
		fmt.Fprintf(&sb, "**%s** (%s at %s)\n", r.Name, r.Title, r.Company)
		fmt.Fprintf(&sb, "  %s | %s experience\n", r.Location, r.Experience)
		fmt.Fprintf(&sb, "  Specializes in: %s\n", r.Specialization)
		fmt.Fprintf(&sb, "  Hired: %d+ engineers\n", r.HiredCount)
		fmt.Fprintf(&sb, "  Email: %s\n", r.Email)
		if r.Description != "" {
			fmt.Fprintf(&sb, "  %s\n", r.Description)
		}
		sb.WriteString("\n")
	}

	addressable := append(candidateRefs(snapshot.Candidates), recruiterRefs(snapshot.Recruiters)...)

	return &Bundle{Text: sb.String(), Addressable: addressable}
}

func writeSkills(sb *strings.Builder, c *directory.CandidateProfile) {
	if len(c.Skills) == 0 {
		sb.WriteString("    No skills\n")
		return
	}
	for i := range c.Skills {
		skill := c.SkillAt(i)
		fmt.Fprintf(sb, "    - %s: %s\n", skill.Skill, skill.Proficiency)
	}
}

func candidateRefs(candidates []directory.CandidateProfile) []directory.Ref {
	refs := make([]directory.Ref, 0, len(candidates))
	for _, c := range candidates {
		refs = append(refs, directory.Ref{Name: c.Name, Email: c.Email})
	}
	return refs
}

func recruiterRefs(recruiters []directory.RecruiterProfile) []directory.Ref {
	refs := make([]directory.Ref, 0, len(recruiters))
	for _, r := range recruiters {
		refs = append(refs, directory.Ref{Name: r.Name, Email: r.Email})
	}
	return refs
}

func orFallback(s, fallback string) string {
	if strings.TrimSpace(s) == "" {
		return fallback
	}
	return s
}
