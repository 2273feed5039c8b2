// Package directory holds the platform user records the assistant core renders
// and addresses. Records are supplied by an external provider; the core never
// mutates them.
package directory

import "strings"

// Role is the access tier governing quota policy and context visibility.
type Role string

const (
	RoleCandidate Role = "candidate"
	RoleRecruiter Role = "recruiter"
	RoleAdmin     Role = "admin"
)

// ParseRole maps a free-form role string to a Role. Unknown values resolve to
// candidate, the most restricted tier.
func ParseRole(s string) Role {
	switch Role(strings.ToLower(strings.TrimSpace(s))) {
	case RoleRecruiter:
		return RoleRecruiter
	case RoleAdmin:
		return RoleAdmin
	default:
		return RoleCandidate
	}
}

// UnknownSkill labels skills the analysis pipeline could not classify.
const UnknownSkill = "Unknown"

// SkillBadge is a verified skill credential issued to a candidate.
type SkillBadge struct {
	Skill      string `json:"skill"`
	Level      string `json:"level"`
	DateIssued string `json:"dateIssued"`
}

// KeySkill pairs a skill with its assessed proficiency.
type KeySkill struct {
	Skill       string `json:"skill"`
	Proficiency string `json:"proficiency"`
}

// Repository is a highlighted repository from a candidate's GitHub analysis.
type Repository struct {
	Name          string `json:"name"`
	URL           string `json:"url,omitempty"`
	Justification string `json:"justification"`
}

// Rating is a 1-10 score with the model's justification.
type Rating struct {
	Rating        int    `json:"rating"`
	Justification string `json:"justification"`
}

// GithubAnalysis is the AI-generated skill analysis attached to a candidate.
type GithubAnalysis struct {
	Summary           string       `json:"summary"`
	TechStack         []string     `json:"techStack"`
	KeySkills         []KeySkill   `json:"keySkills"`
	TopRepositories   []Repository `json:"topRepositories"`
	CodeQuality       Rating       `json:"codeQuality"`
	ProjectComplexity Rating       `json:"projectComplexity"`
	Documentation     Rating       `json:"documentation"`
}

// CandidateProfile is a verified candidate record.
type CandidateProfile struct {
	ID             string          `json:"id"`
	Name           string          `json:"name"`
	Email          string          `json:"email"`
	GithubUsername string          `json:"githubUsername"`
	Skills         []string        `json:"skills"`
	Proficiency    []string        `json:"proficiency"`
	Experience     string          `json:"experience"`
	Location       string          `json:"location"`
	ProfilePicture string          `json:"profilePicture,omitempty"`
	Badges         []SkillBadge    `json:"badges,omitempty"`
	Analysis       *GithubAnalysis `json:"githubAnalysis,omitempty"`
}

// SkillAt returns the candidate's i-th skill with its proficiency, falling back
// to UnknownSkill markers when the parallel slices are ragged.
func (c *CandidateProfile) SkillAt(i int) KeySkill {
	skill := KeySkill{Skill: UnknownSkill, Proficiency: "Not specified"}
	if i < len(c.Skills) && strings.TrimSpace(c.Skills[i]) != "" {
		skill.Skill = c.Skills[i]
	}
	if i < len(c.Proficiency) && strings.TrimSpace(c.Proficiency[i]) != "" {
		skill.Proficiency = c.Proficiency[i]
	}
	return skill
}

// RecruiterProfile is a verified recruiter record.
type RecruiterProfile struct {
	ID             string `json:"id"`
	Name           string `json:"name"`
	Email          string `json:"email"`
	Title          string `json:"title"`
	Company        string `json:"company"`
	Location       string `json:"location"`
	Experience     string `json:"experience"`
	Specialization string `json:"specialization"`
	HiredCount     int    `json:"hiredCount"`
	ProfilePicture string `json:"profilePicture,omitempty"`
	Description    string `json:"description,omitempty"`
}

// Ref names an addressable identity for messaging purposes.
type Ref struct {
	Name  string `json:"name"`
	Email string `json:"email"`
}

// Snapshot is one consistent view of the platform directory.
type Snapshot struct {
	Candidates []CandidateProfile `json:"candidates"`
	Recruiters []RecruiterProfile `json:"recruiters"`
}

// FindCandidateByEmail returns the candidate whose email matches exactly, or nil.
func (s *Snapshot) FindCandidateByEmail(email string) *CandidateProfile {
	for i := range s.Candidates {
		if strings.EqualFold(s.Candidates[i].Email, email) {
			return &s.Candidates[i]
		}
	}
	return nil
}
