package transform

import (
	"strings"

	"alumni-engine/internal/config"
	"alumni-engine/internal/domain"
	"alumni-engine/internal/rank"
)

// InstituteRules finds the education entry for the configured institute and
// derives cohort, branch and graduation year from it.
type InstituteRules struct {
	NameVariations  []string
	RelevantDegrees []string
	Branches        []config.Rule
	DefaultBranch   string
}

func (r InstituteRules) entry(edu []domain.Education) (domain.Education, bool) {
	for _, e := range edu {
		if r.isInstitute(e.Institution) && (e.Degree == "" || r.isRelevantDegree(e.Degree)) {
			return e, true
		}
	}
	return domain.Education{}, false
}

func (r InstituteRules) isInstitute(name string) bool {
	n := strings.ToLower(strings.TrimSpace(name))
	if n == "" {
		return false
	}
	for _, v := range r.NameVariations {
		if strings.Contains(n, strings.ToLower(v)) {
			return true
		}
	}
	return false
}

func (r InstituteRules) isRelevantDegree(degree string) bool {
	d := strings.ToLower(degree)
	for _, v := range r.RelevantDegrees {
		if strings.Contains(d, strings.ToLower(v)) {
			return true
		}
	}
	return false
}

// Batch is "start-end" when both years are known, else the start year.
func (r InstituteRules) Batch(edu []domain.Education) string {
	e, ok := r.entry(edu)
	if !ok || e.StartYear == "" {
		return ""
	}
	if e.EndYear != "" {
		return e.StartYear + "-" + e.EndYear
	}
	return e.StartYear
}

// Branch is empty when no institute entry exists and the default branch when
// the entry's field matches none of the branch keywords.
func (r InstituteRules) Branch(edu []domain.Education) string {
	e, ok := r.entry(edu)
	if !ok {
		return ""
	}
	if tag, ok := rank.MatchRule(r.Branches, e.Field); ok {
		return tag
	}
	if tag, ok := rank.MatchRule(r.Branches, e.Degree); ok {
		return tag
	}
	return r.DefaultBranch
}

func (r InstituteRules) GraduationYear(edu []domain.Education) string {
	e, ok := r.entry(edu)
	if !ok {
		return ""
	}
	return e.EndYear
}
