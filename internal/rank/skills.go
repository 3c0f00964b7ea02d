package rank

import (
	"strings"

	"alumni-engine/internal/config"
	"alumni-engine/internal/domain"
)

// SkillScorer tags profile text with skills using the configured keyword rules.
type SkillScorer struct {
	Technical []config.Rule
	Tools     []config.Rule
}

func NewSkillScorer(cfg config.Config) SkillScorer {
	return SkillScorer{Technical: cfg.Skills.Technical, Tools: cfg.Skills.Tools}
}

func (s SkillScorer) Infer(texts ...string) domain.Skills {
	// padded so rules like "java " also match at the end of the text
	text := " " + strings.ToLower(strings.Join(texts, " ")) + " "

	apply := func(rules []config.Rule) []string {
		var tags []string
		for _, r := range rules {
			for _, needle := range r.Any {
				if strings.Contains(text, strings.ToLower(needle)) {
					tags = append(tags, r.Tag)
					break
				}
			}
		}
		return uniq(tags)
	}

	return domain.Skills{
		Technical: apply(s.Technical),
		Tools:     apply(s.Tools),
	}
}

// MatchRule returns the tag of the first rule with a term contained in text.
func MatchRule(rules []config.Rule, text string) (string, bool) {
	text = strings.ToLower(text)
	for _, r := range rules {
		for _, needle := range r.Any {
			if needle != "" && strings.Contains(text, strings.ToLower(needle)) {
				return r.Tag, true
			}
		}
	}
	return "", false
}

func uniq(in []string) []string {
	if len(in) == 0 {
		return nil
	}
	seen := map[string]bool{}
	out := make([]string, 0, len(in))
	for _, t := range in {
		k := strings.ToLower(t)
		if !seen[k] {
			seen[k] = true
			out = append(out, t)
		}
	}
	return out
}
