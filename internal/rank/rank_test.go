package rank

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"alumni-engine/internal/config"
)

func TestSimilarityBounds(t *testing.T) {
	pairs := [][2]string{
		{"", ""},
		{"", "asha"},
		{"asha rao", "asha rao"},
		{"Asha Rao", "asha rao"},
		{"asha rao", "ravi kumar"},
		{"abc", "xyz"},
		{"ångström", "angstrom"},
	}
	for _, p := range pairs {
		s := Similarity(p[0], p[1])
		assert.GreaterOrEqual(t, s, 0.0, "%q vs %q", p[0], p[1])
		assert.LessOrEqual(t, s, 1.0, "%q vs %q", p[0], p[1])
		assert.Equal(t, s, Similarity(p[1], p[0]), "symmetric for %q vs %q", p[0], p[1])
	}

	assert.Equal(t, 1.0, Similarity("", ""))
	assert.Equal(t, 1.0, Similarity("Priya Sharma", "priya sharma"))
	assert.Equal(t, 0.0, Similarity("abc", "xyz"))
	assert.Equal(t, 0.0, Similarity("", "abc"))
	assert.InDelta(t, 0.75, Similarity("asha", "ashx"), 1e-9)
}

func TestSimilarityRanksCloserNamesHigher(t *testing.T) {
	name := "asha rao"
	assert.Greater(t, Similarity(name, "asha rai"), Similarity(name, "ashok rana"))
	assert.Less(t, Similarity(name, "ravi kumar"), 0.3)
}

func TestSkillScorer(t *testing.T) {
	s := SkillScorer{
		Technical: []config.Rule{
			{Tag: "Go", Any: []string{"golang"}},
			{Tag: "Java", Any: []string{"java "}},
			{Tag: "Backend", Any: []string{"backend", "microservices"}},
		},
		Tools: []config.Rule{
			{Tag: "Docker", Any: []string{"docker"}},
			{Tag: "docker", Any: []string{"containers"}},
		},
	}

	got := s.Infer("Backend engineer (Golang, microservices)", "Deploys with Docker and containers", "JavaScript")
	assert.Equal(t, []string{"Go", "Backend"}, got.Technical)
	assert.Equal(t, []string{"Docker"}, got.Tools)

	got = s.Infer("Senior engineer writing Java")
	assert.Equal(t, []string{"Java"}, got.Technical)
	assert.Nil(t, got.Tools)
}

func TestMatchRule(t *testing.T) {
	rules := config.Default().Institute.Branches
	tag, ok := MatchRule(rules, "B.Tech in Computer Science and Engineering")
	assert.True(t, ok)
	assert.Equal(t, "CSE", tag)

	tag, ok = MatchRule(rules, "Electronics and Communication Engineering")
	assert.True(t, ok)
	assert.Equal(t, "ECE", tag)

	_, ok = MatchRule(rules, "Civil Engineering")
	assert.False(t, ok)
}
