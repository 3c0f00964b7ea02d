package transform

import (
	"encoding/json"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"alumni-engine/internal/config"
)

func fixture(t *testing.T) []byte {
	t.Helper()
	b, err := os.ReadFile("testdata/asha_rao.json")
	require.NoError(t, err)
	return b
}

func TestTransformMapsCollectorPayload(t *testing.T) {
	tr := New(config.Default())

	p, err := tr.Transform(Input{Raw: fixture(t)})
	require.NoError(t, err)

	assert.Equal(t, "asha-rao-19", p.ExternalID)
	assert.Equal(t, "Asha Rao", p.Name)
	assert.Equal(t, "Rao", p.LastName)
	assert.Equal(t, "Bengaluru, Karnataka, India", p.Location)
	assert.Equal(t, 812, p.Followers)
	assert.Equal(t, 500, p.Connections)
	assert.Empty(t, p.Email)

	require.Len(t, p.Education, 2)
	assert.Equal(t, "2019", p.Education[0].StartYear)
	assert.Equal(t, "2023", p.Education[0].EndYear)
	assert.Equal(t, "2017", p.Education[1].StartYear)
	assert.Equal(t, "2019", p.Education[1].EndYear)

	require.Len(t, p.Experience, 3)
	assert.True(t, p.Experience[0].Current)
	assert.Equal(t, "Present", p.Experience[0].EndDate)
	assert.Equal(t, "Aug 2023", p.Experience[0].StartDate)
	assert.Equal(t, "98765", p.Experience[0].CompanyID)
	assert.NotContains(t, p.Experience[0].Description, "<p>")
	assert.Contains(t, p.Experience[0].Description, "microservices")

	assert.False(t, p.Experience[1].Current)
	assert.Equal(t, "Jul 2022", p.Experience[1].EndDate)

	// no end date means still there
	assert.True(t, p.Experience[2].Current)
	assert.Equal(t, "Present", p.Experience[2].EndDate)
	assert.Equal(t, "Jan 2021", p.Experience[2].StartDate)

	require.NotNil(t, p.CurrentCompany)
	assert.Equal(t, "Acme", p.CurrentCompany.Name)
	assert.Equal(t, "12345", p.CurrentCompany.CompanyID)
	assert.Equal(t, "Software Engineer", p.CurrentCompany.Title)

	assert.Equal(t, "2019-2023", p.Batch)
	assert.Equal(t, "CSE", p.Branch)
	assert.Equal(t, "2023", p.GraduationYear)

	assert.Contains(t, p.Skills.Technical, "Go")
	assert.Contains(t, p.Skills.Technical, "Backend")
	assert.Contains(t, p.Skills.Tools, "Kubernetes")

	assert.Equal(t, 1.0, p.DataQualityScore)
}

func TestTransformIsIdempotent(t *testing.T) {
	tr := New(config.Default())
	in := Input{Raw: fixture(t), CohortHint: "2019-2023", Name: "Asha Rao"}

	a, err := tr.Transform(in)
	require.NoError(t, err)
	b, err := tr.Transform(in)
	require.NoError(t, err)

	ja, err := json.Marshal(a)
	require.NoError(t, err)
	jb, err := json.Marshal(b)
	require.NoError(t, err)
	assert.Equal(t, string(ja), string(jb))
}

func TestBatchPrecedence(t *testing.T) {
	tr := New(config.Default())

	p, err := tr.Transform(Input{Raw: fixture(t), CohortHint: "2018-2022"})
	require.NoError(t, err)
	assert.Equal(t, "2018-2022", p.Batch, "caller hint wins over extraction")
	assert.Equal(t, "2023", p.GraduationYear)

	var m map[string]any
	require.NoError(t, json.Unmarshal(fixture(t), &m))
	m["_metadata"] = map[string]any{"batch": "2017-2021", "scrapedAt": "2025-01-02T03:04:05Z"}
	withMeta, err := json.Marshal(m)
	require.NoError(t, err)

	p, err = tr.Transform(Input{Raw: withMeta})
	require.NoError(t, err)
	assert.Equal(t, "2017-2021", p.Batch, "saved metadata wins over extraction")
	assert.Equal(t, "2025-01-02T03:04:05Z", p.ScrapedAt)

	p, err = tr.Transform(Input{Raw: withMeta, CohortHint: "2019-2023"})
	require.NoError(t, err)
	assert.Equal(t, "2019-2023", p.Batch)
}

func TestTransformAcceptsDatasetArray(t *testing.T) {
	tr := New(config.Default())
	raw := append(append([]byte("["), fixture(t)...), []byte(", {}]")...)

	p, err := tr.Transform(Input{Raw: raw})
	require.NoError(t, err)
	assert.Equal(t, "asha-rao-19", p.ExternalID)

	_, err = tr.Transform(Input{Raw: []byte("[]")})
	assert.ErrorIs(t, err, ErrEmptyPayload)
	_, err = tr.Transform(Input{Raw: []byte("  ")})
	assert.ErrorIs(t, err, ErrEmptyPayload)
	_, err = tr.Transform(Input{Raw: []byte("{not json")})
	assert.Error(t, err)
}

func TestExternalIDFallbacks(t *testing.T) {
	tr := New(config.Default())

	p, err := tr.Transform(Input{
		Raw:  []byte(`{"basic_info": {"profile_url": "https://www.linkedin.com/in/Ravi-K/"}}`),
		Name: "Ravi K",
	})
	require.NoError(t, err)
	assert.Equal(t, "ravi-k", p.ExternalID)
	assert.Equal(t, "Ravi K", p.Name)
	assert.Equal(t, 0.0, p.DataQualityScore)

	p, err = tr.Transform(Input{
		Raw:       []byte(`{"basic_info": {"fullname": "Meera Iyer"}}`),
		SourceURL: "https://in.linkedin.com/in/meera-iyer",
	})
	require.NoError(t, err)
	assert.Equal(t, "meera-iyer", p.ExternalID)
	assert.Equal(t, "https://in.linkedin.com/in/meera-iyer", p.ProfileURL)

	_, err = tr.Transform(Input{Raw: []byte(`{"basic_info": {"fullname": "No Id"}}`)})
	assert.ErrorIs(t, err, ErrNoExternalID)
}

func TestBranchDefaultsWhenFieldUnmatched(t *testing.T) {
	tr := New(config.Default())
	raw := []byte(`{
		"basic_info": {"public_identifier": "k-s"},
		"education": [{"school": "IIIT Naya Raipur", "degree": "B.Tech", "field_of_study": "Mechanical", "start_date": "2016", "end_date": "2020"}]
	}`)

	p, err := tr.Transform(Input{Raw: raw})
	require.NoError(t, err)
	assert.Equal(t, "Other", p.Branch)
	assert.Equal(t, "2016-2020", p.Batch)

	// unrelated institute: nothing is derived
	raw = []byte(`{
		"basic_info": {"public_identifier": "k-s"},
		"education": [{"school": "Some College", "field_of_study": "Computer Science", "start_date": "2016"}]
	}`)
	p, err = tr.Transform(Input{Raw: raw})
	require.NoError(t, err)
	assert.Empty(t, p.Branch)
	assert.Empty(t, p.Batch)

	// irrelevant degree at the institute is skipped
	raw = []byte(`{
		"basic_info": {"public_identifier": "k-s"},
		"education": [{"school": "IIIT-NR", "degree": "Summer School", "field_of_study": "Data Science", "start_date": "2016"}]
	}`)
	p, err = tr.Transform(Input{Raw: raw})
	require.NoError(t, err)
	assert.Empty(t, p.Branch)
}

func TestCurrentCompanyFromOpenEndedRole(t *testing.T) {
	tr := New(config.Default())
	raw := []byte(`{
		"basic_info": {"public_identifier": "n-p"},
		"experience": [
			{"title": "Analyst", "company": "Old Co", "start_date": "2018", "end_date": "2020"},
			{"title": " Data  Engineer ", "company": "Nimbus Labs", "location": "Pune", "start_date": "2021", "company_id": 42}
		]
	}`)

	p, err := tr.Transform(Input{Raw: raw})
	require.NoError(t, err)
	require.Len(t, p.Experience, 2)
	assert.False(t, p.Experience[0].Current)
	assert.True(t, p.Experience[1].Current)
	assert.Equal(t, "Present", p.Experience[1].EndDate)

	require.NotNil(t, p.CurrentCompany)
	assert.Equal(t, "Nimbus Labs", p.CurrentCompany.Name)
	assert.Equal(t, "42", p.CurrentCompany.CompanyID)
	assert.Equal(t, "Data Engineer", p.CurrentCompany.Title)
	assert.Equal(t, "Pune", p.CurrentCompany.Location)

	// every role closed: no current company
	raw = []byte(`{
		"basic_info": {"public_identifier": "n-p"},
		"experience": [{"title": "Analyst", "company": "Old Co", "start_date": "2018", "end_date": "2020"}]
	}`)
	p, err = tr.Transform(Input{Raw: raw})
	require.NoError(t, err)
	assert.Nil(t, p.CurrentCompany)
}

func TestFlexDate(t *testing.T) {
	cases := map[string]struct{ year, display string }{
		`{"year": 2019, "month": "Jul"}`: {"2019", "Jul 2019"},
		`{"year": "2020"}`:               {"2020", "2020"},
		`"2018"`:                         {"2018", "2018"},
		`"Mar 2017"`:                     {"2017", "Mar 2017"},
		`2016`:                           {"2016", "2016"},
		`null`:                           {"", ""},
	}
	for in, want := range cases {
		var d flexDate
		require.NoError(t, json.Unmarshal([]byte(in), &d), in)
		assert.Equal(t, want.year, d.YearString(), in)
		assert.Equal(t, want.display, d.Display(), in)
	}
}
