package store

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"alumni-engine/internal/domain"
)

// Columns written by Upsert, in argument order. All but external_id are merged
// with COALESCE so a NULL (absent) value keeps what is stored.
var profileColumns = []string{
	"external_id", "name", "first_name", "last_name", "headline", "about",
	"location", "city", "country_code", "email", "avatar_url", "profile_url",
	"followers", "connections", "current_company", "education", "experience", "skills",
	"batch", "branch", "graduation_year", "scraped_at",
}

var jsonColumns = map[string]bool{
	"current_company": true, "education": true, "experience": true, "skills": true,
}

// upsertSQL builds the dialect-specific upsert. ph returns the placeholder for
// the i-th (1-based) argument; cast optionally wraps JSON placeholders.
func upsertSQL(ph func(i int) string, jsonCast string) string {
	cols := append(append([]string{}, profileColumns...), "data_quality_score", "created_at", "updated_at")

	vals := make([]string, len(cols))
	for i, c := range cols {
		vals[i] = ph(i + 1)
		if jsonColumns[c] {
			vals[i] += jsonCast
		}
	}

	sets := make([]string, 0, len(cols))
	for _, c := range profileColumns[1:] {
		sets = append(sets, fmt.Sprintf("  %s = COALESCE(excluded.%s, profiles.%s)", c, c, c))
	}
	sets = append(sets,
		"  data_quality_score = excluded.data_quality_score",
		"  updated_at = excluded.updated_at",
	)

	return fmt.Sprintf(`
INSERT INTO profiles (%s)
VALUES (%s)
ON CONFLICT(external_id) DO UPDATE SET
%s;
`, strings.Join(cols, ", "), strings.Join(vals, ", "), strings.Join(sets, ",\n"))
}

// upsertArgs encodes p; ts is the backend's representation of the write time.
func upsertArgs(p domain.CanonicalProfile, ts any) ([]any, error) {
	cc, err := nullJSON(p.CurrentCompany, p.CurrentCompany == nil)
	if err != nil {
		return nil, err
	}
	edu, err := nullJSON(p.Education, len(p.Education) == 0)
	if err != nil {
		return nil, err
	}
	exp, err := nullJSON(p.Experience, len(p.Experience) == 0)
	if err != nil {
		return nil, err
	}
	skills, err := nullJSON(p.Skills, p.Skills.Empty())
	if err != nil {
		return nil, err
	}

	return []any{
		p.ExternalID, nullStr(p.Name), nullStr(p.FirstName), nullStr(p.LastName),
		nullStr(p.Headline), nullStr(p.About), nullStr(p.Location), nullStr(p.City),
		nullStr(p.CountryCode), nullStr(p.Email), nullStr(p.AvatarURL), nullStr(p.ProfileURL),
		nullInt(p.Followers), nullInt(p.Connections), cc, edu, exp, skills,
		nullStr(p.Batch), nullStr(p.Branch), nullStr(p.GraduationYear), nullStr(p.ScrapedAt),
		p.DataQualityScore, ts, ts,
	}, nil
}

// profileRow is the scan target shared by both backends; the select lists
// COALESCE every nullable column to its zero value.
type profileRow struct {
	p                    domain.CanonicalProfile
	cc, edu, exp, skills string
	updatedAt            any
}

func (r *profileRow) dest() []any {
	p := &r.p
	return []any{
		&p.ExternalID, &p.Name, &p.FirstName, &p.LastName, &p.Headline, &p.About,
		&p.Location, &p.City, &p.CountryCode, &p.Email, &p.AvatarURL, &p.ProfileURL,
		&p.Followers, &p.Connections, &r.cc, &r.edu, &r.exp, &r.skills,
		&p.Batch, &p.Branch, &p.GraduationYear, &p.ScrapedAt,
		&p.DataQualityScore, &r.updatedAt,
	}
}

func (r *profileRow) profile() (domain.CanonicalProfile, error) {
	p := r.p
	if r.cc != "" {
		p.CurrentCompany = &domain.CurrentCompany{}
		if err := json.Unmarshal([]byte(r.cc), p.CurrentCompany); err != nil {
			return p, fmt.Errorf("decode current_company: %w", err)
		}
	}
	for _, f := range []struct {
		raw string
		dst any
	}{{r.edu, &p.Education}, {r.exp, &p.Experience}, {r.skills, &p.Skills}} {
		if f.raw == "" {
			continue
		}
		if err := json.Unmarshal([]byte(f.raw), f.dst); err != nil {
			return p, fmt.Errorf("decode profile json: %w", err)
		}
	}
	switch v := r.updatedAt.(type) {
	case time.Time:
		p.UpdatedAt = v
	case string:
		p.UpdatedAt, _ = time.Parse(time.RFC3339Nano, v)
	case []byte:
		p.UpdatedAt, _ = time.Parse(time.RFC3339Nano, string(v))
	}
	return p, nil
}

func nullStr(s string) any {
	if strings.TrimSpace(s) == "" {
		return nil
	}
	return s
}

func nullInt(n int) any {
	if n == 0 {
		return nil
	}
	return n
}

func nullJSON(v any, empty bool) (any, error) {
	if empty {
		return nil, nil
	}
	b, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	return string(b), nil
}
