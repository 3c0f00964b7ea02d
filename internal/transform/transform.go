// Package transform maps collector payloads onto the canonical profile schema.
// Transform is pure: the same input always yields the same profile.
package transform

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strings"

	htmltomarkdown "github.com/JohannesKaufmann/html-to-markdown/v2"

	"alumni-engine/internal/config"
	"alumni-engine/internal/domain"
	"alumni-engine/internal/netx"
	"alumni-engine/internal/profileurl"
	"alumni-engine/internal/rank"
)

var (
	ErrEmptyPayload = errors.New("empty payload")
	ErrNoExternalID = errors.New("payload has no public identifier")
)

type Input struct {
	Raw []byte

	// Name is used when the payload carries no name.
	Name       string
	CohortHint string
	SourceURL  string
}

type Transformer struct {
	Institute InstituteRules
	Skills    rank.SkillScorer
}

func New(cfg config.Config) Transformer {
	return Transformer{
		Institute: InstituteRules{
			NameVariations:  cfg.Institute.NameVariations,
			RelevantDegrees: cfg.Institute.RelevantDegrees,
			Branches:        cfg.Institute.Branches,
			DefaultBranch:   cfg.Institute.DefaultBranch,
		},
		Skills: rank.NewSkillScorer(cfg),
	}
}

func (t Transformer) Transform(in Input) (domain.CanonicalProfile, error) {
	var p domain.CanonicalProfile

	raw, err := firstItem(in.Raw)
	if err != nil {
		return p, err
	}
	var rp rawProfile
	if err := json.Unmarshal(raw, &rp); err != nil {
		return p, fmt.Errorf("decode payload: %w", err)
	}
	bi := rp.BasicInfo
	var meta domain.RawMetadata
	if rp.Metadata != nil {
		meta = *rp.Metadata
	}

	p.ExternalID = externalID(bi.PublicIdentifier, bi.ProfileURL, meta.OriginalURL, in.SourceURL)
	if p.ExternalID == "" {
		return p, ErrNoExternalID
	}

	p.Name = firstNonEmpty(bi.Fullname, strings.TrimSpace(bi.FirstName+" "+bi.LastName), in.Name)
	p.FirstName = strings.TrimSpace(bi.FirstName)
	p.LastName = strings.TrimSpace(bi.LastName)
	p.Headline = netx.CleanText(bi.Headline)
	p.About = strings.TrimSpace(bi.About)
	p.Location = netx.CleanText(bi.Location.Full)
	p.City = bi.Location.City
	p.CountryCode = bi.Location.CountryCode
	p.Email = strings.TrimSpace(bi.Email)
	p.AvatarURL = bi.ProfilePictureURL
	p.ProfileURL = firstNonEmpty(bi.ProfileURL, meta.OriginalURL, in.SourceURL)
	p.Followers = int(bi.FollowerCount)
	p.Connections = int(bi.ConnectionCount)
	p.ScrapedAt = meta.ScrapedAt

	p.Education = education(rp.Education)
	p.Experience = experience(rp.Experience)
	p.CurrentCompany = currentCompany(bi, p.Experience)

	texts := []string{p.Headline, p.About}
	for _, e := range p.Experience {
		texts = append(texts, e.Title, e.Description)
	}
	p.Skills = t.Skills.Infer(texts...)

	p.Batch = firstNonEmpty(in.CohortHint, meta.Batch, t.Institute.Batch(p.Education))
	p.Branch = t.Institute.Branch(p.Education)
	p.GraduationYear = t.Institute.GraduationYear(p.Education)
	p.DataQualityScore = qualityScore(p)

	return p, nil
}

// firstItem accepts a single object or a dataset array and returns the first object.
func firstItem(raw []byte) ([]byte, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return nil, ErrEmptyPayload
	}
	if raw[0] != '[' {
		return raw, nil
	}
	var items []json.RawMessage
	if err := json.Unmarshal(raw, &items); err != nil {
		return nil, fmt.Errorf("decode dataset: %w", err)
	}
	if len(items) == 0 {
		return nil, ErrEmptyPayload
	}
	return items[0], nil
}

func externalID(publicID string, urls ...string) string {
	if id := strings.TrimSpace(publicID); id != "" {
		return strings.ToLower(id)
	}
	for _, u := range urls {
		if id, ok := profileurl.Username(u); ok {
			return strings.ToLower(id)
		}
	}
	return ""
}

func education(in []rawEducation) []domain.Education {
	if len(in) == 0 {
		return nil
	}
	out := make([]domain.Education, 0, len(in))
	for _, e := range in {
		out = append(out, domain.Education{
			Institution: netx.CleanText(e.School),
			Degree:      netx.CleanText(firstNonEmpty(e.DegreeName, e.Degree)),
			Field:       netx.CleanText(e.FieldOfStudy),
			StartYear:   e.StartDate.YearString(),
			EndYear:     e.EndDate.YearString(),
			Description: strings.TrimSpace(firstNonEmpty(e.Activities, e.Description)),
			URL:         e.SchoolLinkedinURL,
		})
	}
	return out
}

func experience(in []rawExperience) []domain.Experience {
	if len(in) == 0 {
		return nil
	}
	out := make([]domain.Experience, 0, len(in))
	for _, e := range in {
		current := e.IsCurrent || e.EndDate.IsZero()
		end := e.EndDate.Display()
		if current {
			end = "Present"
		}
		out = append(out, domain.Experience{
			Title:       netx.CleanText(e.Title),
			Company:     netx.CleanText(e.Company),
			Location:    netx.CleanText(e.Location),
			StartDate:   e.StartDate.Display(),
			EndDate:     end,
			Current:     current,
			Duration:    e.Duration,
			Description: describe(e.Description),
			CompanyID:   string(e.CompanyID),
			CompanyURL:  e.CompanyLinkedinURL,
		})
	}
	return out
}

// describe turns the collector's HTML descriptions into markdown; plain text passes through.
func describe(s string) string {
	s = strings.TrimSpace(s)
	if !strings.Contains(s, "<") {
		return s
	}
	md, err := htmltomarkdown.ConvertString(s)
	if err != nil {
		return s
	}
	return strings.TrimSpace(md)
}

// currentCompany prefers the collector's own current company and otherwise
// takes the first normalized experience that is current.
func currentCompany(bi rawBasicInfo, exp []domain.Experience) *domain.CurrentCompany {
	if name := strings.TrimSpace(bi.CurrentCompany); name != "" {
		cc := &domain.CurrentCompany{Name: name, CompanyID: bi.CurrentCompanyURN}
		if len(exp) > 0 {
			cc.Title = exp[0].Title
			cc.Location = exp[0].Location
		}
		return cc
	}
	for _, e := range exp {
		if e.Current {
			return &domain.CurrentCompany{
				Name:      e.Company,
				CompanyID: e.CompanyID,
				Title:     e.Title,
				Location:  e.Location,
			}
		}
	}
	return nil
}

// qualityScore weighs which parts of the profile are filled, out of 12.
func qualityScore(p domain.CanonicalProfile) float64 {
	filled := 0
	add := func(ok bool, w int) {
		if ok {
			filled += w
		}
	}
	add(p.Batch != "", 1)
	add(p.GraduationYear != "", 1)
	add(p.CurrentCompany != nil, 2)
	add(p.About != "", 1)
	add(len(p.Education) > 0, 2)
	add(len(p.Experience) > 0, 2)
	add(!p.Skills.Empty(), 2)
	add(p.Location != "", 1)
	return math.Round(float64(filled)/12*100) / 100
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v = strings.TrimSpace(v); v != "" {
			return v
		}
	}
	return ""
}
