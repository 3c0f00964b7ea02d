package transform

import (
	"bytes"
	"encoding/json"
	"strconv"
	"strings"

	"alumni-engine/internal/domain"
)

// Collector payload shapes. Field names follow the actor's dataset items.

type rawProfile struct {
	BasicInfo  rawBasicInfo        `json:"basic_info"`
	Education  []rawEducation      `json:"education"`
	Experience []rawExperience     `json:"experience"`
	Metadata   *domain.RawMetadata `json:"_metadata"`
}

type rawBasicInfo struct {
	PublicIdentifier  string      `json:"public_identifier"`
	ProfileURL        string      `json:"profile_url"`
	Fullname          string      `json:"fullname"`
	FirstName         string      `json:"first_name"`
	LastName          string      `json:"last_name"`
	Headline          string      `json:"headline"`
	About             string      `json:"about"`
	ProfilePictureURL string      `json:"profile_picture_url"`
	Location          rawLocation `json:"location"`
	FollowerCount     flexInt     `json:"follower_count"`
	ConnectionCount   flexInt     `json:"connection_count"`
	CurrentCompany    string      `json:"current_company"`
	CurrentCompanyURN string      `json:"current_company_urn"`
	Email             string      `json:"email"`
}

type rawLocation struct {
	Full        string `json:"full"`
	City        string `json:"city"`
	CountryCode string `json:"country_code"`
}

type rawEducation struct {
	School            string   `json:"school"`
	DegreeName        string   `json:"degree_name"`
	Degree            string   `json:"degree"`
	FieldOfStudy      string   `json:"field_of_study"`
	SchoolLinkedinURL string   `json:"school_linkedin_url"`
	StartDate         flexDate `json:"start_date"`
	EndDate           flexDate `json:"end_date"`
	Activities        string   `json:"activities"`
	Description       string   `json:"description"`
}

type rawExperience struct {
	Title              string   `json:"title"`
	Company            string   `json:"company"`
	Location           string   `json:"location"`
	Description        string   `json:"description"`
	StartDate          flexDate `json:"start_date"`
	EndDate            flexDate `json:"end_date"`
	IsCurrent          bool     `json:"is_current"`
	Duration           string   `json:"duration"`
	CompanyID          flexStr  `json:"company_id"`
	CompanyLinkedinURL string   `json:"company_linkedin_url"`
}

// flexDate accepts {"year": 2019, "month": "Jul"}, "2019", "Jul 2019" or 2019.
type flexDate struct {
	Year  string
	Month string
	Text  string
}

func (d *flexDate) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) == 0 || bytes.Equal(b, []byte("null")) {
		*d = flexDate{}
		return nil
	}
	switch b[0] {
	case '{':
		var obj struct {
			Year  flexStr `json:"year"`
			Month flexStr `json:"month"`
		}
		if err := json.Unmarshal(b, &obj); err != nil {
			return err
		}
		*d = flexDate{Year: string(obj.Year), Month: string(obj.Month)}
		return nil
	default:
		var s flexStr
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*d = flexDate{Text: strings.TrimSpace(string(s))}
		return nil
	}
}

func (d flexDate) IsZero() bool { return d.Year == "" && d.Month == "" && d.Text == "" }

// YearString is the plain year; for free text the last 4-digit token is used.
func (d flexDate) YearString() string {
	if d.Year != "" {
		return d.Year
	}
	fields := strings.Fields(d.Text)
	for i := len(fields) - 1; i >= 0; i-- {
		if isYear(fields[i]) {
			return fields[i]
		}
	}
	return d.Text
}

// Display is "Mon YYYY" for structured dates and the text as given otherwise.
func (d flexDate) Display() string {
	if d.Text != "" {
		return d.Text
	}
	return strings.TrimSpace(d.Month + " " + d.Year)
}

func isYear(s string) bool {
	if len(s) != 4 {
		return false
	}
	_, err := strconv.Atoi(s)
	return err == nil
}

// flexStr accepts a JSON string or number.
type flexStr string

func (s *flexStr) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if bytes.Equal(b, []byte("null")) {
		*s = ""
		return nil
	}
	if len(b) > 0 && b[0] == '"' {
		var v string
		if err := json.Unmarshal(b, &v); err != nil {
			return err
		}
		*s = flexStr(v)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return err
	}
	*s = flexStr(n.String())
	return nil
}

// flexInt accepts a number or a numeric string; anything else is 0.
type flexInt int

func (n *flexInt) UnmarshalJSON(b []byte) error {
	var s flexStr
	if err := s.UnmarshalJSON(b); err != nil {
		*n = 0
		return nil
	}
	v, err := strconv.Atoi(strings.TrimSpace(string(s)))
	if err != nil {
		*n = 0
		return nil
	}
	*n = flexInt(v)
	return nil
}
