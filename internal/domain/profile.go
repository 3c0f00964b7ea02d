package domain

import "time"

type Education struct {
	Institution string `json:"institution,omitempty"`
	Degree      string `json:"degree,omitempty"`
	Field       string `json:"field,omitempty"`
	StartYear   string `json:"startYear,omitempty"`
	EndYear     string `json:"endYear,omitempty"`
	Description string `json:"description,omitempty"`
	URL         string `json:"url,omitempty"`
}

type Experience struct {
	Title       string `json:"title,omitempty"`
	Company     string `json:"company,omitempty"`
	Location    string `json:"location,omitempty"`
	StartDate   string `json:"startDate,omitempty"`
	EndDate     string `json:"endDate,omitempty"`
	Current     bool   `json:"current"`
	Duration    string `json:"duration,omitempty"`
	Description string `json:"description,omitempty"`
	CompanyID   string `json:"companyId,omitempty"`
	CompanyURL  string `json:"companyUrl,omitempty"`
}

type CurrentCompany struct {
	Name      string `json:"name"`
	CompanyID string `json:"companyId,omitempty"`
	Title     string `json:"title,omitempty"`
	Location  string `json:"location,omitempty"`
}

type Skills struct {
	Technical []string `json:"technical,omitempty"`
	Tools     []string `json:"tools,omitempty"`
}

func (s Skills) Empty() bool { return len(s.Technical) == 0 && len(s.Tools) == 0 }

// CanonicalProfile is the storage-ready form of a scraped profile.
// Empty fields mean "not reported by the source" and never overwrite stored values.
type CanonicalProfile struct {
	ExternalID  string `json:"externalId"`
	Name        string `json:"name"`
	FirstName   string `json:"firstName,omitempty"`
	LastName    string `json:"lastName,omitempty"`
	Headline    string `json:"headline,omitempty"`
	About       string `json:"about,omitempty"`
	Location    string `json:"location,omitempty"`
	City        string `json:"city,omitempty"`
	CountryCode string `json:"countryCode,omitempty"`
	Email       string `json:"email,omitempty"`
	AvatarURL   string `json:"avatarUrl,omitempty"`
	ProfileURL  string `json:"profileUrl,omitempty"`
	Followers   int    `json:"followers,omitempty"`
	Connections int    `json:"connections,omitempty"`

	CurrentCompany *CurrentCompany `json:"currentCompany,omitempty"`
	Education      []Education     `json:"education,omitempty"`
	Experience     []Experience    `json:"experience,omitempty"`
	Skills         Skills          `json:"skills"`

	Batch          string `json:"batch,omitempty"`
	Branch         string `json:"branch,omitempty"`
	GraduationYear string `json:"graduationYear,omitempty"`

	DataQualityScore float64   `json:"dataQualityScore"`
	ScrapedAt        string    `json:"scrapedAt,omitempty"`
	UpdatedAt        time.Time `json:"updatedAt"`
}

// Summary is the short form returned by single-item endpoints.
type Summary struct {
	ExternalID       string  `json:"externalId"`
	Name             string  `json:"name"`
	Batch            string  `json:"batch,omitempty"`
	Branch           string  `json:"branch,omitempty"`
	ProfileURL       string  `json:"profileUrl,omitempty"`
	DataQualityScore float64 `json:"dataQualityScore"`
}

func (p CanonicalProfile) Summary() Summary {
	return Summary{
		ExternalID:       p.ExternalID,
		Name:             p.Name,
		Batch:            p.Batch,
		Branch:           p.Branch,
		ProfileURL:       p.ProfileURL,
		DataQualityScore: p.DataQualityScore,
	}
}
