package cli

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"alumni-engine/internal/domain"
)

type inputItem struct {
	Name       string `json:"name"`
	CohortHint string `json:"cohortHint"`
	Batch      string `json:"batch"`
	KnownURL   string `json:"knownUrl"`
	URL        string `json:"linkedinUrl"`
}

func (it inputItem) workItem(cohort string) domain.WorkItem {
	w := domain.WorkItem{
		Name:       strings.TrimSpace(it.Name),
		CohortHint: strings.TrimSpace(firstNonEmpty(it.CohortHint, it.Batch, cohort)),
		KnownURL:   strings.TrimSpace(firstNonEmpty(it.KnownURL, it.URL)),
	}
	return w
}

// readItems loads work items from a .json or .csv file. cohort fills in rows
// that carry no cohort of their own.
func readItems(path, cohort string) ([]domain.WorkItem, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".csv":
		return parseCSV(bytes.NewReader(b), cohort)
	case ".json", "":
		return parseJSON(b, cohort)
	}
	return nil, fmt.Errorf("unsupported input %s (want .json or .csv)", filepath.Base(path))
}

// parseJSON accepts a bare array or {"items": [...]}.
func parseJSON(b []byte, cohort string) ([]domain.WorkItem, error) {
	var rows []inputItem
	b = bytes.TrimSpace(b)
	if len(b) > 0 && b[0] == '{' {
		var wrapped struct {
			Items []inputItem `json:"items"`
		}
		if err := json.Unmarshal(b, &wrapped); err != nil {
			return nil, fmt.Errorf("parse json: %w", err)
		}
		rows = wrapped.Items
	} else if err := json.Unmarshal(b, &rows); err != nil {
		return nil, fmt.Errorf("parse json: %w", err)
	}

	out := make([]domain.WorkItem, 0, len(rows))
	for _, r := range rows {
		out = append(out, r.workItem(cohort))
	}
	return out, nil
}

// parseCSV needs a header row with a "name" column. Profile URL columns are
// matched loosely ("linkedin", "linkedin url", "url", "profile link").
func parseCSV(r io.Reader, cohort string) ([]domain.WorkItem, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, errors.New("csv is empty")
		}
		return nil, fmt.Errorf("parse csv: %w", err)
	}

	nameCol, cohortCol, urlCol := -1, -1, -1
	for i, h := range header {
		key := strings.ToLower(strings.TrimSpace(strings.TrimPrefix(h, "\ufeff")))
		switch {
		case key == "name":
			nameCol = i
		case key == "batch" || key == "cohort" || key == "cohorthint":
			cohortCol = i
		case key == "url" || key == "profile link" || key == "knownurl" || strings.Contains(key, "linkedin"):
			if urlCol < 0 {
				urlCol = i
			}
		}
	}
	if nameCol < 0 {
		return nil, errors.New(`csv has no "name" column`)
	}

	col := func(rec []string, i int) string {
		if i < 0 || i >= len(rec) {
			return ""
		}
		return rec[i]
	}

	var out []domain.WorkItem
	for {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("parse csv: %w", err)
		}
		it := inputItem{
			Name:       col(rec, nameCol),
			CohortHint: col(rec, cohortCol),
			KnownURL:   col(rec, urlCol),
		}
		if strings.TrimSpace(it.Name) == "" {
			continue
		}
		out = append(out, it.workItem(cohort))
	}
	return out, nil
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}
