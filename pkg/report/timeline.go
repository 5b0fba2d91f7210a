package report

import (
	"slices"
	"strings"

	"github.com/tidwall/gjson"

	"github.com/refgraph/refgraph/pkg/errors"
)

// Day is one timeline bucket.
type Day struct {
	Date       string `json:"date"` // YYYY-MM-DD
	Count      int    `json:"count"`
	Cumulative int    `json:"cumulative"`
}

// ParseDates decodes a /communityGraphs response of the form {"dates": [...]}.
// Non-string entries are stringified.
func ParseDates(data []byte) ([]string, error) {
	dates := gjson.GetBytes(data, "dates")
	if !gjson.ValidBytes(data) || !dates.IsArray() {
		return nil, errors.New(errors.ErrCodeInvalidInput, "invalid response shape: expecting { dates: string[] }")
	}
	var out []string
	dates.ForEach(func(_, v gjson.Result) bool {
		out = append(out, strings.TrimSpace(v.String()))
		return true
	})
	return out, nil
}

// Timeline buckets timestamps by calendar day (the part before "T") and
// returns the days that occur, in ascending order, with running totals.
func Timeline(dates []string) []Day {
	freq := make(map[string]int)
	for _, d := range dates {
		day, _, _ := strings.Cut(d, "T")
		if day == "" {
			continue
		}
		freq[day]++
	}

	days := make([]string, 0, len(freq))
	for d := range freq {
		days = append(days, d)
	}
	slices.Sort(days)

	out := make([]Day, len(days))
	run := 0
	for i, d := range days {
		run += freq[d]
		out[i] = Day{Date: d, Count: freq[d], Cumulative: run}
	}
	return out
}
