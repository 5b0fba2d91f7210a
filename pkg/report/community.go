package report

import (
	"github.com/tidwall/gjson"

	"github.com/refgraph/refgraph/pkg/errors"
)

// Community is an operator and the references it controls.
type Community struct {
	CommunityID       string  `json:"communityId"`
	Operator          string  `json:"operator"`
	OperatedCount     int     `json:"operatedCount"`
	TotalRefids       int     `json:"totalRefids"`
	PercentControlled float64 `json:"percentControlled"`
}

// ParseCommunities decodes a /communities response. The envelope must carry
// a results array.
func ParseCommunities(data []byte) ([]Community, error) {
	results := gjson.GetBytes(data, "results")
	if !gjson.ValidBytes(data) || !results.IsArray() {
		return nil, errors.New(errors.ErrCodeInvalidInput, "invalid response format: missing 'results' array")
	}
	var out []Community
	results.ForEach(func(_, v gjson.Result) bool {
		out = append(out, Community{
			CommunityID:       v.Get("communityId").String(),
			Operator:          v.Get("operator").String(),
			OperatedCount:     int(v.Get("operatedCount").Int()),
			TotalRefids:       int(v.Get("totalRefids").Int()),
			PercentControlled: v.Get("percentControlled").Float(),
		})
		return true
	})
	return out, nil
}
