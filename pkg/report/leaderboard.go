package report

import (
	"cmp"
	"encoding/csv"
	"io"
	"slices"
	"strconv"
	"strings"

	"github.com/tidwall/gjson"

	"github.com/refgraph/refgraph/pkg/errors"
)

// Entry is one leaderboard row. InDegree is nil when the backend omitted it.
type Entry struct {
	NodeID   string `json:"node_id"`
	InDegree *int   `json:"indegree"`
}

// Leaderboard is an ordered list of entries.
type Leaderboard []Entry

// SortKey selects the leaderboard column to sort by.
type SortKey string

// Sort keys.
const (
	SortInDegree SortKey = "indegree"
	SortNodeID   SortKey = "node_id"
)

// ParseSortKey converts a string to a SortKey. The empty string yields indegree.
func ParseSortKey(s string) (SortKey, error) {
	switch SortKey(s) {
	case "", SortInDegree:
		return SortInDegree, nil
	case SortNodeID:
		return SortNodeID, nil
	}
	return "", errors.New(errors.ErrCodeInvalidQuery, "invalid sort key: %q (must be one of: indegree, node_id)", s)
}

// ParseLeaderboard decodes a /compdegree response, which must be an array.
func ParseLeaderboard(data []byte) (Leaderboard, error) {
	root := gjson.ParseBytes(data)
	if !gjson.ValidBytes(data) || !root.IsArray() {
		return nil, errors.New(errors.ErrCodeInvalidInput, "leaderboard response is not an array")
	}
	var out Leaderboard
	root.ForEach(func(_, v gjson.Result) bool {
		e := Entry{NodeID: v.Get("node_id").String()}
		if d := v.Get("indegree"); d.Exists() && d.Type == gjson.Number {
			n := int(d.Int())
			e.InDegree = &n
		}
		out = append(out, e)
		return true
	})
	return out, nil
}

// Sort returns a sorted copy. Missing values sort last in both directions.
func (l Leaderboard) Sort(key SortKey, desc bool) Leaderboard {
	out := slices.Clone(l)
	slices.SortStableFunc(out, func(a, b Entry) int {
		var aNil, bNil bool
		var c int
		switch key {
		case SortNodeID:
			aNil, bNil = a.NodeID == "", b.NodeID == ""
			c = cmp.Compare(a.NodeID, b.NodeID)
		default:
			aNil, bNil = a.InDegree == nil, b.InDegree == nil
			if !aNil && !bNil {
				c = cmp.Compare(*a.InDegree, *b.InDegree)
			}
		}
		switch {
		case aNil && bNil:
			return 0
		case aNil:
			return 1
		case bNil:
			return -1
		case desc:
			return -c
		}
		return c
	})
	return out
}

// Search keeps entries whose node id contains q case-insensitively, or whose
// in-degree contains q as a substring.
func (l Leaderboard) Search(q string) Leaderboard {
	q = strings.ToLower(strings.TrimSpace(q))
	if q == "" {
		return slices.Clone(l)
	}
	var out Leaderboard
	for _, e := range l {
		if strings.Contains(strings.ToLower(e.NodeID), q) ||
			(e.InDegree != nil && strings.Contains(strconv.Itoa(*e.InDegree), q)) {
			out = append(out, e)
		}
	}
	return out
}

// Page returns the 1-based page of size entries and the page count, which is
// at least one. Out-of-range pages are clamped.
func (l Leaderboard) Page(page, size int) (Leaderboard, int) {
	if size <= 0 {
		size = len(l)
	}
	pages := 1
	if size > 0 {
		pages = max(1, (len(l)+size-1)/size)
	}
	page = max(1, min(page, pages))
	start := min((page-1)*size, len(l))
	end := min(start+size, len(l))
	return l[start:end], pages
}

// WriteCSV writes the entries with an "indegree,node_id" header.
func (l Leaderboard) WriteCSV(w io.Writer) error {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"indegree", "node_id"}); err != nil {
		return err
	}
	for _, e := range l {
		deg := ""
		if e.InDegree != nil {
			deg = strconv.Itoa(*e.InDegree)
		}
		if err := cw.Write([]string{deg, e.NodeID}); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}
