package backend

import (
	"net/url"
	"strconv"

	"github.com/refgraph/refgraph/pkg/errors"
	"github.com/refgraph/refgraph/pkg/layout"
)

// Kind is a graph query endpoint.
type Kind string

// Query kinds.
const (
	KindComponent  Kind = "component"
	KindRefSimilar Kind = "refsimilar"
	KindSameOp     Kind = "sameop"
	KindOffTime    Kind = "offtime"
)

// Kinds lists every query kind.
var Kinds = []Kind{KindComponent, KindRefSimilar, KindSameOp, KindOffTime}

// ParseKind converts a string to a Kind.
func ParseKind(s string) (Kind, error) {
	for _, k := range Kinds {
		if string(k) == s {
			return k, nil
		}
	}
	return "", errors.New(errors.ErrCodeInvalidQuery, "invalid query kind: %q (must be one of: component, refsimilar, sameop, offtime)", s)
}

// DefaultLayout returns the layout each query is usually viewed with.
// Operator-anchored queries cluster around their hubs.
func (k Kind) DefaultLayout() layout.Kind {
	if k == KindOffTime {
		return layout.KindCluster
	}
	return layout.KindBanded
}

// NeedsID reports whether the query is anchored on an entity id.
func (k Kind) NeedsID() bool {
	return k == KindComponent || k == KindRefSimilar
}

// Query is one graph retrieval.
type Query struct {
	Kind   Kind
	ID     string // entity id for component and refsimilar
	Degree int    // minimum degree for offtime
}

// Validate checks the query parameters.
func (q Query) Validate() error {
	if _, err := ParseKind(string(q.Kind)); err != nil {
		return err
	}
	if q.Kind.NeedsID() {
		if err := errors.ValidateEntityID(q.ID); err != nil {
			return err
		}
	}
	if q.Degree < 0 {
		return errors.New(errors.ErrCodeInvalidQuery, "degree must be non-negative")
	}
	return nil
}

// Path returns the request path and query string relative to the base URL.
func (q Query) Path() string {
	switch q.Kind {
	case KindComponent:
		return "/components/" + url.PathEscape(q.ID)
	case KindRefSimilar:
		return "/refsimilar?" + url.Values{"refid": {q.ID}}.Encode()
	case KindOffTime:
		return "/offtime?" + url.Values{"degree": {strconv.Itoa(q.Degree)}}.Encode()
	default:
		return "/sameop"
	}
}

// String returns a short description such as "component:c42".
func (q Query) String() string {
	switch {
	case q.Kind.NeedsID():
		return string(q.Kind) + ":" + q.ID
	case q.Kind == KindOffTime:
		return string(q.Kind) + ":" + strconv.Itoa(q.Degree)
	}
	return string(q.Kind)
}
