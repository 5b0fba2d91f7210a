package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
)

// Keyer builds cache keys. Implementations must be deterministic.
type Keyer interface {
	// HTTPKey returns the key for a backend response.
	HTTPKey(namespace, key string) string

	// ModelKey returns the key for a render model.
	ModelKey(payloadHash string, opts ModelKeyOpts) string
}

// ModelKeyOpts lists every pipeline option that changes a render model.
type ModelKeyOpts struct {
	Filter    string   `json:"filter"`
	ScoreKeys []string `json:"score_keys"`
	Prune     bool     `json:"prune"`
	Layout    string   `json:"layout"`
	Metric    string   `json:"metric"`
	Seed      uint64   `json:"seed"`
	Geometry  string   `json:"geometry,omitempty"` // serialized band, cluster and style options
}

// DefaultKeyer is the standard Keyer.
type DefaultKeyer struct{}

// NewDefaultKeyer returns a DefaultKeyer.
func NewDefaultKeyer() Keyer {
	return DefaultKeyer{}
}

// HTTPKey returns "http:<namespace>:<key>".
func (DefaultKeyer) HTTPKey(namespace, key string) string {
	return "http:" + namespace + ":" + key
}

// ModelKey returns "model:<hash of payload hash and options>".
func (DefaultKeyer) ModelKey(payloadHash string, opts ModelKeyOpts) string {
	return hashKey("model", payloadHash, opts)
}

// Hash returns the hex SHA-256 of data.
func Hash(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

// hashKey returns "prefix:" followed by the hash of parts encoded as JSON.
func hashKey(prefix string, parts ...any) string {
	data, _ := json.Marshal(parts)
	return prefix + ":" + Hash(data)
}
