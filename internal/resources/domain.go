// Package resources implements the generic collection CRUD router that
// the access gate protects. Collections are arbitrary names mapped to
// JSON documents in a single backing table.
package resources

import (
	"encoding/json"
	"regexp"
	"time"
)

// Document is one JSON record inside a named collection.
type Document struct {
	Collection string          `json:"-"`
	ID         int64           `json:"id"`
	Data       json.RawMessage `json:"data"`
	CreatedAt  time.Time       `json:"created_at"`
	UpdatedAt  time.Time       `json:"updated_at"`
}

// collectionPattern bounds collection names to safe lowercase slugs.
var collectionPattern = regexp.MustCompile(`^[a-z][a-z0-9_-]{0,62}$`)

// reservedCollections cannot be reached through the generic router.
// The users collection belongs to the credential store.
var reservedCollections = map[string]struct{}{
	"users": {},
}

// ValidCollection reports whether name is an addressable collection.
func ValidCollection(name string) bool {
	if !collectionPattern.MatchString(name) {
		return false
	}
	_, reserved := reservedCollections[name]
	return !reserved
}
