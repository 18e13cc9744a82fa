package store

import "github.com/oklog/ulid/v2"

// NewID returns a lexically sortable id; ulid.Make is safe for concurrent use.
func NewID() string {
	return ulid.Make().String()
}
