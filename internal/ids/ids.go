package ids

import "github.com/segmentio/ksuid"

// New returns a k-sortable unique identifier used as primary key for
// users, sessions and files.
func New() string {
	return ksuid.New().String()
}
