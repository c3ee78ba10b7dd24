package etc

import "github.com/nrednav/cuid2"

// NewFreshID returns a collision resistant id, used to tag sessions.
func NewFreshID() string {
	return cuid2.Generate()
}
