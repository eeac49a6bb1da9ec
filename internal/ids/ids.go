// Package ids provides identity generators for stored entities.
//
// Production code uses UUIDs; tests inject a Counter so generated
// identities are predictable:
//
//	gen := ids.NewCounter("rec")
//	gen.NewID() // "rec-1"
package ids

import (
	"fmt"
	"sync/atomic"

	"github.com/google/uuid"
)

// Generator produces unique entity identities.
type Generator interface {
	NewID() string
}

// UUIDGenerator issues random v4 UUIDs.
type UUIDGenerator struct{}

func NewUUIDGenerator() UUIDGenerator {
	return UUIDGenerator{}
}

func (UUIDGenerator) NewID() string {
	return uuid.NewString()
}

// Counter issues "<prefix>-<n>" identities with a monotonically increasing n.
type Counter struct {
	prefix string
	next   atomic.Uint64
}

func NewCounter(prefix string) *Counter {
	return &Counter{prefix: prefix}
}

func (c *Counter) NewID() string {
	return fmt.Sprintf("%s-%d", c.prefix, c.next.Add(1))
}
