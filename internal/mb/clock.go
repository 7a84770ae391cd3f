package mb

import (
	"time"

	"github.com/google/uuid"
)

// Clock abstracts time retrieval so favorites and uploads get deterministic
// timestamps in tests.
type Clock interface {
	Now() time.Time
}

// RealClock returns the current wall-clock time in UTC.
type RealClock struct{}

func (RealClock) Now() time.Time { return time.Now().UTC() }

// IDGenerator abstracts record ID generation.
type IDGenerator interface {
	New() string
}

// UUIDGenerator produces random UUIDs for users, folders and files.
type UUIDGenerator struct{}

func (UUIDGenerator) New() string { return uuid.New().String() }
