package chrono

import "time"

// API is the clock anything that stamps records should read from.
type API interface {
	Now() time.Time
}

// StandardImpl reads the system clock in UTC, the archive reports dates without a
// zone so everything stored is kept in UTC as well.
type StandardImpl struct{}

func (StandardImpl) Now() time.Time {
	return time.Now().UTC()
}

// FixedImpl always returns the same instant.
type FixedImpl struct {
	Time time.Time
}

func (f FixedImpl) Now() time.Time {
	return f.Time
}
