package chrono

import (
	"sync"
	"time"
)

// TimeAPI is the interface that anything depending on the system clock should use.
type TimeAPI interface {
	// Now returns the current time in the location of the implementation.
	Now() time.Time
	Location() *time.Location
}

// StandardTime is the standard implementation of TimeAPI using the standard library.
type StandardTime struct {
	location *time.Location
}

// NewStandardTime loads the given IANA location name, an empty name means the
// local time zone of the host.
func NewStandardTime(name string) (StandardTime, error) {
	if name == "" {
		return StandardTime{location: time.Local}, nil
	}
	location, err := time.LoadLocation(name)
	if err != nil {
		return StandardTime{}, err
	}
	return StandardTime{location: location}, nil
}

func (s StandardTime) Now() time.Time {
	return time.Now().In(s.location)
}

func (s StandardTime) Location() *time.Location {
	return s.location
}

// FixedTime is a TimeAPI that only moves when told to.
type FixedTime struct {
	mutex sync.Mutex
	now   time.Time
}

func NewFixedTime(now time.Time) *FixedTime {
	return &FixedTime{now: now}
}

func (f *FixedTime) Now() time.Time {
	f.mutex.Lock()
	defer f.mutex.Unlock()
	return f.now
}

func (f *FixedTime) Location() *time.Location {
	f.mutex.Lock()
	defer f.mutex.Unlock()
	return f.now.Location()
}

func (f *FixedTime) Set(now time.Time) {
	f.mutex.Lock()
	defer f.mutex.Unlock()
	f.now = now
}

func (f *FixedTime) Advance(d time.Duration) {
	f.mutex.Lock()
	defer f.mutex.Unlock()
	f.now = f.now.Add(d)
}
