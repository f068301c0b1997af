package types

import "time"

type Byte int64

const (
	KiB Byte = 1024
	MiB Byte = 1024 * KiB
)

// Timestamp is a unix time in seconds, the resolution stored on the image.
type Timestamp int64

func NewTimestamp(t time.Time) Timestamp { return Timestamp(t.Unix()) }

func (ts Timestamp) Time() time.Time { return time.Unix(int64(ts), 0).UTC() }

func (ts Timestamp) String() string { return ts.Time().Format(time.RFC3339) }

func (ts Timestamp) MarshalJSON() ([]byte, error) {
	return ts.Time().MarshalJSON()
}
