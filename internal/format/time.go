package format

import (
	"fmt"
	"math"
	"time"
)

// MacEpoch is the zero point of classic Mac OS dates.
var MacEpoch = time.Date(1904, time.January, 1, 0, 0, 0, 0, time.UTC)

// macEpochUnix is MacEpoch in Unix seconds.
const macEpochUnix = -2082844800

// MacToTime converts seconds since 1904-01-01 UTC to time.Time.
func MacToTime(secs uint32) time.Time {
	return time.Unix(int64(secs)+macEpochUnix, 0).UTC()
}

// TimeToMac converts t to seconds since 1904-01-01 UTC. Sub-second precision
// is dropped.
func TimeToMac(t time.Time) (uint32, error) {
	secs := t.Unix() - macEpochUnix
	if secs < 0 || secs > math.MaxUint32 {
		return 0, fmt.Errorf("%w: %s", ErrDateRange, t.UTC().Format(time.RFC3339))
	}
	return uint32(secs), nil
}
