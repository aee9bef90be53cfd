package briefing

import (
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
)

// NextOccurrence returns the first instant strictly after the given time at
// which a daily hour:minute job fires in the named timezone. The cron
// schedule handles DST transitions: a fire time skipped or repeated by a
// clock change still yields exactly one occurrence per day.
func NextOccurrence(hour, minute int, tzName string, after time.Time) (time.Time, error) {
	spec := fmt.Sprintf("CRON_TZ=%s %d %d * * *", tzName, minute, hour)
	sched, err := cron.ParseStandard(spec)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid daily schedule %02d:%02d in %s: %w", hour, minute, tzName, err)
	}
	return sched.Next(after), nil
}
