package utils

import "time"

// TimeNowUTC returns the current time in UTC. All task timestamps are kept
// in UTC; mining modules run across timezones.
func TimeNowUTC() time.Time {
	return time.Now().UTC()
}
