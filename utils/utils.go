package utils

import (
	"time"
)

// NowMillis returns the current time in Unix milliseconds, the unit chat
// message timestamps are exchanged in.
func NowMillis() int64 {
	return time.Now().UnixMilli()
}
