package clock

import "time"

// NowFunc returns the current time. Tests override it to freeze timestamps.
var NowFunc = time.Now

// Now is a thin wrapper around NowFunc.
func Now() time.Time { return NowFunc() }

// Since returns the elapsed time relative to NowFunc.
func Since(t time.Time) time.Duration { return Now().Sub(t) }
