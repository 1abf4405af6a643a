// health_checker.go: Passive health tracking from lookup outcomes
//
// The plugin never probes the horoscope API on its own; health is derived
// from the requests users actually make.
//
// Copyright (c) 2025 AGILira - A. Giordano
// Series: an AGILira library
// SPDX-License-Identifier: MPL-2.0

package constellation

import (
	"strconv"
	"sync/atomic"
	"time"

	"github.com/agilira/go-timecache"
)

// unhealthyAfter is the number of consecutive failed lookups after which
// the plugin reports StatusUnhealthy instead of StatusDegraded.
const unhealthyAfter = 3

type lookupStats struct {
	total               atomic.Int64
	failures            atomic.Int64
	consecutiveFailures atomic.Int64
	lastCheck           atomic.Int64 // unix nanoseconds
	lastResponseTime    atomic.Int64 // nanoseconds
	lastErrorKind       atomic.Int32 // ErrorKind
}

func newLookupStats() *lookupStats {
	return &lookupStats{}
}

func (s *lookupStats) record(err error, elapsed time.Duration) {
	s.total.Add(1)
	s.lastCheck.Store(timecache.CachedTimeNano())
	s.lastResponseTime.Store(int64(elapsed))

	if err != nil {
		s.failures.Add(1)
		s.consecutiveFailures.Add(1)
		s.lastErrorKind.Store(int32(KindOf(err)))
		return
	}
	s.consecutiveFailures.Store(0)
	s.lastErrorKind.Store(int32(KindNone))
}

func (s *lookupStats) snapshot() HealthStatus {
	total := s.total.Load()
	failures := s.failures.Load()
	consecutive := s.consecutiveFailures.Load()

	status := HealthStatus{
		ResponseTime: time.Duration(s.lastResponseTime.Load()),
		Metadata: map[string]string{
			"lookups":              strconv.FormatInt(total, 10),
			"failures":             strconv.FormatInt(failures, 10),
			"consecutive_failures": strconv.FormatInt(consecutive, 10),
		},
	}
	if last := s.lastCheck.Load(); last > 0 {
		status.LastCheck = time.Unix(0, last)
	} else {
		status.LastCheck = timecache.CachedTime()
	}

	switch {
	case total == 0:
		status.Status = StatusUnknown
		status.Message = "no lookups yet"
	case consecutive == 0:
		status.Status = StatusHealthy
		status.Message = "OK"
	case consecutive >= unhealthyAfter:
		status.Status = StatusUnhealthy
		status.Message = "last " + strconv.FormatInt(consecutive, 10) + " lookups failed"
		status.Metadata["last_error_kind"] = ErrorKind(s.lastErrorKind.Load()).String()
	default:
		status.Status = StatusDegraded
		status.Message = "last lookup failed"
		status.Metadata["last_error_kind"] = ErrorKind(s.lastErrorKind.Load()).String()
	}
	return status
}
