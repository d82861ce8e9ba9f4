// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package schedule triggers pipeline runs on a cron expression and keeps a
// failed run retrying without letting two runs overlap.
package schedule

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Schedule is a parsed five-field cron expression
// (minute hour day-of-month month day-of-week).
type Schedule struct {
	minute uint64 // 0-59
	hour   uint64 // 0-23
	dom    uint64 // 1-31
	month  uint64 // 1-12
	dow    uint64 // 0-6, Sunday = 0

	// domStar and dowStar record whether the field was "*". Vixie cron
	// treats a restricted day-of-month OR day-of-week as matching when
	// either does, but only when both are restricted.
	domStar bool
	dowStar bool
}

var monthNames = map[string]int{
	"jan": 1, "feb": 2, "mar": 3, "apr": 4, "may": 5, "jun": 6,
	"jul": 7, "aug": 8, "sep": 9, "oct": 10, "nov": 11, "dec": 12,
}

var dowNames = map[string]int{
	"sun": 0, "mon": 1, "tue": 2, "wed": 3, "thu": 4, "fri": 5, "sat": 6,
}

// Parse parses a five-field cron expression. Supported syntax per field:
// "*", single values, names (jan, mon), ranges (1-5), steps (*/15, 1-30/5),
// and comma lists. Day-of-week accepts 7 as an alias for Sunday.
func Parse(expr string) (*Schedule, error) {
	fields := strings.Fields(expr)
	if len(fields) != 5 {
		return nil, fmt.Errorf("cron expression %q: want 5 fields, got %d", expr, len(fields))
	}

	s := &Schedule{
		domStar: fields[2] == "*",
		dowStar: fields[4] == "*",
	}

	var err error
	if s.minute, err = parseField(fields[0], 0, 59, nil); err != nil {
		return nil, fmt.Errorf("cron minute field: %w", err)
	}
	if s.hour, err = parseField(fields[1], 0, 23, nil); err != nil {
		return nil, fmt.Errorf("cron hour field: %w", err)
	}
	if s.dom, err = parseField(fields[2], 1, 31, nil); err != nil {
		return nil, fmt.Errorf("cron day-of-month field: %w", err)
	}
	if s.month, err = parseField(fields[3], 1, 12, monthNames); err != nil {
		return nil, fmt.Errorf("cron month field: %w", err)
	}
	if s.dow, err = parseField(fields[4], 0, 7, dowNames); err != nil {
		return nil, fmt.Errorf("cron day-of-week field: %w", err)
	}
	// Fold 7 onto Sunday.
	if s.dow&(1<<7) != 0 {
		s.dow |= 1
		s.dow &^= 1 << 7
	}
	return s, nil
}

// parseField parses one cron field into a bitmask over [min, max].
func parseField(field string, min, max int, names map[string]int) (uint64, error) {
	var mask uint64
	for _, part := range strings.Split(field, ",") {
		m, err := parseRange(part, min, max, names)
		if err != nil {
			return 0, err
		}
		mask |= m
	}
	return mask, nil
}

func parseRange(part string, min, max int, names map[string]int) (uint64, error) {
	step := 1
	if i := strings.IndexByte(part, '/'); i >= 0 {
		var err error
		step, err = strconv.Atoi(part[i+1:])
		if err != nil || step <= 0 {
			return 0, fmt.Errorf("invalid step in %q", part)
		}
		part = part[:i]
	}

	lo, hi := min, max
	switch {
	case part == "*":
		// full range
	case strings.Contains(part, "-"):
		bounds := strings.SplitN(part, "-", 2)
		var err error
		if lo, err = parseValue(bounds[0], names); err != nil {
			return 0, err
		}
		if hi, err = parseValue(bounds[1], names); err != nil {
			return 0, err
		}
	default:
		v, err := parseValue(part, names)
		if err != nil {
			return 0, err
		}
		lo, hi = v, v
	}

	if lo < min || hi > max || lo > hi {
		return 0, fmt.Errorf("value %q out of range %d-%d", part, min, max)
	}

	var mask uint64
	for v := lo; v <= hi; v += step {
		mask |= 1 << uint(v)
	}
	return mask, nil
}

func parseValue(s string, names map[string]int) (int, error) {
	if v, ok := names[strings.ToLower(s)]; ok {
		return v, nil
	}
	v, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("invalid value %q", s)
	}
	return v, nil
}

// Matches reports whether t is a trigger time.
func (s *Schedule) Matches(t time.Time) bool {
	if s.minute&(1<<uint(t.Minute())) == 0 {
		return false
	}
	if s.hour&(1<<uint(t.Hour())) == 0 {
		return false
	}
	if s.month&(1<<uint(int(t.Month()))) == 0 {
		return false
	}
	return s.dayMatches(t)
}

// Next returns the first trigger time strictly after t, or the zero time
// when no trigger exists within five years (an expression like "* * 31 2 *"
// never fires).
func (s *Schedule) Next(t time.Time) time.Time {
	// Minute granularity; seconds never match.
	t = t.Truncate(time.Minute).Add(time.Minute)
	limit := t.AddDate(5, 0, 0)

	for t.Before(limit) {
		if s.month&(1<<uint(int(t.Month()))) == 0 {
			t = time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, t.Location()).AddDate(0, 1, 0)
			continue
		}
		if !s.dayMatches(t) {
			t = time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location()).AddDate(0, 0, 1)
			continue
		}
		if s.hour&(1<<uint(t.Hour())) == 0 {
			t = t.Truncate(time.Hour).Add(time.Hour)
			continue
		}
		if s.minute&(1<<uint(t.Minute())) == 0 {
			t = t.Add(time.Minute)
			continue
		}
		return t
	}
	return time.Time{}
}

func (s *Schedule) dayMatches(t time.Time) bool {
	domOK := s.dom&(1<<uint(t.Day())) != 0
	dowOK := s.dow&(1<<uint(int(t.Weekday()))) != 0
	if !s.domStar && !s.dowStar {
		return domOK || dowOK
	}
	return domOK && dowOK
}

// Upcoming returns the next n trigger times after t.
func (s *Schedule) Upcoming(t time.Time, n int) []time.Time {
	out := make([]time.Time, 0, n)
	for i := 0; i < n; i++ {
		t = s.Next(t)
		if t.IsZero() {
			break
		}
		out = append(out, t)
	}
	return out
}
