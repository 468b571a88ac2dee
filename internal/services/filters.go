package services

import (
	"strconv"
	"strings"
	"time"
)

// Filter buckets are predefined named ranges the user selects by token,
// e.g. amountFilter="0-99,500-1000" or dateFilter="today,month". Selected
// buckets are mutually exclusive choices the user is OR-ing together, so the
// effective filter is their union: the smallest lower bound combined with
// the largest upper bound.

// ParseAmountFilter parses comma-joined amount tokens of the form "min-max"
// or "min+" (no upper bound). It returns the union of all valid tokens as
// inclusive bounds; a nil bound means unbounded on that side. Both results
// are nil when no token is valid.
func ParseAmountFilter(raw string) (min, max *float64) {
	var (
		lo, hi    float64
		openUpper bool
		valid     bool
	)
	for _, token := range strings.Split(raw, ",") {
		token = strings.TrimSpace(token)
		if token == "" {
			continue
		}

		var tokenLo, tokenHi float64
		var tokenOpen bool
		if trimmed, ok := strings.CutSuffix(token, "+"); ok {
			v, err := strconv.ParseFloat(trimmed, 64)
			if err != nil {
				continue
			}
			tokenLo = v
			tokenOpen = true
		} else {
			i := strings.Index(token, "-")
			if i <= 0 {
				continue
			}
			l, err1 := strconv.ParseFloat(token[:i], 64)
			h, err2 := strconv.ParseFloat(token[i+1:], 64)
			if err1 != nil || err2 != nil {
				continue
			}
			tokenLo, tokenHi = l, h
		}

		if !valid || tokenLo < lo {
			lo = tokenLo
		}
		if tokenOpen {
			openUpper = true
		} else if !valid || tokenHi > hi {
			hi = tokenHi
		}
		valid = true
	}

	if !valid {
		return nil, nil
	}
	min = &lo
	if !openUpper {
		max = &hi
	}
	return min, max
}

// ParseDateFilter parses comma-joined date tokens (today, week, month, year)
// into a half-open creation-time range [from, to), computed from the given
// instant in its location. Weeks start on Monday. Unknown tokens are
// skipped; both results are nil when no token is valid.
func ParseDateFilter(raw string, now time.Time) (from, to *time.Time) {
	midnight := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())

	var lo, hi time.Time
	valid := false
	for _, token := range strings.Split(raw, ",") {
		var start, end time.Time
		switch strings.TrimSpace(token) {
		case "today":
			start = midnight
			end = start.AddDate(0, 0, 1)
		case "week":
			start = midnight.AddDate(0, 0, -((int(now.Weekday()) + 6) % 7))
			end = start.AddDate(0, 0, 7)
		case "month":
			start = time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())
			end = start.AddDate(0, 1, 0)
		case "year":
			start = time.Date(now.Year(), time.January, 1, 0, 0, 0, 0, now.Location())
			end = start.AddDate(1, 0, 0)
		default:
			continue
		}

		if !valid || start.Before(lo) {
			lo = start
		}
		if !valid || end.After(hi) {
			hi = end
		}
		valid = true
	}

	if !valid {
		return nil, nil
	}
	return &lo, &hi
}
