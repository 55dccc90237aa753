package interpreter

import (
	"regexp"
	"strconv"
	"strings"
	"time"
)

// Occurrence is one resolved time expression found in free text.
type Occurrence struct {
	Time  time.Time // resolved instant, in the reference time's location
	Match string    // the exact span of text that produced it
}

// Default hour for expressions that name a day but no time ("tomorrow",
// "the 15th of March").
const defaultHour = 9

// An optional trailing clock, e.g. " at 10", " at 14:30", " at 5pm".
// Appends three capture groups: hour, minute, am/pm.
const clockSuffix = `(?:\s+at\s+(\d{1,2})(?::(\d{2}))?\s*(am|pm)?)?`

var (
	reOffset = regexp.MustCompile(`(?i)\bin\s+(\d+)\s+(minutes?|mins?|hours?|hrs?|days?|weeks?)\b`)

	reDayWord = regexp.MustCompile(`(?i)\b(day\s+after\s+tomorrow|tomorrow|today|tonight|yesterday)\b` + clockSuffix)

	reWeekday = regexp.MustCompile(`(?i)\b(?:(next|this)\s+|on\s+)?(monday|tuesday|wednesday|thursday|friday|saturday|sunday)\b` + clockSuffix)

	reDayOfMonth = regexp.MustCompile(`(?i)\b(?:the\s+)?(\d{1,2})(?:st|nd|rd|th)?\s+of\s+(january|february|march|april|may|june|july|august|september|october|november|december)\b` + clockSuffix)

	reMonthDay = regexp.MustCompile(`(?i)\b(january|february|march|april|may|june|july|august|september|october|november|december)\s+(\d{1,2})(?:st|nd|rd|th)?\b` + clockSuffix)

	reAtClock = regexp.MustCompile(`(?i)\bat\s+(\d{1,2})(?::(\d{2}))?\s*(am|pm)?\b`)

	reBareClock = regexp.MustCompile(`(?i)\b(\d{1,2}):(\d{2})\b`)
)

var weekdays = map[string]time.Weekday{
	"monday":    time.Monday,
	"tuesday":   time.Tuesday,
	"wednesday": time.Wednesday,
	"thursday":  time.Thursday,
	"friday":    time.Friday,
	"saturday":  time.Saturday,
	"sunday":    time.Sunday,
}

var months = map[string]time.Month{
	"january":   time.January,
	"february":  time.February,
	"march":     time.March,
	"april":     time.April,
	"may":       time.May,
	"june":      time.June,
	"july":      time.July,
	"august":    time.August,
	"september": time.September,
	"october":   time.October,
	"november":  time.November,
	"december":  time.December,
}

type candidate struct {
	start int
	end   int
	time  time.Time
}

// ParseOccurrence scans text for a natural-language time expression, anchored
// at ref. The earliest-starting expression in the text wins. Ambiguous
// expressions (a bare clock time, a weekday with no date, a calendar date with
// no year) are biased toward the next future occurrence relative to ref.
//
// A resolved time at or before ref is still returned: deciding whether past
// dates are acceptable is the caller's concern. The second return value is
// false when no time expression was found, which is a normal outcome.
func ParseOccurrence(text string, ref time.Time) (*Occurrence, bool) {
	loc := ref.Location()

	var cands []candidate

	for _, m := range reOffset.FindAllStringSubmatchIndex(text, -1) {
		n, _ := strconv.Atoi(slice(text, m, 1))
		cands = append(cands, candidate{m[0], m[1], resolveOffset(ref, n, slice(text, m, 2))})
	}

	for _, m := range reDayWord.FindAllStringSubmatchIndex(text, -1) {
		word := normalize(slice(text, m, 1))
		h, min := resolveClock(slice(text, m, 2), slice(text, m, 3), slice(text, m, 4), dayWordDefaultHour(word))
		cands = append(cands, candidate{m[0], m[1], dayAt(ref, dayWordOffset(word), h, min, loc)})
	}

	for _, m := range reWeekday.FindAllStringSubmatchIndex(text, -1) {
		prefix := strings.ToLower(slice(text, m, 1))
		wd := weekdays[strings.ToLower(slice(text, m, 2))]
		h, min := resolveClock(slice(text, m, 3), slice(text, m, 4), slice(text, m, 5), defaultHour)
		cands = append(cands, candidate{m[0], m[1], resolveWeekday(ref, wd, prefix, h, min, loc)})
	}

	for _, m := range reDayOfMonth.FindAllStringSubmatchIndex(text, -1) {
		day, _ := strconv.Atoi(slice(text, m, 1))
		month := months[strings.ToLower(slice(text, m, 2))]
		h, min := resolveClock(slice(text, m, 3), slice(text, m, 4), slice(text, m, 5), defaultHour)
		cands = append(cands, candidate{m[0], m[1], resolveCalendar(ref, month, day, h, min, loc)})
	}

	for _, m := range reMonthDay.FindAllStringSubmatchIndex(text, -1) {
		month := months[strings.ToLower(slice(text, m, 1))]
		day, _ := strconv.Atoi(slice(text, m, 2))
		h, min := resolveClock(slice(text, m, 3), slice(text, m, 4), slice(text, m, 5), defaultHour)
		cands = append(cands, candidate{m[0], m[1], resolveCalendar(ref, month, day, h, min, loc)})
	}

	for _, m := range reAtClock.FindAllStringSubmatchIndex(text, -1) {
		h, min := resolveClock(slice(text, m, 1), slice(text, m, 2), slice(text, m, 3), defaultHour)
		cands = append(cands, candidate{m[0], m[1], resolveClockOnly(ref, h, min, loc)})
	}

	for _, m := range reBareClock.FindAllStringSubmatchIndex(text, -1) {
		h, _ := strconv.Atoi(slice(text, m, 1))
		min, _ := strconv.Atoi(slice(text, m, 2))
		if h > 23 || min > 59 {
			continue
		}
		cands = append(cands, candidate{m[0], m[1], resolveClockOnly(ref, h, min, loc)})
	}

	if len(cands) == 0 {
		return nil, false
	}

	// First match in the text is authoritative. On equal starts the longer
	// span wins, so "tomorrow at 10" beats the inner "at 10".
	best := cands[0]
	for _, c := range cands[1:] {
		if c.start < best.start || (c.start == best.start && c.end > best.end) {
			best = c
		}
	}

	return &Occurrence{Time: best.time, Match: text[best.start:best.end]}, true
}

// slice returns the n-th submatch of m within text, or "" when unmatched.
func slice(text string, m []int, n int) string {
	if 2*n+1 >= len(m) || m[2*n] < 0 {
		return ""
	}
	return text[m[2*n]:m[2*n+1]]
}

func normalize(s string) string {
	return spacePattern.ReplaceAllString(strings.ToLower(s), " ")
}

// resolveClock interprets optional hour/minute/meridiem captures, falling
// back to defHour:00 when no hour was given.
func resolveClock(hs, ms, ampm string, defHour int) (int, int) {
	if hs == "" {
		return defHour, 0
	}

	h, _ := strconv.Atoi(hs)
	min := 0
	if ms != "" {
		min, _ = strconv.Atoi(ms)
	}

	switch strings.ToLower(ampm) {
	case "pm":
		if h < 12 {
			h += 12
		}
	case "am":
		if h == 12 {
			h = 0
		}
	}

	return h, min
}

func dayWordOffset(word string) int {
	switch word {
	case "day after tomorrow":
		return 2
	case "tomorrow":
		return 1
	case "yesterday":
		return -1
	default: // today, tonight
		return 0
	}
}

func dayWordDefaultHour(word string) int {
	if word == "tonight" {
		return 21
	}
	return defaultHour
}

func dayAt(ref time.Time, dayOffset, h, min int, loc *time.Location) time.Time {
	y, m, d := ref.In(loc).Date()
	return time.Date(y, m, d+dayOffset, h, min, 0, 0, loc)
}

func resolveOffset(ref time.Time, n int, unit string) time.Time {
	switch strings.ToLower(strings.TrimSuffix(unit, "s")) {
	case "minute", "min":
		return ref.Add(time.Duration(n) * time.Minute)
	case "hour", "hr":
		return ref.Add(time.Duration(n) * time.Hour)
	case "day":
		return ref.AddDate(0, 0, n)
	default: // week
		return ref.AddDate(0, 0, 7*n)
	}
}

// resolveWeekday picks the next occurrence of wd at h:min that is strictly
// after ref. A "next" prefix on the current weekday always skips a week.
func resolveWeekday(ref time.Time, wd time.Weekday, prefix string, h, min int, loc *time.Location) time.Time {
	ahead := (int(wd) - int(ref.In(loc).Weekday()) + 7) % 7
	if prefix == "next" && ahead == 0 {
		ahead = 7
	}

	cand := dayAt(ref, ahead, h, min, loc)
	if !cand.After(ref) {
		cand = cand.AddDate(0, 0, 7)
	}
	return cand
}

// resolveCalendar resolves a month/day with no year to the next future
// occurrence of that date.
func resolveCalendar(ref time.Time, month time.Month, day, h, min int, loc *time.Location) time.Time {
	year := ref.In(loc).Year()
	cand := time.Date(year, month, day, h, min, 0, 0, loc)
	if !cand.After(ref) {
		cand = cand.AddDate(1, 0, 0)
	}
	return cand
}

// resolveClockOnly resolves a bare clock time to today, or tomorrow when that
// has already passed.
func resolveClockOnly(ref time.Time, h, min int, loc *time.Location) time.Time {
	cand := dayAt(ref, 0, h, min, loc)
	if !cand.After(ref) {
		cand = cand.AddDate(0, 0, 1)
	}
	return cand
}
