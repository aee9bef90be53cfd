// Package timeparse resolves free-text time expressions ("in 30 minutes",
// "tomorrow at 9am", "6pm") into absolute timezone-aware instants.
//
// Free-text time input is ambiguous, and no single interpretation accepts
// all the phrasings people actually type. Resolve therefore runs a staged
// fallback: the input is normalized and parsed under three preference
// settings (literal, prefer the current period, prefer the future), the
// same stages are retried on the raw input, and a bare clock-time fallback
// ("6pm" rolls to tomorrow when already past) catches the rest. Every
// candidate is validated to be strictly in the future before it is accepted.
package timeparse

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/wasilibs/go-re2"
)

// ParseError reports an input no parsing stage could interpret.
type ParseError struct {
	Input string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("sorry, I couldn't understand the time '%s'. Please try something like 'in 30 minutes', 'tomorrow at 9am', or '6pm'", e.Input)
}

// PastTimeError reports an input that parsed to an instant that is not in
// the future. Both instants are included so the user can see how the input
// was interpreted.
type PastTimeError struct {
	Interpreted time.Time
	Now         time.Time
}

func (e *PastTimeError) Error() string {
	return fmt.Sprintf("the reminder time must be in the future: I understood %s, but the current time is %s",
		e.Interpreted.Format("Monday, Jan 2 at 3:04PM"),
		e.Now.Format("Monday, Jan 2 at 3:04PM"))
}

// preference controls how ambiguous expressions are anchored, mirroring the
// three settings the stages run under.
type preference int

const (
	preferNone    preference = iota // literal interpretation
	preferCurrent                   // anchor to the current day/period
	preferFuture                    // roll past results forward
)

var (
	relativeRe = re2.MustCompile(`^in (\d+) (minute|minutes|min|mins|hour|hours|day|days|week|weeks)$`)
	bareDurRe  = re2.MustCompile(`^\d+ (minute|minutes|min|mins|hour|hours|day|days|week|weeks)$`)
	tomorrowRe = re2.MustCompile(`^tomorrow(?: at (\d{1,2})(?::(\d{2}))?\s*(am|pm)?)?$`)
	todayRe    = re2.MustCompile(`^(today|tonight)(?: at (\d{1,2})(?::(\d{2}))?\s*(am|pm)?)?$`)
	weekdayRe  = re2.MustCompile(`^(?:on |next )?(monday|tuesday|wednesday|thursday|friday|saturday|sunday)(?: at (\d{1,2})(?::(\d{2}))?\s*(am|pm)?)?$`)
	clockRe    = re2.MustCompile(`^(?:at )?(\d{1,2})(?::(\d{2}))?\s*(am|pm)?$`)
)

var weekdays = map[string]time.Weekday{
	"sunday":    time.Sunday,
	"monday":    time.Monday,
	"tuesday":   time.Tuesday,
	"wednesday": time.Wednesday,
	"thursday":  time.Thursday,
	"friday":    time.Friday,
	"saturday":  time.Saturday,
}

// dateLayouts are tried, in order, for absolute expressions. " at " has
// already been collapsed to a single space by the caller.
var dateLayouts = []struct {
	layout  string
	hasTime bool
	hasYear bool
}{
	{"2006-01-02 15:04", true, true},
	{"2006-01-02T15:04", true, true},
	{"2006-01-02", false, true},
	{"Jan 2 2006 3:04pm", true, true},
	{"Jan 2 2006 3pm", true, true},
	{"Jan 2 2006", false, true},
	{"Jan 2 3:04pm", true, false},
	{"Jan 2 3pm", true, false},
	{"Jan 2", false, false},
	{"2 Jan 3:04pm", true, false},
	{"2 Jan 3pm", true, false},
	{"2 Jan", false, false},
	{"January 2", false, false},
	{"2 January", false, false},
}

// defaultHour is assumed for date-only expressions ("jan 2", "on friday").
const defaultHour = 9

// Resolve converts a free-text time expression into an absolute instant
// strictly after now. The location of now anchors all interpretation.
func Resolve(input string, now time.Time) (time.Time, error) {
	trimmed := strings.TrimSpace(input)
	if trimmed == "" {
		return time.Time{}, &ParseError{Input: input}
	}

	lowered := strings.ToLower(trimmed)
	candidates := []string{Normalize(trimmed)}
	if lowered != candidates[0] {
		candidates = append(candidates, lowered)
	}

	resolved, found := time.Time{}, false
	interpreted, interpretedOK := time.Time{}, false

stages:
	for _, candidate := range candidates {
		for _, pref := range []preference{preferNone, preferCurrent, preferFuture} {
			t, ok := parseNatural(candidate, now, pref)
			if !ok {
				continue
			}
			if !interpretedOK {
				// Remembered for the past-time report below.
				interpreted, interpretedOK = t, true
			}
			if t.After(now) {
				resolved, found = t, true
				break stages
			}
		}
	}

	if !found {
		if t, ok := parseClockFallback(lowered, now); ok {
			resolved, found = t, true
		}
	}

	if !found {
		if interpretedOK {
			return time.Time{}, &PastTimeError{Interpreted: interpreted, Now: now}
		}
		return time.Time{}, &ParseError{Input: input}
	}
	if !resolved.After(now.Add(time.Second)) {
		return time.Time{}, &PastTimeError{Interpreted: resolved, Now: now}
	}
	return resolved, nil
}

// Normalize rewrites common phrasings into the canonical "in N units" form:
// leading "the next "/"next " becomes "in ", "mins" becomes "minutes", bare
// "hour"/"minute" becomes a one-unit duration, and bare durations gain the
// "in " prefix.
func Normalize(input string) string {
	s := strings.ToLower(strings.TrimSpace(input))
	s = strings.Join(strings.Fields(s), " ")

	switch {
	case strings.HasPrefix(s, "the next "):
		s = "in " + s[len("the next "):]
	case strings.HasPrefix(s, "next "):
		s = "in " + s[len("next "):]
	}

	switch s {
	case "hour", "an hour", "in an hour":
		return "in 1 hour"
	case "minute", "a minute", "in a minute":
		return "in 1 minute"
	case "half an hour", "in half an hour":
		return "in 30 minutes"
	}

	if bareDurRe.MatchString(s) {
		s = "in " + s
	}

	s = strings.ReplaceAll(s, " mins", " minutes")
	s = strings.ReplaceAll(s, " min ", " minutes ")
	if strings.HasSuffix(s, " min") {
		s = s[:len(s)-4] + " minutes"
	}

	return s
}

// parseNatural interprets one expression under one preference setting.
func parseNatural(s string, now time.Time, pref preference) (time.Time, bool) {
	if m := relativeRe.FindStringSubmatch(s); m != nil {
		n, err := strconv.Atoi(m[1])
		if err != nil || n <= 0 {
			return time.Time{}, false
		}
		return now.Add(time.Duration(n) * unitDuration(m[2])), true
	}

	if m := tomorrowRe.FindStringSubmatch(s); m != nil {
		tomorrow := now.AddDate(0, 0, 1)
		if m[1] == "" {
			// Bare "tomorrow": same clock time, next day.
			return tomorrow, true
		}
		hour, minute, ok := clockFrom(m[1], m[2], m[3])
		if !ok {
			return time.Time{}, false
		}
		return dateAt(tomorrow, hour, minute, now.Location()), true
	}

	if m := todayRe.FindStringSubmatch(s); m != nil {
		if m[2] == "" {
			if m[1] == "tonight" {
				return dateAt(now, 21, 0, now.Location()), true
			}
			return time.Time{}, false
		}
		hour, minute, ok := clockFrom(m[2], m[3], m[4])
		if !ok {
			return time.Time{}, false
		}
		return dateAt(now, hour, minute, now.Location()), true
	}

	if m := weekdayRe.FindStringSubmatch(s); m != nil {
		target := weekdays[m[1]]
		hour, minute := defaultHour, 0
		if m[2] != "" {
			var ok bool
			hour, minute, ok = clockFrom(m[2], m[3], m[4])
			if !ok {
				return time.Time{}, false
			}
		}
		days := (int(target) - int(now.Weekday()) + 7) % 7
		if days == 0 && pref != preferCurrent {
			days = 7
		}
		t := dateAt(now.AddDate(0, 0, days), hour, minute, now.Location())
		if pref == preferFuture && !t.After(now) {
			t = t.AddDate(0, 0, 7)
		}
		return t, true
	}

	if m := clockRe.FindStringSubmatch(s); m != nil {
		hour, minute, ok := clockFrom(m[1], m[2], m[3])
		if !ok {
			return time.Time{}, false
		}
		t := dateAt(now, hour, minute, now.Location())
		if pref == preferFuture && !t.After(now) {
			t = t.AddDate(0, 0, 1)
		}
		return t, true
	}

	return parseAbsolute(s, now, pref)
}

// parseAbsolute tries the fixed date layouts.
func parseAbsolute(s string, now time.Time, pref preference) (time.Time, bool) {
	s = strings.ReplaceAll(s, " at ", " ")
	for _, dl := range dateLayouts {
		parsed, err := time.ParseInLocation(dl.layout, s, now.Location())
		if err != nil {
			continue
		}

		year := parsed.Year()
		if !dl.hasYear {
			year = now.Year()
		}
		hour, minute := parsed.Hour(), parsed.Minute()
		if !dl.hasTime {
			hour, minute = defaultHour, 0
		}

		t := time.Date(year, parsed.Month(), parsed.Day(), hour, minute, 0, 0, now.Location())
		if pref == preferFuture && !t.After(now) && !dl.hasYear {
			t = t.AddDate(1, 0, 0)
		}
		return t, true
	}
	return time.Time{}, false
}

// parseClockFallback is the last-resort stage for bare clock times of the
// form H[:MM][am|pm]. A time already past today rolls to tomorrow.
func parseClockFallback(s string, now time.Time) (time.Time, bool) {
	m := clockRe.FindStringSubmatch(s)
	if m == nil {
		return time.Time{}, false
	}
	hour, minute, ok := clockFrom(m[1], m[2], m[3])
	if !ok {
		return time.Time{}, false
	}
	t := dateAt(now, hour, minute, now.Location())
	if !t.After(now) {
		t = t.AddDate(0, 0, 1)
	}
	return t, true
}

func unitDuration(unit string) time.Duration {
	switch unit {
	case "minute", "minutes", "min", "mins":
		return time.Minute
	case "hour", "hours":
		return time.Hour
	case "day", "days":
		return 24 * time.Hour
	case "week", "weeks":
		return 7 * 24 * time.Hour
	}
	return 0
}

// clockFrom converts matched hour/minute/meridiem strings into a 24h clock.
func clockFrom(hourStr, minuteStr, meridiem string) (hour, minute int, ok bool) {
	hour, err := strconv.Atoi(hourStr)
	if err != nil {
		return 0, 0, false
	}
	if minuteStr != "" {
		minute, err = strconv.Atoi(minuteStr)
		if err != nil || minute > 59 {
			return 0, 0, false
		}
	}

	switch meridiem {
	case "am":
		if hour < 1 || hour > 12 {
			return 0, 0, false
		}
		if hour == 12 {
			hour = 0
		}
	case "pm":
		if hour < 1 || hour > 12 {
			return 0, 0, false
		}
		if hour != 12 {
			hour += 12
		}
	default:
		if hour > 23 {
			return 0, 0, false
		}
	}
	return hour, minute, true
}

func dateAt(day time.Time, hour, minute int, loc *time.Location) time.Time {
	return time.Date(day.Year(), day.Month(), day.Day(), hour, minute, 0, 0, loc)
}
