package clock

import (
	"fmt"
	"strconv"
	"strings"
)

// ParseTimeOfDay converts "HH:MM" or "HH:MM:SS" into a minute of the day.
// Seconds are truncated, so "08:00:59" is minute 480. Hours take one or two
// digits; minutes and seconds take exactly two.
func ParseTimeOfDay(text string) (TimeOfDay, error) {
	s := strings.TrimSpace(text)
	parts := strings.Split(s, ":")
	if len(parts) != 2 && len(parts) != 3 {
		return 0, &MalformedTimeError{Input: text, Reason: "expected HH:MM or HH:MM:SS"}
	}

	hour, err := parseField(parts[0], 1, 2)
	if err != nil {
		return 0, &MalformedTimeError{Input: text, Reason: "hour " + err.Error()}
	}
	minute, err := parseField(parts[1], 2, 2)
	if err != nil {
		return 0, &MalformedTimeError{Input: text, Reason: "minute " + err.Error()}
	}
	if len(parts) == 3 {
		second, err := parseField(parts[2], 2, 2)
		if err != nil {
			return 0, &MalformedTimeError{Input: text, Reason: "second " + err.Error()}
		}
		if second > 59 {
			return 0, &MalformedTimeError{Input: text, Reason: "second out of range"}
		}
	}

	if hour > 23 {
		return 0, &MalformedTimeError{Input: text, Reason: "hour out of range"}
	}
	if minute > 59 {
		return 0, &MalformedTimeError{Input: text, Reason: "minute out of range"}
	}
	return NewTimeOfDay(hour, minute), nil
}

// MustParseTimeOfDay is ParseTimeOfDay for literals known to be valid.
func MustParseTimeOfDay(text string) TimeOfDay {
	t, err := ParseTimeOfDay(text)
	if err != nil {
		panic(err)
	}
	return t
}

// ParsePunchTime parses optional punch text: "" is an absent punch.
func ParsePunchTime(text string) (PunchTime, error) {
	if strings.TrimSpace(text) == "" {
		return PunchTime{}, nil
	}
	t, err := ParseTimeOfDay(text)
	if err != nil {
		return PunchTime{}, err
	}
	return Punched(t), nil
}

func parseField(s string, minLen, maxLen int) (int, error) {
	if len(s) < minLen || len(s) > maxLen {
		return 0, fmt.Errorf("must have %d-%d digits", minLen, maxLen)
	}
	for _, c := range s {
		if c < '0' || c > '9' {
			return 0, fmt.Errorf("is not numeric")
		}
	}
	return strconv.Atoi(s)
}

// ParseDuration parses schedule text such as "08:48" as a duration. Unlike
// ParseTimeOfDay the hour part may exceed 23.
func ParseDuration(text string) (Duration, error) {
	s := strings.TrimSpace(text)
	parts := strings.Split(s, ":")
	if len(parts) != 2 {
		return 0, &MalformedTimeError{Input: text, Reason: "expected HH:MM"}
	}
	hours, err := parseField(parts[0], 1, 3)
	if err != nil {
		return 0, &MalformedTimeError{Input: text, Reason: "hours " + err.Error()}
	}
	minutes, err := parseField(parts[1], 2, 2)
	if err != nil || minutes > 59 {
		return 0, &MalformedTimeError{Input: text, Reason: "minutes out of range"}
	}
	return Duration(hours)*Hour + Duration(minutes), nil
}

// =============================================================================
// FORMATTING - presentation boundary only
// =============================================================================

// FormatDuration renders the magnitude of d as "Xh Ymin", e.g. "8h 0min".
// The sign is dropped; use FormatBalance when it matters.
func FormatDuration(d Duration) string {
	d = d.Abs()
	return fmt.Sprintf("%dh %dmin", int(d/Hour), int(d%Hour))
}

// FormatBalance renders a signed balance: "+1h 5min", "-0h 48min". Zero is
// "+0h 0min".
func FormatBalance(d Duration) string {
	if d < 0 {
		return "-" + FormatDuration(d)
	}
	return "+" + FormatDuration(d)
}

// FormatClock renders a duration as "HH:MM", the stored schedule form.
func FormatClock(d Duration) string {
	d = d.Abs()
	return fmt.Sprintf("%02d:%02d", int(d/Hour), int(d%Hour))
}
