package validate

import (
	"regexp"
	"strconv"
	"strings"

	"parkshare/internal/dates"
)

var (
	reSpot = regexp.MustCompile(`^PP?[0-9]{2}$`)
	reCode = regexp.MustCompile(`^[A-Z0-9]{4,8}$`)
)

// Day parses a strict YYYY-MM-DD form value.
func Day(s string) (dates.Day, bool) {
	d, err := dates.Parse(strings.TrimSpace(s))
	if err != nil {
		return dates.Day{}, false
	}
	return d, true
}

// SpotName normalizes and checks a spot display name (P01..P60, PP01..PP60
// shape; existence is checked against the store).
func SpotName(s string) (string, bool) {
	s = strings.ToUpper(strings.TrimSpace(s))
	return s, reSpot.MatchString(s)
}

// OwnerCode normalizes a presented owner code.
func OwnerCode(s string) (string, bool) {
	s = strings.ToUpper(strings.TrimSpace(s))
	return s, reCode.MatchString(s)
}

// Weekdays converts the posted weekday values into a Monday=0..Sunday=6
// set. Unparseable or out-of-range entries are dropped; ok is false when
// nothing valid remains.
func Weekdays(vals []string) (map[int]bool, bool) {
	set := map[int]bool{}
	for _, v := range vals {
		n, err := strconv.Atoi(strings.TrimSpace(v))
		if err != nil || n < 0 || n > 6 {
			continue
		}
		set[n] = true
	}
	return set, len(set) > 0
}

// Mode narrows the series booking mode; anything unrecognized means hard.
func Mode(s string) string {
	if strings.TrimSpace(s) == "soft" {
		return "soft"
	}
	return "hard"
}

// Reason trims a free-text cancellation reason and caps it at 200 chars.
func Reason(s string) string {
	s = strings.TrimSpace(s)
	runes := []rune(s)
	if len(runes) > 200 {
		runes = runes[:200]
	}
	return string(runes)
}

// Page parses a non-negative page index, defaulting to 0.
func Page(s string) int {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil || n < 0 {
		return 0
	}
	return n
}
