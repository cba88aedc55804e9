package transaction

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// ParseDate reads a D/M/YY-family date ("5/3/24", "05/03/2024", "5.3.24", "5-3-2024").
// An ISO "2024-03-05" is also accepted. Two-digit years below 70 land in the 2000s.
func ParseDate(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}

	// Drop a trailing time component ("05/03/2024 00:00").
	if i := strings.IndexByte(s, ' '); i > 0 {
		s = s[:i]
	}

	parts := strings.FieldsFunc(s, func(r rune) bool {
		return r == '/' || r == '.' || r == '-'
	})
	if len(parts) != 3 {
		return time.Time{}, false
	}

	nums := make([]int, 3)

	for i, p := range parts {
		n, err := strconv.Atoi(p)
		if err != nil || n < 0 {
			return time.Time{}, false
		}

		nums[i] = n
	}

	day, month, year := nums[0], nums[1], nums[2]
	if len(parts[0]) == 4 {
		year, month, day = nums[0], nums[1], nums[2]
	} else if len(parts[2]) <= 2 {
		year = ExpandYear(year)
	}

	if month < 1 || month > 12 || day < 1 || day > 31 {
		return time.Time{}, false
	}

	t := time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)
	if t.Day() != day {
		return time.Time{}, false
	}

	return t, true
}

// ExpandYear turns a two-digit year into a four-digit one.
func ExpandYear(yy int) int {
	if yy >= 100 {
		return yy
	}

	if yy < 70 {
		return 2000 + yy
	}

	return 1900 + yy
}

// FormatDate renders t as D/M/YY, the internal date format.
func FormatDate(t time.Time) string {
	return fmt.Sprintf("%d/%d/%02d", t.Day(), int(t.Month()), t.Year()%100)
}

// DaysApart returns the absolute number of whole days between a and b.
func DaysApart(a, b time.Time) int {
	d := int(a.Sub(b).Hours() / 24)
	if d < 0 {
		return -d
	}

	return d
}
