package agenda

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
)

var (
	numericDateRe = regexp.MustCompile(`(\d{1,2})[/\-](\d{1,2})`)
	spanishDateRe = regexp.MustCompile(`(\d{1,2})\s+de\s+(enero|febrero|marzo|abril|mayo|junio|julio|agosto|septiembre|octubre|noviembre|diciembre)`)
)

var spanishMonths = map[string]int{
	"enero": 1, "febrero": 2, "marzo": 3, "abril": 4,
	"mayo": 5, "junio": 6, "julio": 7, "agosto": 8,
	"septiembre": 9, "octubre": 10, "noviembre": 11, "diciembre": 12,
}

// NormalizeDate extracts a date reference from a free-text message and
// returns it as YYYY-MM-DD. Relative words are resolved against now; numeric
// and Spanish-month forms take year, the year the schedule was loaded with.
// The second return value is false when the message carries no recognizable date.
func NormalizeDate(message string, now time.Time, year int) (string, bool) {
	msg := strings.ToLower(message)

	// "pasado mañana" must win over its substring "mañana".
	switch {
	case strings.Contains(msg, "pasado mañana"):
		return now.AddDate(0, 0, 2).Format("2006-01-02"), true
	case strings.Contains(msg, "mañana"):
		return now.AddDate(0, 0, 1).Format("2006-01-02"), true
	case strings.Contains(msg, "hoy"):
		return now.Format("2006-01-02"), true
	}

	if m := numericDateRe.FindStringSubmatch(msg); m != nil {
		day, _ := strconv.Atoi(m[1])
		month, _ := strconv.Atoi(m[2])
		if month >= 1 && month <= 12 && day >= 1 && day <= 31 {
			return fmt.Sprintf("%04d-%02d-%02d", year, month, day), true
		}
	}

	if m := spanishDateRe.FindStringSubmatch(msg); m != nil {
		day, _ := strconv.Atoi(m[1])
		month := spanishMonths[m[2]]
		if day >= 1 && day <= 31 {
			return fmt.Sprintf("%04d-%02d-%02d", year, month, day), true
		}
	}

	return "", false
}
