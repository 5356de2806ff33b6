package format

import (
	"fmt"
	"strconv"
	"time"

	"github.com/olgasafonova/gramps-mcp-server/internal/gramps"
	"github.com/spf13/cast"
)

// DateUnknown is rendered for missing or unusable dates.
const DateUnknown = "date unknown"

var modifierPrefix = map[int]string{
	1: "before ",
	2: "after ",
	3: "about ",
	4: "between ",
	5: "from ",
	7: "from ",
	8: "to ",
}

var qualitySuffix = map[int]string{
	1: " (estimated)",
	2: " (calculated)",
}

// Date renders a Gramps date object. A preformatted "string" field wins;
// otherwise dateval [day, month, year, slash] is rendered as "02 January 1850",
// "January 1850" or "1850" with the modifier and quality applied.
func Date(d gramps.Object) string {
	if len(d) == 0 {
		return DateUnknown
	}
	if s := d.Str("string"); s != "" {
		return s
	}

	dateval := d.List("dateval")
	if len(dateval) < 3 {
		return DateUnknown
	}
	day, month, year := cast.ToInt(dateval[0]), cast.ToInt(dateval[1]), cast.ToInt(dateval[2])
	if year <= 0 {
		return DateUnknown
	}

	base := strconv.Itoa(year)
	switch {
	case day > 0 && month > 0:
		if validDay(year, month, day) {
			base = fmt.Sprintf("%02d %s %d", day, time.Month(month), year)
		}
	case month > 0:
		if month <= 12 && year <= 9999 {
			base = fmt.Sprintf("%s %d", time.Month(month), year)
		}
	}

	return modifierPrefix[d.Int("modifier")] + base + qualitySuffix[d.Int("quality")]
}

func validDay(year, month, day int) bool {
	if month > 12 || year > 9999 {
		return false
	}
	t := time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)
	return t.Day() == day && int(t.Month()) == month
}
