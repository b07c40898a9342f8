package dataset

import (
	"math"
	"regexp"
	"strconv"
	"strings"
	"time"
)

var (
	commaGroups = regexp.MustCompile(`^[+-]?\d{1,3}(,\d{3})+$`)
	dotGroups   = regexp.MustCompile(`^[+-]?\d{1,3}(\.\d{3}){2,}$`)
	// Indian lakh/crore grouping: "1,03,456", "12,34,567".
	lakhGroups  = regexp.MustCompile(`^[+-]?\d{1,2}(,\d{2})*,\d{3}$`)
)

// ParseNumber coerces a raw field to a float. It strips percent signs,
// non-breaking spaces and thousands separators ("12,345" is 12345) and
// accepts comma-decimal locales ("3,5") and scientific notation.
// Empty or malformed input reports false.
func ParseNumber(s string, opt LoadOptions) (float64, bool) {
	raw := strings.TrimSpace(s)
	if strings.Contains(raw, "%") {
		raw = strings.ReplaceAll(raw, "%", "")
	}
	raw = strings.ReplaceAll(raw, "\u00A0", " ")
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return 0, false
	}
	dec := opt.DecimalSeparator
	thou := opt.ThousandsSeparator
	if dec == 0 {
		dec, thou = sniffSeparators(raw, thou)
	}
	if thou == 0 {
		for _, sep := range []rune{',', '.', ' ', '\''} {
			if sep != dec {
				raw = strings.ReplaceAll(raw, string(sep), "")
			}
		}
	} else if thou != dec {
		raw = strings.ReplaceAll(raw, string(thou), "")
	}
	if dec != '.' {
		raw = strings.ReplaceAll(raw, string(dec), ".")
	}
	f, err := strconv.ParseFloat(raw, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}

// sniffSeparators guesses the decimal separator of one value. When both ','
// and '.' appear the last one is the decimal mark. A lone separator is a
// decimal mark unless it splits the digits into groups of three, or into
// lakh groups of two ending in three.
func sniffSeparators(raw string, thou rune) (dec, th rune) {
	cpos := strings.LastIndex(raw, ",")
	dpos := strings.LastIndex(raw, ".")
	switch {
	case cpos >= 0 && dpos >= 0:
		if cpos > dpos {
			return ',', '.'
		}
		return '.', ','
	case cpos >= 0:
		if thou == ',' || commaGroups.MatchString(raw) || lakhGroups.MatchString(raw) {
			return '.', ','
		}
		return ',', thou
	case dpos >= 0 && (thou == '.' || dotGroups.MatchString(raw)):
		return ',', '.'
	default:
		return '.', thou
	}
}

func parseTimeMaybe(s string) (time.Time, bool) {
	layouts := []string{
		time.RFC3339, "2006-01-02", "2006/01/02", "02/01/2006", "01/02/2006",
		"2006-01-02 15:04", "2006-01-02 15:04:05", "1/2/2006 15:04", "1/2/2006 15:04:05",
	}
	for _, l := range layouts {
		if t, err := time.Parse(l, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

func normalizeUnit(x float64, unit string, opt LoadOptions) (float64, string, bool) {
	if opt.UnitTargets == nil {
		return x, unit, false
	}
	target, ok := opt.UnitTargets[unit]
	if !ok {
		return x, unit, false
	}
	switch unit + ">" + target {
	case "g/L>mg/L":
		return x * 1000, target, true
	case "ug/L>mg/L":
		return x / 1000, target, true
	case "°F>°C":
		return (x - 32) * 5.0 / 9.0, target, true
	default:
		return x, unit, false
	}
}

var unitPatterns = []struct {
	re   *regexp.Regexp
	pick int
}{
	{regexp.MustCompile(`^(.*)\s*\(([^)]+)\)\s*$`), 2},  // e.g., Alpha (%)
	{regexp.MustCompile(`^(.*)\s*\[([^\]]+)\]\s*$`), 2}, // e.g., Mass [mg/L]
	{regexp.MustCompile(`^(.*?)[_\s-]+(mg/L|g/L|ug/L|°[CF]|Brix|%|ppm|ppb)$`), 2},
}

// SplitUnits separates a trailing unit annotation from a column header.
func SplitUnits(name string) (clean string, unit string) {
	s := strings.TrimSpace(name)
	for _, p := range unitPatterns {
		if m := p.re.FindStringSubmatch(s); len(m) >= 3 {
			base := strings.TrimSpace(m[1])
			u := strings.TrimSpace(m[p.pick])
			if base != "" && u != "" {
				return base, u
			}
		}
	}
	return s, ""
}
