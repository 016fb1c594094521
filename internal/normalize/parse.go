package normalize

import (
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/goccy/go-json"
)

// Значения фидов приходят из JSON: числа как float64 или json.Number, флаги как bool или "Y"/"N".

var timeLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

func parseFloat(raw any) (float64, bool) {
	switch v := raw.(type) {
	case float64:
		return v, !math.IsNaN(v) && !math.IsInf(v, 0)
	case float32:
		return float64(v), true
	case int:
		return float64(v), true
	case int64:
		return float64(v), true
	case json.Number:
		f, err := v.Float64()
		return f, err == nil
	case string:
		s := strings.ReplaceAll(strings.TrimSpace(v), ",", "")
		s = strings.TrimPrefix(s, "$")
		if s == "" {
			return 0, false
		}
		f, err := strconv.ParseFloat(s, 64)
		return f, err == nil
	}
	return 0, false
}

func parsePositiveFloat(raw any) (float64, bool) {
	v, ok := parseFloat(raw)
	return v, ok && v > 0
}

func parseNonNegativeFloat(raw any) (float64, bool) {
	v, ok := parseFloat(raw)
	return v, ok && v >= 0
}

func parsePositiveInt64(raw any) (int64, bool) {
	v, ok := parseFloat(raw)
	if !ok || v <= 0 {
		return 0, false
	}
	return int64(math.Round(v)), true
}

func parseNonNegativeInt(raw any) (int, bool) {
	v, ok := parseFloat(raw)
	if !ok || v < 0 {
		return 0, false
	}
	return int(math.Round(v)), true
}

func parseYear(raw any) (int, bool) {
	v, ok := parseNonNegativeInt(raw)
	return v, ok && v >= 1700 && v <= 2200
}

func parseLatitude(raw any) (float64, bool) {
	v, ok := parseFloat(raw)
	return v, ok && v != 0 && v >= -90 && v <= 90
}

func parseLongitude(raw any) (float64, bool) {
	v, ok := parseFloat(raw)
	return v, ok && v != 0 && v >= -180 && v <= 180
}

func parseBool(raw any) (bool, bool) {
	switch v := raw.(type) {
	case bool:
		return v, true
	case string:
		switch strings.ToLower(strings.TrimSpace(v)) {
		case "y", "yes", "true", "1":
			return true, true
		case "n", "no", "false", "0":
			return false, true
		}
	case float64:
		return v != 0, true
	}
	return false, false
}

// parseString обрезает пробелы и схлопывает повторяющиеся пробельные символы.
func parseString(raw any) (string, bool) {
	var s string
	switch v := raw.(type) {
	case string:
		s = v
	case json.Number:
		s = v.String()
	case float64:
		s = strconv.FormatFloat(v, 'f', -1, 64)
	default:
		return "", false
	}
	s = cleanText(s)
	return s, s != ""
}

func cleanText(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

func parseTime(raw any) (time.Time, bool) {
	switch v := raw.(type) {
	case time.Time:
		return v.UTC(), !v.IsZero()
	case string:
		s := strings.TrimSpace(v)
		for _, layout := range timeLayouts {
			if t, err := time.Parse(layout, s); err == nil {
				return t.UTC(), true
			}
		}
	}
	return time.Time{}, false
}
