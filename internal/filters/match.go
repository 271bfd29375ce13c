package filters

import (
	"cmp"
	"fmt"
	"strconv"
	"strings"
	"time"

	"crm_search_backend/internal/entities"
	"crm_search_backend/internal/search/textmatch"
)

const dateLayout = "2006-01-02"

// MatchAll reports whether rec satisfies every condition.
func MatchAll(conditions []Condition, rec entities.Record) bool {
	for _, c := range conditions {
		if !c.Matches(rec) {
			return false
		}
	}
	return true
}

// Matches reports whether rec satisfies c. Incomplete conditions and unknown
// attributes match everything.
func (c Condition) Matches(rec entities.Record) bool {
	if !c.IsComplete() {
		return true
	}
	attr, ok := rec.Attribute(c.Field)
	if !ok {
		return true
	}

	switch c.Op {
	case OpEquals:
		return equalValues(attr, c.Value)
	case OpNotEquals:
		return !equalValues(attr, c.Value)
	case OpContains:
		return strings.Contains(fold(attr), fold(c.Value))
	case OpNotContains:
		return !strings.Contains(fold(attr), fold(c.Value))
	case OpStartsWith:
		return strings.HasPrefix(fold(attr), fold(c.Value))
	case OpEndsWith:
		return strings.HasSuffix(fold(attr), fold(c.Value))
	case OpIn:
		return inList(attr, c.Value)
	case OpNotIn:
		return !inList(attr, c.Value)
	case OpIs:
		want, ok := toBool(c.Value)
		got, _ := attr.(bool)
		return ok && got == want
	case OpBetween:
		return between(attr, c.Value)
	case OpGreater:
		n, ok := compareTo(attr, c.Value, false)
		return ok && n > 0
	case OpAfter:
		n, ok := compareTo(attr, c.Value, true)
		return ok && n > 0
	case OpGreaterEq:
		n, ok := compareTo(attr, c.Value, false)
		return ok && n >= 0
	case OpLess, OpBefore:
		n, ok := compareTo(attr, c.Value, false)
		return ok && n < 0
	case OpLessEq:
		n, ok := compareTo(attr, c.Value, false)
		return ok && n <= 0
	case OpOn:
		return sameDay(attr, c.Value)
	}
	return true
}

func fold(v any) string {
	switch val := v.(type) {
	case nil:
		return ""
	case string:
		return textmatch.NormalizeForCompare(val)
	default:
		return textmatch.NormalizeForCompare(fmt.Sprint(val))
	}
}

func equalValues(attr, want any) bool {
	switch a := attr.(type) {
	case float64, time.Time:
		n, ok := compareTo(a, want, false)
		return ok && n == 0
	case bool:
		b, ok := toBool(want)
		return ok && a == b
	default:
		return fold(attr) == fold(want)
	}
}

func inList(attr, list any) bool {
	needle := fold(attr)
	for _, item := range toList(list) {
		if fold(item) == needle {
			return true
		}
	}
	return false
}

func toList(v any) []any {
	switch list := v.(type) {
	case []any:
		return list
	case []string:
		out := make([]any, len(list))
		for i, s := range list {
			out[i] = s
		}
		return out
	case nil:
		return nil
	default:
		return []any{list}
	}
}

func between(attr, bounds any) bool {
	list := toList(bounds)
	if len(list) != 2 {
		return false
	}
	if isBlank(list[0]) && isBlank(list[1]) {
		return true
	}
	if !isBlank(list[0]) {
		n, ok := compareTo(attr, list[0], false)
		if !ok || n < 0 {
			return false
		}
	}
	if !isBlank(list[1]) {
		n, ok := compareTo(attr, list[1], true)
		if !ok || n > 0 {
			return false
		}
	}
	return true
}

// compareTo orders attr against bound. Numbers compare numerically and times
// chronologically; a date-only bound means the start of that day, or its
// last instant when endOfDay is set.
func compareTo(attr, bound any, endOfDay bool) (int, bool) {
	switch a := attr.(type) {
	case float64:
		b, ok := toFloat(bound)
		if !ok {
			return 0, false
		}
		return cmp.Compare(a, b), true
	case time.Time:
		b, dateOnly, ok := toTime(bound)
		if !ok {
			return 0, false
		}
		if dateOnly && endOfDay {
			b = b.Add(24*time.Hour - time.Nanosecond)
		}
		return a.Compare(b), true
	}
	return 0, false
}

func sameDay(attr, want any) bool {
	a, ok := attr.(time.Time)
	if !ok {
		return false
	}
	b, _, ok := toTime(want)
	if !ok {
		return false
	}
	return a.UTC().Format(dateLayout) == b.UTC().Format(dateLayout)
}

func isBlank(v any) bool {
	if v == nil {
		return true
	}
	s, ok := v.(string)
	return ok && strings.TrimSpace(s) == ""
}

func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(n), 64)
		return f, err == nil
	}
	return 0, false
}

func toTime(v any) (time.Time, bool, bool) {
	switch t := v.(type) {
	case time.Time:
		return t, false, true
	case string:
		s := strings.TrimSpace(t)
		if d, err := time.Parse(dateLayout, s); err == nil {
			return d, true, true
		}
		if ts, err := time.Parse(time.RFC3339, s); err == nil {
			return ts, false, true
		}
	}
	return time.Time{}, false, false
}

func toBool(v any) (bool, bool) {
	switch b := v.(type) {
	case bool:
		return b, true
	case string:
		parsed, err := strconv.ParseBool(strings.TrimSpace(b))
		return parsed, err == nil
	}
	return false, false
}
