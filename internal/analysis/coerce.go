package analysis

import (
	"bytes"
	"encoding/json"
	"math"
	"regexp"
	"strconv"
	"strings"
)

// Model replies are decoded into the flex types below rather than straight
// into domain structs. None of them ever return a decode error: a value of
// the wrong shape is recorded as missing and resolved later by defaulting,
// so one odd field cannot sink an otherwise usable object.

var leadingNumber = regexp.MustCompile(`^[-+]?\d+(?:\.\d+)?`)

type flexNumber struct {
	value float64
	ok    bool
}

func (n *flexNumber) UnmarshalJSON(b []byte) error {
	*n = flexNumber{}
	b = bytes.TrimSpace(b)
	if len(b) == 0 || string(b) == "null" {
		return nil
	}
	var f float64
	if err := json.Unmarshal(b, &f); err == nil {
		n.value, n.ok = f, true
		return nil
	}
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return nil
	}
	s = strings.ReplaceAll(strings.TrimSpace(s), ",", "")
	m := leadingNumber.FindString(s)
	if m == "" {
		return nil
	}
	if f, err := strconv.ParseFloat(m, 64); err == nil {
		n.value, n.ok = f, true
	}
	return nil
}

func (n flexNumber) present() bool {
	return n.ok && !math.IsNaN(n.value) && !math.IsInf(n.value, 0)
}

func (n flexNumber) or(def float64) float64 {
	if !n.present() {
		return def
	}
	return n.value
}

type flexString struct {
	value string
	ok    bool
}

func (s *flexString) UnmarshalJSON(b []byte) error {
	*s = flexString{}
	var str string
	if err := json.Unmarshal(b, &str); err == nil {
		str = strings.TrimSpace(str)
		s.value, s.ok = str, str != ""
		return nil
	}
	var f float64
	if err := json.Unmarshal(b, &f); err == nil {
		s.value, s.ok = strconv.FormatFloat(f, 'f', -1, 64), true
	}
	return nil
}

func (s flexString) or(def string) string {
	if !s.ok {
		return def
	}
	return s.value
}

// flexStrings accepts a list of strings or of {"name": ...} objects. A bare
// string is split on commas.
type flexStrings struct {
	values []string
	ok     bool
}

func (l *flexStrings) UnmarshalJSON(b []byte) error {
	*l = flexStrings{}
	var raw []json.RawMessage
	if err := json.Unmarshal(b, &raw); err != nil {
		var single string
		if err := json.Unmarshal(b, &single); err != nil {
			return nil
		}
		l.values, l.ok = nonBlank(strings.Split(single, ",")), true
		return nil
	}
	out := make([]string, 0, len(raw))
	for _, item := range raw {
		var s flexString
		_ = s.UnmarshalJSON(item)
		if !s.ok {
			var named struct {
				Name flexString `json:"name"`
			}
			if err := json.Unmarshal(item, &named); err == nil {
				s = named.Name
			}
		}
		if s.ok {
			out = append(out, s.value)
		}
	}
	l.values, l.ok = out, true
	return nil
}

func (l flexStrings) or(def []string) []string {
	if !l.ok {
		return cloneStrings(def)
	}
	return l.values
}

// flexList decodes a JSON array element by element; elements that fail to
// decode are dropped. A non-array value is recorded as missing.
type flexList[T any] struct {
	items []T
	ok    bool
}

func (l *flexList[T]) UnmarshalJSON(b []byte) error {
	*l = flexList[T]{}
	var raw []json.RawMessage
	if err := json.Unmarshal(b, &raw); err != nil {
		return nil
	}
	out := make([]T, 0, len(raw))
	for _, item := range raw {
		var v T
		if err := json.Unmarshal(item, &v); err == nil {
			out = append(out, v)
		}
	}
	l.items, l.ok = out, true
	return nil
}

func nonBlank(in []string) []string {
	out := make([]string, 0, len(in))
	for _, s := range in {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}

func cloneStrings(in []string) []string {
	out := make([]string, len(in))
	copy(out, in)
	return out
}

func nonNegative(v float64) float64 {
	if v < 0 || math.IsNaN(v) {
		return 0
	}
	return v
}

func clamp(v, lo, hi float64) float64 {
	if math.IsNaN(v) {
		return lo
	}
	return math.Max(lo, math.Min(hi, v))
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func ptr(v float64) *float64 {
	return &v
}
