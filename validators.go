package medial

import (
	"fmt"
	"reflect"
	"regexp"
	"strconv"
	"sync"
	"unicode/utf8"
)

// Builtin validators, addressable by name from a config file.
var validators = map[string]ValidatorFunc{
	"oneof":    OneOf,
	"maxlen":   MaxLen,
	"pattern":  Pattern,
	"nonempty": NonEmpty,
}

// LookupValidator returns the builtin validator registered under name.
func LookupValidator(name string) (ValidatorFunc, bool) {
	v, ok := validators[name]
	return v, ok
}

// OneOf accepts a value whose text form equals one of params, which must
// be a slice. nil is accepted.
func OneOf(value any, params any) bool {
	if value == nil {
		return true
	}

	rv := reflect.ValueOf(params)
	if rv.Kind() != reflect.Slice && rv.Kind() != reflect.Array {
		return false
	}
	allowed := make([]any, rv.Len())
	for i := range allowed {
		allowed[i] = rv.Index(i).Interface()
	}

	return SliceContains(Map(allowed, textOf), textOf(value))
}

// MaxLen accepts nil or a value whose text form has at most params
// characters.
func MaxLen(value any, params any) bool {
	if value == nil {
		return true
	}
	n, err := strconv.Atoi(textOf(params))
	if err != nil {
		return false
	}
	return utf8.RuneCountInString(textOf(value)) <= n
}

var (
	patternsMu sync.Mutex
	patterns   = map[string]*regexp.Regexp{}
)

// Pattern accepts nil or a value whose text form matches the regular
// expression params.
func Pattern(value any, params any) bool {
	if value == nil {
		return true
	}

	expr := textOf(params)

	patternsMu.Lock()
	re, ok := patterns[expr]
	if !ok {
		var err error
		if re, err = regexp.Compile(expr); err != nil {
			patternsMu.Unlock()
			return false
		}
		patterns[expr] = re
	}
	patternsMu.Unlock()

	return re.MatchString(textOf(value))
}

// NonEmpty rejects nil and empty values.
func NonEmpty(value any, _ any) bool {
	return !isEmpty(value)
}

func textOf(v any) string {
	switch t := v.(type) {
	case string:
		return t
	case []byte:
		return string(t)
	default:
		return fmt.Sprint(v)
	}
}
