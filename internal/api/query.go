package api

import (
	"fmt"
	"net/url"
	"reflect"
	"strings"
	"time"
)

// EncodeQuery converts loosely typed parameters into query values. Nil values
// (including nil pointers and empty slices) are omitted, slices are joined
// with commas, times are formatted as RFC 3339 and everything else is
// rendered with fmt.
func EncodeQuery(params map[string]any) url.Values {
	values := url.Values{}
	for key, raw := range params {
		if s, ok := queryString(raw); ok {
			values.Set(key, s)
		}
	}
	return values
}

func queryString(raw any) (string, bool) {
	switch v := raw.(type) {
	case nil:
		return "", false
	case string:
		return v, true
	case []string:
		if len(v) == 0 {
			return "", false
		}
		return strings.Join(v, ","), true
	case time.Time:
		if v.IsZero() {
			return "", false
		}
		return v.UTC().Format(time.RFC3339), true
	}

	rv := reflect.ValueOf(raw)
	switch rv.Kind() {
	case reflect.Pointer, reflect.Interface:
		if rv.IsNil() {
			return "", false
		}
		return queryString(rv.Elem().Interface())
	case reflect.Slice, reflect.Array:
		if rv.Len() == 0 {
			return "", false
		}
		parts := make([]string, 0, rv.Len())
		for i := 0; i < rv.Len(); i++ {
			if s, ok := queryString(rv.Index(i).Interface()); ok {
				parts = append(parts, s)
			}
		}
		if len(parts) == 0 {
			return "", false
		}
		return strings.Join(parts, ","), true
	case reflect.Map, reflect.Func, reflect.Chan:
		if rv.IsNil() {
			return "", false
		}
	}

	return fmt.Sprint(raw), true
}
