package tools

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/tphakala/go-central"
)

// errBadArgument marks invalid tool input.
var errBadArgument = errors.New("invalid argument")

func stringArg(args map[string]any, key string) string {
	if v, ok := args[key].(string); ok {
		return strings.TrimSpace(v)
	}
	return ""
}

// intArg accepts JSON numbers (decoded as float64), ints and numeric strings.
func intArg(args map[string]any, key string) int {
	switch v := args[key].(type) {
	case float64:
		return int(v)
	case int:
		return v
	case int64:
		return int(v)
	case string:
		n, _ := strconv.Atoi(strings.TrimSpace(v))
		return n
	}
	return 0
}

func boolArg(args map[string]any, key string) (bool, bool) {
	switch v := args[key].(type) {
	case bool:
		return v, true
	case string:
		b, err := strconv.ParseBool(v)
		return b, err == nil
	}
	return false, false
}

// listArg accepts either an array of strings or a comma-separated string.
func listArg(args map[string]any, key string) []string {
	var parts []string
	switch v := args[key].(type) {
	case []any:
		for _, item := range v {
			if s, ok := item.(string); ok {
				parts = append(parts, s)
			}
		}
	case []string:
		parts = v
	case string:
		parts = strings.Split(v, ",")
	}

	var out []string
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func timeArg(args map[string]any, key string) (time.Time, error) {
	s := stringArg(args, key)
	if s == "" {
		return time.Time{}, nil
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %s must be an RFC 3339 timestamp", errBadArgument, key)
	}
	return t, nil
}

func pageOptions(args map[string]any) central.PageOptions {
	return central.PageOptions{
		Page:     intArg(args, "page"),
		PageSize: intArg(args, "page_size"),
		FromKey:  stringArg(args, "page_from_key"),
	}
}

// scope turns the tenant_id and api_host arguments into request options.
func scope(args map[string]any) []central.RequestOption {
	var opts []central.RequestOption
	if id := stringArg(args, "tenant_id"); id != "" {
		opts = append(opts, central.WithTenant(id))
	}
	if host := stringArg(args, "api_host"); host != "" {
		opts = append(opts, central.WithAPIHost(host))
	}
	return opts
}
