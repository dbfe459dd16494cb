package cache

import (
	"fmt"
	"strings"
)

// Key builds a deterministic cache key from an operation name and its
// parameters, e.g. Key("blogs", 0, 10) == "blogs_0_10".
func Key(op string, params ...any) string {
	if len(params) == 0 {
		return op
	}
	parts := make([]string, 0, len(params)+1)
	parts = append(parts, op)
	for _, p := range params {
		parts = append(parts, fmt.Sprint(p))
	}
	return strings.Join(parts, "_")
}

// Prefix returns the prefix shared by every key built with Key(op, ...).
func Prefix(op string) string {
	return op + "_"
}
