// Package rewrite maps absolute backend media URLs inside decoded JSON
// documents onto the gateway's own media path.
package rewrite

import "strings"

const mediaSegment = "/media/"

// Rewriter replaces "{origin}/media/" with a gateway-relative prefix in
// every string leaf of a decoded JSON value.
type Rewriter struct {
	needles []string
	prefix  string
}

// New builds a Rewriter for the given origins (scheme://host[:port]) and
// replacement prefix (for example "/api/media/").
func New(origins []string, prefix string) *Rewriter {
	needles := make([]string, 0, len(origins))
	for _, origin := range origins {
		origin = strings.TrimRight(origin, "/")
		if origin == "" {
			continue
		}
		needles = append(needles, origin+mediaSegment)
	}
	return &Rewriter{needles: needles, prefix: prefix}
}

// Rewrite returns a copy of v with matching string leaves replaced.
//
// v is expected to come from encoding/json decoding into any, so it is
// acyclic. Maps and slices are rebuilt, never modified in place; numbers
// (float64 or json.Number), booleans and nil are returned as is.
func (r *Rewriter) Rewrite(v any) any {
	switch t := v.(type) {
	case string:
		return r.String(t)
	case []any:
		out := make([]any, len(t))
		for i, item := range t {
			out[i] = r.Rewrite(item)
		}
		return out
	case map[string]any:
		out := make(map[string]any, len(t))
		for k, item := range t {
			out[k] = r.Rewrite(item)
		}
		return out
	default:
		return v
	}
}

// String rewrites a single string. Passes repeat until nothing changes, since
// a replacement can join the text before it into a new match. Each needle
// carries one "://", so with a prefix free of "://" every pass that changes s
// removes at least one and the loop is bounded by their count.
func (r *Rewriter) String(s string) string {
	for range strings.Count(s, "://") + 1 {
		next := s
		for _, needle := range r.needles {
			if strings.Contains(next, needle) {
				next = strings.ReplaceAll(next, needle, r.prefix)
			}
		}
		if next == s {
			break
		}
		s = next
	}
	return s
}
