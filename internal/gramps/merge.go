package gramps

import (
	"strings"

	"github.com/spf13/cast"
)

// Merge applies changes onto a copy of existing. Keys ending in "_list" that
// already exist are extended rather than replaced, so an update can add a
// citation or event reference without dropping the ones already attached.
// New items whose "ref" (for reference objects) or value (for handle lists)
// is already present are skipped. Every other key is replaced.
func Merge(existing, changes Object) Object {
	merged := existing.Clone()
	if merged == nil {
		merged = Object{}
	}

	for key, value := range changes {
		newItems, isList := value.([]any)
		current, exists := existing[key]
		if !strings.HasSuffix(key, "_list") || !isList || !exists {
			merged[key] = cloneValue(value)
			continue
		}

		existingItems := AsList(cloneValue(current))
		merged[key] = mergeList(existingItems, AsList(cloneValue(newItems)))
	}
	return merged
}

func mergeList(existing, incoming []any) []any {
	out := make([]any, 0, len(existing)+len(incoming))
	out = append(out, existing...)

	if len(existing) == 0 || len(incoming) == 0 {
		return append(out, incoming...)
	}

	_, refFirst := refOf(existing[0])
	_, refNew := refOf(incoming[0])
	_, strFirst := existing[0].(string)
	_, strNew := incoming[0].(string)

	switch {
	case refFirst && refNew:
		seen := map[string]bool{}
		for _, item := range existing {
			if ref, ok := refOf(item); ok {
				seen[cast.ToString(ref)] = true
			}
		}
		for _, item := range incoming {
			if ref, ok := refOf(item); ok && !seen[cast.ToString(ref)] {
				out = append(out, item)
			} else if !ok && AsObject(item) != nil {
				out = append(out, item)
			}
		}
	case strFirst && strNew:
		seen := map[string]bool{}
		for _, item := range existing {
			if s, ok := item.(string); ok {
				seen[s] = true
			}
		}
		for _, item := range incoming {
			if s, ok := item.(string); ok && seen[s] {
				continue
			}
			out = append(out, item)
		}
	default:
		out = append(out, incoming...)
	}
	return out
}

// refOf reports whether item is an object carrying a "ref" key.
func refOf(item any) (any, bool) {
	obj := AsObject(item)
	if obj == nil {
		return nil, false
	}
	ref, ok := obj["ref"]
	return ref, ok
}
