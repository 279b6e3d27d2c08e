package ir

import "sort"

// Deterministic ordering is a cross-cutting contract: every code path that
// emits into a report goes through these sorts, and nowhere else re-derives
// them.

// SortWarnings sorts w in place by (severity ordinal, object name, message).
// The order is total and stable across runs for the same input.
func SortWarnings(w []Warning) {
	sort.SliceStable(w, func(i, j int) bool {
		if w[i].Severity.Ordinal() != w[j].Severity.Ordinal() {
			return w[i].Severity.Ordinal() < w[j].Severity.Ordinal()
		}
		if w[i].Object != w[j].Object {
			return w[i].Object < w[j].Object
		}
		return w[i].Message < w[j].Message
	})
}

// CanonicalManualSteps deduplicates steps on (object name, action), keeping
// the first occurrence, then sorts by (object name, action).
func CanonicalManualSteps(steps []ManualStep) []ManualStep {
	type key struct{ object, action string }
	seen := make(map[key]bool, len(steps))
	out := make([]ManualStep, 0, len(steps))
	for _, s := range steps {
		k := key{s.Object, s.Action}
		if seen[k] {
			continue
		}
		seen[k] = true
		out = append(out, s)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Object != out[j].Object {
			return out[i].Object < out[j].Object
		}
		return out[i].Action < out[j].Action
	})
	return out
}

// SortedKeys returns the keys of m in ascending order.
func SortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// SortNames sorts object names ascending; the shared order for table and
// object listings.
func SortNames(names []string) {
	sort.Strings(names)
}
