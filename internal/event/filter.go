package event

import "strings"

// Predicates for WithFilter. They narrow delivery inside one tag and never
// widen it: routing stays an exact tag match.

// FilterBySource accepts envelopes whose metadata source is source.
func FilterBySource(source string) FilterFunc {
	return FilterBySources(source)
}

// FilterBySources accepts envelopes from any of sources.
func FilterBySources(sources ...string) FilterFunc {
	set := make(map[string]struct{}, len(sources))
	for _, s := range sources {
		set[s] = struct{}{}
	}
	return func(env Envelope) bool {
		_, ok := set[env.Metadata.Source]
		return ok
	}
}

// FilterBySourcePrefix accepts envelopes with a non-empty source that
// starts with prefix.
func FilterBySourcePrefix(prefix string) FilterFunc {
	return func(env Envelope) bool {
		src := env.Metadata.Source
		return src != "" && strings.HasPrefix(src, prefix)
	}
}

// FilterExcludeSource drops envelopes from source.
func FilterExcludeSource(source string) FilterFunc {
	return FilterNot(FilterBySource(source))
}

// FilterByCorrelation accepts envelopes carrying the given correlation ID.
func FilterByCorrelation(id string) FilterFunc {
	return func(env Envelope) bool {
		return env.Metadata.CorrelationID == id
	}
}

// FilterPayload applies pred to payloads of type T. Other payloads are
// rejected.
func FilterPayload[T any](pred func(T) bool) FilterFunc {
	return func(env Envelope) bool {
		v, ok := env.Payload.(T)
		return ok && pred(v)
	}
}

// FilterAnd accepts when every filter does. No filters accept everything.
func FilterAnd(filters ...FilterFunc) FilterFunc {
	return func(env Envelope) bool {
		return !anyFilter(filters, env, false)
	}
}

// FilterOr accepts when at least one filter does. No filters reject
// everything.
func FilterOr(filters ...FilterFunc) FilterFunc {
	return func(env Envelope) bool {
		return anyFilter(filters, env, true)
	}
}

// FilterNot inverts f.
func FilterNot(f FilterFunc) FilterFunc {
	return func(env Envelope) bool {
		return !f(env)
	}
}

// anyFilter reports whether some filter returns want for env.
func anyFilter(filters []FilterFunc, env Envelope, want bool) bool {
	for _, f := range filters {
		if f(env) == want {
			return true
		}
	}
	return false
}
