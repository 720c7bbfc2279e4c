package slices

// Flatten merges a slice of slices into a single slice.
func Flatten[S ~[]E, E any](s []S) S {
	n := 0
	allNil := true
	for _, si := range s {
		n += len(si)
		allNil = allNil && si == nil
	}
	if allNil {
		return nil
	}
	rv := make(S, n)
	i := 0
	for _, si := range s {
		for _, e := range si {
			rv[i] = e
			i++
		}
	}
	return rv
}

// Filter returns a new slice holding the elements of s for which keep returns true, in order.
// The result is never nil.
func Filter[S ~[]E, E any](s S, keep func(E) bool) S {
	rv := make(S, 0, len(s))
	for _, e := range s {
		if keep(e) {
			rv = append(rv, e)
		}
	}
	return rv
}

// Unique returns a copy of s with duplicate elements removed, keeping only the first occurrence.
func Unique[S ~[]E, E comparable](s S) S {
	if s == nil {
		return nil
	}
	rv := make(S, 0)
	seen := make(map[E]bool)
	for _, v := range s {
		if !seen[v] {
			rv = append(rv, v)
			seen[v] = true
		}
	}
	return rv
}

// OrderedGroupByFunc groups the elements of s into separate slices by keyFunc(e).
// It also returns the keys, in order of first occurrence in s.
func OrderedGroupByFunc[S ~[]E, E any, K comparable](s S, keyFunc func(E) K) ([]K, map[K]S) {
	keys := make([]K, 0)
	groups := make(map[K]S)
	for _, e := range s {
		k := keyFunc(e)
		if _, ok := groups[k]; !ok {
			keys = append(keys, k)
		}
		groups[k] = append(groups[k], e)
	}
	return keys, groups
}
