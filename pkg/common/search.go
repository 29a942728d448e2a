package common

import "sort"

// BoundedSearch runs a lower-bound binary search for key inside
// keys[center-radius : center+radius+1], saturating the window at the slice
// edges. It returns the matching position and true, or -1 and false.
//
// Learned models predict an approximate position; this is the shared
// correction step that turns the prediction into an exact answer.
func BoundedSearch(keys []KeyType, key KeyType, center, radius int) (int, bool) {
	if len(keys) == 0 {
		return -1, false
	}

	lo := center - radius
	if lo < 0 {
		lo = 0
	}
	hi := center + radius + 1
	if hi > len(keys) {
		hi = len(keys)
	}
	if lo >= hi {
		return -1, false
	}

	window := keys[lo:hi]
	idx := sort.Search(len(window), func(i int) bool {
		return window[i] >= key
	})
	if idx < len(window) && window[idx] == key {
		return lo + idx, true
	}
	return -1, false
}
