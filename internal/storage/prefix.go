package storage

// prefixEnd computes the exclusive upper bound for a lexicographic
// prefix-range scan: the smallest byte string strictly greater than every
// string starting with prefix, per the normative adjacency scan algorithm
// (spec §4.3): "iterate forward; break if the key does not start with
// prefix". Returns "" (unbounded) if prefix is all 0xFF bytes.
func prefixEnd(prefix string) string {
	b := []byte(prefix)
	for i := len(b) - 1; i >= 0; i-- {
		if b[i] != 0xFF {
			b[i]++
			return string(b[:i+1])
		}
	}
	return ""
}
