package policy

// globMatch reports whether s matches pattern. Only `*` (any run of
// characters, including none) and `?` (exactly one character) are
// interpreted; everything else, including regex metacharacters and
// path separators, is literal. Matching is case-sensitive.
func globMatch(pattern, s string) bool {
	// Iterative wildcard matching with single-star backtracking.
	var p, i int
	starP, starI := -1, 0
	for i < len(s) {
		switch {
		case p < len(pattern) && (pattern[p] == '?' || pattern[p] == s[i]):
			p++
			i++
		case p < len(pattern) && pattern[p] == '*':
			starP, starI = p, i
			p++
		case starP >= 0:
			starI++
			p = starP + 1
			i = starI
		default:
			return false
		}
	}
	for p < len(pattern) && pattern[p] == '*' {
		p++
	}
	return p == len(pattern)
}

// matchAny reports whether s matches any of the given patterns.
func matchAny(patterns []string, s string) bool {
	for _, pattern := range patterns {
		if globMatch(pattern, s) {
			return true
		}
	}
	return false
}
