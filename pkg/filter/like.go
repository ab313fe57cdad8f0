package filter

import "strings"

// likeMatch implements SQL LIKE semantics: '%' matches zero or more
// characters, '_' matches exactly one, and '\%'/'\_' escape the wildcards
// to literal characters. caseInsensitive selects ILIKE. Direct translation
// of matching.rs's like_match/like_match_impl 2D dynamic-programming
// matcher (dp[i][j] = text[0:i] matches pattern[0:j]).
func likeMatch(text, pattern string, caseInsensitive bool) bool {
	if caseInsensitive {
		text = strings.ToLower(text)
		pattern = strings.ToLower(pattern)
	}
	return likeMatchBytes([]byte(text), []byte(pattern))
}

func likeMatchBytes(text, pattern []byte) bool {
	m, n := len(text), len(pattern)

	dp := make([][]bool, m+1)
	for i := range dp {
		dp[i] = make([]bool, n+1)
	}
	dp[0][0] = true

	// A leading run of '%' can all match the empty text.
	for j := 0; j < n && pattern[j] == '%'; j++ {
		dp[0][j+1] = dp[0][j]
	}

	pi := 0
	for pi < n {
		var patChar byte
		isWildcardAny := false // '%'
		isWildcardOne := false // '_'
		patLen := 1

		switch {
		case pattern[pi] == '\\' && pi+1 < n:
			patChar = pattern[pi+1]
			patLen = 2
		case pattern[pi] == '%':
			isWildcardAny = true
		case pattern[pi] == '_':
			isWildcardOne = true
		default:
			patChar = pattern[pi]
		}

		for ti := 0; ti <= m; ti++ {
			switch {
			case isWildcardAny:
				if ti == 0 {
					dp[ti][pi+patLen] = dp[ti][pi]
				} else {
					dp[ti][pi+patLen] = dp[ti][pi] || dp[ti-1][pi+patLen]
				}
			case isWildcardOne:
				if ti > 0 {
					dp[ti][pi+patLen] = dp[ti-1][pi]
				}
			default:
				if ti > 0 && text[ti-1] == patChar {
					dp[ti][pi+patLen] = dp[ti-1][pi]
				}
			}
		}

		pi += patLen
	}

	return dp[m][n]
}
