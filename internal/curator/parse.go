package curator

// extractJSONObject pulls the first balanced JSON object out of raw planner
// text. Models love to wrap their JSON in commentary that can itself contain
// braces, so a greedy regex is not safe; instead we scan from the first '{'
// counting brace depth, skipping anything inside string literals (and
// honouring backslash escapes) until the depth returns to zero.
func extractJSONObject(raw string) (string, bool) {
	start := -1
	for i := 0; i < len(raw); i++ {
		if raw[i] == '{' {
			start = i
			break
		}
	}
	if start == -1 {
		return "", false
	}

	depth := 0
	inString := false
	escaped := false

	for i := start; i < len(raw); i++ {
		c := raw[i]

		if escaped {
			escaped = false
			continue
		}

		switch c {
		case '\\':
			if inString {
				escaped = true
			}
		case '"':
			inString = !inString
		case '{':
			if !inString {
				depth++
			}
		case '}':
			if !inString {
				depth--
				if depth == 0 {
					return raw[start : i+1], true
				}
			}
		}
	}

	// Ran out of input with the object still open
	return "", false
}
