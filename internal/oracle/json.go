package oracle

// ExtractJSON returns the first balanced top-level {...} block in the reply,
// tolerating surrounding prose. Brace depth is tracked outside string
// literals so nested objects and escaped quotes do not confuse the scan.
//
// Callers decode the returned bytes into a typed struct and must fall back to
// their documented neutral verdict on any decode error.
func ExtractJSON(reply string) ([]byte, bool) {
	start := -1
	depth := 0
	inString := false
	escaped := false

	for i := 0; i < len(reply); i++ {
		c := reply[i]

		if inString {
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				inString = false
			}
			continue
		}

		switch c {
		case '"':
			if start >= 0 {
				inString = true
			}
		case '{':
			if start < 0 {
				start = i
			}
			depth++
		case '}':
			if start < 0 {
				continue
			}
			depth--
			if depth == 0 {
				return []byte(reply[start : i+1]), true
			}
		}
	}
	return nil, false
}
