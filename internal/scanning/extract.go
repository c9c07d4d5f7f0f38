package scanning

import "strings"

const fence = "```"

// scanState is the state of the JSON extraction scanner.
type scanState int

const (
	// stateSeek skips prose until the first '{' or '['.
	stateSeek scanState = iota
	// stateValue walks structural characters, tracking nesting.
	stateValue
	// stateString is inside a JSON string literal.
	stateString
	// stateEscape follows a backslash inside a string literal.
	stateEscape
)

// ExtractJSON locates the first balanced JSON object or array in a model
// reply. Code fence markers are removed first, then the text is scanned from
// the first '{' or '[' until the matching close. Brackets inside string
// literals are ignored. It reports false when no balanced value exists.
func ExtractJSON(text string) (string, bool) {
	text = stripFences(text)

	var (
		state scanState
		start int
		stack []byte
	)

	for i := 0; i < len(text); i++ {
		ch := text[i]

		switch state {
		case stateSeek:
			if ch == '{' || ch == '[' {
				start = i
				stack = append(stack, closerFor(ch))
				state = stateValue
			}

		case stateValue:
			switch ch {
			case '"':
				state = stateString
			case '{', '[':
				stack = append(stack, closerFor(ch))
			case '}', ']':
				if stack[len(stack)-1] != ch {
					return "", false
				}
				stack = stack[:len(stack)-1]
				if len(stack) == 0 {
					return text[start : i+1], true
				}
			}

		case stateString:
			switch ch {
			case '\\':
				state = stateEscape
			case '"':
				state = stateValue
			}

		case stateEscape:
			state = stateString
		}
	}

	return "", false
}

func closerFor(opener byte) byte {
	if opener == '{' {
		return '}'
	}
	return ']'
}

// stripFences removes every ``` marker together with an info string such as
// "json" that directly follows it.
func stripFences(text string) string {
	if !strings.Contains(text, fence) {
		return strings.TrimSpace(text)
	}

	var b strings.Builder
	b.Grow(len(text))
	for {
		idx := strings.Index(text, fence)
		if idx == -1 {
			b.WriteString(text)
			break
		}
		b.WriteString(text[:idx])
		text = text[idx+len(fence):]

		// Drop the language tag of an opening fence.
		j := 0
		for j < len(text) && isInfoChar(text[j]) {
			j++
		}
		text = text[j:]
	}
	return strings.TrimSpace(b.String())
}

func isInfoChar(c byte) bool {
	return c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z' || c >= '0' && c <= '9' || c == '-' || c == '_'
}
