package llm

import "regexp"

// Models sometimes wrap the JSON payload in a markdown fence or leave a
// trailing comma even when asked for bare JSON.
var (
	fencedJSON    = regexp.MustCompile("(?s)```(?:json)?\\s*\\n?(\\{.*\\})\\s*```")
	bareJSON      = regexp.MustCompile(`(?s)\{[\s\S]*\}`)
	trailingComma = regexp.MustCompile(`,\s*([}\]])`)
)

// ExtractJSON recovers the JSON object from a model response: fenced
// block first, then the outermost bare object. Trailing commas before a
// closing brace or bracket are removed. Returns "" when the response
// holds no object at all.
func ExtractJSON(content string) string {
	raw := ""
	if m := fencedJSON.FindStringSubmatch(content); len(m) > 1 {
		raw = m[1]
	} else {
		raw = bareJSON.FindString(content)
	}
	if raw == "" {
		return ""
	}
	return trailingComma.ReplaceAllString(raw, "$1")
}
