package resources

import "regexp"

// Matcher is one heuristic pattern of the pattern pass. Literal matchers
// record the matched text (capture group 1 when present); the others record
// ids synthesized by the active IDScheme.
type Matcher struct {
	Kind    Kind
	Pattern *regexp.Regexp
	Literal bool
}

// Pattern definitions (compiled once as package-level vars).
var (
	// open('path') / obj.open("path"): the quoted path is the resource.
	filePattern = regexp.MustCompile(`(?i)\bopen\s*\(\s*['"]([^'"]+)['"]`)

	// Bare occurrence of a database verb anywhere on the line.
	databasePattern = regexp.MustCompile(`(?i)(connect|connection|cursor|execute|query)`)

	// HTTP verb immediately followed by a call.
	httpPattern = regexp.MustCompile(`(?i)(get|post|put|delete|request)\s*\(`)

	// Configuration-looking names.
	configPattern = regexp.MustCompile(`(?i)\b(?:config|settings|resource|data_|input_|output_)\w*`)
)

// DefaultMatchers returns the pattern pass in priority order:
// file, database, http, config.
func DefaultMatchers() []Matcher {
	return []Matcher{
		{Kind: KindFile, Pattern: filePattern, Literal: true},
		{Kind: KindDatabase, Pattern: databasePattern},
		{Kind: KindHTTP, Pattern: httpPattern},
		{Kind: KindConfig, Pattern: configPattern, Literal: true},
	}
}

// literals returns the texts a literal matcher records for line.
func (m Matcher) literals(line string) []string {
	matches := m.Pattern.FindAllStringSubmatch(line, -1)
	if len(matches) == 0 {
		return nil
	}
	out := make([]string, 0, len(matches))
	for _, match := range matches {
		text := match[0]
		if len(match) > 1 && match[1] != "" {
			text = match[1]
		}
		out = append(out, text)
	}
	return out
}

// count returns how many times the pattern occurs on line.
func (m Matcher) count(line string) int {
	return len(m.Pattern.FindAllStringIndex(line, -1))
}
