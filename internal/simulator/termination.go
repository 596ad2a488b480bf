package simulator

import "regexp"

// terminationPatterns are tested in order against each new turn. Matching is
// best-effort heuristics, not a protocol: agents are prompted to emit [END]
// but models paraphrase, so common completion phrases are matched too.
var terminationPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)\[END\]`),
	regexp.MustCompile(`(?i)\bEND[.!]?\s*$`),
	regexp.MustCompile(`(?i)\btask\s+(is\s+)?(now\s+)?complete`),
	regexp.MustCompile(`(?i)\bnothing\s+(more|else|further)\s+to\s+(discuss|add|say)\b`),
	regexp.MustCompile(`(?i)\b(this\s+|our\s+)?conversation\s+(is\s+)?(now\s+)?(over|complete|concluded|finished)\b`),
	regexp.MustCompile(`(?i)\bno\s+(further|more)\s+(questions|assistance|help)\b`),
}

// IsTerminal reports whether the turn text signals the end of the
// conversation.
func IsTerminal(text string) bool {
	for _, pattern := range terminationPatterns {
		if pattern.MatchString(text) {
			return true
		}
	}
	return false
}
