package asynctts

import "strings"

// SplitSentences splits long text into sentences after each terminal mark
// (。！？.!? or a newline), keeping the mark with its sentence, so segmented
// synthesis reads like natural speech instead of splitting mid-clause. The
// mark set is local to this function; no other package shares it.
func SplitSentences(text string) []string {
	var out []string
	var cur strings.Builder
	terminal := map[rune]bool{'。': true, '！': true, '？': true, '.': true, '!': true, '?': true, '\n': true}
	for _, r := range text {
		cur.WriteRune(r)
		if terminal[r] {
			s := strings.TrimSpace(cur.String())
			if s != "" {
				out = append(out, s)
			}
			cur.Reset()
		}
	}
	if rest := strings.TrimSpace(cur.String()); rest != "" {
		out = append(out, rest)
	}
	if len(out) == 0 {
		return []string{text}
	}
	return out
}
