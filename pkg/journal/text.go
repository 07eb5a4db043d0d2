package journal

import (
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

const (
	maxTitleRunes    = 50
	minTitleCutRunes = 30
	snippetContext   = 30
	snippetHeadRunes = 100
	untitled         = "Untitled"
	ellipsis         = "..."
	ftsReservedRunes = `'"(){}[]^~*:`
	likeEscapeRune   = '\\'
	likeEscapedRunes = `\%_`
)

// NormalizeTagName trims and lowercases a tag name.
func NormalizeTagName(name string) string {
	// A Caser keeps state, so each call gets its own.
	return cases.Lower(language.Und).String(strings.TrimSpace(name))
}

// SanitizeQuery replaces characters that are syntax in the FTS5 query grammar
// with spaces and collapses runs of whitespace.
func SanitizeQuery(query string) string {
	cleaned := strings.Map(func(r rune) rune {
		if strings.ContainsRune(ftsReservedRunes, r) {
			return ' '
		}
		return r
	}, query)
	return strings.Join(strings.Fields(cleaned), " ")
}

// escapeLike escapes LIKE wildcards so the pattern matches literally with ESCAPE '\'.
func escapeLike(s string) string {
	var b strings.Builder
	for _, r := range s {
		if strings.ContainsRune(likeEscapedRunes, r) {
			b.WriteRune(likeEscapeRune)
		}
		b.WriteRune(r)
	}
	return b.String()
}

// BuildSnippet excerpts content around the first case-insensitive occurrence
// of query, keeping 30 characters either side. Cut edges get "...". When the
// query does not occur, the first 100 characters are returned.
func BuildSnippet(content, query string) string {
	runes := []rune(content)
	q := []rune(strings.TrimSpace(query))

	idx := indexFold(runes, q)
	if idx < 0 {
		if len(runes) <= snippetHeadRunes {
			return content
		}
		return string(runes[:snippetHeadRunes]) + ellipsis
	}

	start := max(0, idx-snippetContext)
	end := min(len(runes), idx+len(q)+snippetContext)

	var b strings.Builder
	if start > 0 {
		b.WriteString(ellipsis)
	}
	b.WriteString(string(runes[start:end]))
	if end < len(runes) {
		b.WriteString(ellipsis)
	}
	return b.String()
}

// indexFold returns the rune offset of the first case-insensitive match of
// needle in haystack, or -1.
func indexFold(haystack, needle []rune) int {
	if len(needle) == 0 {
		return -1
	}
	n := string(needle)
	for i := 0; i+len(needle) <= len(haystack); i++ {
		if strings.EqualFold(string(haystack[i:i+len(needle)]), n) {
			return i
		}
	}
	return -1
}

// DeriveTitle builds a title from the first non-blank line of content:
// the whole line when it is short, else its first sentence, else the line
// cut at a word boundary. Empty content yields "Untitled".
func DeriveTitle(content string) string {
	var line string
	for _, l := range strings.Split(content, "\n") {
		if l = strings.TrimSpace(l); l != "" {
			line = l
			break
		}
	}
	if line == "" {
		return untitled
	}

	runes := []rune(line)
	if len(runes) <= maxTitleRunes {
		return line
	}

	if end := strings.Index(line, ". "); end > 0 && len([]rune(line[:end])) <= maxTitleRunes {
		return line[:end+1]
	}

	truncated := runes[:maxTitleRunes]
	if cut := lastSpace(truncated); cut > minTitleCutRunes {
		return string(truncated[:cut]) + ellipsis
	}
	return string(truncated) + ellipsis
}

func lastSpace(runes []rune) int {
	for i := len(runes) - 1; i >= 0; i-- {
		if runes[i] == ' ' {
			return i
		}
	}
	return -1
}

// DominantMood returns the most frequent mood. Ties go to the mood that
// appears first. It returns "" for an empty list.
func DominantMood(moods []Mood) Mood {
	counts := make(map[Mood]int, len(moods))
	for _, m := range moods {
		counts[m]++
	}

	var best Mood
	bestCount := 0
	for _, m := range moods {
		if counts[m] > bestCount {
			best, bestCount = m, counts[m]
		}
	}
	return best
}
