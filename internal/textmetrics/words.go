// Package textmetrics computes approximate word counts for mixed CJK and Latin text.
package textmetrics

// CJK ideographs in the unified block count one word each.
const (
	cjkFirst = '一'
	cjkLast  = '鿿'
)

// WordCount returns the approximate number of words in text.
//
// Every codepoint in U+4E00..U+9FFF is one word and every maximal run of
// [A-Za-z0-9_] is one word. All other characters are separators.
func WordCount(text string) int {
	n := 0
	inWord := false
	for _, r := range text {
		switch {
		case r >= cjkFirst && r <= cjkLast:
			n++
			inWord = false
		case isWordRune(r):
			if !inWord {
				n++
				inWord = true
			}
		default:
			inWord = false
		}
	}
	return n
}

// Sum returns the total of per-chapter counts.
func Sum(counts map[string]int) int {
	total := 0
	for _, c := range counts {
		total += c
	}
	return total
}

func isWordRune(r rune) bool {
	return (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9') || r == '_'
}
