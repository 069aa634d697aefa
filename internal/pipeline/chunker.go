package pipeline

import (
	"regexp"
	"unicode/utf8"
)

var (
	paragraphBreak = regexp.MustCompile(`\n{2,}`)
	sentenceBreak  = regexp.MustCompile(`[.!?]["')\]]?\s+`)
)

// Chunk splits text into ordered segments of at most maxSize bytes along
// paragraph boundaries, falling back to sentence boundaries when paragraph
// splitting is too coarse. Separators stay attached to the preceding piece,
// so concatenating the returned chunks reproduces text byte-for-byte. A
// single piece larger than maxSize is hard-split at rune boundaries.
func Chunk(text string, maxSize int) []string {
	if text == "" {
		return nil
	}
	if maxSize <= 0 || len(text) <= maxSize {
		return []string{text}
	}

	pieces := splitAfter(text, paragraphBreak)
	if len(pieces) < 3 {
		pieces = splitAfter(text, sentenceBreak)
	}

	var (
		out []string
		buf string
	)
	flush := func() {
		if buf != "" {
			out = append(out, buf)
			buf = ""
		}
	}
	for _, p := range pieces {
		if len(p) > maxSize {
			flush()
			out = append(out, hardSplit(p, maxSize)...)
			continue
		}
		if buf != "" && len(buf)+len(p) > maxSize {
			flush()
		}
		buf += p
	}
	flush()
	return out
}

// splitAfter cuts s after every match of re, keeping the matched separator
// with the piece before it.
func splitAfter(s string, re *regexp.Regexp) []string {
	idx := re.FindAllStringIndex(s, -1)
	if len(idx) == 0 {
		return []string{s}
	}
	var parts []string
	prev := 0
	for _, m := range idx {
		parts = append(parts, s[prev:m[1]])
		prev = m[1]
	}
	if prev < len(s) {
		parts = append(parts, s[prev:])
	}
	return parts
}

// hardSplit slices a single oversized piece into maxSize-bounded segments
// with no semantic awareness, never cutting inside a UTF-8 sequence.
func hardSplit(s string, maxSize int) []string {
	var out []string
	for len(s) > maxSize {
		cut := maxSize
		for cut > 0 && !utf8.RuneStart(s[cut]) {
			cut--
		}
		if cut == 0 {
			cut = maxSize // not valid UTF-8; fall back to a byte cut
		}
		out = append(out, s[:cut])
		s = s[cut:]
	}
	if s != "" {
		out = append(out, s)
	}
	return out
}
