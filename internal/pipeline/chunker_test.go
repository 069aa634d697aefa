package pipeline

import (
	"strings"
	"testing"
)

func TestChunkSmallInputPassesThrough(t *testing.T) {
	got := Chunk("short text", 100)
	if len(got) != 1 || got[0] != "short text" {
		t.Fatalf("expected single unchanged chunk, got %q", got)
	}
}

func TestChunkEmptyInput(t *testing.T) {
	if got := Chunk("", 100); got != nil {
		t.Fatalf("expected nil for empty input, got %q", got)
	}
}

func TestChunkRoundTrip(t *testing.T) {
	cases := []struct {
		name    string
		text    string
		maxSize int
	}{
		{"paragraphs", strings.Repeat("first paragraph here.\n\nsecond paragraph here.\n\n", 20), 60},
		{"sentences only", strings.Repeat("One sentence. Another one! A third? ", 30), 50},
		{"single long word", strings.Repeat("x", 500), 64},
		{"mixed separators", "a\n\n\nb\n\nc. d! e\n\nf", 4},
		{"unicode", strings.Repeat("héllo wörld. ", 40), 33},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			chunks := Chunk(tc.text, tc.maxSize)
			if len(chunks) == 0 {
				t.Fatal("no chunks for non-empty input")
			}
			if joined := strings.Join(chunks, ""); joined != tc.text {
				t.Fatalf("round trip failed:\nwant %q\ngot  %q", tc.text, joined)
			}
			for i, c := range chunks {
				if c == "" {
					t.Fatalf("chunk %d is empty", i)
				}
				if len(c) > tc.maxSize {
					t.Fatalf("chunk %d exceeds max size: %d > %d", i, len(c), tc.maxSize)
				}
			}
		})
	}
}

func TestChunkPrefersParagraphBoundaries(t *testing.T) {
	text := "para one is right here.\n\npara two is right here.\n\npara three is right here."
	chunks := Chunk(text, 30)
	for i, c := range chunks[:len(chunks)-1] {
		if !strings.HasSuffix(c, "\n\n") {
			t.Fatalf("chunk %d does not end at a paragraph boundary: %q", i, c)
		}
	}
}

func TestChunkHardSplitKeepsRunesIntact(t *testing.T) {
	text := strings.Repeat("é", 100) // 2 bytes per rune, no split points
	chunks := Chunk(text, 33)        // odd bound forces a rune-boundary backoff
	for i, c := range chunks {
		if !strings.HasPrefix(c, "é") {
			t.Fatalf("chunk %d starts mid-rune: %q", i, c[:2])
		}
		if len(c) > 33 {
			t.Fatalf("chunk %d exceeds bound: %d", i, len(c))
		}
	}
	if strings.Join(chunks, "") != text {
		t.Fatal("hard split round trip failed")
	}
}
