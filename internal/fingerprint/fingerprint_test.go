package fingerprint

import (
	"math"
	"testing"
)

func dot(a, b []float32) float64 {
	var s float64
	for i := range a {
		s += float64(a[i]) * float64(b[i])
	}
	return s
}

func TestVectorIsDeterministicAndNormalized(t *testing.T) {
	text := "The quick brown fox jumps over the lazy dog and keeps on running."
	a := Vector(text)
	b := Vector(text)
	if len(a) != Dim {
		t.Fatalf("expected %d dims, got %d", Dim, len(a))
	}
	for i := range a {
		if a[i] != b[i] {
			t.Fatal("vector not deterministic")
		}
	}
	if n := dot(a, a); math.Abs(n-1) > 1e-5 {
		t.Fatalf("vector not unit length: %v", n)
	}
}

func TestSimilarTextsScoreHigherThanUnrelated(t *testing.T) {
	base := "Machine learning systems learn statistical patterns from very large corpora of training text."
	near := "Machine learning systems learn statistical patterns from very large corpora of labeled text."
	far := "The recipe calls for two eggs, a cup of flour, and a pinch of salt before baking."

	vb, vn, vf := Vector(base), Vector(near), Vector(far)
	if dot(vb, vn) <= dot(vb, vf) {
		t.Fatalf("near-duplicate similarity (%v) should beat unrelated (%v)", dot(vb, vn), dot(vb, vf))
	}
}

func TestVectorEmptyText(t *testing.T) {
	v := Vector("")
	for i, x := range v {
		if x != 0 {
			t.Fatalf("expected zero vector, got %v at %d", x, i)
		}
	}
}
