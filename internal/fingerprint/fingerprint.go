// Package fingerprint derives a fixed-width vector from document text so
// reports can be compared for similarity without storing the text itself.
// The vector is a normalized hashed bag of word trigrams: stable across
// runs, cheap to compute, and close for near-duplicate documents.
package fingerprint

import (
	"hash/fnv"
	"math"
	"strings"
	"unicode"
)

// Dim is the stored vector width; the reports table column must match.
const Dim = 256

func Vector(text string) []float32 {
	v := make([]float32, Dim)
	words := tokenize(text)
	if len(words) == 0 {
		return v
	}

	for i := 0; i+3 <= len(words); i++ {
		gram := words[i] + " " + words[i+1] + " " + words[i+2]
		h := fnv.New32a()
		h.Write([]byte(gram))
		sum := h.Sum32()
		// low bits pick the bucket, next bit picks the sign
		bucket := sum % Dim
		if sum&(1<<31) != 0 {
			v[bucket]--
		} else {
			v[bucket]++
		}
	}

	var norm float64
	for _, x := range v {
		norm += float64(x) * float64(x)
	}
	if norm > 0 {
		inv := float32(1 / math.Sqrt(norm))
		for i := range v {
			v[i] *= inv
		}
	}
	return v
}

func tokenize(text string) []string {
	return strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsNumber(r)
	})
}
