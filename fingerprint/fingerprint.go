// Package fingerprint identifies page snapshots.
//
// Digest is an exact content hash: any change to a hashed field changes it.
// The SimHash fingerprint mixes word bigrams of the visible text with
// trigrams of the element structure; its Hamming distance tells how far a
// snapshot moved, not whether it moved.
package fingerprint

import (
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"hash/fnv"
	"math/bits"
	"strings"
	"sync"

	"golang.org/x/net/html"
)

// Digest returns the hex SHA-256 of parts. Each part is length-prefixed, so
// moving text between parts changes the digest.
func Digest(parts ...string) string {
	h := sha256.New()
	var n [8]byte
	for _, p := range parts {
		binary.BigEndian.PutUint64(n[:], uint64(len(p)))
		h.Write(n[:])
		h.Write([]byte(p))
	}
	return hex.EncodeToString(h.Sum(nil))
}

// Of hashes a list of features into one SimHash value. It returns 0 when
// features is empty.
func Of(features []string) uint64 {
	if len(features) == 0 {
		return 0
	}

	var vector [64]int
	for _, f := range features {
		h := fnv.New64a()
		h.Write([]byte(f))
		sum := h.Sum64()
		for i := 0; i < 64; i++ {
			if sum&(1<<uint(i)) != 0 {
				vector[i]++
			} else {
				vector[i]--
			}
		}
	}

	var fp uint64
	for i := 0; i < 64; i++ {
		if vector[i] > 0 {
			fp |= 1 << uint(i)
		}
	}
	return fp
}

// Text fingerprints the words of text.
func Text(text string) uint64 {
	return Of(textFeatures(text))
}

// Structure fingerprints the element structure of rawHTML, ignoring text and
// attributes.
func Structure(rawHTML string) uint64 {
	return Of(structureFeatures(rawHTML))
}

// Snapshot fingerprints text and structure together.
func Snapshot(text, rawHTML string) uint64 {
	features := textFeatures(text)
	features = append(features, structureFeatures(rawHTML)...)
	return Of(features)
}

// Distance returns the Hamming distance between two fingerprints.
func Distance(a, b uint64) int {
	return bits.OnesCount64(a ^ b)
}

func textFeatures(text string) []string {
	words := strings.Fields(strings.ToLower(text))
	if len(words) < 2 {
		return words
	}
	return shingles(words, 2, " ")
}

// structureFeatures returns tag trigrams, or the bare tags when there are
// fewer than three. Features are prefixed so they never collide with words.
func structureFeatures(rawHTML string) []string {
	tags := startTags(rawHTML)
	features := tags
	if len(tags) >= 3 {
		features = shingles(tags, 3, "<")
	}
	for i, f := range features {
		features[i] = "<" + f
	}
	return features
}

// startTags collects open tag names in document order.
func startTags(rawHTML string) []string {
	z := html.NewTokenizer(strings.NewReader(rawHTML))
	var tags []string
	for {
		switch z.Next() {
		case html.ErrorToken:
			return tags
		case html.StartTagToken, html.SelfClosingTagToken:
			name, _ := z.TagName()
			tags = append(tags, string(name))
		}
	}
}

func shingles(tokens []string, n int, sep string) []string {
	if len(tokens) < n {
		return nil
	}
	out := make([]string, 0, len(tokens)-n+1)
	for i := 0; i <= len(tokens)-n; i++ {
		out = append(out, strings.Join(tokens[i:i+n], sep))
	}
	return out
}

// Tracker remembers the last snapshot seen per key. It is safe for
// concurrent use.
type Tracker struct {
	mu   sync.Mutex
	last map[string]seen
}

type seen struct {
	digest string
	fp     uint64
}

// NewTracker creates an empty Tracker.
func NewTracker() *Tracker {
	return &Tracker{last: make(map[string]seen)}
}

// Observe records a snapshot under key. changed is true when digest differs
// from the previous one or key is new; distance is the SimHash distance to
// the previous fingerprint (0 for a new key).
func (t *Tracker) Observe(key, digest string, fp uint64) (changed bool, distance int) {
	t.mu.Lock()
	defer t.mu.Unlock()
	prev, ok := t.last[key]
	t.last[key] = seen{digest: digest, fp: fp}
	if !ok {
		return true, 0
	}
	return prev.digest != digest, Distance(prev.fp, fp)
}

// Forget drops the remembered snapshot for key.
func (t *Tracker) Forget(key string) {
	t.mu.Lock()
	delete(t.last, key)
	t.mu.Unlock()
}
