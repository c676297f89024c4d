package textutil

// CosineSimilarity computes the cosine similarity between two fingerprints.
// Returns 0 if either fingerprint is nil or has zero norm.
func CosineSimilarity(a, b *Fingerprint) float64 {
	if a == nil || b == nil || a.norm == 0 || b.norm == 0 {
		return 0
	}
	var dot float64
	for token, count := range a.tokens {
		if other, ok := b.tokens[token]; ok {
			dot += count * other
		}
	}
	if dot == 0 {
		return 0
	}
	return dot / (a.norm * b.norm)
}

// Deduper remembers accepted strings and rejects later ones whose
// fingerprint is at least Threshold similar to any of them. Strings with no
// usable tokens are always accepted.
type Deduper struct {
	Threshold float64
	seen      []*Fingerprint
}

// NewDeduper returns a Deduper with the given similarity threshold.
func NewDeduper(threshold float64) *Deduper {
	return &Deduper{Threshold: threshold}
}

// Accept reports whether text is new and records it when it is.
func (d *Deduper) Accept(text string) bool {
	fp := NewFingerprint(text)
	if fp == nil {
		return true
	}
	for _, prior := range d.seen {
		if CosineSimilarity(fp, prior) >= d.Threshold {
			return false
		}
	}
	d.seen = append(d.seen, fp)
	return true
}

// Filter returns the items of values that Accept lets through, in order.
func (d *Deduper) Filter(values []string) []string {
	out := make([]string, 0, len(values))
	for _, v := range values {
		if d.Accept(v) {
			out = append(out, v)
		}
	}
	return out
}
