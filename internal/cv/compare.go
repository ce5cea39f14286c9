package cv

import "math/bits"

// DefaultThreshold is the largest Hamming distance still treated as the same
// page. It absorbs anti-aliasing noise while rejecting real page turns.
const DefaultThreshold = 3

// VerdictKind classifies a candidate against the baseline
type VerdictKind int

const (
	VerdictNew VerdictKind = iota
	VerdictDuplicate
)

func (k VerdictKind) String() string {
	switch k {
	case VerdictNew:
		return "new"
	case VerdictDuplicate:
		return "duplicate"
	default:
		return "unknown"
	}
}

// Verdict is the outcome of comparing a candidate fingerprint with a baseline
type Verdict struct {
	Kind     VerdictKind
	Distance int
}

// IsNew reports whether the candidate is a new page
func (v Verdict) IsNew() bool {
	return v.Kind == VerdictNew
}

// Distance returns the Hamming distance between two fingerprints. Either
// operand being absent makes them not comparable, which is reported as 0.
func Distance(a, b *Fingerprint) int {
	if a == nil || b == nil {
		return 0
	}
	return bits.OnesCount64(uint64(*a) ^ uint64(*b))
}

// Compare classifies candidate against baseline. Distances up to and
// including threshold are duplicates.
func Compare(candidate, baseline *Fingerprint, threshold int) Verdict {
	d := Distance(candidate, baseline)
	if d <= threshold {
		return Verdict{Kind: VerdictDuplicate, Distance: d}
	}
	return Verdict{Kind: VerdictNew, Distance: d}
}
