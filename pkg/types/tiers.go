package types

import (
	"fmt"
	"strings"
)

// VramTier buckets GPU capability. S is the most capable; the wire form
// is the lowercase letter.
type VramTier string

const (
	VramTierS VramTier = "s"
	VramTierA VramTier = "a"
	VramTierB VramTier = "b"
	VramTierC VramTier = "c"
)

// VramTiers lists all tiers, most capable first.
func VramTiers() []VramTier {
	return []VramTier{VramTierS, VramTierA, VramTierB, VramTierC}
}

// Rank returns the ordinal rank (higher = more capable), -1 for unknown.
func (t VramTier) Rank() int {
	switch t {
	case VramTierS:
		return 3
	case VramTierA:
		return 2
	case VramTierB:
		return 1
	case VramTierC:
		return 0
	}
	return -1
}

func (t VramTier) Valid() bool { return t.Rank() >= 0 }

// AtLeast reports whether t is at least as capable as min.
func (t VramTier) AtLeast(min VramTier) bool { return t.Rank() >= min.Rank() }

func (t VramTier) Label() string { return "Tier " + strings.ToUpper(string(t)) }

// ParseVramTier accepts "s"/"S" style letters and "tier_s" identifiers.
func ParseVramTier(s string) (VramTier, error) {
	t := VramTier(strings.ToLower(strings.TrimPrefix(strings.ToLower(strings.TrimSpace(s)), "tier_")))
	if !t.Valid() {
		return "", fmt.Errorf("unknown vram tier %q", s)
	}
	return t, nil
}

// RamTier buckets system memory. A is the most capable; the wire form is
// the lowercase letter.
type RamTier string

const (
	RamTierA RamTier = "a"
	RamTierB RamTier = "b"
	RamTierC RamTier = "c"
)

// RamTiers lists all tiers, most capable first.
func RamTiers() []RamTier { return []RamTier{RamTierA, RamTierB, RamTierC} }

// Rank returns the ordinal rank (higher = more memory), -1 for unknown.
func (t RamTier) Rank() int {
	switch t {
	case RamTierA:
		return 2
	case RamTierB:
		return 1
	case RamTierC:
		return 0
	}
	return -1
}

func (t RamTier) Valid() bool { return t.Rank() >= 0 }

// AtLeast reports whether t meets the given minimum tier.
func (t RamTier) AtLeast(min RamTier) bool { return t.Rank() >= min.Rank() }

func (t RamTier) Label() string { return "Tier " + strings.ToUpper(string(t)) }

// MinGigabytes returns the lower bound of the tier's memory bucket.
func (t RamTier) MinGigabytes() float64 {
	switch t {
	case RamTierA:
		return 64
	case RamTierB:
		return 32
	}
	return 0
}

// ParseRamTier accepts "a"/"A" style letters and "tier_a" identifiers.
func ParseRamTier(s string) (RamTier, error) {
	t := RamTier(strings.ToLower(strings.TrimPrefix(strings.ToLower(strings.TrimSpace(s)), "tier_")))
	if !t.Valid() {
		return "", fmt.Errorf("unknown ram tier %q", s)
	}
	return t, nil
}

// RamTierFromGigabytes buckets a total-memory reading into a tier.
func RamTierFromGigabytes(totalGB float64) RamTier {
	switch {
	case totalGB >= RamTierA.MinGigabytes():
		return RamTierA
	case totalGB >= RamTierB.MinGigabytes():
		return RamTierB
	default:
		return RamTierC
	}
}
