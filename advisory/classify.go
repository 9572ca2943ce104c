package advisory

import "github.com/hannajonsd/bundle-audit/version"

// Classification is the outcome of matching an installed version against an advisory
type Classification int

const (
	Vulnerable Classification = iota
	Unaffected
	Patched
)

func (c Classification) String() string {
	switch c {
	case Vulnerable:
		return "vulnerable"
	case Unaffected:
		return "unaffected"
	case Patched:
		return "patched"
	default:
		return "unknown"
	}
}

// Classify checks unaffected sets first, then patched sets. An advisory
// without patched sets leaves every affected version vulnerable.
func Classify(installed version.Version, adv *Advisory) Classification {
	for _, c := range adv.UnaffectedVersions {
		if c.SatisfiedBy(installed) {
			return Unaffected
		}
	}
	for _, c := range adv.PatchedVersions {
		if c.SatisfiedBy(installed) {
			return Patched
		}
	}
	return Vulnerable
}
