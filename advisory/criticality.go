package advisory

import (
	"fmt"
	"strings"
)

// Criticality is the severity an advisory declares, ordered for display
type Criticality int

const (
	Critical Criticality = iota
	High
	Medium
	Low
	Unknown
	None
)

var criticalityNames = map[Criticality]string{
	Critical: "critical",
	High:     "high",
	Medium:   "medium",
	Low:      "low",
	Unknown:  "unknown",
	None:     "none",
}

func (c Criticality) String() string {
	if name, ok := criticalityNames[c]; ok {
		return name
	}
	return fmt.Sprintf("criticality(%d)", int(c))
}

// ParseCriticality accepts the names produced by String, case-insensitively
func ParseCriticality(s string) (Criticality, error) {
	name := strings.ToLower(strings.TrimSpace(s))
	for c, n := range criticalityNames {
		if n == name {
			return c, nil
		}
	}
	return Unknown, fmt.Errorf("unknown criticality: %q", s)
}

func (c Criticality) MarshalText() ([]byte, error) {
	return []byte(c.String()), nil
}

func (c *Criticality) UnmarshalText(text []byte) error {
	parsed, err := ParseCriticality(string(text))
	if err != nil {
		return err
	}
	*c = parsed
	return nil
}

// criticalityFromCVSS maps the declared scores the same way ruby-advisory-db consumers do:
// CVSSv4 or v3 take precedence over v2, and no score at all is Unknown.
func criticalityFromCVSS(v2, v3, v4 *float64) Criticality {
	if v4 != nil {
		return fromModernScore(*v4)
	}
	if v3 != nil {
		return fromModernScore(*v3)
	}
	if v2 != nil {
		switch s := *v2; {
		case s >= 7.0:
			return High
		case s >= 4.0:
			return Medium
		default:
			return Low
		}
	}
	return Unknown
}

func fromModernScore(s float64) Criticality {
	switch {
	case s >= 9.0:
		return Critical
	case s >= 7.0:
		return High
	case s >= 4.0:
		return Medium
	case s > 0.0:
		return Low
	default:
		return None
	}
}
