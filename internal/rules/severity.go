package rules

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Severity is the blocking weight of a rule. Higher values block harder.
type Severity int

const (
	SeverityInfo Severity = iota + 1
	SeverityMinor
	SeverityMajor
	SeverityCritical
	SeverityBlocker
)

// Weight is the numeric ordering key; BLOCKER sorts above everything else.
func (s Severity) Weight() int { return int(s) }

func (s Severity) String() string {
	switch s {
	case SeverityInfo:
		return "INFO"
	case SeverityMinor:
		return "MINOR"
	case SeverityMajor:
		return "MAJOR"
	case SeverityCritical:
		return "CRITICAL"
	case SeverityBlocker:
		return "BLOCKER"
	}
	return fmt.Sprintf("SEVERITY(%d)", int(s))
}

func ParseSeverity(s string) (Severity, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "INFO":
		return SeverityInfo, nil
	case "MINOR":
		return SeverityMinor, nil
	case "MAJOR":
		return SeverityMajor, nil
	case "CRITICAL":
		return SeverityCritical, nil
	case "BLOCKER":
		return SeverityBlocker, nil
	}
	return 0, fmt.Errorf("unknown severity: %q", s)
}

func (s Severity) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.String())
}

func (s *Severity) UnmarshalJSON(data []byte) error {
	var raw string
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	sev, err := ParseSeverity(raw)
	if err != nil {
		return err
	}
	*s = sev
	return nil
}
