package rules

import "strings"

type Settings struct {
	SeverityThreshold string
	Disabled          map[string]bool // upper-cased rule ids
}

// NewSettings builds settings from configuration values.
func NewSettings(threshold string, disabled []string) Settings {
	s := Settings{SeverityThreshold: strings.ToUpper(strings.TrimSpace(threshold)), Disabled: map[string]bool{}}
	if s.SeverityThreshold == "" {
		s.SeverityThreshold = "LOW"
	}
	for _, id := range disabled {
		s.Disabled[strings.ToUpper(strings.TrimSpace(id))] = true
	}
	return s
}

func severityRank(sev string) int {
	switch strings.ToUpper(strings.TrimSpace(sev)) {
	case "HIGH":
		return 3
	case "MEDIUM":
		return 2
	default:
		return 1 // LOW or unknown → LOW
	}
}

func (s Settings) severityOK(sev string) bool {
	return severityRank(sev) >= severityRank(s.SeverityThreshold)
}

func (s Settings) disabled(id string) bool {
	return s.Disabled[strings.ToUpper(strings.TrimSpace(id))]
}
