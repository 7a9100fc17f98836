package service

import "regexp"

// ClauseRule pairs a clause-type label with the pattern that detects it.
// Rules are carried as an ordered slice, never a map: first match wins and
// iteration order is part of the contract.
type ClauseRule struct {
	Label   string
	Pattern *regexp.Regexp
}

// EnrichmentRules is the ordered rule set the enricher classifies with.
func EnrichmentRules() []ClauseRule {
	return []ClauseRule{
		{"Confidentiality", regexp.MustCompile(`(?i)\bconfidential|non[- ]disclosure|nda\b`)},
		{"Termination", regexp.MustCompile(`(?i)\bterminate|termination\b`)},
		{"Payment", regexp.MustCompile(`(?i)\bpayment|invoice|fee\b`)},
		{"Governing Law", regexp.MustCompile(`(?i)\blaw|jurisdiction\b`)},
		{"Indemnity", regexp.MustCompile(`(?i)\bindemnif(y|ication)|liability\b`)},
	}
}

// ValidationRules is the ordered rule set the compliance validator tags
// expected-clause categories with. Kept separate from EnrichmentRules: the
// validator tries Termination first and uses tighter Governing Law and
// Confidentiality patterns.
func ValidationRules() []ClauseRule {
	return []ClauseRule{
		{"Termination", regexp.MustCompile(`(?i)\bterminate|termination\b`)},
		{"Payment", regexp.MustCompile(`(?i)\bpayment|invoice|fee\b`)},
		{"Governing Law", regexp.MustCompile(`(?i)\bgoverning law|jurisdiction\b`)},
		{"Confidentiality", regexp.MustCompile(`(?i)\bconfidential|non[- ]disclosure\b`)},
		{"Indemnity", regexp.MustCompile(`(?i)\bindemnif(y|ication)|liability\b`)},
	}
}

// RuleClassify returns the label of the first rule whose pattern matches
// text, or "Uncategorized" when none does.
func RuleClassify(text string, rules []ClauseRule) string {
	for _, rule := range rules {
		if rule.Pattern.MatchString(text) {
			return rule.Label
		}
	}
	return "Uncategorized"
}
