package models

import "encoding/json"

// ClauseRecord is one contiguous span of contract text introduced by a
// detected heading, or the unheaded preamble of a document.
type ClauseRecord struct {
	ClauseID    string `json:"clause_id"`
	Title       string `json:"title"`
	Text        string `json:"text"`
	SectionPath string `json:"section_path"`
	SourceFile  string `json:"source_file,omitempty"`
}

// Trace identifies a single enrichment or validation pass. A fresh trace is
// generated every run, so re-processing the same clause yields distinct ids.
type Trace struct {
	TraceID   string `json:"trace_id"`
	Timestamp string `json:"timestamp"`
}

// EnrichedClause is a ClauseRecord after classification, summarization and
// the free-text validation opinion. Metadata fields are merged only when
// document metadata was extracted.
type EnrichedClause struct {
	ClauseID        string `json:"clause_id"`
	Title           string `json:"title"`
	Text            string `json:"text"`
	SourceFile      string `json:"source_file,omitempty"`
	SectionPath     string `json:"section_path"`
	RuleBasedType   string `json:"rule_based_type"`
	TransformerType string `json:"transformer_type"`
	Summary         string `json:"summary"`
	Validation      string `json:"validation"`
	Trace           Trace  `json:"trace"`
	Status          string `json:"status"`

	ContractNumber *string `json:"contract_number,omitempty"`
	ContractType   *string `json:"contract_type,omitempty"`
	VendorName     *string `json:"vendor_name,omitempty"`
	ContractValue  *string `json:"contract_value,omitempty"`
	Threshold      *string `json:"threshold,omitempty"`
	StartDate      *string `json:"start_date,omitempty"`
	EndDate        *string `json:"end_date,omitempty"`
}

// FlexString accepts a JSON string, number or null. Clause ids in exported
// clause files appear as all three.
type FlexString string

// UnmarshalJSON implements json.Unmarshaler.
func (f *FlexString) UnmarshalJSON(b []byte) error {
	if string(b) == "null" {
		*f = ""
		return nil
	}
	var s string
	if err := json.Unmarshal(b, &s); err == nil {
		*f = FlexString(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return err
	}
	*f = FlexString(n.String())
	return nil
}

// ClauseInput is the wire shape the validator accepts. Older clause exports
// carry the body under "clause_text", newer ones under "text"; Body picks
// whichever is present.
type ClauseInput struct {
	ClauseID   FlexString `json:"clause_id"`
	Title      string     `json:"title"`
	Text       string     `json:"text"`
	ClauseText string     `json:"clause_text"`
}

// Body returns the clause body text and whether either field was present.
func (c ClauseInput) Body() (string, bool) {
	if c.Text != "" {
		return c.Text, true
	}
	if c.ClauseText != "" {
		return c.ClauseText, true
	}
	return "", false
}

// ValidatedClause is the per-clause compliance verdict. MissingClauses and
// MisalignedClauses are document-level facts duplicated onto every clause of
// the same document so downstream readers never need a join.
type ValidatedClause struct {
	ClauseID             string   `json:"clause_id"`
	Title                string   `json:"title"`
	ClauseText           string   `json:"clause_text"`
	ComplianceSummary    string   `json:"compliance_summary"`
	ComplianceConfidence float64  `json:"compliance_confidence"`
	RiskAssessment       string   `json:"risk_assessment"`
	RiskConfidence       string   `json:"risk_confidence"`
	CloseoutStatus       string   `json:"closeout_status"`
	Trace                Trace    `json:"trace"`
	MissingClauses       []string `json:"missing_clauses"`
	MisalignedClauses    []string `json:"misaligned_clauses"`
}
