package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"math"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/santhosh-tekuri/jsonschema/v5"

	"github.com/lavaait/clauseIQ/models"
)

// ExpectedClauses is the fixed checklist of clause categories every
// document is expected to contain, in reporting order.
var ExpectedClauses = []string{
	"Termination",
	"Payment",
	"Governing Law",
	"Confidentiality",
	"Indemnity",
}

const (
	defaultTopK = 3

	// Clause text is truncated to this many tokens for the confidence
	// pass.
	maxQATokens = 512

	confidenceQuestion = "Which FAR or DFARS section is referenced?"
)

var (
	ErrRetrievalFailed  = errors.New("failed to retrieve regulation context")
	ErrGenerationFailed = errors.New("failed to generate compliance verdict")
	ErrEmbeddingFailed  = errors.New("failed to generate embedding")
	ErrEmptyCorpus      = errors.New("regulation corpus is empty")
	ErrEmptyClauseList  = errors.New("clause list is empty")
	ErrValidatorNotSet  = errors.New("validator dependencies not set")
)

// Retriever returns the k regulation chunks most relevant to a query.
type Retriever interface {
	TopK(ctx context.Context, query string, k int) ([]models.RegulationChunk, error)
}

// Generator produces free text from a prompt.
type Generator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// ConfidenceScorer scores how confidently a question is answerable from
// clause text, in [0,1].
type ConfidenceScorer interface {
	Score(ctx context.Context, clauseText, question string) (float64, error)
}

// Validator cross-checks clauses against the FAR/DFARS corpus and
// aggregates the per-document closeout verdict.
type Validator struct {
	retriever Retriever
	generator Generator
	scorer    ConfidenceScorer
	rules     []ClauseRule
	topK      int
}

// ValidatorOption is a functional option for Validator.
type ValidatorOption func(*Validator)

// ValidateWithRetriever sets the regulation retriever.
func ValidateWithRetriever(r Retriever) ValidatorOption {
	return func(v *Validator) {
		v.retriever = r
	}
}

// ValidateWithGenerator sets the verdict/risk generation backend.
func ValidateWithGenerator(g Generator) ValidatorOption {
	return func(v *Validator) {
		v.generator = g
	}
}

// ValidateWithScorer sets the confidence-scoring backend.
func ValidateWithScorer(s ConfidenceScorer) ValidatorOption {
	return func(v *Validator) {
		v.scorer = s
	}
}

// NewValidator creates a compliance validator.
func NewValidator(opts ...ValidatorOption) *Validator {
	v := &Validator{
		rules: ValidationRules(),
		topK:  defaultTopK,
	}
	for _, opt := range opts {
		opt(v)
	}
	return v
}

// ClauseEvaluation is the compliance verdict for one clause plus the
// independent numeric confidence signal.
type ClauseEvaluation struct {
	Answer     string
	Confidence float64
}

// RiskRating is the free-text risk verdict. No numeric confidence is
// produced for risk; Confidence is always "N/A".
type RiskRating struct {
	Risk       string
	Confidence string
}

// EvaluateClause retrieves the top-k most relevant regulation chunks and
// generates a compliant/non-compliant verdict with a citation, then runs
// the separate extractive confidence pass over the truncated clause.
func (v *Validator) EvaluateClause(ctx context.Context, clause string) (*ClauseEvaluation, error) {
	if v.retriever == nil || v.generator == nil || v.scorer == nil {
		return nil, ErrValidatorNotSet
	}

	query := "Is the following clause compliant with FAR or DFARS? " +
		"Answer Compliant or Non-Compliant and cite the section.\n\nClause: " + clause

	chunks, err := v.retriever.TopK(ctx, query, v.topK)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrRetrievalFailed, err)
	}

	var contextText strings.Builder
	for _, chunk := range chunks {
		contextText.WriteString(chunk.Text)
		contextText.WriteString("\n\n")
	}

	prompt := fmt.Sprintf(`Answer the question using the regulation context below.

REGULATION CONTEXT:
%s
QUESTION:
%s`, contextText.String(), query)

	answer, err := v.generator.Generate(ctx, prompt)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrGenerationFailed, err)
	}

	confidence, err := v.scorer.Score(ctx, truncateTokens(clause, maxQATokens), confidenceQuestion)
	if err != nil {
		return nil, err
	}

	return &ClauseEvaluation{
		Answer:     answer,
		Confidence: math.Round(confidence*1000) / 1000,
	}, nil
}

// DetectRisk rates the clause Low/Medium/High with a one-sentence
// rationale.
func (v *Validator) DetectRisk(ctx context.Context, clause string) (*RiskRating, error) {
	if v.generator == nil {
		return nil, ErrValidatorNotSet
	}

	prompt := "Rate the following clause's risk level for a US government contract " +
		"(Low, Medium, or High) and give one-sentence rationale.\n\nClause:\n" + clause

	risk, err := v.generator.Generate(ctx, prompt)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrGenerationFailed, err)
	}

	return &RiskRating{Risk: risk, Confidence: "N/A"}, nil
}

var (
	nonCompliantRe = regexp.MustCompile(`(?i)non[-\s]?compliant`)
	compliantRe    = regexp.MustCompile(`(?i)\bcompliant\b`)
)

// containsCompliantToken reports whether the verdict contains a standalone
// affirmative "compliant". Negated forms ("non-compliant", "noncompliant")
// are removed first, so a "Non-Compliant" verdict never reads as passing.
func containsCompliantToken(answer string) bool {
	return compliantRe.MatchString(nonCompliantRe.ReplaceAllString(answer, ""))
}

// CloseoutStatus applies the per-clause decision rule: "Passed" iff the
// verdict is affirmatively compliant and the risk rating contains "low".
func CloseoutStatus(answer, risk string) string {
	if containsCompliantToken(answer) && strings.Contains(strings.ToLower(risk), "low") {
		return "Passed"
	}
	return "Review Required"
}

// missingMisaligned computes the document-level checklist facts.
// missing preserves ExpectedClauses order; misaligned lists expected
// categories whose verdict reads non-compliant.
func missingMisaligned(found []string, verdicts map[string]string) (missing, misaligned []string) {
	missing = make([]string, 0, len(ExpectedClauses))
	misaligned = make([]string, 0)

	foundSet := make(map[string]bool, len(found))
	for _, t := range found {
		foundSet[t] = true
	}

	for _, expected := range ExpectedClauses {
		if !foundSet[expected] {
			missing = append(missing, expected)
			continue
		}
		if strings.Contains(strings.ToLower(verdicts[expected]), "non-compliant") {
			misaligned = append(misaligned, expected)
		}
	}
	return missing, misaligned
}

// ValidateDocument validates every clause of one document in segmentation
// order and attaches the identical missing/misaligned lists to each
// validated clause. An empty clause list is rejected up front. Clauses
// without a body are skipped with a warning, never silently.
func (v *Validator) ValidateDocument(ctx context.Context, sourceFile string, clauses []models.ClauseInput) ([]models.ValidatedClause, error) {
	if len(clauses) == 0 {
		return nil, ErrEmptyClauseList
	}

	var foundTypes []string
	verdicts := make(map[string]string)
	outputs := make([]models.ValidatedClause, 0, len(clauses))

	for i, cl := range clauses {
		body, ok := cl.Body()
		if !ok {
			log.Printf("Warning: %s clause %d has neither text nor clause_text, skipping", sourceFile, i)
			continue
		}

		clauseType := RuleClassify(body, v.rules)
		foundTypes = append(foundTypes, clauseType)

		eval, err := v.EvaluateClause(ctx, body)
		if err != nil {
			return nil, err
		}
		// Later clauses of the same category overwrite earlier
		// verdicts; the last one read wins for misalignment.
		verdicts[clauseType] = eval.Answer

		risk, err := v.DetectRisk(ctx, body)
		if err != nil {
			return nil, err
		}

		outputs = append(outputs, models.ValidatedClause{
			ClauseID:             string(cl.ClauseID),
			Title:                clauseType,
			ClauseText:           body,
			ComplianceSummary:    eval.Answer,
			ComplianceConfidence: eval.Confidence,
			RiskAssessment:       risk.Risk,
			RiskConfidence:       risk.Confidence,
			CloseoutStatus:       CloseoutStatus(eval.Answer, risk.Risk),
			Trace:                NewTrace(),
		})
	}

	missing, misaligned := missingMisaligned(foundTypes, verdicts)
	for i := range outputs {
		outputs[i].MissingClauses = missing
		outputs[i].MisalignedClauses = misaligned
	}

	return outputs, nil
}

// clauseFileSchema is the accepted shape of a batch clause file: a list of
// clause objects each carrying its body under "text" or "clause_text".
const clauseFileSchema = `{
  "$schema": "https://json-schema.org/draft/2020-12/schema",
  "type": "array",
  "items": {
    "type": "object",
    "anyOf": [
      {"required": ["text"]},
      {"required": ["clause_text"]}
    ],
    "properties": {
      "clause_id": {"type": ["string", "number", "null"]},
      "title": {"type": ["string", "null"]},
      "text": {"type": "string"},
      "clause_text": {"type": "string"}
    }
  }
}`

var clauseFileSchemaCompiled = jsonschema.MustCompileString("clause_file.json", clauseFileSchema)

// BatchResult reports the outcome for one file of a batch: either the
// written output path or an explicit skip reason. No file is dropped
// silently.
type BatchResult struct {
	File       string `json:"file"`
	OutputPath string `json:"output_path,omitempty"`
	Skipped    bool   `json:"skipped"`
	Reason     string `json:"reason,omitempty"`
	Clauses    int    `json:"clauses"`
}

// ProcessBatch validates every *.json clause file in inputDir and writes
// <name>_validated.json files into outputDir. A malformed file is skipped
// with a warning and does not abort sibling files; a model failure fails
// only the file it occurred in.
func (v *Validator) ProcessBatch(ctx context.Context, inputDir, outputDir string) ([]BatchResult, error) {
	entries, err := os.ReadDir(inputDir)
	if err != nil {
		return nil, fmt.Errorf("failed to read clause folder: %w", err)
	}
	if err := os.MkdirAll(outputDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create output folder: %w", err)
	}

	var results []BatchResult
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".json") {
			continue
		}
		results = append(results, v.processBatchFile(ctx, inputDir, outputDir, entry.Name()))
	}
	return results, nil
}

func (v *Validator) processBatchFile(ctx context.Context, inputDir, outputDir, name string) BatchResult {
	skip := func(reason string) BatchResult {
		log.Printf("Warning: %s skipped (%s)", name, reason)
		return BatchResult{File: name, Skipped: true, Reason: reason}
	}

	raw, err := os.ReadFile(filepath.Join(inputDir, name))
	if err != nil {
		return skip(fmt.Sprintf("unreadable: %v", err))
	}

	var shape interface{}
	if err := json.Unmarshal(raw, &shape); err != nil {
		return skip(fmt.Sprintf("invalid JSON: %v", err))
	}
	if err := clauseFileSchemaCompiled.Validate(shape); err != nil {
		return skip("not a clause list")
	}

	var clauses []models.ClauseInput
	if err := json.Unmarshal(raw, &clauses); err != nil {
		return skip(fmt.Sprintf("invalid clause entries: %v", err))
	}

	validated, err := v.ValidateDocument(ctx, name, clauses)
	if err != nil {
		return skip(fmt.Sprintf("validation failed: %v", err))
	}

	outPath := filepath.Join(outputDir, strings.TrimSuffix(name, ".json")+"_validated.json")
	out, err := json.MarshalIndent(validated, "", "  ")
	if err != nil {
		return skip(fmt.Sprintf("failed to encode output: %v", err))
	}
	if err := os.WriteFile(outPath, out, 0644); err != nil {
		return skip(fmt.Sprintf("failed to write output: %v", err))
	}

	return BatchResult{File: name, OutputPath: outPath, Clauses: len(validated)}
}

// truncateTokens keeps the first n whitespace-delimited tokens of text.
func truncateTokens(text string, n int) string {
	tokens := strings.Fields(text)
	if len(tokens) <= n {
		return text
	}
	return strings.Join(tokens[:n], " ")
}
