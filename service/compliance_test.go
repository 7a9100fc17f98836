package service

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lavaait/clauseIQ/models"
)

type stubRetriever struct {
	chunks []models.RegulationChunk
	err    error
}

func (s *stubRetriever) TopK(ctx context.Context, query string, k int) ([]models.RegulationChunk, error) {
	if s.err != nil {
		return nil, s.err
	}
	if k > len(s.chunks) {
		k = len(s.chunks)
	}
	return s.chunks[:k], nil
}

// stubGenerator answers risk prompts with risk and everything else with
// verdict, optionally varying the verdict by clause keyword.
type stubGenerator struct {
	verdict    string
	risk       string
	verdictFor map[string]string
	err        error
}

func (s *stubGenerator) Generate(ctx context.Context, prompt string) (string, error) {
	if s.err != nil {
		return "", s.err
	}
	if strings.Contains(prompt, "Rate the following clause's risk level") {
		return s.risk, nil
	}
	for keyword, verdict := range s.verdictFor {
		if strings.Contains(prompt, keyword) {
			return verdict, nil
		}
	}
	return s.verdict, nil
}

type stubScorer struct {
	score float64
	err   error
}

func (s *stubScorer) Score(ctx context.Context, clauseText, question string) (float64, error) {
	return s.score, s.err
}

func regulationChunks() []models.RegulationChunk {
	return []models.RegulationChunk{
		{Text: "FAR 52.212-4 Contract Terms and Conditions."},
		{Text: "DFARS 252.232-7003 Electronic submission of payment requests."},
		{Text: "FAR 52.249-2 Termination for convenience."},
	}
}

func newTestValidator(gen *stubGenerator, scorer *stubScorer) *Validator {
	return NewValidator(
		ValidateWithRetriever(&stubRetriever{chunks: regulationChunks()}),
		ValidateWithGenerator(gen),
		ValidateWithScorer(scorer),
	)
}

func TestCloseoutStatusTable(t *testing.T) {
	cases := []struct {
		name   string
		answer string
		risk   string
		want   string
	}{
		{"compliant low risk", "Compliant, see FAR 52.212-4", "Low risk", "Passed"},
		{"compliant high risk", "Compliant per FAR 52.212-4", "High risk for the government", "Review Required"},
		{"non-compliant verdict", "Non-compliant with DFARS 252.232", "Low risk", "Review Required"},
		{"noncompliant one word", "This clause is Noncompliant.", "Low", "Review Required"},
		{"non compliant spaced", "non compliant overall", "low", "Review Required"},
		{"no verdict keyword", "The clause references FAR 12.3", "Low", "Review Required"},
		{"negated then affirmed", "Not non-compliant; it is compliant.", "Low", "Passed"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, CloseoutStatus(tc.answer, tc.risk))
		})
	}
}

func TestEvaluateClauseRoundsConfidence(t *testing.T) {
	v := newTestValidator(
		&stubGenerator{verdict: "Compliant, see FAR 52.212-4", risk: "Low"},
		&stubScorer{score: 0.87654},
	)

	eval, err := v.EvaluateClause(context.Background(), "Payment due in 30 days.")
	require.NoError(t, err)

	assert.Equal(t, "Compliant, see FAR 52.212-4", eval.Answer)
	assert.Equal(t, 0.877, eval.Confidence)
}

func TestEvaluateClauseRetrievalFailure(t *testing.T) {
	v := NewValidator(
		ValidateWithRetriever(&stubRetriever{err: errors.New("store down")}),
		ValidateWithGenerator(&stubGenerator{}),
		ValidateWithScorer(&stubScorer{}),
	)

	_, err := v.EvaluateClause(context.Background(), "any clause")
	assert.ErrorIs(t, err, ErrRetrievalFailed)
}

func TestDetectRiskConfidenceIsNotNumeric(t *testing.T) {
	v := newTestValidator(&stubGenerator{risk: "Medium. One-sided termination rights."}, &stubScorer{})

	rating, err := v.DetectRisk(context.Background(), "clause text")
	require.NoError(t, err)

	assert.Equal(t, "Medium. One-sided termination rights.", rating.Risk)
	assert.Equal(t, "N/A", rating.Confidence)
}

func TestValidateDocumentEmptyListRejected(t *testing.T) {
	v := newTestValidator(&stubGenerator{}, &stubScorer{})

	_, err := v.ValidateDocument(context.Background(), "contract.json", nil)
	assert.ErrorIs(t, err, ErrEmptyClauseList)
}

func TestValidateDocumentMissingAndMisaligned(t *testing.T) {
	gen := &stubGenerator{
		verdict: "Compliant, see FAR 52.212-4",
		risk:    "Low risk",
		verdictFor: map[string]string{
			"terminate": "Non-compliant with FAR 52.249-2",
		},
	}
	v := newTestValidator(gen, &stubScorer{score: 0.9})

	clauses := []models.ClauseInput{
		{ClauseID: "1", Text: "Either party may terminate this agreement."},
		{ClauseID: "2", Text: "Invoices and payment are due in thirty days."},
	}

	validated, err := v.ValidateDocument(context.Background(), "contract.json", clauses)
	require.NoError(t, err)
	require.Len(t, validated, 2)

	// Order of the expected-clause checklist is preserved.
	wantMissing := []string{"Governing Law", "Confidentiality", "Indemnity"}
	wantMisaligned := []string{"Termination"}
	for _, clause := range validated {
		assert.Equal(t, wantMissing, clause.MissingClauses)
		assert.Equal(t, wantMisaligned, clause.MisalignedClauses)
	}

	assert.Equal(t, "Termination", validated[0].Title)
	assert.Equal(t, "Review Required", validated[0].CloseoutStatus)
	assert.Equal(t, "Payment", validated[1].Title)
	assert.Equal(t, "Passed", validated[1].CloseoutStatus)
}

func TestValidateDocumentSkipsBodilessClauses(t *testing.T) {
	v := newTestValidator(
		&stubGenerator{verdict: "Compliant", risk: "Low"},
		&stubScorer{score: 0.5},
	)

	clauses := []models.ClauseInput{
		{ClauseID: "1", Title: "Empty"},
		{ClauseID: "2", ClauseText: "Payment is due on invoice."},
	}

	validated, err := v.ValidateDocument(context.Background(), "contract.json", clauses)
	require.NoError(t, err)
	require.Len(t, validated, 1)
	assert.Equal(t, "2", validated[0].ClauseID)
	assert.Equal(t, "Payment is due on invoice.", validated[0].ClauseText)
}

func TestValidateDocumentFreshTraces(t *testing.T) {
	v := newTestValidator(
		&stubGenerator{verdict: "Compliant", risk: "Low"},
		&stubScorer{score: 0.5},
	)

	clauses := []models.ClauseInput{
		{ClauseID: "1", Text: "Payment is due on invoice."},
		{ClauseID: "2", Text: "Fees accrue monthly."},
	}

	validated, err := v.ValidateDocument(context.Background(), "contract.json", clauses)
	require.NoError(t, err)
	require.Len(t, validated, 2)
	assert.NotEqual(t, validated[0].Trace.TraceID, validated[1].Trace.TraceID)
}

func TestProcessBatchIsolatesBadFiles(t *testing.T) {
	inputDir := t.TempDir()
	outputDir := t.TempDir()

	goodClauses := []models.ClauseInput{{ClauseID: "1", Text: "Payment due in thirty days."}}
	goodRaw, err := json.Marshal(goodClauses)
	require.NoError(t, err)

	require.NoError(t, os.WriteFile(filepath.Join(inputDir, "a.json"), goodRaw, 0644))
	require.NoError(t, os.WriteFile(filepath.Join(inputDir, "b.json"), []byte(`{"not":"a list"}`), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(inputDir, "c.json"), goodRaw, 0644))
	require.NoError(t, os.WriteFile(filepath.Join(inputDir, "notes.txt"), []byte("ignored"), 0644))

	v := newTestValidator(
		&stubGenerator{verdict: "Compliant", risk: "Low"},
		&stubScorer{score: 0.5},
	)

	results, err := v.ProcessBatch(context.Background(), inputDir, outputDir)
	require.NoError(t, err)
	require.Len(t, results, 3)

	byFile := make(map[string]BatchResult)
	for _, result := range results {
		byFile[result.File] = result
	}

	assert.False(t, byFile["a.json"].Skipped)
	assert.True(t, byFile["b.json"].Skipped)
	assert.NotEmpty(t, byFile["b.json"].Reason)
	assert.False(t, byFile["c.json"].Skipped)

	// Output files exist for the good inputs and parse back.
	for _, name := range []string{"a_validated.json", "c_validated.json"} {
		raw, err := os.ReadFile(filepath.Join(outputDir, name))
		require.NoError(t, err)
		var out []models.ValidatedClause
		require.NoError(t, json.Unmarshal(raw, &out))
		require.Len(t, out, 1)
		assert.Equal(t, "Passed", out[0].CloseoutStatus)
	}

	_, err = os.Stat(filepath.Join(outputDir, "b_validated.json"))
	assert.True(t, os.IsNotExist(err))
}

func TestProcessBatchClauseTextOnlyFiles(t *testing.T) {
	inputDir := t.TempDir()
	outputDir := t.TempDir()

	raw := []byte(`[{"clause_id": 3, "clause_text": "Fees are payable quarterly."}]`)
	require.NoError(t, os.WriteFile(filepath.Join(inputDir, "legacy.json"), raw, 0644))

	v := newTestValidator(
		&stubGenerator{verdict: "Compliant", risk: "Low"},
		&stubScorer{score: 0.5},
	)

	results, err := v.ProcessBatch(context.Background(), inputDir, outputDir)
	require.NoError(t, err)
	require.Len(t, results, 1)
	require.False(t, results[0].Skipped)

	out, err := os.ReadFile(results[0].OutputPath)
	require.NoError(t, err)
	var validated []models.ValidatedClause
	require.NoError(t, json.Unmarshal(out, &validated))
	require.Len(t, validated, 1)
	assert.Equal(t, "3", validated[0].ClauseID)
	assert.Equal(t, "Fees are payable quarterly.", validated[0].ClauseText)
}
