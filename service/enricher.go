package service

import (
	"context"
	"errors"
	"log"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/lavaait/clauseIQ/models"
)

const (
	// Clauses below either threshold are returned as-is, never summarized.
	minSummaryChars = 100
	minSummaryWords = 25

	// Summary target length: ~60% of input word count, between 20 and 40.
	summaryMaxWords   = 40
	summaryFloorWords = 20

	classifyWindow = 512
)

var (
	ErrClassifierNotSet = errors.New("classifier not set")
	ErrOpinionNotSet    = errors.New("opinion generator not set")
)

// Classifier assigns a single type label to clause text.
type Classifier interface {
	Classify(ctx context.Context, text string) (string, error)
}

// Summarizer produces an abstractive summary of at most maxWords words.
type Summarizer interface {
	Summarize(ctx context.Context, text string, maxWords int) (string, error)
}

// OpinionGenerator produces the free-text compliance opinion for a clause.
type OpinionGenerator interface {
	Opinion(ctx context.Context, clauseText string) (string, error)
}

// Enricher runs the per-clause enrichment stages: rule-based classification,
// model classification, length-gated summarization and the validation
// opinion.
type Enricher struct {
	classifier Classifier
	summarizer Summarizer
	opinions   OpinionGenerator
	rules      []ClauseRule
}

// EnricherOption is a functional option for Enricher.
type EnricherOption func(*Enricher)

// EnrichWithClassifier sets the model-based classifier.
func EnrichWithClassifier(c Classifier) EnricherOption {
	return func(e *Enricher) {
		e.classifier = c
	}
}

// EnrichWithSummarizer sets the summarization backend.
func EnrichWithSummarizer(s Summarizer) EnricherOption {
	return func(e *Enricher) {
		e.summarizer = s
	}
}

// EnrichWithOpinionGenerator sets the validation-opinion backend.
func EnrichWithOpinionGenerator(o OpinionGenerator) EnricherOption {
	return func(e *Enricher) {
		e.opinions = o
	}
}

// EnrichWithRules overrides the ordered rule set.
func EnrichWithRules(rules []ClauseRule) EnricherOption {
	return func(e *Enricher) {
		e.rules = rules
	}
}

// NewEnricher creates a clause enricher.
func NewEnricher(opts ...EnricherOption) *Enricher {
	e := &Enricher{
		rules: EnrichmentRules(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Enrich classifies, summarizes and validates one clause. Classification
// and opinion failures propagate to the caller; summarization degrades to a
// placeholder. Metadata is merged only when non-nil, never synthesized.
func (e *Enricher) Enrich(ctx context.Context, clause models.ClauseRecord, metadata *models.DocumentMetadata) (models.EnrichedClause, error) {
	if e.classifier == nil {
		return models.EnrichedClause{}, ErrClassifierNotSet
	}
	if e.opinions == nil {
		return models.EnrichedClause{}, ErrOpinionNotSet
	}

	text := strings.TrimSpace(clause.Text)

	transformerType, err := e.classifier.Classify(ctx, truncateChars(text, classifyWindow))
	if err != nil {
		return models.EnrichedClause{}, err
	}

	validation, err := e.opinions.Opinion(ctx, text)
	if err != nil {
		return models.EnrichedClause{}, err
	}

	enriched := models.EnrichedClause{
		ClauseID:        clause.ClauseID,
		Title:           clause.Title,
		Text:            text,
		SourceFile:      clause.SourceFile,
		SectionPath:     clause.SectionPath,
		RuleBasedType:   RuleClassify(text, e.rules),
		TransformerType: transformerType,
		Summary:         e.summarize(ctx, text),
		Validation:      validation,
		Trace:           NewTrace(),
		Status:          "processed",
	}

	if metadata != nil {
		enriched.ContractNumber = metadata.ContractNumber
		enriched.ContractType = metadata.ContractType
		enriched.VendorName = metadata.VendorName
		enriched.ContractValue = metadata.ContractValue
		enriched.Threshold = metadata.Threshold
		enriched.StartDate = metadata.StartDate
		enriched.EndDate = metadata.EndDate
	}

	return enriched, nil
}

// summarize is best-effort: short clauses are returned verbatim, and any
// backend failure degrades to a fixed placeholder.
func (e *Enricher) summarize(ctx context.Context, text string) string {
	trimmed := strings.TrimSpace(text)
	wordCount := len(strings.Fields(trimmed))
	if len(trimmed) < minSummaryChars || wordCount < minSummaryWords {
		return trimmed
	}

	maxWords := int(float64(wordCount) * 0.6)
	if maxWords > summaryMaxWords {
		maxWords = summaryMaxWords
	}
	if maxWords < summaryFloorWords {
		maxWords = summaryFloorWords
	}

	if e.summarizer == nil {
		log.Printf("Warning: no summarizer configured")
		return "Summary not available"
	}

	summary, err := e.summarizer.Summarize(ctx, truncateChars(trimmed, classifyWindow), maxWords)
	if err != nil {
		log.Printf("Warning: summarization failed: %v", err)
		return "Summary not available"
	}
	return summary
}

// NewTrace generates a fresh trace id and UTC timestamp, independent of any
// upstream id.
func NewTrace() models.Trace {
	return models.Trace{
		TraceID:   uuid.New().String(),
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	}
}

func truncateChars(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
