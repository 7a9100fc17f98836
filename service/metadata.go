package service

import (
	"context"
	"log"
	"regexp"
	"strings"

	"github.com/lavaait/clauseIQ/models"
)

var (
	dateRe  = regexp.MustCompile(`(?i)\b(?:\d{1,2}(?:st|nd|rd|th)?[-/\s.]?)?(?:Jan|Feb|Mar|Apr|May|Jun|Jul|Aug|Sep|Oct|Nov|Dec)[a-z]*[-/\s]?\d{2,4}\b|\b\d{4}[-/]\d{2}[-/]\d{2}\b`)
	moneyRe = regexp.MustCompile(`\$\s?\d{1,3}(?:,\d{3})*(?:\.\d{2})?`)

	// Full contract ids with known prefixes, like CN-2023-001, AGMT123456
	// or CON2021/55.
	contractNumberRe = regexp.MustCompile(`(?i)\b(?:CN|CTR|AGMT|CON)[-/ ]?\d{3,}(?:[-/]\d+)?\b`)
)

// contractTypeKeywords is checked in order; the first keyword contained in
// the lower-cased text wins.
var contractTypeKeywords = []string{
	"service agreement",
	"nda",
	"purchase order",
	"mou",
	"sow",
	"contract",
}

// MetadataExtractor derives document-level contract metadata from full
// document text using pattern matching plus two independent entity passes.
type MetadataExtractor struct {
	tagger      EntityTagger // heuristic defaults
	modelTagger EntityTagger // overrides labels both passes claim
}

// MetadataOption is a functional option for MetadataExtractor.
type MetadataOption func(*MetadataExtractor)

// MetadataWithTagger sets the heuristic entity tagger.
func MetadataWithTagger(t EntityTagger) MetadataOption {
	return func(e *MetadataExtractor) {
		e.tagger = t
	}
}

// MetadataWithModelTagger sets the model-based entity tagger.
func MetadataWithModelTagger(t EntityTagger) MetadataOption {
	return func(e *MetadataExtractor) {
		e.modelTagger = t
	}
}

// NewMetadataExtractor creates a metadata extractor.
func NewMetadataExtractor(opts ...MetadataOption) *MetadataExtractor {
	e := &MetadataExtractor{
		tagger: NewHeuristicTagger(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Extract derives contract metadata from text. Every field is independently
// optional; nothing here halts extraction of the other fields. A failed
// model tagger call degrades to the heuristic entities with a warning.
func (e *MetadataExtractor) Extract(ctx context.Context, text string) models.DocumentMetadata {
	// Cheap and idempotent with the normalizer, so safe to run twice.
	text = strings.TrimSpace(whitespaceRunRe.ReplaceAllString(text, " "))

	dates := dateRe.FindAllString(text, -1)
	money := moneyRe.FindAllString(text, -1)
	entities := e.mergedEntities(ctx, text)

	meta := models.DocumentMetadata{
		ContractType:   e.contractType(text),
		ContractNumber: firstMatch(contractNumberRe, text),
	}

	if org, ok := entities["ORG"]; ok {
		meta.VendorName = &org
	} else if per, ok := entities["PER"]; ok {
		meta.VendorName = &per
	}

	if len(money) > 0 {
		meta.ContractValue = &money[0]
	}
	if len(money) > 1 {
		meta.Threshold = &money[1]
	}
	if len(dates) > 0 {
		meta.StartDate = &dates[0]
	}
	if len(dates) > 1 {
		meta.EndDate = &dates[1]
	}

	return meta
}

// mergedEntities merges the two entity passes: heuristic entries as
// defaults, model entries overriding labels both passes claim.
func (e *MetadataExtractor) mergedEntities(ctx context.Context, text string) map[string]string {
	merged := make(map[string]string)

	if e.tagger != nil {
		if entities, err := e.tagger.Entities(ctx, text); err == nil {
			for label, value := range entities {
				merged[label] = value
			}
		} else {
			log.Printf("Warning: heuristic entity pass failed: %v", err)
		}
	}

	if e.modelTagger != nil {
		entities, err := e.modelTagger.Entities(ctx, text)
		if err != nil {
			log.Printf("Warning: model entity pass failed, using heuristic entities only: %v", err)
			return merged
		}
		for label, value := range entities {
			merged[label] = value
		}
	}

	return merged
}

func (e *MetadataExtractor) contractType(text string) *string {
	lower := strings.ToLower(text)
	for _, keyword := range contractTypeKeywords {
		if strings.Contains(lower, keyword) {
			title := titleCase(keyword)
			return &title
		}
	}
	return nil
}

func firstMatch(re *regexp.Regexp, text string) *string {
	if m := re.FindString(text); m != "" {
		return &m
	}
	return nil
}

// titleCase upper-cases the first letter of each space-separated word.
func titleCase(s string) string {
	words := strings.Fields(s)
	for i, w := range words {
		words[i] = strings.ToUpper(w[:1]) + w[1:]
	}
	return strings.Join(words, " ")
}
