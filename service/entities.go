package service

import (
	"context"
	"regexp"
)

// EntityTagger extracts named entities from document text, keyed by entity
// label (ORG, PER, DATE, MONEY, MISC).
type EntityTagger interface {
	Entities(ctx context.Context, text string) (map[string]string, error)
}

// HeuristicTagger is the pattern-based entity pass. It supplies default
// entities that the model-based tagger may override.
type HeuristicTagger struct{}

// NewHeuristicTagger creates a new heuristic entity tagger.
func NewHeuristicTagger() *HeuristicTagger {
	return &HeuristicTagger{}
}

var (
	orgRe = regexp.MustCompile(`\b([A-Z][A-Za-z&.]*(?: [A-Z][A-Za-z&.]*)* (?:Inc|LLC|L\.L\.C|Ltd|Corp|Corporation|Company|Co|Agency|Department|Solutions|Systems|Technologies)\.?)`)
	perRe = regexp.MustCompile(`\b(?:Mr|Mrs|Ms|Dr)\.? ([A-Z][a-z]+(?: [A-Z][a-z]+)?)`)
)

// Entities scans text for organizations, persons, dates and monetary
// amounts. It never fails; an empty map means nothing matched.
func (t *HeuristicTagger) Entities(ctx context.Context, text string) (map[string]string, error) {
	entities := make(map[string]string)

	if m := orgRe.FindStringSubmatch(text); m != nil {
		entities["ORG"] = m[1]
	}
	if m := perRe.FindStringSubmatch(text); m != nil {
		entities["PER"] = m[1]
	}
	if m := dateRe.FindString(text); m != "" {
		entities["DATE"] = m
	}
	if m := moneyRe.FindString(text); m != "" {
		entities["MONEY"] = m
	}

	return entities, nil
}
