package service

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSegmentSplitsOnHeadings(t *testing.T) {
	s := NewSegmenter()

	text := strings.Join([]string{
		"This agreement is made between the parties.",
		"1. Definitions",
		"Words carry their usual meanings.",
		"Defined terms are capitalized.",
		"2. Payment",
		"Invoices are due in thirty days.",
	}, "\n")

	clauses := s.Segment(text, "contract.txt")
	require.Len(t, clauses, 3)

	assert.Equal(t, "0", clauses[0].ClauseID)
	assert.Equal(t, "Preamble", clauses[0].Title)
	assert.Equal(t, "This agreement is made between the parties.", strings.TrimSpace(clauses[0].Text))

	assert.Equal(t, "1", clauses[1].ClauseID)
	assert.Equal(t, "Definitions", clauses[1].Title)
	assert.Equal(t, "Words carry their usual meanings. Defined terms are capitalized.", strings.TrimSpace(clauses[1].Text))

	assert.Equal(t, "2", clauses[2].ClauseID)
	assert.Equal(t, "Payment", clauses[2].Title)
	assert.Equal(t, "Invoices are due in thirty days.", strings.TrimSpace(clauses[2].Text))

	for _, clause := range clauses {
		assert.Equal(t, "contract.txt", clause.SourceFile)
		assert.Equal(t, clause.ClauseID, clause.SectionPath)
	}
}

func TestSegmentLabeledAndDottedHeadings(t *testing.T) {
	s := NewSegmenter()

	text := strings.Join([]string{
		"Section 4.1 Governing Law",
		"This agreement is governed by federal procurement rules.",
		"Article XI Indemnity",
		"Each party holds the other harmless.",
	}, "\n")

	clauses := s.Segment(text, "")
	require.Len(t, clauses, 2)

	assert.Equal(t, "4.1", clauses[0].ClauseID)
	assert.Equal(t, "Governing Law", clauses[0].Title)
	assert.Equal(t, "XI", clauses[1].ClauseID)
	assert.Equal(t, "Indemnity", clauses[1].Title)
}

func TestSegmentHeadingLineNeverEntersBody(t *testing.T) {
	s := NewSegmenter()

	clauses := s.Segment("1. Termination\nEither party may end this agreement.", "")
	require.Len(t, clauses, 1)
	assert.NotContains(t, clauses[0].Text, "Termination")
	assert.Equal(t, "Either party may end this agreement.", strings.TrimSpace(clauses[0].Text))
}

func TestSegmentPreambleOnly(t *testing.T) {
	s := NewSegmenter()

	clauses := s.Segment("Just some unstructured text.\nWith a second line.", "notes.txt")
	require.Len(t, clauses, 1)
	assert.Equal(t, "0", clauses[0].ClauseID)
	assert.Equal(t, "Preamble", clauses[0].Title)
	assert.Equal(t, "Just some unstructured text. With a second line.", strings.TrimSpace(clauses[0].Text))
}

func TestSegmentEmptyText(t *testing.T) {
	s := NewSegmenter()

	assert.Empty(t, s.Segment("", ""))
	assert.Empty(t, s.Segment("\n\n  \n", ""))
}

func TestSegmentEveryLineAccountedFor(t *testing.T) {
	s := NewSegmenter()

	text := strings.Join([]string{
		"Opening recital.",
		"1. Scope",
		"The vendor supplies parts.",
		"2. Warranty",
	}, "\n")

	clauses := s.Segment(text, "")
	require.Len(t, clauses, 3)

	// A trailing heading still yields a clause with an empty body.
	assert.Equal(t, "Warranty", clauses[2].Title)
	assert.Equal(t, "", strings.TrimSpace(clauses[2].Text))
}
