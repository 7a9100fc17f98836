package service

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeFixesTypographicArtifacts(t *testing.T) {
	n := NewNormalizer()

	out := n.Normalize("The ﬁrm’s “conﬁdential” ﬁling — costs…")

	assert.Equal(t, `The firm's "confidential" filing -- costs...`, out)
}

func TestNormalizeRemovesStrayBackslashes(t *testing.T) {
	n := NewNormalizer()

	out := n.Normalize(`payment \\ terms \apply`)

	assert.Equal(t, "payment terms apply", out)
}

func TestNormalizeRejoinsHyphenLineBreaks(t *testing.T) {
	n := NewNormalizer()

	out := n.Normalize("the pay-\nment schedule and non-disclosure terms")

	assert.Contains(t, out, "payment schedule")
	// Hyphens inside a line are legitimate compounds and must survive.
	assert.Contains(t, out, "non-disclosure")
}

func TestNormalizeInsertsHeadingBreaks(t *testing.T) {
	n := NewNormalizer()

	out := n.Normalize("Agreement between the parties. 1. Definitions In this agreement. 2) Term The term runs for three years. Section 4.1 Payment terms apply.")

	lines := strings.Split(out, "\n")
	assert.Contains(t, lines, "Agreement between the parties.")
	assert.Contains(t, lines, "1. Definitions In this agreement.")
	assert.Contains(t, lines, "2) Term The term runs for three years.")
	assert.Contains(t, lines, "Section 4.1 Payment terms apply.")
}

func TestNormalizeLeavesBareNumbersAlone(t *testing.T) {
	n := NewNormalizer()

	out := n.Normalize("Invoices are due within 30 days of receipt.")

	assert.Equal(t, "Invoices are due within 30 days of receipt.", out)
}

func TestNormalizeCollapsesWhitespace(t *testing.T) {
	n := NewNormalizer()

	out := n.Normalize("  too\t\tmuch \n\n space  ")

	assert.Equal(t, "too much space", out)
}

func TestNormalizeEmptyInput(t *testing.T) {
	n := NewNormalizer()

	assert.Equal(t, "", n.Normalize(""))
	assert.Equal(t, "", n.Normalize("   \n\t  "))
}

func TestNormalizeIsIdempotent(t *testing.T) {
	n := NewNormalizer()

	inputs := []string{
		"Agreement preamble. 1. Definitions Words have meanings. 2. Term Five years.",
		"the pay-\nment schedule — “effective” Jan-\nuary terms",
		"Section 12 Termination Either party may terminate.",
		"",
	}

	for _, input := range inputs {
		once := n.Normalize(input)
		assert.Equal(t, once, n.Normalize(once))
	}
}
