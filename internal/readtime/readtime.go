// Package readtime estimates how long a document takes to read.
package readtime

import (
	"math"
	"strings"

	"github.com/starford/folio/internal/block"
)

const (
	// WordsPerMinute is the assumed reading speed.
	WordsPerMinute = 200
	// CodeLineWords is the word weight of one non-blank line of code.
	CodeLineWords = 2
	// fallbackPerBlock is the minutes-per-block guess used when no estimate
	// was stored.
	fallbackPerBlock = 0.5
)

// Words returns the weighted word count of one block.
func Words(b block.Block) int {
	switch p := b.Payload.(type) {
	case *block.Paragraph:
		return len(strings.Fields(p.Text))
	case *block.Heading:
		return len(strings.Fields(p.Text))
	case *block.Quote:
		return len(strings.Fields(p.Text))
	case *block.List:
		n := 0
		for _, it := range p.Items {
			n += len(strings.Fields(it))
		}
		return n
	case *block.Code:
		return codeLines(p.Text) * CodeLineWords
	}
	return 0
}

func codeLines(src string) int {
	n := 0
	for line := range strings.Lines(src) {
		if strings.TrimSpace(line) != "" {
			n++
		}
	}
	return n
}

// Estimate returns the reading time of doc in whole minutes, rounded up.
// An empty document reads in zero minutes.
func Estimate(doc block.Document) int {
	words := 0
	for _, b := range doc {
		words += Words(b)
	}
	return (words + WordsPerMinute - 1) / WordsPerMinute
}

// Fallback guesses a reading time from the number of blocks alone, for
// projects saved without an estimate.
func Fallback(blocks int) int {
	return int(math.Ceil(float64(blocks) * fallbackPerBlock))
}
