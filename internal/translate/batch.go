package translate

import (
	"fmt"

	"github.com/JoaoFavoreto/Powerpoint-translator/internal/extract"
)

// Result pairs a text unit with its translation.
type Result struct {
	Unit extract.TextUnit
	Text string
}

// EncodeBatch flattens units into the single ordered payload sent to
// the provider. Element i is the text of the unit with ID i; the
// whole document goes in one request.
func EncodeBatch(units []extract.TextUnit) []string {
	texts := make([]string, len(units))
	for i, u := range units {
		texts[i] = u.Text
	}
	return texts
}

// DecodeBatch pairs response element i with the unit whose ID is i.
// Alignment rests on position alone, never on text matching, so a
// response of the wrong length fails with ErrAlignmentMismatch before
// anything is written back.
func DecodeBatch(units []extract.TextUnit, translated []string) ([]Result, error) {
	if len(translated) != len(units) {
		return nil, fmt.Errorf("%w: sent %d texts, received %d", ErrAlignmentMismatch, len(units), len(translated))
	}
	results := make([]Result, len(units))
	for i, u := range units {
		results[i] = Result{Unit: u, Text: translated[i]}
	}
	return results, nil
}
