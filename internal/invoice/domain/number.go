package domain

import (
	"strconv"
	"strings"
	"time"
)

const datePrefixLayout = "20060102"

// DatePrefix formats the document-number prefix for an issue date. Quotes
// carry a leading "Q-" so invoice and quote sequences never collide.
func DatePrefix(issueDate time.Time, kind DocumentKind) string {
	prefix := issueDate.UTC().Format(datePrefixLayout)
	if kind == KindQuote {
		return "Q-" + prefix
	}
	return prefix
}

// NextDocumentNumber computes the next free number for the given issue date
// and kind: the highest parseable sequence among the existing numbers with
// the same prefix, plus one. Sequences start at 1 and gaps are never refilled,
// so a number is never reissued even after its document is trashed.
//
// Numbers that share the prefix but do not end in an integer are manually
// entered identifiers; they are skipped, never an error.
func NextDocumentNumber(issueDate time.Time, kind DocumentKind, existing []string) string {
	prefix := DatePrefix(issueDate, kind)

	max := 0
	for _, number := range existing {
		seq, ok := sequenceOf(number, prefix)
		if ok && seq > max {
			max = seq
		}
	}

	return prefix + "-" + strconv.Itoa(max+1)
}

// sequenceOf extracts the integer suffix of a number under the given prefix.
func sequenceOf(number, prefix string) (int, bool) {
	if !strings.HasPrefix(number, prefix+"-") {
		return 0, false
	}
	segments := strings.Split(number, "-")
	seq, err := strconv.Atoi(segments[len(segments)-1])
	if err != nil {
		return 0, false
	}
	return seq, true
}
