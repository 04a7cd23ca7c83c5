package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestDatePrefix(t *testing.T) {
	issue := day(2025, time.June, 23)
	assert.Equal(t, "20250623", DatePrefix(issue, KindInvoice))
	assert.Equal(t, "Q-20250623", DatePrefix(issue, KindQuote))
}

func TestNextDocumentNumber(t *testing.T) {
	issue := day(2025, time.June, 23)

	tests := []struct {
		name     string
		kind     DocumentKind
		existing []string
		want     string
	}{
		{
			name:     "first of the day",
			kind:     KindInvoice,
			existing: nil,
			want:     "20250623-1",
		},
		{
			name:     "increments past the max",
			kind:     KindInvoice,
			existing: []string{"20250623-1", "20250623-2"},
			want:     "20250623-3",
		},
		{
			name:     "no gap reuse after deletion",
			kind:     KindInvoice,
			existing: []string{"20250623-1", "20250623-3"},
			want:     "20250623-4",
		},
		{
			name:     "malformed suffixes are skipped",
			kind:     KindInvoice,
			existing: []string{"20250623-1", "20250623-abc", "20250623-3"},
			want:     "20250623-4",
		},
		{
			name:     "other days do not count",
			kind:     KindInvoice,
			existing: []string{"20250622-9", "20250624-2"},
			want:     "20250623-1",
		},
		{
			name:     "quotes do not count toward invoices",
			kind:     KindInvoice,
			existing: []string{"Q-20250623-5"},
			want:     "20250623-1",
		},
		{
			name:     "invoices do not count toward quotes",
			kind:     KindQuote,
			existing: []string{"20250623-5", "Q-20250623-1"},
			want:     "Q-20250623-2",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, NextDocumentNumber(issue, tt.kind, tt.existing))
		})
	}
}

func TestNextDocumentNumberIdempotent(t *testing.T) {
	issue := day(2025, time.June, 23)
	existing := []string{"20250623-1", "20250623-2"}

	first := NextDocumentNumber(issue, KindInvoice, existing)
	second := NextDocumentNumber(issue, KindInvoice, existing)
	assert.Equal(t, first, second)

	// only after the candidate is persisted does the sequence move on
	next := NextDocumentNumber(issue, KindInvoice, append(existing, first))
	assert.Equal(t, "20250623-4", next)
}
