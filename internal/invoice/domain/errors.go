package domain

import "errors"

var (
	ErrInvalidID        = errors.New("invalid_id")
	ErrNotFound         = errors.New("not_found")
	ErrInvalidKind      = errors.New("invalid_kind")
	ErrInvalidIssueDate = errors.New("invalid_issue_date")
	ErrInvalidTermsDays = errors.New("invalid_terms_days")
	ErrInvalidTaxRate   = errors.New("invalid_tax_rate")
	ErrInvalidQuantity  = errors.New("invalid_quantity")
	ErrNoItems          = errors.New("no_items")
	ErrInvalidStatus    = errors.New("invalid_status_transition")
	ErrNotTrashed       = errors.New("not_trashed")
	ErrTrashed          = errors.New("document_trashed")
	ErrNotQuote         = errors.New("not_a_quote")

	// ErrNumberConflict reports that document-number assignment kept losing
	// the uniqueness race after the bounded retries.
	ErrNumberConflict = errors.New("document_number_conflict")
)
