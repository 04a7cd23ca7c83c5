package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// DefaultTermsDays applies only when no level of the cascade carries
// payment terms at all.
const DefaultTermsDays = 30

// TaxSettings is the fully resolved tax outcome for a document.
type TaxSettings struct {
	Enabled bool
	Rate    decimal.Decimal
	Name    string
}

// TaxOverrideMode is the explicit tri-state of a tax override level.
// Inherit falls through to the next level of the cascade; Enabled and
// Disabled both stop the cascade and adopt the level as a whole.
type TaxOverrideMode int8

const (
	TaxInherit TaxOverrideMode = iota
	TaxEnabled
	TaxDisabled
)

// TaxOverride is one level of the invoice > client > profile tax cascade.
type TaxOverride struct {
	Mode TaxOverrideMode
	Rate decimal.Decimal
	Name string
}

// TaxOverrideFromNullable maps a nullable enabled column to the tri-state.
// A nil enabled means the level inherits.
func TaxOverrideFromNullable(enabled *bool, rate decimal.Decimal, name string) TaxOverride {
	if enabled == nil {
		return TaxOverride{Mode: TaxInherit}
	}
	if !*enabled {
		return TaxOverride{Mode: TaxDisabled, Name: name}
	}
	return TaxOverride{Mode: TaxEnabled, Rate: rate, Name: name}
}

func (o TaxOverride) settings() TaxSettings {
	if o.Mode == TaxEnabled {
		return TaxSettings{Enabled: true, Rate: o.Rate, Name: o.Name}
	}
	return TaxSettings{Enabled: false, Rate: decimal.Zero, Name: o.Name}
}

// ResolveTax walks the cascade and adopts the first level whose override is
// not Inherit, as a whole. The profile level always terminates the cascade.
func ResolveTax(invoice, client TaxOverride, global TaxSettings) TaxSettings {
	if invoice.Mode != TaxInherit {
		return invoice.settings()
	}
	if client.Mode != TaxInherit {
		return client.settings()
	}
	if !global.Enabled {
		return TaxSettings{Enabled: false, Rate: decimal.Zero, Name: global.Name}
	}
	return global
}

// ResolveDueDate picks the effective due date. An explicit due date wins
// outright and stays sticky; otherwise the first non-nil terms value applies
// in invoice > client > profile order, as plain calendar days.
func ResolveDueDate(issueDate time.Time, explicitDue *time.Time, invoiceTerms, clientTerms *int, globalTerms int) time.Time {
	if explicitDue != nil {
		return *explicitDue
	}
	return issueDate.AddDate(0, 0, ResolveTermsDays(invoiceTerms, clientTerms, globalTerms))
}

// ResolveTermsDays picks the effective payment terms in days. Zero global
// terms means due on receipt and is honored as-is; only a negative value
// counts as unset.
func ResolveTermsDays(invoiceTerms, clientTerms *int, globalTerms int) int {
	switch {
	case invoiceTerms != nil:
		return *invoiceTerms
	case clientTerms != nil:
		return *clientTerms
	case globalTerms >= 0:
		return globalTerms
	default:
		return DefaultTermsDays
	}
}

// TaxAmount rounds subtotal * rate / 100 to the currency minor unit. All
// currencies in scope use two decimal places.
func TaxAmount(subtotal decimal.Decimal, tax TaxSettings) decimal.Decimal {
	if !tax.Enabled {
		return decimal.Zero
	}
	return subtotal.Mul(tax.Rate).Div(decimal.NewFromInt(100)).Round(2)
}

// ValidateTermsDays rejects negative payment terms at the boundary.
func ValidateTermsDays(days int) error {
	if days < 0 {
		return ErrInvalidTermsDays
	}
	return nil
}

// ValidateTaxRate rejects tax rates outside the 0..100 percent range.
func ValidateTaxRate(rate decimal.Decimal) error {
	if rate.IsNegative() || rate.GreaterThan(decimal.NewFromInt(100)) {
		return ErrInvalidTaxRate
	}
	return nil
}
