package domain

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func intp(v int) *int    { return &v }
func boolp(v bool) *bool { return &v }

func TestResolveDueDate(t *testing.T) {
	issue := day(2025, time.January, 1)

	t.Run("explicit due date wins over everything", func(t *testing.T) {
		explicit := day(2025, time.March, 1)
		got := ResolveDueDate(issue, &explicit, intp(15), intp(7), 30)
		assert.Equal(t, explicit, got)
	})

	t.Run("invoice terms beat client terms", func(t *testing.T) {
		got := ResolveDueDate(issue, nil, intp(15), intp(7), 30)
		assert.Equal(t, day(2025, time.January, 16), got)
	})

	t.Run("client terms beat the global default", func(t *testing.T) {
		got := ResolveDueDate(issue, nil, nil, intp(7), 30)
		assert.Equal(t, day(2025, time.January, 8), got)
	})

	t.Run("global default applies last", func(t *testing.T) {
		got := ResolveDueDate(issue, nil, nil, nil, 30)
		assert.Equal(t, day(2025, time.January, 31), got)
	})

	t.Run("zero terms means due on issue", func(t *testing.T) {
		got := ResolveDueDate(issue, nil, intp(0), nil, 30)
		assert.Equal(t, issue, got)
	})

	t.Run("zero global terms means due on receipt", func(t *testing.T) {
		got := ResolveDueDate(issue, nil, nil, nil, 0)
		assert.Equal(t, issue, got)
	})
}

func TestResolveTermsDays(t *testing.T) {
	assert.Equal(t, 15, ResolveTermsDays(intp(15), intp(7), 30))
	assert.Equal(t, 7, ResolveTermsDays(nil, intp(7), 30))
	assert.Equal(t, 30, ResolveTermsDays(nil, nil, 30))
	assert.Equal(t, 0, ResolveTermsDays(nil, nil, 0))
	assert.Equal(t, DefaultTermsDays, ResolveTermsDays(nil, nil, -1))
}

func TestResolveTax(t *testing.T) {
	global := TaxSettings{Enabled: true, Rate: decimal.NewFromInt(19), Name: "VAT"}

	t.Run("inherit everywhere falls through to global", func(t *testing.T) {
		got := ResolveTax(TaxOverride{}, TaxOverride{}, global)
		assert.Equal(t, global, got)
	})

	t.Run("invoice disabled overrides client enabled", func(t *testing.T) {
		client := TaxOverride{Mode: TaxEnabled, Rate: decimal.NewFromInt(7), Name: "GST"}
		got := ResolveTax(TaxOverride{Mode: TaxDisabled}, client, global)
		assert.False(t, got.Enabled)
		assert.True(t, got.Rate.IsZero())
	})

	t.Run("client override applies when invoice inherits", func(t *testing.T) {
		client := TaxOverride{Mode: TaxEnabled, Rate: decimal.NewFromInt(7), Name: "GST"}
		got := ResolveTax(TaxOverride{}, client, global)
		assert.True(t, got.Enabled)
		assert.Equal(t, "7", got.Rate.String())
		assert.Equal(t, "GST", got.Name)
	})

	t.Run("client disabled wins over enabled global", func(t *testing.T) {
		got := ResolveTax(TaxOverride{}, TaxOverride{Mode: TaxDisabled}, global)
		assert.False(t, got.Enabled)
	})

	t.Run("invoice enabled wins over disabled global", func(t *testing.T) {
		inv := TaxOverride{Mode: TaxEnabled, Rate: decimal.NewFromFloat(8.1), Name: "MWST"}
		got := ResolveTax(inv, TaxOverride{}, TaxSettings{})
		assert.True(t, got.Enabled)
		assert.Equal(t, "8.1", got.Rate.String())
	})
}

func TestTaxOverrideFromNullable(t *testing.T) {
	assert.Equal(t, TaxInherit, TaxOverrideFromNullable(nil, decimal.Zero, "").Mode)
	assert.Equal(t, TaxEnabled, TaxOverrideFromNullable(boolp(true), decimal.NewFromInt(19), "VAT").Mode)
	assert.Equal(t, TaxDisabled, TaxOverrideFromNullable(boolp(false), decimal.Zero, "").Mode)
}

func TestTaxAmount(t *testing.T) {
	subtotal := decimal.NewFromFloat(123.45)

	t.Run("disabled tax is zero", func(t *testing.T) {
		got := TaxAmount(subtotal, TaxSettings{})
		assert.True(t, got.IsZero())
	})

	t.Run("rounds to two decimal places", func(t *testing.T) {
		got := TaxAmount(subtotal, TaxSettings{Enabled: true, Rate: decimal.NewFromInt(19)})
		assert.Equal(t, "23.46", got.StringFixed(2))
	})
}

func TestValidateTermsDays(t *testing.T) {
	assert.NoError(t, ValidateTermsDays(0))
	assert.NoError(t, ValidateTermsDays(30))
	assert.ErrorIs(t, ValidateTermsDays(-1), ErrInvalidTermsDays)
}

func TestValidateTaxRate(t *testing.T) {
	assert.NoError(t, ValidateTaxRate(decimal.NewFromInt(19)))
	assert.NoError(t, ValidateTaxRate(decimal.Zero))
	assert.ErrorIs(t, ValidateTaxRate(decimal.NewFromInt(-1)), ErrInvalidTaxRate)
	assert.ErrorIs(t, ValidateTaxRate(decimal.NewFromInt(101)), ErrInvalidTaxRate)
}
