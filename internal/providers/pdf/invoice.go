package pdf

import (
	"bytes"
	"context"
	"io"

	"github.com/johnfercher/maroto/v2"
	"github.com/johnfercher/maroto/v2/pkg/components/col"
	"github.com/johnfercher/maroto/v2/pkg/components/text"
	"github.com/johnfercher/maroto/v2/pkg/config"
	"github.com/johnfercher/maroto/v2/pkg/consts/align"
	"github.com/johnfercher/maroto/v2/pkg/consts/fontstyle"
	"github.com/johnfercher/maroto/v2/pkg/props"
	invoicedomain "github.com/smallfirm/fakturo/internal/invoice/domain"
	profiledomain "github.com/smallfirm/fakturo/internal/profile/domain"
)

const dateLayout = "2006-01-02"

type MarotoProvider struct{}

func New() Provider {
	return &MarotoProvider{}
}

func (p *MarotoProvider) RenderDocument(ctx context.Context, profile profiledomain.BusinessProfile, inv invoicedomain.Invoice) (io.Reader, error) {
	cfg := config.NewBuilder().
		WithPageNumber(props.PageNumber{
			Pattern: "Page {current} of {total}",
			Place:   props.RightBottom,
		}).
		Build()

	m := maroto.New(cfg)

	title := "Invoice"
	if inv.Kind == invoicedomain.KindQuote {
		title = "Quote"
	}
	m.AddRow(12,
		text.NewCol(12, title, props.Text{
			Size:  20,
			Style: fontstyle.Bold,
			Align: align.Left,
		}),
	)

	m.AddRow(20,
		col.New(6).Add(
			text.New("Number: "+inv.DocumentNumber, props.Text{Top: 0}),
			text.New("Date of issue: "+inv.IssueDate.Format(dateLayout), props.Text{Top: 4}),
			text.New("Due date: "+inv.DueDate.Format(dateLayout), props.Text{Top: 8}),
		),
		col.New(6),
	)

	m.AddRow(40,
		col.New(6).Add(
			text.New(profile.CompanyName, props.Text{Style: fontstyle.Bold}),
			text.New(profile.Address, props.Text{Top: 5}),
			text.New(profile.Email, props.Text{Top: 20}),
			text.New(profile.TaxID, props.Text{Top: 25}),
		),
		col.New(6).Add(
			text.New("Bill to", props.Text{Style: fontstyle.Bold}),
			text.New(inv.ClientName, props.Text{Top: 5}),
			text.New(inv.ClientAddress, props.Text{Top: 9}),
			text.New(inv.ClientEmail, props.Text{Top: 25}),
		),
	)

	m.AddRow(10,
		text.NewCol(6, "Description", props.Text{Style: fontstyle.Bold, Size: 9}),
		text.NewCol(2, "Qty", props.Text{Style: fontstyle.Bold, Size: 9, Align: align.Right}),
		text.NewCol(2, "Unit price", props.Text{Style: fontstyle.Bold, Size: 9, Align: align.Right}),
		text.NewCol(2, "Amount", props.Text{Style: fontstyle.Bold, Size: 9, Align: align.Right}),
	)

	for _, item := range inv.Items {
		m.AddRow(8,
			text.NewCol(6, item.Description, props.Text{Size: 9}),
			text.NewCol(2, item.Quantity.String(), props.Text{Size: 9, Align: align.Right}),
			text.NewCol(2, item.UnitPrice.StringFixed(2), props.Text{Size: 9, Align: align.Right}),
			text.NewCol(2, item.Amount.StringFixed(2), props.Text{Size: 9, Align: align.Right}),
		)
	}

	m.AddRow(8,
		col.New(8),
		text.NewCol(2, "Subtotal", props.Text{Size: 9}),
		text.NewCol(2, inv.Subtotal.StringFixed(2)+" "+inv.Currency, props.Text{Size: 9, Align: align.Right}),
	)
	if inv.TaxEnabled {
		taxLabel := inv.TaxName
		if taxLabel == "" {
			taxLabel = "Tax"
		}
		m.AddRow(8,
			col.New(8),
			text.NewCol(2, taxLabel+" "+inv.TaxRate.String()+"%", props.Text{Size: 9}),
			text.NewCol(2, inv.TaxAmount.StringFixed(2)+" "+inv.Currency, props.Text{Size: 9, Align: align.Right}),
		)
	}
	m.AddRow(10,
		col.New(8),
		text.NewCol(2, "Total", props.Text{Style: fontstyle.Bold, Size: 10}),
		text.NewCol(2, inv.Total.StringFixed(2)+" "+inv.Currency, props.Text{Style: fontstyle.Bold, Size: 10, Align: align.Right}),
	)

	if inv.Notes != "" {
		m.AddRow(20,
			text.NewCol(12, inv.Notes, props.Text{Size: 9, Top: 5}),
		)
	}
	if profile.PaymentDetails != "" {
		m.AddRow(25,
			text.NewCol(12, profile.PaymentDetails, props.Text{Size: 9, Top: 5}),
		)
	}

	doc, err := m.Generate()
	if err != nil {
		return nil, err
	}

	return bytes.NewReader(doc.GetBytes()), nil
}
