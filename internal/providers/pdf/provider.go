package pdf

import (
	"context"
	"io"

	invoicedomain "github.com/smallfirm/fakturo/internal/invoice/domain"
	profiledomain "github.com/smallfirm/fakturo/internal/profile/domain"
)

type Provider interface {
	// RenderDocument renders an invoice or quote as a PDF.
	RenderDocument(ctx context.Context, profile profiledomain.BusinessProfile, inv invoicedomain.Invoice) (io.Reader, error)
}

type NoOpProvider struct{}

func (p *NoOpProvider) RenderDocument(ctx context.Context, profile profiledomain.BusinessProfile, inv invoicedomain.Invoice) (io.Reader, error) {
	return nil, nil
}
