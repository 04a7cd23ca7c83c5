package email

import "context"

type Provider interface {
	Send(ctx context.Context, to []string, subject string, htmlBody string) error
	// SendWithAttachment sends an HTML body plus one PDF attachment.
	SendWithAttachment(ctx context.Context, to []string, subject string, htmlBody string, filename string, attachment []byte) error
}

type NoOpProvider struct{}

func (p *NoOpProvider) Send(ctx context.Context, to []string, subject string, htmlBody string) error {
	return nil
}

func (p *NoOpProvider) SendWithAttachment(ctx context.Context, to []string, subject string, htmlBody string, filename string, attachment []byte) error {
	return nil
}
