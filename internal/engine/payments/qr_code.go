package payments

import (
	"context"
	"errors"
	"fmt"

	"github.com/skip2/go-qrcode"
)

// GenerateQRCode renders content as a PNG of size pixels (default 512).
func GenerateQRCode(content string, size int) ([]byte, error) {
	if size == 0 {
		size = 512
	}
	if size < 128 || size > 2048 {
		return nil, errors.New("invalid size: must be between 128 and 2048")
	}

	qr, err := qrcode.New(content, qrcode.Medium)
	if err != nil {
		return nil, err
	}
	qr.DisableBorder = false
	return qr.PNG(size)
}

// PaymentReference is the text encoded in a payment's QR code.
func PaymentReference(p *Payment) string {
	return fmt.Sprintf("PAY:%s|DUE:%s|AMT:%s", p.ID, p.DueDate, p.Outstanding().StringFixed(2))
}

func (s *Service) PaymentQRCode(ctx context.Context, id string, size int) ([]byte, error) {
	p, err := s.repo.GetPayment(ctx, id)
	if err != nil {
		return nil, err
	}
	return GenerateQRCode(PaymentReference(p), size)
}
