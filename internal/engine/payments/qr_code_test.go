package payments

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateQRCode(t *testing.T) {
	tests := []struct {
		name    string
		content string
		size    int
		wantErr bool
	}{
		{
			name:    "Valid QR Code",
			content: "PAY:pay_1|DUE:2024-03-01|AMT:1500.00",
			size:    512,
			wantErr: false,
		},
		{
			name:    "Default Size",
			content: "PAY:pay_1",
			size:    0,
			wantErr: false,
		},
		{
			name:    "Size Too Small",
			content: "PAY:pay_1",
			size:    100,
			wantErr: true,
		},
		{
			name:    "Size Too Large",
			content: "PAY:pay_1",
			size:    5000,
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := GenerateQRCode(tt.content, tt.size)
			if (err != nil) != tt.wantErr {
				t.Errorf("GenerateQRCode() error = %v, wantErr %v", err, tt.wantErr)
				return
			}
			if !tt.wantErr && len(got) == 0 {
				t.Errorf("GenerateQRCode() returned empty bytes")
			}
		})
	}
}

func TestPaymentReference(t *testing.T) {
	p := &Payment{ID: "pay_1", DueDate: "2024-03-01", Amount: decimal.NewFromInt(1500), PaidAmount: decimal.NewFromInt(500)}
	assert.Equal(t, "PAY:pay_1|DUE:2024-03-01|AMT:1000.00", PaymentReference(p))
}

func TestPaymentQRCode(t *testing.T) {
	svc, db, _ := newTestService(t)
	tenantID, _ := seedTenant(t, db, "1")
	p := createRent(t, svc, tenantID, "1500", "2024-03-01")

	png, err := svc.PaymentQRCode(context.Background(), p.ID, 256)
	require.NoError(t, err)
	assert.Equal(t, []byte("\x89PNG"), png[:4])
}
