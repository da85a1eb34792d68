package qrcode

import (
	"fmt"
	"net/url"

	"tradegate/internal/domain/service"

	"github.com/skip2/go-qrcode"
)

type qrcodeService struct {
	checkoutBaseURL      string
	size                 int
	errorCorrectionLevel qrcode.RecoveryLevel
}

// NewQRCodeService creates a new QR code service instance
func NewQRCodeService(checkoutBaseURL string, size int, errorCorrectionLevel string) service.QRCodeService {
	// Set error correction level
	var level qrcode.RecoveryLevel
	switch errorCorrectionLevel {
	case "L":
		level = qrcode.Low
	case "M":
		level = qrcode.Medium
	case "Q":
		level = qrcode.High
	case "H":
		level = qrcode.Highest
	default:
		level = qrcode.Medium
	}

	return &qrcodeService{
		checkoutBaseURL:      checkoutBaseURL,
		size:                 size,
		errorCorrectionLevel: level,
	}
}

// GenerateCheckoutQR generates a PNG QR code linking to the hosted checkout
// page for the given order.
func (s *qrcodeService) GenerateCheckoutQR(orderID string) ([]byte, error) {
	checkoutURL := fmt.Sprintf("%s?order=%s", s.checkoutBaseURL, url.QueryEscape(orderID))

	qrCode, err := qrcode.New(checkoutURL, s.errorCorrectionLevel)
	if err != nil {
		return nil, fmt.Errorf("failed to create QR code: %w", err)
	}

	pngBytes, err := qrCode.PNG(s.size)
	if err != nil {
		return nil, fmt.Errorf("failed to generate PNG: %w", err)
	}

	return pngBytes, nil
}
