package service

// QRCodeService renders checkout links as QR codes so a customer can finish
// payment on another device.
type QRCodeService interface {
	// GenerateCheckoutQR returns a PNG QR code pointing at the hosted checkout
	// page for the given order.
	GenerateCheckoutQR(orderID string) ([]byte, error)
}
