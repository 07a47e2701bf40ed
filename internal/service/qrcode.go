package service

import (
	"fmt"
	"net/url"

	"github.com/skip2/go-qrcode"
)

type QRGenerator interface {
	Generate(restaurantID string) ([]byte, error)
}

// DefaultQRGenerator encodes a link that opens the app on a restaurant, for
// printing on tables and flyers.
type DefaultQRGenerator struct {
	BaseURL string
}

func (g DefaultQRGenerator) Generate(restaurantID string) ([]byte, error) {
	qrData := fmt.Sprintf("%s/?restaurant=%s", g.BaseURL, url.QueryEscape(restaurantID))
	return qrcode.Encode(qrData, qrcode.Medium, 256)
}
