package qrcode

import (
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"fmt"

	"github.com/shopspring/decimal"
	goqrcode "github.com/skip2/go-qrcode"
)

const (
	MockHashPrefix = "mock_"
	imageSize      = 300
	dataURIPrefix  = "data:image/png;base64,"
)

// MockKHQR 開發環境 gateway 不可用時的替代 QR，無法真的付款
type MockKHQR struct {
	QRString string
	QRImage  string // data URI
	Hash     string
}

type MockGenerator struct {
	shopName string
}

func NewMockGenerator(shopName string) *MockGenerator {
	return &MockGenerator{shopName: shopName}
}

func (g *MockGenerator) Generate(amount decimal.Decimal, currency, tranID string) (*MockKHQR, error) {
	content := fmt.Sprintf("MOCK_KHQR|%s|%s|%s %s", g.shopName, tranID, amount.StringFixed(2), currency)

	png, err := goqrcode.Encode(content, goqrcode.High, imageSize)
	if err != nil {
		return nil, fmt.Errorf("encode mock qr: %w", err)
	}

	return &MockKHQR{
		QRString: content,
		QRImage:  dataURIPrefix + base64.StdEncoding.EncodeToString(png),
		Hash:     MockHash(tranID),
	}, nil
}

// MockHash 同一筆交易永遠得到相同 hash，並以前綴區分真實簽章
func MockHash(tranID string) string {
	sum := sha256.Sum256([]byte(tranID))
	return MockHashPrefix + hex.EncodeToString(sum[:16])
}
