package qrcode

import (
	"bytes"
	"encoding/base64"
	"strings"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

func TestGenerate(t *testing.T) {
	g := NewMockGenerator("Rabbit Cafe")
	qr, err := g.Generate(decimal.NewFromInt(5), "USD", "TRX-ORD-1")
	require.NoError(t, err)

	require.Contains(t, qr.QRString, "Rabbit Cafe")
	require.Contains(t, qr.QRString, "5.00 USD")
	require.True(t, strings.HasPrefix(qr.QRImage, dataURIPrefix))

	png, err := base64.StdEncoding.DecodeString(strings.TrimPrefix(qr.QRImage, dataURIPrefix))
	require.NoError(t, err)
	require.True(t, bytes.HasPrefix(png, []byte("\x89PNG")))

	require.Equal(t, MockHash("TRX-ORD-1"), qr.Hash)
	require.True(t, strings.HasPrefix(qr.Hash, MockHashPrefix))
	require.NotEqual(t, MockHash("TRX-ORD-1"), MockHash("TRX-ORD-2"))
}
