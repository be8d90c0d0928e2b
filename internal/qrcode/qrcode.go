// Package qrcode packages a registry key into a compact scannable form.
// The QR image carries a short text payload; decoding a scanned payload
// yields the key back, so a printed certificate can be checked offline
// against the registry.
package qrcode

import (
	"bytes"
	"fmt"
	"image/png"
	"strings"

	"github.com/boombuler/barcode"
	"github.com/boombuler/barcode/qr"

	"github.com/anushankari123/docuchain/internal/digest"
)

// payloadPrefix versions the payload format so future revisions stay
// distinguishable from v1 codes already in circulation.
const payloadPrefix = "docuchain:v1:"

// DefaultSize is the pixel width and height of generated images.
const DefaultSize = 256

// Payload renders the key as the text carried inside the QR image.
func Payload(key digest.Key) string {
	return payloadPrefix + key.Hex()
}

// ParsePayload decodes a scanned payload back into a registry key.
func ParsePayload(s string) (digest.Key, error) {
	rest, ok := strings.CutPrefix(s, payloadPrefix)
	if !ok {
		return digest.Key{}, fmt.Errorf("not a docuchain payload")
	}
	key, err := digest.ParseKey(rest)
	if err != nil {
		return digest.Key{}, fmt.Errorf("payload carries malformed key: %w", err)
	}
	return key, nil
}

// Encode renders the key's payload as a PNG QR image of size x size pixels.
func Encode(key digest.Key, size int) ([]byte, error) {
	if size <= 0 {
		size = DefaultSize
	}

	code, err := qr.Encode(Payload(key), qr.M, qr.Auto)
	if err != nil {
		return nil, fmt.Errorf("failed to encode QR code: %w", err)
	}

	scaled, err := barcode.Scale(code, size, size)
	if err != nil {
		return nil, fmt.Errorf("failed to scale QR code: %w", err)
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, scaled); err != nil {
		return nil, fmt.Errorf("failed to render PNG: %w", err)
	}
	return buf.Bytes(), nil
}
