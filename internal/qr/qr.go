// Package qr encodes vehicle identities as QR payloads. A sticker on the
// windshield carries the payload; scanning it resolves the car record, so a
// mechanic can pull up a vehicle without typing the plate.
package qr

import (
	"fmt"
	"strconv"
	"strings"

	qrcode "github.com/skip2/go-qrcode"
)

// payloadPrefix namespaces CarID payloads so arbitrary scanned QR codes are
// rejected early.
const payloadPrefix = "carid:car:"

// PNGSize is the edge length of generated QR images in pixels.
const PNGSize = 256

// Payload returns the QR payload for a car.
func Payload(carID int64) string {
	return payloadPrefix + strconv.FormatInt(carID, 10)
}

// ParsePayload extracts the car ID from a scanned payload.
func ParsePayload(payload string) (int64, error) {
	rest, ok := strings.CutPrefix(strings.TrimSpace(payload), payloadPrefix)
	if !ok {
		return 0, fmt.Errorf("not a CarID payload")
	}

	id, err := strconv.ParseInt(rest, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid car id in payload")
	}
	return id, nil
}

// PNG renders a car's QR code as a PNG image.
func PNG(carID int64) ([]byte, error) {
	png, err := qrcode.Encode(Payload(carID), qrcode.Medium, PNGSize)
	if err != nil {
		return nil, fmt.Errorf("encoding QR code: %w", err)
	}
	return png, nil
}
