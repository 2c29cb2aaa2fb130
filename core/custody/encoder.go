package custody

// IdentifierEncoder renders sample identifiers as scannable images.
// Implementations return an opaque encoded blob (e.g. base64 PNG); the
// tracker stores whatever the encoder produces.
type IdentifierEncoder interface {
	EncodeQR(data string) string
	EncodeBarcode(code string) string
}

// PlaceholderEncoder is used when no image-encoding backend is wired in.
// It returns stable placeholder strings so downstream consumers still get
// a non-empty identifier.
type PlaceholderEncoder struct{}

// EncodeQR returns a placeholder QR blob for the given payload
func (PlaceholderEncoder) EncodeQR(data string) string {
	if len(data) > 20 {
		data = data[:20]
	}
	return "QR_CODE_PLACEHOLDER_" + data
}

// EncodeBarcode returns a placeholder barcode blob for the given code
func (PlaceholderEncoder) EncodeBarcode(code string) string {
	return "BARCODE_PLACEHOLDER_" + code
}
