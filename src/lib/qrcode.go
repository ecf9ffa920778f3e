package lib

import (
	"bytes"

	"github.com/yeqown/go-qrcode"
)

const QR_CONTENT_TYPE = "image/jpeg"

// QrRenderer encodes credentials as JPEG QR codes.
type QrRenderer struct {
	opts []qrcode.ImageOption
}

func NewQrRenderer(opts ...qrcode.ImageOption) *QrRenderer {
	return &QrRenderer{opts: opts}
}

func (r *QrRenderer) Render(credential string) ([]byte, error) {
	qrc, err := qrcode.New(credential, r.opts...)
	if err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	if err := qrc.SaveTo(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
