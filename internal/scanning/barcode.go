package scanning

import (
	"bytes"
	"errors"
	"fmt"
	"image"

	"github.com/makiuchi-d/gozxing"
	"github.com/makiuchi-d/gozxing/datamatrix"
	"github.com/makiuchi-d/gozxing/oned"
	"github.com/makiuchi-d/gozxing/qrcode"
)

// BarcodeDecoder reads a barcode from image bytes. It returns ErrNoBarcode
// when no supported symbol is present.
type BarcodeDecoder interface {
	Decode(imageData []byte) (string, error)
}

// barcodeFormats are the symbologies attempted on barcode scans.
var barcodeFormats = []gozxing.BarcodeFormat{
	gozxing.BarcodeFormat_EAN_13,
	gozxing.BarcodeFormat_EAN_8,
	gozxing.BarcodeFormat_UPC_A,
	gozxing.BarcodeFormat_UPC_E,
	gozxing.BarcodeFormat_CODE_128,
	gozxing.BarcodeFormat_CODE_39,
	gozxing.BarcodeFormat_ITF,
	gozxing.BarcodeFormat_CODABAR,
	gozxing.BarcodeFormat_QR_CODE,
	gozxing.BarcodeFormat_DATA_MATRIX,
}

// ZXingDecoder decodes 1D and 2D barcodes with gozxing
type ZXingDecoder struct{}

// NewZXingDecoder creates a barcode decoder
func NewZXingDecoder() *ZXingDecoder {
	return &ZXingDecoder{}
}

// Decode tries the 1D readers first, then QR and Data Matrix.
// Readers keep internal state, so a fresh set is built per call.
func (d *ZXingDecoder) Decode(imageData []byte) (string, error) {
	img, _, err := image.Decode(bytes.NewReader(imageData))
	if err != nil {
		return "", fmt.Errorf("%w: decoding image: %w", ErrInvalidImage, err)
	}

	bmp, err := gozxing.NewBinaryBitmapFromImage(img)
	if err != nil {
		return "", fmt.Errorf("creating bitmap: %w", err)
	}

	hints := map[gozxing.DecodeHintType]interface{}{
		gozxing.DecodeHintType_TRY_HARDER:       true,
		gozxing.DecodeHintType_POSSIBLE_FORMATS: barcodeFormats,
	}

	readers := []gozxing.Reader{
		oned.NewMultiFormatUPCEANReader(hints),
		oned.NewCode128Reader(),
		oned.NewCode39Reader(),
		oned.NewITFReader(),
		oned.NewCodaBarReader(),
		qrcode.NewQRCodeReader(),
		datamatrix.NewDataMatrixReader(),
	}

	var errs []error
	for _, reader := range readers {
		result, err := reader.Decode(bmp, hints)
		if err == nil && result.GetText() != "" {
			return result.GetText(), nil
		}
		if err != nil {
			errs = append(errs, err)
		}
	}

	if len(errs) == 0 {
		return "", ErrNoBarcode
	}
	return "", fmt.Errorf("%w: %w", ErrNoBarcode, errors.Join(errs...))
}
