package converter

// image.go — raster image conversions. Sources are decoded with the
// standard decoders plus x/image (BMP, TIFF, WebP), optionally resized,
// and re-encoded. WebP can be read but not written.

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/color"
	"image/gif"
	"image/jpeg"
	"image/png"
	"io"
	"math"

	"codeberg.org/go-pdf/fpdf"
	"golang.org/x/image/bmp"
	"golang.org/x/image/draw"
	"golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
)

type imageEncoder func(w io.Writer, img image.Image, s Settings) error

// imageTo decodes the source, applies Settings.Scale and encodes with enc.
func imageTo(enc imageEncoder) convertFn {
	return func(ctx context.Context, in UploadedFile, s Settings) (result, error) {
		img, err := decodeImage(in, s)
		if err != nil {
			return result{}, err
		}
		if err := ctx.Err(); err != nil {
			return result{}, err
		}
		var buf bytes.Buffer
		if err := enc(&buf, img, s); err != nil {
			return result{}, fmt.Errorf("encode image: %w", err)
		}
		return result{data: buf.Bytes()}, nil
	}
}

func decodeImage(in UploadedFile, s Settings) (image.Image, error) {
	img, _, err := image.Decode(bytes.NewReader(in.Data))
	if err != nil {
		return nil, malformed(in.Name, err)
	}
	return scaleImage(img, s.Scale), nil
}

// scaleImage resizes img by factor; a factor of 1 returns img unchanged.
func scaleImage(img image.Image, factor float64) image.Image {
	if factor == 1 || factor <= 0 {
		return img
	}
	b := img.Bounds()
	w := max(1, int(math.Round(float64(b.Dx())*factor)))
	h := max(1, int(math.Round(float64(b.Dy())*factor)))
	dst := image.NewRGBA(image.Rect(0, 0, w, h))
	draw.CatmullRom.Scale(dst, dst.Bounds(), img, b, draw.Src, nil)
	return dst
}

func encodePNG(w io.Writer, img image.Image, s Settings) error {
	enc := png.Encoder{CompressionLevel: s.pngCompression()}
	return enc.Encode(w, img)
}

// encodeJPEG flattens transparency onto white, since JPEG has no alpha.
func encodeJPEG(w io.Writer, img image.Image, s Settings) error {
	return jpeg.Encode(w, flatten(img), &jpeg.Options{Quality: s.jpegQuality()})
}

func encodeGIF(w io.Writer, img image.Image, _ Settings) error {
	return gif.Encode(w, img, &gif.Options{NumColors: 256})
}

func encodeBMP(w io.Writer, img image.Image, _ Settings) error {
	return bmp.Encode(w, img)
}

func encodeTIFF(w io.Writer, img image.Image, _ Settings) error {
	return tiff.Encode(w, img, &tiff.Options{Compression: tiff.Deflate})
}

func flatten(img image.Image) image.Image {
	b := img.Bounds()
	dst := image.NewRGBA(b)
	draw.Draw(dst, b, &image.Uniform{C: color.White}, image.Point{}, draw.Src)
	draw.Draw(dst, b, img, b.Min, draw.Over)
	return dst
}

// imageToPDF places the (scaled) image on a single page of the same size,
// one pixel per point.
func imageToPDF(ctx context.Context, in UploadedFile, s Settings) (result, error) {
	img, err := decodeImage(in, s)
	if err != nil {
		return result{}, err
	}
	if err := ctx.Err(); err != nil {
		return result{}, err
	}
	data, err := singleImagePDF(img, s)
	if err != nil {
		return result{}, err
	}
	return result{data: data}, nil
}

func singleImagePDF(img image.Image, s Settings) ([]byte, error) {
	var pageImg bytes.Buffer
	if err := encodePNG(&pageImg, img, s); err != nil {
		return nil, fmt.Errorf("encode page image: %w", err)
	}

	w := float64(img.Bounds().Dx())
	h := float64(img.Bounds().Dy())

	pdf := fpdf.New("P", "pt", "", "")
	pdf.SetMargins(0, 0, 0)
	pdf.SetAutoPageBreak(false, 0)
	pdf.AddPageFormat("P", fpdf.SizeType{Wd: w, Ht: h})

	opts := fpdf.ImageOptions{ReadDpi: false, ImageType: "PNG"}
	pdf.RegisterImageOptionsReader("page", opts, &pageImg)
	pdf.ImageOptions("page", 0, 0, w, h, false, opts, 0, "")

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("write pdf: %w", err)
	}
	return buf.Bytes(), nil
}
