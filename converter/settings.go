package converter

import (
	"image/png"
	"math"

	"github.com/tooldeck/tooldeck/config"
	"github.com/tooldeck/tooldeck/raster"
)

// Settings are the knobs a conversion reads once at start. Converters that
// have no use for a knob ignore it; all receive the same value.
type Settings struct {
	ImageQuality     float64 `json:"imageQuality"`     // 0–1, JPEG quality
	Scale            float64 `json:"scale"`            // image resize and rasterization factor
	CompressionLevel int     `json:"compressionLevel"` // 0–9, PNG deflate effort
	DPI              float64 `json:"dpi"`              // base PDF rasterization resolution
}

const (
	maxScale = raster.MaxScale
	minDPI   = 18.0
	maxDPI   = 600.0
)

// DefaultSettings returns the knobs a fresh session starts with.
func DefaultSettings() Settings {
	return Settings{ImageQuality: 0.92, Scale: 1, CompressionLevel: 6, DPI: 72}
}

// SettingsFromConfig seeds Settings from configured defaults.
func SettingsFromConfig(d config.ConversionDefaults) Settings {
	return Settings{
		ImageQuality:     d.ImageQuality,
		Scale:            d.Scale,
		CompressionLevel: d.CompressionLevel,
		DPI:              d.DPI,
	}.Normalize()
}

// Normalize clamps every knob into its valid range, substituting defaults
// for zero or NaN values.
func (s Settings) Normalize() Settings {
	def := DefaultSettings()
	if s.ImageQuality <= 0 || math.IsNaN(s.ImageQuality) {
		s.ImageQuality = def.ImageQuality
	}
	s.ImageQuality = math.Min(s.ImageQuality, 1)
	if s.Scale <= 0 || math.IsNaN(s.Scale) {
		s.Scale = def.Scale
	}
	s.Scale = math.Min(s.Scale, maxScale)
	s.CompressionLevel = max(0, min(9, s.CompressionLevel))
	if s.DPI <= 0 || math.IsNaN(s.DPI) {
		s.DPI = def.DPI
	}
	s.DPI = math.Max(minDPI, math.Min(maxDPI, s.DPI))
	return s
}

// RasterDPI is the resolution PDF pages are rendered at.
func (s Settings) RasterDPI() float64 {
	return s.DPI * s.Scale
}

func (s Settings) jpegQuality() int {
	return max(1, min(100, int(math.Round(s.ImageQuality*100))))
}

func (s Settings) pngCompression() png.CompressionLevel {
	switch {
	case s.CompressionLevel == 0:
		return png.NoCompression
	case s.CompressionLevel <= 3:
		return png.BestSpeed
	case s.CompressionLevel <= 6:
		return png.DefaultCompression
	default:
		return png.BestCompression
	}
}
