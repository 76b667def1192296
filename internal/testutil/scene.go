package testutil

import (
	"image"
	"image/color"
	"image/draw"
	"image/png"
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/disintegration/imaging"
	"github.com/stretchr/testify/require"

	"github.com/MeKo-Tech/platesense/internal/utils"
)

// ImageSize represents common image dimensions.
type ImageSize struct {
	Width  int
	Height int
}

var (
	// Common test image sizes.
	SmallSize  = ImageSize{320, 240}
	MediumSize = ImageSize{640, 480}
	LargeSize  = ImageSize{1024, 768}
)

var (
	// Food blob colors for recognizable scenes.
	AppleColor  = color.RGBA{180, 40, 40, 255}
	BananaColor = color.RGBA{230, 210, 70, 255}
	BreadColor  = color.RGBA{200, 160, 110, 255}
)

// SceneConfig describes a synthetic meal photo: a plate on a table with one
// food item, optionally with a credit-card shaped reference object beside it.
type SceneConfig struct {
	Size       ImageSize
	Background color.Color
	PlateColor color.Color
	FoodColor  color.Color

	// FoodBox bounds the food blob.
	FoodBox utils.BoundingBox

	// Card, when non-nil, places a reference-object rectangle.
	Card      *utils.BoundingBox
	CardColor color.Color
}

// DefaultSceneConfig returns a medium scene with an apple-sized food blob
// centered on a plate.
func DefaultSceneConfig() SceneConfig {
	return SceneConfig{
		Size:       MediumSize,
		Background: color.RGBA{200, 180, 160, 255},
		PlateColor: color.White,
		FoodColor:  AppleColor,
		FoodBox:    utils.BoundingBox{X: 220, Y: 150, Width: 200, Height: 180},
		CardColor:  color.RGBA{40, 80, 180, 255},
	}
}

// GenerateMealScene renders the configured scene. The plate is an ellipse
// centered under the food box, the food an inscribed ellipse, the card a
// filled rectangle.
func GenerateMealScene(config SceneConfig) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, config.Size.Width, config.Size.Height))
	draw.Draw(img, img.Bounds(), &image.Uniform{config.Background}, image.Point{}, draw.Src)

	// Plate extends past the food box on all sides.
	plateCx := float64(config.FoodBox.X) + float64(config.FoodBox.Width)/2
	plateCy := float64(config.FoodBox.Y) + float64(config.FoodBox.Height)/2
	plateRx := float64(config.FoodBox.Width) * 0.9
	plateRy := float64(config.FoodBox.Height) * 0.8
	fillEllipse(img, plateCx, plateCy, plateRx, plateRy, config.PlateColor)

	fillEllipse(img, plateCx, plateCy,
		float64(config.FoodBox.Width)/2, float64(config.FoodBox.Height)/2, config.FoodColor)

	if config.Card != nil {
		draw.Draw(img, config.Card.Rect(), &image.Uniform{config.CardColor}, image.Point{}, draw.Src)
	}

	return img
}

// fillEllipse paints an axis-aligned filled ellipse, clipped to the image.
func fillEllipse(img *image.RGBA, cx, cy, rx, ry float64, c color.Color) {
	if rx <= 0 || ry <= 0 {
		return
	}

	bounds := img.Bounds()
	minY := max(bounds.Min.Y, int(math.Floor(cy-ry)))
	maxY := min(bounds.Max.Y, int(math.Ceil(cy+ry)))

	for y := minY; y < maxY; y++ {
		dy := (float64(y) + 0.5 - cy) / ry
		span := 1 - dy*dy
		if span <= 0 {
			continue
		}
		half := rx * math.Sqrt(span)

		minX := max(bounds.Min.X, int(math.Floor(cx-half)))
		maxX := min(bounds.Max.X, int(math.Ceil(cx+half)))
		for x := minX; x < maxX; x++ {
			img.Set(x, y, c)
		}
	}
}

// SaveImage saves an image to the specified path as PNG.
func SaveImage(t *testing.T, img image.Image, path string) {
	t.Helper()

	require.NoError(t, EnsureDir(filepath.Dir(path)))

	f, err := os.Create(path) //nolint:gosec // G304: test output path is test-controlled
	require.NoError(t, err)
	defer func() { _ = f.Close() }()

	require.NoError(t, png.Encode(f, img))
}

// SaveSceneJPEG writes the scene as JPEG. Used to exercise the decode paths
// the CLI and server accept.
func SaveSceneJPEG(t *testing.T, img image.Image, path string) {
	t.Helper()

	require.NoError(t, EnsureDir(filepath.Dir(path)))
	require.NoError(t, imaging.Save(img, path, imaging.JPEGQuality(90)))
}
