package utils

import (
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func solidImage(width, height int, c color.Color) image.Image {
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			img.Set(x, y, c)
		}
	}
	return img
}

func TestResizeImage(t *testing.T) {
	constraints := DefaultImageConstraints()

	t.Run("large image scaled down to multiples of 32", func(t *testing.T) {
		img := solidImage(1280, 960, color.White)

		resized, err := ResizeImage(img, constraints)
		require.NoError(t, err)

		bounds := resized.Bounds()
		assert.LessOrEqual(t, bounds.Dx(), constraints.MaxWidth)
		assert.LessOrEqual(t, bounds.Dy(), constraints.MaxHeight)
		assert.Equal(t, 0, bounds.Dx()%32)
		assert.Equal(t, 0, bounds.Dy()%32)
	})

	t.Run("small image is not upscaled", func(t *testing.T) {
		img := solidImage(320, 256, color.White)

		resized, err := ResizeImage(img, constraints)
		require.NoError(t, err)

		bounds := resized.Bounds()
		assert.LessOrEqual(t, bounds.Dx(), 320)
		assert.LessOrEqual(t, bounds.Dy(), 256)
	})

	t.Run("below minimum size", func(t *testing.T) {
		img := solidImage(16, 16, color.White)

		_, err := ResizeImage(img, constraints)
		require.Error(t, err)

		var procErr *ImageProcessingError
		require.ErrorAs(t, err, &procErr)
		assert.Equal(t, "resize", procErr.Operation)
	})

	t.Run("nil image", func(t *testing.T) {
		_, err := ResizeImage(nil, constraints)
		require.Error(t, err)
	})
}

func TestCropRegion(t *testing.T) {
	img := solidImage(100, 100, color.White)

	t.Run("valid region", func(t *testing.T) {
		cropped, err := CropRegion(img, BoundingBox{X: 10, Y: 20, Width: 40, Height: 30})
		require.NoError(t, err)
		assert.Equal(t, 40, cropped.Bounds().Dx())
		assert.Equal(t, 30, cropped.Bounds().Dy())
	})

	t.Run("region clamped at border", func(t *testing.T) {
		cropped, err := CropRegion(img, BoundingBox{X: 80, Y: 90, Width: 50, Height: 50})
		require.NoError(t, err)
		assert.Equal(t, 20, cropped.Bounds().Dx())
		assert.Equal(t, 10, cropped.Bounds().Dy())
	})

	t.Run("region outside bounds", func(t *testing.T) {
		_, err := CropRegion(img, BoundingBox{X: 200, Y: 200, Width: 50, Height: 50})
		require.Error(t, err)

		var procErr *ImageProcessingError
		require.ErrorAs(t, err, &procErr)
		assert.Equal(t, "crop", procErr.Operation)
	})

	t.Run("invalid box", func(t *testing.T) {
		_, err := CropRegion(img, BoundingBox{X: 10, Y: 10, Width: 0, Height: 30})
		require.Error(t, err)
		assert.ErrorIs(t, err, ErrInvalidBoundingBox)
	})

	t.Run("nil image", func(t *testing.T) {
		_, err := CropRegion(nil, BoundingBox{Width: 10, Height: 10})
		require.Error(t, err)
	})
}

func TestNormalizeImage(t *testing.T) {
	t.Run("tensor shape and channel order", func(t *testing.T) {
		width, height := 4, 3
		img := solidImage(width, height, color.RGBA{R: 255, G: 128, B: 0, A: 255})

		tensor, w, h, err := NormalizeImage(img)
		require.NoError(t, err)
		assert.Equal(t, width, w)
		assert.Equal(t, height, h)
		require.Len(t, tensor, 3*width*height)

		plane := width * height
		for i := 0; i < plane; i++ {
			assert.InDelta(t, 1.0, tensor[i], 1e-6)
			assert.InDelta(t, 128.0/255.0, tensor[plane+i], 1e-2)
			assert.InDelta(t, 0.0, tensor[2*plane+i], 1e-6)
		}
	})

	t.Run("values stay in unit range", func(t *testing.T) {
		img := solidImage(8, 8, color.RGBA{R: 33, G: 99, B: 200, A: 255})

		tensor, _, _, err := NormalizeImage(img)
		require.NoError(t, err)
		for _, v := range tensor {
			assert.GreaterOrEqual(t, v, float32(0))
			assert.LessOrEqual(t, v, float32(1))
		}
	})

	t.Run("nil image", func(t *testing.T) {
		_, _, _, err := NormalizeImage(nil)
		require.Error(t, err)
	})
}

func TestIsSupportedImage(t *testing.T) {
	assert.True(t, IsSupportedImage("meal.jpg"))
	assert.True(t, IsSupportedImage("meal.JPEG"))
	assert.True(t, IsSupportedImage("plate.png"))
	assert.True(t, IsSupportedImage("scan.tiff"))
	assert.False(t, IsSupportedImage("notes.txt"))
	assert.False(t, IsSupportedImage("archive.gif"))
	assert.False(t, IsSupportedImage("noextension"))
}

func TestLoadImage(t *testing.T) {
	t.Run("round trip through png", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "meal.png")
		f, err := os.Create(path)
		require.NoError(t, err)
		require.NoError(t, png.Encode(f, solidImage(64, 48, color.White)))
		require.NoError(t, f.Close())

		img, meta, err := LoadImage(path)
		require.NoError(t, err)
		assert.Equal(t, 64, img.Bounds().Dx())
		assert.Equal(t, 48, img.Bounds().Dy())
		assert.Equal(t, "png", meta.Format)
		assert.Equal(t, 64, meta.Width)
		assert.Equal(t, 48, meta.Height)
	})

	t.Run("unsupported extension", func(t *testing.T) {
		_, _, err := LoadImage("meal.gif")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "unsupported image format")
	})

	t.Run("missing file", func(t *testing.T) {
		_, _, err := LoadImage(filepath.Join(t.TempDir(), "missing.png"))
		require.Error(t, err)

		var procErr *ImageProcessingError
		require.ErrorAs(t, err, &procErr)
		assert.Equal(t, "load", procErr.Operation)
	})
}
