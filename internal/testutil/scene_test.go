package testutil

import (
	"image/color"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MeKo-Tech/platesense/internal/utils"
)

func TestGenerateMealScene(t *testing.T) {
	config := DefaultSceneConfig()
	img := GenerateMealScene(config)

	bounds := img.Bounds()
	assert.Equal(t, config.Size.Width, bounds.Dx())
	assert.Equal(t, config.Size.Height, bounds.Dy())

	// The food box center is painted with the food color.
	cx := config.FoodBox.X + config.FoodBox.Width/2
	cy := config.FoodBox.Y + config.FoodBox.Height/2
	r, g, b, _ := img.At(cx, cy).RGBA()
	fr, fg, fb, _ := config.FoodColor.RGBA()
	assert.Equal(t, fr, r)
	assert.Equal(t, fg, g)
	assert.Equal(t, fb, b)

	// Corners remain background.
	r, _, _, _ = img.At(0, 0).RGBA()
	br, _, _, _ := config.Background.RGBA()
	assert.Equal(t, br, r)
}

func TestGenerateMealSceneWithCard(t *testing.T) {
	config := DefaultSceneConfig()
	card := utils.BoundingBox{X: 20, Y: 380, Width: 86, Height: 54}
	config.Card = &card
	config.CardColor = color.RGBA{0, 0, 255, 255}

	img := GenerateMealScene(config)

	_, _, b, _ := img.At(card.X+card.Width/2, card.Y+card.Height/2).RGBA()
	assert.Equal(t, uint32(0xffff), b)
}

func TestSaveAndReloadScene(t *testing.T) {
	dir := t.TempDir()
	img := GenerateMealScene(DefaultSceneConfig())

	pngPath := filepath.Join(dir, "scene.png")
	SaveImage(t, img, pngPath)
	assert.True(t, FileExists(pngPath))

	jpegPath := filepath.Join(dir, "scene.jpg")
	SaveSceneJPEG(t, img, jpegPath)
	assert.True(t, FileExists(jpegPath))
}

func TestFixtureRoundTrip(t *testing.T) {
	dir := t.TempDir()

	fixture := EstimationFixture{
		Name:      "apple_reference_card",
		InputFile: "scenes/apple_card.png",
		Expected: GroundTruth{
			FoodName:    "apple",
			Category:    "fruits",
			BoundingBox: utils.BoundingBox{X: 220, Y: 150, Width: 200, Height: 180},
			VolumeML:    210,
			WeightGrams: 182,
		},
		Metadata: map[string]string{"surface": "wood"},
	}

	path := SaveFixture(t, dir, fixture)
	require.True(t, FileExists(path))
}

func TestGetProjectRoot(t *testing.T) {
	root, err := GetProjectRoot()
	require.NoError(t, err)
	assert.True(t, FileExists(filepath.Join(root, "go.mod")))
}
