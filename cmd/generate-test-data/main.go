package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"image/png"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/MeKo-Tech/platesense/internal/testutil"
	"github.com/MeKo-Tech/platesense/internal/utils"
)

// scenes pairs a synthetic meal photo with the ground truth the heuristic
// estimation path produces for it. Volumes follow the area-times-shape
// heuristic; weights apply the seed density for the food.
var scenes = []struct {
	name     string
	config   func() testutil.SceneConfig
	expected testutil.GroundTruth
}{
	{
		name:   "apple_medium",
		config: testutil.DefaultSceneConfig,
		expected: testutil.GroundTruth{
			FoodName:    "apple",
			Category:    "fruits",
			BoundingBox: utils.BoundingBox{X: 220, Y: 150, Width: 200, Height: 180},
			VolumeML:    180,
			WeightGrams: 153,
		},
	},
	{
		name: "apple_with_card",
		config: func() testutil.SceneConfig {
			config := testutil.DefaultSceneConfig()
			card := utils.BoundingBox{X: 40, Y: 360, Width: 80, Height: 50}
			config.Card = &card
			return config
		},
		expected: testutil.GroundTruth{
			FoodName:    "apple",
			Category:    "fruits",
			BoundingBox: utils.BoundingBox{X: 220, Y: 150, Width: 200, Height: 180},
			VolumeML:    180,
			WeightGrams: 153,
		},
	},
	{
		name: "banana_medium",
		config: func() testutil.SceneConfig {
			config := testutil.DefaultSceneConfig()
			config.FoodColor = testutil.BananaColor
			config.FoodBox = utils.BoundingBox{X: 170, Y: 200, Width: 300, Height: 90}
			return config
		},
		expected: testutil.GroundTruth{
			FoodName:    "banana",
			Category:    "fruits",
			BoundingBox: utils.BoundingBox{X: 170, Y: 200, Width: 300, Height: 90},
			VolumeML:    162,
			WeightGrams: 152,
		},
	},
	{
		name: "bread_medium",
		config: func() testutil.SceneConfig {
			config := testutil.DefaultSceneConfig()
			config.FoodColor = testutil.BreadColor
			config.FoodBox = utils.BoundingBox{X: 200, Y: 170, Width: 240, Height: 150}
			return config
		},
		expected: testutil.GroundTruth{
			FoodName:    "bread",
			Category:    "bakery",
			BoundingBox: utils.BoundingBox{X: 200, Y: 170, Width: 240, Height: 150},
			VolumeML:    288,
			WeightGrams: 72,
		},
	},
}

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	var (
		generateImages   = flag.Bool("images", true, "Generate synthetic meal scene images")
		generateFixtures = flag.Bool("fixtures", true, "Generate estimation fixtures")
		help             = flag.Bool("h", false, "Show help")
	)

	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: %s [OPTIONS]\n\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "Generate synthetic test data for platesense.\n\n")
		fmt.Fprintf(os.Stderr, "OPTIONS:\n")
		flag.PrintDefaults()
	}

	flag.Parse()

	if *help {
		flag.Usage()
		return
	}

	root, err := testutil.GetProjectRoot()
	if err != nil {
		slog.Error("Failed to find project root", "error", err)
		os.Exit(1)
	}

	imagesDir := filepath.Join(root, "testdata", "images")
	fixturesDir := filepath.Join(root, "testdata", "fixtures")

	for _, scene := range scenes {
		imagePath := filepath.Join(imagesDir, scene.name+".png")

		if *generateImages {
			if err := writeScenePNG(scene.config(), imagePath); err != nil {
				slog.Error("Failed to write scene image", "scene", scene.name, "error", err)
				os.Exit(1)
			}
			slog.Info("Generated scene image", "path", imagePath)
		}

		if *generateFixtures {
			fixture := testutil.EstimationFixture{
				Name:      scene.name,
				InputFile: filepath.Join("testdata", "images", scene.name+".png"),
				Expected:  scene.expected,
			}
			path, err := writeFixture(fixturesDir, fixture)
			if err != nil {
				slog.Error("Failed to write fixture", "fixture", scene.name, "error", err)
				os.Exit(1)
			}
			slog.Info("Generated fixture", "path", path)
		}
	}

	slog.Info("Test data generation complete", "scenes", len(scenes))
}

func writeScenePNG(config testutil.SceneConfig, path string) error {
	if err := testutil.EnsureDir(filepath.Dir(path)); err != nil {
		return err
	}

	f, err := os.Create(path) //nolint:gosec // G304: output path is tool-controlled
	if err != nil {
		return err
	}
	defer func() { _ = f.Close() }()

	return png.Encode(f, testutil.GenerateMealScene(config))
}

func writeFixture(dir string, fixture testutil.EstimationFixture) (string, error) {
	if err := testutil.EnsureDir(dir); err != nil {
		return "", err
	}

	data, err := json.MarshalIndent(fixture, "", "  ")
	if err != nil {
		return "", err
	}

	path := filepath.Join(dir, fixture.Name+".json")
	return path, os.WriteFile(path, data, 0o600)
}
