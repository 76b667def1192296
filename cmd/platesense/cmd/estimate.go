package cmd

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/MeKo-Tech/platesense/internal/density"
	"github.com/MeKo-Tech/platesense/internal/estimator"
	"github.com/MeKo-Tech/platesense/internal/utils"
)

// estimateCmd represents the estimate command.
var estimateCmd = &cobra.Command{
	Use:   "estimate [image]",
	Short: "Estimate portion volume and weight from a meal photo",
	Long: `Estimate the volume (ml) and weight (g) of a food portion in an image.

The bounding box around the food is given as x,y,width,height in pixels.
When a reference object (credit card, coin, plate, cutlery) is visible in
the image it anchors the pixel-to-centimeter scale; otherwise depth
estimation or an area heuristic is used.

Examples:
  platesense estimate meal.jpg --food apple --bbox 120,80,200,180
  platesense estimate meal.jpg --food rice --category grains --bbox 0,0,300,200 --format json`,
	Args: cobra.ExactArgs(1),
	RunE: runEstimate,
}

func runEstimate(cmd *cobra.Command, args []string) error {
	cfg := GetConfig()

	foodName, _ := cmd.Flags().GetString("food")
	if foodName == "" {
		return fmt.Errorf("--food is required")
	}
	category, _ := cmd.Flags().GetString("category")

	bboxSpec, _ := cmd.Flags().GetString("bbox")
	box, err := parseBBoxSpec(bboxSpec)
	if err != nil {
		return err
	}

	format := cfg.Output.Format
	if cmd.Flags().Changed("format") {
		format, _ = cmd.Flags().GetString("format")
	}

	img, meta, err := utils.LoadImage(args[0])
	if err != nil {
		return fmt.Errorf("failed to load image %s: %w", args[0], err)
	}
	slog.Debug("image loaded", "path", meta.Path, "width", meta.Width, "height", meta.Height)

	builder := estimator.NewBuilder().
		WithConfig(cfg.ToEstimatorConfig()).
		WithModelsDir(cfg.ModelsDir).
		WithGPU(cfg.GPU.Enabled)

	if cfg.Density.SQLitePath != "" {
		store, err := density.NewSQLiteStore(cfg.Density.SQLitePath)
		if err != nil {
			return fmt.Errorf("failed to open density database: %w", err)
		}
		builder = builder.WithDensityStore(store)
	}

	est, err := builder.Build()
	if err != nil {
		return fmt.Errorf("failed to initialize estimator: %w", err)
	}
	defer func() { _ = est.Close() }()

	result, err := est.Estimate(img, foodName, category, box)
	if err != nil {
		return fmt.Errorf("estimation failed: %w", err)
	}

	output, err := formatResult(result, foodName, category, format, cfg.Output.Precision)
	if err != nil {
		return err
	}

	outputFile, _ := cmd.Flags().GetString("output")
	if outputFile != "" {
		if err := os.WriteFile(outputFile, []byte(output), 0o600); err != nil {
			return fmt.Errorf("failed to write output file: %w", err)
		}
		return nil
	}

	_, _ = fmt.Fprint(cmd.OutOrStdout(), output)
	return nil
}

// parseBBoxSpec parses a bounding box given as "x,y,width,height".
func parseBBoxSpec(spec string) (utils.BoundingBox, error) {
	var box utils.BoundingBox

	if spec == "" {
		return box, fmt.Errorf("--bbox is required (format: x,y,width,height)")
	}

	parts := strings.Split(spec, ",")
	if len(parts) != 4 {
		return box, fmt.Errorf("invalid bbox %q: expected x,y,width,height", spec)
	}

	values := make([]int, 4)
	for i, part := range parts {
		value, err := strconv.Atoi(strings.TrimSpace(part))
		if err != nil {
			return box, fmt.Errorf("invalid bbox component %q: %w", part, err)
		}
		values[i] = value
	}

	box = utils.BoundingBox{X: values[0], Y: values[1], Width: values[2], Height: values[3]}
	if err := box.Validate(); err != nil {
		return box, err
	}

	return box, nil
}

// formatResult renders an estimation result as text or JSON.
func formatResult(result *estimator.Result, foodName, category, format string, precision int) (string, error) {
	if format == "json" {
		obj := struct {
			FoodName string            `json:"food_name"`
			Category string            `json:"category,omitempty"`
			Estimate *estimator.Result `json:"estimate"`
		}{FoodName: foodName, Category: category, Estimate: result}

		data, err := json.MarshalIndent(obj, "", "  ")
		if err != nil {
			return "", fmt.Errorf("failed to encode result: %w", err)
		}
		return string(data) + "\n", nil
	}

	var sb strings.Builder
	if category != "" {
		sb.WriteString(fmt.Sprintf("Food: %s (%s)\n", foodName, category))
	} else {
		sb.WriteString(fmt.Sprintf("Food: %s\n", foodName))
	}
	sb.WriteString(fmt.Sprintf("Method: %s\n", result.Method))
	sb.WriteString(fmt.Sprintf("Shape: %s\n", result.ShapeAnalysis.Shape))
	sb.WriteString(fmt.Sprintf("Estimated volume: %.0f ml\n", result.EstimatedVolume))
	sb.WriteString(fmt.Sprintf("Estimated weight: %.0f g\n", result.EstimatedWeight))
	sb.WriteString(fmt.Sprintf("Confidence: %.*f\n", precision, result.Confidence))

	return sb.String(), nil
}

func init() {
	rootCmd.AddCommand(estimateCmd)
	estimateCmd.Flags().String("food", "", "name of the food in the bounding box (required)")
	estimateCmd.Flags().String("category", "", "food category hint (fruits, vegetables, bakery, ...)")
	estimateCmd.Flags().String("bbox", "", "bounding box as x,y,width,height in pixels (required)")
	estimateCmd.Flags().StringP("format", "f", "text", "output format (text, json)")
	estimateCmd.Flags().StringP("output", "o", "", "write output to file instead of stdout")
}
