package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/MeKo-Tech/platesense/internal/calibration"
	"github.com/MeKo-Tech/platesense/internal/density"
)

// calibrateCmd represents the calibrate command.
var calibrateCmd = &cobra.Command{
	Use:   "calibrate",
	Short: "Correct the density table with a measured weight",
	Long: `Feed a ground-truth weight measurement back into the density table.

When the measured volume is also known, the food's density is adjusted
halfway towards the measured value, so repeated calibrations converge
without overshooting. Without a persistent density database (--density-db)
the correction only lasts for this invocation and is therefore rejected.

Examples:
  platesense calibrate --food apple --weight 182 --volume 210 --density-db ./density.db`,
	RunE: runCalibrate,
}

func runCalibrate(cmd *cobra.Command, args []string) error {
	cfg := GetConfig()

	foodName, _ := cmd.Flags().GetString("food")
	weight, _ := cmd.Flags().GetFloat64("weight")
	volume, _ := cmd.Flags().GetFloat64("volume")

	if cfg.Density.SQLitePath == "" {
		return fmt.Errorf("calibration requires a persistent density database (--density-db)")
	}

	store, err := density.NewSQLiteStore(cfg.Density.SQLitePath)
	if err != nil {
		return fmt.Errorf("failed to open density database: %w", err)
	}
	defer func() { _ = store.Close() }()

	calibrator := calibration.New(store)
	if err := calibrator.Calibrate(foodName, weight, volume); err != nil {
		return fmt.Errorf("calibration failed: %w", err)
	}

	entry, _ := store.Lookup(foodName)
	_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Calibrated %s: density now %.3f g/ml\n", foodName, entry.Density)

	return nil
}

func init() {
	rootCmd.AddCommand(calibrateCmd)
	calibrateCmd.Flags().String("food", "", "name of the measured food (required)")
	calibrateCmd.Flags().Float64("weight", 0, "measured weight in grams (required)")
	calibrateCmd.Flags().Float64("volume", 0, "measured volume in ml (enables density adjustment)")
	_ = calibrateCmd.MarkFlagRequired("food")
	_ = calibrateCmd.MarkFlagRequired("weight")
}
