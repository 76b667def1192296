// Package calibration nudges stored density profiles toward user-confirmed
// ground truth so future estimates improve over time.
package calibration

import (
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"gonum.org/v1/gonum/stat"

	"github.com/MeKo-Tech/platesense/internal/density"
)

// Contract violations surfaced to the caller.
var (
	ErrEmptyFoodName = errors.New("food name cannot be empty")
	ErrInvalidWeight = errors.New("actual weight must be > 0")
	ErrInvalidVolume = errors.New("actual volume must be >= 0")
)

// Calibrator applies ground-truth feedback to a density store. It is the
// single writer for the store; per-food observation history is kept in memory
// to refresh the variance statistic.
type Calibrator struct {
	store density.Store

	mu      sync.Mutex
	history map[string][]float64
}

// New creates a calibrator writing to the given store.
func New(store density.Store) *Calibrator {
	return &Calibrator{
		store:   store,
		history: make(map[string][]float64),
	}
}

// Calibrate consumes a user-confirmed actual weight (grams) and volume (ml)
// for a prior estimate. The stored density moves halfway toward the observed
// density: a two-point average applied once per feedback event. An
// actualVolume of zero means the volume was not supplied; without it the
// volume error cannot be separated from the density error, so no update
// occurs. That is a deliberate no-op, not an error.
func (c *Calibrator) Calibrate(foodName string, actualWeight, actualVolume float64) error {
	if foodName == "" {
		return ErrEmptyFoodName
	}
	if actualWeight <= 0 {
		return fmt.Errorf("%w (got %v)", ErrInvalidWeight, actualWeight)
	}
	if actualVolume < 0 {
		return fmt.Errorf("%w (got %v)", ErrInvalidVolume, actualVolume)
	}
	if actualVolume == 0 {
		slog.Debug("Calibration skipped: no actual volume supplied", "food", foodName)
		return nil
	}

	actualDensity := actualWeight / actualVolume

	c.mu.Lock()
	defer c.mu.Unlock()

	entry, _ := c.store.Lookup(foodName)
	previous := entry.Density
	entry.Density = (entry.Density + actualDensity) / 2

	key := density.NormalizeName(foodName)
	c.history[key] = append(c.history[key], actualDensity)
	if samples := c.history[key]; len(samples) >= 2 {
		entry.DensityVariance = stat.Variance(samples, nil)
	}

	if err := c.store.Upsert(foodName, entry); err != nil {
		return fmt.Errorf("failed to store calibrated density for %q: %w", foodName, err)
	}

	slog.Info("Density calibrated",
		"food", foodName,
		"observed_density", actualDensity,
		"previous_density", previous,
		"new_density", entry.Density,
		"observations", len(c.history[key]))
	return nil
}

// Observations returns how many feedback events have been applied for a food
// in this process.
func (c *Calibrator) Observations(foodName string) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.history[density.NormalizeName(foodName)])
}
