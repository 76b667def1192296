package refobject

// Size holds real-world dimensions in centimeters. Depth may be zero when the
// object is effectively flat.
type Size struct {
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
	Depth  float64 `json:"depth,omitempty"`
}

// CatalogEntry describes one everyday object with fixed, known physical
// dimensions usable as a pixel-to-centimeter calibration reference.
type CatalogEntry struct {
	Label string
	Size  Size
}

// The closed catalog of recognizable reference objects. ISO/IEC 7810 ID-1
// fixes the card at 8.56 cm x 5.398 cm; coin and cutlery sizes are the
// common standards.
var catalog = map[string]CatalogEntry{
	"credit_card":  {Label: "Credit Card", Size: Size{Width: 8.56, Height: 5.398, Depth: 0.076}},
	"quarter":      {Label: "Quarter", Size: Size{Width: 2.426, Height: 2.426, Depth: 0.175}},
	"dinner_plate": {Label: "Dinner Plate", Size: Size{Width: 26.0, Height: 26.0, Depth: 2.0}},
	"fork":         {Label: "Fork", Size: Size{Width: 19.0, Height: 2.5, Depth: 1.5}},
	"spoon":        {Label: "Spoon", Size: Size{Width: 16.0, Height: 4.0, Depth: 2.5}},
	"chopstick":    {Label: "Chopstick", Size: Size{Width: 23.0, Height: 0.8, Depth: 0.8}},
}

// classLabels maps detection-model class indices to catalog keys. The order
// must match the training label file.
var classLabels = []string{
	"credit_card",
	"quarter",
	"dinner_plate",
	"fork",
	"spoon",
	"chopstick",
}

// LookupCatalog returns the catalog entry for a detected object key.
func LookupCatalog(key string) (CatalogEntry, bool) {
	entry, ok := catalog[key]
	return entry, ok
}

// CatalogSize returns the number of objects in the catalog.
func CatalogSize() int { return len(catalog) }

// labelForClass maps a model class index to a catalog key; empty when the
// index is outside the catalog.
func labelForClass(class int) string {
	if class < 0 || class >= len(classLabels) {
		return ""
	}
	return classLabels[class]
}
