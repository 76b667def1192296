// Package nutrition scales per-100g nutrient tables to an estimated portion
// weight. Pure computation with no side effects.
package nutrition

// Info holds nutrient quantities. When used as a lookup table the values are
// per 100 g; ForPortion returns values for an actual portion.
type Info struct {
	Calories float64 `json:"calories"`
	Protein  float64 `json:"protein"`
	Carbs    float64 `json:"carbs"`
	Fat      float64 `json:"fat"`
	Fiber    float64 `json:"fiber"`
	Sugar    float64 `json:"sugar"`
	Sodium   float64 `json:"sodium"`
}

// ForPortion scales a per-100g nutrient table to the given portion weight in
// grams: value × weight/100.
func ForPortion(per100g Info, weightGrams float64) Info {
	factor := weightGrams / 100.0
	return Info{
		Calories: per100g.Calories * factor,
		Protein:  per100g.Protein * factor,
		Carbs:    per100g.Carbs * factor,
		Fat:      per100g.Fat * factor,
		Fiber:    per100g.Fiber * factor,
		Sugar:    per100g.Sugar * factor,
		Sodium:   per100g.Sodium * factor,
	}
}
