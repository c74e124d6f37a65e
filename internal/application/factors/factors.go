// Package factors holds the static reference data the calculators consume: fuel
// emission factors, well-to-tank factors, energy densities and unit constants.
//
// Default factors are placeholders for worked examples; replace them with vetted
// datasets for real analysis.
package factors

import (
	"errors"
	"sort"

	"carbon-registry/internal/domain"
)

// Unit constants.
const (
	// KgPerTonne converts kilograms to tonnes at the reporting boundary.
	KgPerTonne = 1000.0

	// MJPerKWh is the energy content of one kilowatt-hour.
	MJPerKWh = 3.6

	// KWhPerLitreAvoided is the charger-fleet to fuel-avoided equivalence (kWh per litre).
	KWhPerLitreAvoided = 2.5

	// RenewableEF is the emission factor of renewable electricity (kg CO2e/kWh).
	RenewableEF = 0.0
)

// Fuel category names.
const (
	Petrol = "Petrol"
	Diesel = "Diesel"
	LPG    = "LPG"
	Other  = "Other"
)

var (
	// ErrCustomFactorRequired is returned for the Other category, whose factors are
	// undefined and must be supplied by the caller.
	ErrCustomFactorRequired = errors.New("custom factors required for category Other")

	// ErrUnknownFuel is returned for a name outside the table.
	ErrUnknownFuel = errors.New("unknown fuel type")
)

// Fuel is one fuel category's factors.
type Fuel struct {
	Name           string  `json:"name"`
	TailpipeKgPerL float64 `json:"tailpipe_ef_kg_per_l"`
	WTTKgPerL      float64 `json:"wtt_ef_kg_per_l"`
	EnergyMJPerL   float64 `json:"energy_mj_per_l"`
}

// CustomFuel carries the caller-supplied factors for Other. Both must be set.
type CustomFuel struct {
	TailpipeKgPerL *float64 `json:"tailpipe_ef_kg_per_l"`
	WTTKgPerL      *float64 `json:"wtt_ef_kg_per_l"`
}

var fuels = map[string]Fuel{
	Petrol: {Name: Petrol, TailpipeKgPerL: 2.31, WTTKgPerL: 0.52, EnergyMJPerL: 34.2},
	Diesel: {Name: Diesel, TailpipeKgPerL: 2.68, WTTKgPerL: 0.58, EnergyMJPerL: 38.6},
	LPG:    {Name: LPG, TailpipeKgPerL: 1.51, WTTKgPerL: 0.21, EnergyMJPerL: 26.8},
}

var materials = []string{"Plastic", "Paper", "Glass", "Metal"}

// LookupFuel returns the factors of a defined category. Other yields
// ErrCustomFactorRequired.
func LookupFuel(name string) (Fuel, error) {
	if name == Other {
		return Fuel{Name: Other}, ErrCustomFactorRequired
	}
	f, ok := fuels[name]
	if !ok {
		return Fuel{}, ErrUnknownFuel
	}
	return f, nil
}

// ResolveFuel returns the factors to calculate with. Defined categories ignore custom;
// Other requires both custom factors and has no energy density.
func ResolveFuel(name string, custom *CustomFuel) (Fuel, error) {
	f, err := LookupFuel(name)
	switch {
	case err == nil:
		return f, nil
	case errors.Is(err, ErrUnknownFuel):
		return Fuel{}, domain.Invalid("fuel_type", "unknown fuel type %q", name)
	}
	if custom == nil || custom.TailpipeKgPerL == nil {
		return Fuel{}, domain.Invalid("custom_tailpipe_ef", "required when fuel_type is Other")
	}
	if custom.WTTKgPerL == nil {
		return Fuel{}, domain.Invalid("custom_wtt_ef", "required when fuel_type is Other")
	}
	if *custom.TailpipeKgPerL < 0 || *custom.WTTKgPerL < 0 {
		return Fuel{}, domain.Invalid("custom_tailpipe_ef", "custom factors must be non-negative")
	}
	f.TailpipeKgPerL = *custom.TailpipeKgPerL
	f.WTTKgPerL = *custom.WTTKgPerL
	return f, nil
}

// FuelNames lists the selectable categories, Other last.
func FuelNames() []string {
	names := make([]string, 0, len(fuels)+1)
	for n := range fuels {
		names = append(names, n)
	}
	sort.Strings(names)
	return append(names, Other)
}

// Fuels returns the defined fuel table.
func Fuels() []Fuel {
	out := make([]Fuel, 0, len(fuels))
	for _, n := range FuelNames() {
		if f, ok := fuels[n]; ok {
			out = append(out, f)
		}
	}
	return out
}

// Materials lists the waste-recovery material categories.
func Materials() []string {
	return append([]string(nil), materials...)
}

// IsMaterial reports whether name is a known waste-recovery material.
func IsMaterial(name string) bool {
	for _, m := range materials {
		if m == name {
			return true
		}
	}
	return false
}

// KgToTonnes converts kilograms of CO2e to tonnes. Every kg-denominated calculator
// reports through this one function.
func KgToTonnes(kg float64) float64 {
	return kg / KgPerTonne
}
