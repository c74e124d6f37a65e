// Package scope is the generic Scope 1/2/3 inventory calculator: activity quantities
// times per-unit factors, summed per scope. It has no crediting period, no decay and no
// baseline; a fuel category without an explicit factor falls back to the tailpipe EF.
package scope

import (
	"fmt"

	"carbon-registry/internal/application/factors"
	"carbon-registry/internal/application/methodology"
	"carbon-registry/internal/domain"
	"carbon-registry/internal/pkg/validation"
)

// Code is the methodology code scope inventories are saved under.
const Code = "SCOPE"

// Activity is one inventory line. FactorKgPerUnit may be omitted for a defined fuel
// category, in which case quantity is litres and the tailpipe EF applies.
type Activity struct {
	Scope           int      `json:"scope"`
	Category        string   `json:"category"`
	Quantity        float64  `json:"quantity"`
	Unit            string   `json:"unit"`
	FactorKgPerUnit *float64 `json:"factor_kg_per_unit,omitempty"`
}

// Input is the calculator input.
type Input struct {
	Activities []Activity `json:"activities"`
}

// Line is an evaluated activity.
type Line struct {
	Scope           int     `json:"scope"`
	Category        string  `json:"category"`
	Quantity        float64 `json:"quantity"`
	Unit            string  `json:"unit"`
	FactorKgPerUnit float64 `json:"factor_kg_per_unit"`
	FactorSource    string  `json:"factor_source"`
	TCO2e           float64 `json:"tco2e"`
}

// Factor sources recorded per line.
const (
	SourceSupplied = "supplied"
	SourceFuel     = "fuel_table"
)

// Outputs is the stored outputs record.
type Outputs struct {
	Scope1TCO2e float64 `json:"scope1_tco2e"`
	Scope2TCO2e float64 `json:"scope2_tco2e"`
	Scope3TCO2e float64 `json:"scope3_tco2e"`
	TotalTCO2e  float64 `json:"total_tco2e"`
	Lines       []Line  `json:"lines"`
}

// Result is a scope inventory. It satisfies methodology.Result.
type Result struct {
	Inputs  Input   `json:"inputs"`
	Outputs Outputs `json:"outputs"`
}

func (r *Result) Methodology() string { return Code }

func (r *Result) QuantityTCO2e() float64 { return r.Outputs.TotalTCO2e }

func (r *Result) RecordInputs() interface{} { return r.Inputs }

func (r *Result) RecordOutputs() interface{} { return r.Outputs }

func (r *Result) DefaultNotes() string {
	return "Scope 1/2/3 inventory (replace factors with vetted datasets)."
}

// Calculate evaluates every activity and sums kg per scope before converting.
func Calculate(in Input) (*Result, error) {
	var kg [4]float64
	lines := make([]Line, 0, len(in.Activities))
	for i, a := range in.Activities {
		field := fmt.Sprintf("activities[%d]", i)
		if a.Scope < 1 || a.Scope > 3 {
			return nil, domain.Invalid(field+".scope", "must be 1, 2 or 3, got %d", a.Scope)
		}
		if err := validation.NonNegative(field+".quantity", a.Quantity); err != nil {
			return nil, err
		}
		factor, source, err := resolveFactor(field, a)
		if err != nil {
			return nil, err
		}
		lineKg := a.Quantity * factor
		kg[a.Scope] += lineKg
		lines = append(lines, Line{
			Scope:           a.Scope,
			Category:        a.Category,
			Quantity:        a.Quantity,
			Unit:            a.Unit,
			FactorKgPerUnit: factor,
			FactorSource:    source,
			TCO2e:           factors.KgToTonnes(lineKg),
		})
	}

	return &Result{
		Inputs: in,
		Outputs: Outputs{
			Scope1TCO2e: factors.KgToTonnes(kg[1]),
			Scope2TCO2e: factors.KgToTonnes(kg[2]),
			Scope3TCO2e: factors.KgToTonnes(kg[3]),
			TotalTCO2e:  factors.KgToTonnes(kg[1] + kg[2] + kg[3]),
			Lines:       lines,
		},
	}, nil
}

func resolveFactor(field string, a Activity) (float64, string, error) {
	if a.FactorKgPerUnit != nil {
		if err := validation.NonNegative(field+".factor_kg_per_unit", *a.FactorKgPerUnit); err != nil {
			return 0, "", err
		}
		return *a.FactorKgPerUnit, SourceSupplied, nil
	}
	fuel, err := factors.LookupFuel(a.Category)
	if err != nil {
		return 0, "", domain.Invalid(field+".factor_kg_per_unit", "required for category %q", a.Category)
	}
	return fuel.TailpipeKgPerL, SourceFuel, nil
}

func decode(inputs, outputs []byte) (methodology.Result, error) {
	r := &Result{}
	if err := methodology.DecodeInto(inputs, outputs, &r.Inputs, &r.Outputs); err != nil {
		return nil, err
	}
	return r, nil
}

func init() {
	methodology.Register(methodology.Info{
		Code:        Code,
		Name:        "Scope 1/2/3 Inventory",
		Description: "Σ quantity × factor per scope. Fuel categories without a factor use the tailpipe EF.",
	}, decode)
}
