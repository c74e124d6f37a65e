package methodology

import (
	"carbon-registry/internal/application/factors"
	"carbon-registry/internal/pkg/validation"
)

// AM0124 baseline modes. An empty mode means grid_equivalent.
const (
	BaselineGridEquivalent = "grid_equivalent"
	BaselineGreySMR        = "grey_smr"
)

// AM0124Input is the hydrogen-electrolysis calculator input.
type AM0124Input struct {
	H2TonsYear           float64 `json:"h2_tons_year"`
	KWhPerKg             float64 `json:"kwh_per_kg"`
	GridEFKgPerKWh       float64 `json:"grid_ef_kg_per_kwh"`
	RenewableFractionPct float64 `json:"renewable_fraction_pct"`
	BaselineMode         string  `json:"baseline_mode"`
	SMREFKgPerKg         float64 `json:"smr_ef_kg_per_kg"`
	LeakagePct           float64 `json:"leakage_pct"`
	Years                int     `json:"years"`
	AnnualDecarbPct      float64 `json:"annual_grid_decarbonisation_pct"`
}

// AM0124Inputs is the stored inputs record.
type AM0124Inputs struct {
	H2TonsYear           float64 `json:"h2_tons_year"`
	KWhPerKg             float64 `json:"kwh_per_kg"`
	ElecKWhYear          float64 `json:"elec_kwh_year"`
	GridEFKgPerKWh       float64 `json:"grid_ef_kg_per_kwh"`
	RenewableFractionPct float64 `json:"renewable_fraction_pct"`
	BaselineMode         string  `json:"baseline_mode"`
	SMREFKgPerKg         float64 `json:"smr_ef_kg_per_kg"`
	LeakagePct           float64 `json:"leakage_pct"`
	Years                int     `json:"years"`
	AnnualDecarbPct      float64 `json:"annual_grid_decarbonisation_pct"`
}

// AM0124Outputs is the stored outputs record.
type AM0124Outputs struct {
	H2Kg                float64   `json:"h2_kg"`
	BaselineTCO2eTotal  float64   `json:"baseline_tco2e_total"`
	ProjectTCO2eTotal   float64   `json:"project_tco2e_total"`
	PenaltyTCO2eTotal   float64   `json:"penalty_tco2e_total"`
	ERTCO2eTotal        float64   `json:"er_tco2e_total"`
	ERTCO2ePerYear      float64   `json:"er_tco2e_per_year"`
	PenaltyTCO2ePerYear float64   `json:"penalty_tco2e_per_year"`
	YearlyTable         []YearRow `json:"yearly_table"`
}

// AM0124Result is the hydrogen-electrolysis calculation.
type AM0124Result struct {
	Inputs  AM0124Inputs  `json:"inputs"`
	Outputs AM0124Outputs `json:"outputs"`
}

func (r *AM0124Result) Methodology() string { return CodeAM0124 }

func (r *AM0124Result) QuantityTCO2e() float64 { return r.Outputs.ERTCO2eTotal }

func (r *AM0124Result) RecordInputs() interface{} { return r.Inputs }

func (r *AM0124Result) RecordOutputs() interface{} { return r.Outputs }

func (r *AM0124Result) DefaultNotes() string {
	return "AM0124 demo-style ER calculation (replace assumptions/factors with vetted datasets)."
}

// CalculateAM0124 computes electrolysis emissions against a grid-equivalent or grey-SMR
// baseline.
//
// In grid_equivalent mode the counterfactual is the same electricity draw without the
// renewable discount. The leakage penalty is a fraction of the baseline and is held
// constant across years, as is the baseline.
func CalculateAM0124(in AM0124Input) (*AM0124Result, error) {
	if in.BaselineMode == "" {
		in.BaselineMode = BaselineGridEquivalent
	}
	if err := validation.First(
		validation.NonNegative("h2_tons_year", in.H2TonsYear),
		validation.NonNegative("kwh_per_kg", in.KWhPerKg),
		validation.NonNegative("grid_ef_kg_per_kwh", in.GridEFKgPerKWh),
		validation.Percent("renewable_fraction_pct", in.RenewableFractionPct),
		validation.OneOf("baseline_mode", in.BaselineMode, BaselineGridEquivalent, BaselineGreySMR),
		validation.NonNegative("smr_ef_kg_per_kg", in.SMREFKgPerKg),
		validation.Percent("leakage_pct", in.LeakagePct),
		validation.MinInt("years", in.Years, 1),
		validation.Percent("annual_grid_decarbonisation_pct", in.AnnualDecarbPct),
	); err != nil {
		return nil, err
	}

	h2Kg := in.H2TonsYear * factors.KgPerTonne
	elecKWh := h2Kg * in.KWhPerKg
	renewable := in.RenewableFractionPct / 100.0
	projectKg := elecKWh * in.GridEFKgPerKWh * (1.0 - renewable)

	smrEF := 0.0
	var baselineKg float64
	if in.BaselineMode == BaselineGreySMR {
		smrEF = in.SMREFKgPerKg
		baselineKg = h2Kg * smrEF
	} else {
		baselineKg = elecKWh * in.GridEFKgPerKWh
	}
	penaltyKg := baselineKg * (in.LeakagePct / 100.0)

	s := buildSeries(baselineKg, projectKg, penaltyKg, in.Years, in.AnnualDecarbPct)

	return &AM0124Result{
		Inputs: AM0124Inputs{
			H2TonsYear:           in.H2TonsYear,
			KWhPerKg:             in.KWhPerKg,
			ElecKWhYear:          elecKWh,
			GridEFKgPerKWh:       in.GridEFKgPerKWh,
			RenewableFractionPct: in.RenewableFractionPct,
			BaselineMode:         in.BaselineMode,
			SMREFKgPerKg:         smrEF,
			LeakagePct:           in.LeakagePct,
			Years:                in.Years,
			AnnualDecarbPct:      in.AnnualDecarbPct,
		},
		Outputs: AM0124Outputs{
			H2Kg:                h2Kg,
			BaselineTCO2eTotal:  factors.KgToTonnes(s.BaselineKg),
			ProjectTCO2eTotal:   factors.KgToTonnes(s.ProjectKg),
			PenaltyTCO2eTotal:   factors.KgToTonnes(s.PenaltyKg),
			ERTCO2eTotal:        factors.KgToTonnes(s.ERKg),
			ERTCO2ePerYear:      factors.KgToTonnes(s.FirstERKg),
			PenaltyTCO2ePerYear: factors.KgToTonnes(penaltyKg),
			YearlyTable:         s.Rows,
		},
	}, nil
}

func decodeAM0124(inputs, outputs []byte) (Result, error) {
	r := &AM0124Result{}
	if err := DecodeInto(inputs, outputs, &r.Inputs, &r.Outputs); err != nil {
		return nil, err
	}
	return r, nil
}
