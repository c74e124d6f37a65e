package methodology

import (
	"carbon-registry/internal/application/factors"
	"carbon-registry/internal/domain"
	"carbon-registry/internal/pkg/validation"
)

// VM0038 input modes.
const (
	ModeFuelAvoided  = "fuel_avoided"
	ModeChargerFleet = "charger_fleet"
)

// ChargerFleet derives annual electricity from charger utilisation.
type ChargerFleet struct {
	Chargers              int     `json:"chargers"`
	SessionsPerChargerDay float64 `json:"sessions_per_charger_day"`
	KWhPerSession         float64 `json:"kwh_per_session"`
	OperatingDaysYear     int     `json:"operating_days_year"`
}

// VM0038Input is the EV-charging calculator input. An empty Mode means fuel_avoided.
type VM0038Input struct {
	Mode                  string              `json:"mode"`
	GridEFKgPerKWh        float64             `json:"grid_ef_kg_per_kwh"`
	RenewableFractionPct  float64             `json:"renewable_fraction_pct"`
	IncludeWTT            bool                `json:"include_wtt"`
	AnnualDecarbPct       float64             `json:"annual_grid_decarbonisation_pct"`
	Years                 int                 `json:"years"`
	FuelType              string              `json:"fuel_type"`
	CustomFuel            *factors.CustomFuel `json:"custom_fuel,omitempty"`
	ChargingEffPct        float64             `json:"charging_eff_pct"`
	FuelAvoidedLitresYear float64             `json:"fuel_avoided_litres_year"`
	Fleet                 *ChargerFleet       `json:"fleet,omitempty"`
}

// VM0038Inputs is the stored inputs record: every input plus the derived activity values.
type VM0038Inputs struct {
	Mode                  string        `json:"mode"`
	GridEFKgPerKWh        float64       `json:"grid_ef_kg_per_kwh"`
	RenewableFractionPct  float64       `json:"renewable_fraction_pct"`
	IncludeWTT            bool          `json:"include_wtt"`
	AnnualDecarbPct       float64       `json:"annual_grid_decarbonisation_pct"`
	Years                 int           `json:"years"`
	FuelType              string        `json:"fuel_type"`
	TailpipeEFKgPerL      float64       `json:"tailpipe_ef_kg_per_l"`
	WTTEFKgPerL           float64       `json:"wtt_ef_kg_per_l"`
	FuelAvoidedLitresYear float64       `json:"fuel_avoided_litres_year"`
	KWhYear               float64       `json:"kwh_year"`
	ChargingEffPct        float64       `json:"charging_eff_pct"`
	KWhDelivered          float64       `json:"kwh_delivered"`
	BaselineKg            float64       `json:"baseline_kg"`
	Fleet                 *ChargerFleet `json:"fleet,omitempty"`
}

// VM0038Outputs is the stored outputs record.
type VM0038Outputs struct {
	TotalBaselineTCO2e float64   `json:"total_baseline_tco2e"`
	TotalProjectTCO2e  float64   `json:"total_project_tco2e"`
	TotalERTCO2e       float64   `json:"total_er_tco2e"`
	YearlyTable        []YearRow `json:"yearly_table"`
}

// VM0038Result is the EV-charging calculation.
type VM0038Result struct {
	Inputs  VM0038Inputs  `json:"inputs"`
	Outputs VM0038Outputs `json:"outputs"`
}

func (r *VM0038Result) Methodology() string { return CodeVM0038 }

func (r *VM0038Result) QuantityTCO2e() float64 { return r.Outputs.TotalERTCO2e }

func (r *VM0038Result) RecordInputs() interface{} { return r.Inputs }

func (r *VM0038Result) RecordOutputs() interface{} { return r.Outputs }

func (r *VM0038Result) DefaultNotes() string {
	return "VM0038 demo-style ER calculation (replace factors with vetted datasets)."
}

func (in VM0038Input) validate() error {
	if err := validation.First(
		validation.OneOf("mode", in.Mode, ModeFuelAvoided, ModeChargerFleet),
		validation.NonNegative("grid_ef_kg_per_kwh", in.GridEFKgPerKWh),
		validation.Percent("renewable_fraction_pct", in.RenewableFractionPct),
		validation.Percent("annual_grid_decarbonisation_pct", in.AnnualDecarbPct),
		validation.MinInt("years", in.Years, 1),
		validation.Percent("charging_eff_pct", in.ChargingEffPct),
	); err != nil {
		return err
	}
	if in.Mode == ModeFuelAvoided {
		return validation.NonNegative("fuel_avoided_litres_year", in.FuelAvoidedLitresYear)
	}
	if in.Fleet == nil {
		return domain.Invalid("fleet", "required when mode is %s", ModeChargerFleet)
	}
	return validation.First(
		validation.MinInt("fleet.chargers", in.Fleet.Chargers, 0),
		validation.NonNegative("fleet.sessions_per_charger_day", in.Fleet.SessionsPerChargerDay),
		validation.NonNegative("fleet.kwh_per_session", in.Fleet.KWhPerSession),
		validation.MinInt("fleet.operating_days_year", in.Fleet.OperatingDaysYear, 0),
	)
}

// CalculateVM0038 computes fuel-avoided baseline against EV charging electricity.
//
//   - fuel mode: kWh/year from the fuel's energy equivalence (litres × MJ/L ÷ 3.6)
//   - fleet mode: kWh/year = chargers × sessions/day × kWh/session × days; litres
//     avoided = kWh ÷ 2.5
//
// Delivered kWh = kWh/year ÷ charging efficiency (zero efficiency delivers nothing).
func CalculateVM0038(in VM0038Input) (*VM0038Result, error) {
	if in.Mode == "" {
		in.Mode = ModeFuelAvoided
	}
	if err := in.validate(); err != nil {
		return nil, err
	}
	fuel, err := factors.ResolveFuel(in.FuelType, in.CustomFuel)
	if err != nil {
		return nil, err
	}

	var litres, kwhYear float64
	switch in.Mode {
	case ModeFuelAvoided:
		litres = in.FuelAvoidedLitresYear
		if mj := litres * fuel.EnergyMJPerL; mj > 0 {
			kwhYear = mj / factors.MJPerKWh
		}
	case ModeChargerFleet:
		f := in.Fleet
		kwhYear = float64(f.Chargers) * f.SessionsPerChargerDay * f.KWhPerSession * float64(f.OperatingDaysYear)
		if kwhYear > 0 {
			litres = kwhYear / factors.KWhPerLitreAvoided
		}
	}

	efPerL := fuel.TailpipeKgPerL
	if in.IncludeWTT {
		efPerL += fuel.WTTKgPerL
	}
	baselineKg := litres * efPerL

	var kwhDelivered float64
	if in.ChargingEffPct > 0 {
		kwhDelivered = kwhYear / (in.ChargingEffPct / 100.0)
	}

	renewable := in.RenewableFractionPct / 100.0
	effGridEF := in.GridEFKgPerKWh*(1.0-renewable) + factors.RenewableEF*renewable
	projectKg := kwhDelivered * effGridEF

	s := buildSeries(baselineKg, projectKg, 0, in.Years, in.AnnualDecarbPct)

	return &VM0038Result{
		Inputs: VM0038Inputs{
			Mode:                  in.Mode,
			GridEFKgPerKWh:        in.GridEFKgPerKWh,
			RenewableFractionPct:  in.RenewableFractionPct,
			IncludeWTT:            in.IncludeWTT,
			AnnualDecarbPct:       in.AnnualDecarbPct,
			Years:                 in.Years,
			FuelType:              fuel.Name,
			TailpipeEFKgPerL:      fuel.TailpipeKgPerL,
			WTTEFKgPerL:           fuel.WTTKgPerL,
			FuelAvoidedLitresYear: litres,
			KWhYear:               kwhYear,
			ChargingEffPct:        in.ChargingEffPct,
			KWhDelivered:          kwhDelivered,
			BaselineKg:            baselineKg,
			Fleet:                 in.Fleet,
		},
		Outputs: VM0038Outputs{
			TotalBaselineTCO2e: factors.KgToTonnes(s.BaselineKg),
			TotalProjectTCO2e:  factors.KgToTonnes(s.ProjectKg),
			TotalERTCO2e:       factors.KgToTonnes(s.ERKg),
			YearlyTable:        s.Rows,
		},
	}, nil
}

func decodeVM0038(inputs, outputs []byte) (Result, error) {
	r := &VM0038Result{}
	if err := DecodeInto(inputs, outputs, &r.Inputs, &r.Outputs); err != nil {
		return nil, err
	}
	return r, nil
}
