package methodology

import (
	"carbon-registry/internal/application/factors"
	"carbon-registry/internal/domain"
	"carbon-registry/internal/pkg/validation"
)

// VMR0007Input is the waste-recovery calculator input. Factors are tCO2e per ton (or
// per ton-km), so this calculator works in tonnes throughout.
type VMR0007Input struct {
	Material                 string  `json:"material"`
	Tons                     float64 `json:"tons"`
	ContaminationPct         float64 `json:"contamination_pct"`
	LandfillEFTCO2ePerTon    float64 `json:"landfill_ef_tco2e_per_ton"`
	RecycleEFTCO2ePerTon     float64 `json:"recycle_ef_tco2e_per_ton"`
	TransportKm              float64 `json:"transport_km"`
	TransportEFTCO2ePerTonKm float64 `json:"transport_ef_tco2e_per_ton_km"`
	EnergyTCO2eYear          float64 `json:"energy_tco2e_year"`
}

// VMR0007Breakdown itemises project emissions.
type VMR0007Breakdown struct {
	Recycling       float64 `json:"recycling"`
	ResidueLandfill float64 `json:"residue_landfill"`
	Transport       float64 `json:"transport"`
	Energy          float64 `json:"energy"`
}

// VMR0007Outputs is the stored outputs record.
type VMR0007Outputs struct {
	CleanTons     float64          `json:"clean_tons"`
	ResidueTons   float64          `json:"residue_tons"`
	BaselineTCO2e float64          `json:"baseline_tco2e"`
	ProjectTCO2e  float64          `json:"project_tco2e"`
	ERTCO2e       float64          `json:"er_tco2e"`
	Breakdown     VMR0007Breakdown `json:"breakdown"`
}

// VMR0007Result is the waste-recovery calculation. Its inputs record is the input as given.
type VMR0007Result struct {
	Inputs  VMR0007Input   `json:"inputs"`
	Outputs VMR0007Outputs `json:"outputs"`
}

func (r *VMR0007Result) Methodology() string { return CodeVMR0007 }

func (r *VMR0007Result) QuantityTCO2e() float64 { return r.Outputs.ERTCO2e }

func (r *VMR0007Result) RecordInputs() interface{} { return r.Inputs }

func (r *VMR0007Result) RecordOutputs() interface{} { return r.Outputs }

func (r *VMR0007Result) DefaultNotes() string {
	return "VMR0007 demo-style ER calculation (replace assumptions/factors with vetted datasets)."
}

// CalculateVMR0007 computes landfill baseline against recycling.
//
// Contaminated material is not recycled; the residue is still landfilled at the
// landfill factor. Transport applies to the full tonnage.
func CalculateVMR0007(in VMR0007Input) (*VMR0007Result, error) {
	if !factors.IsMaterial(in.Material) {
		return nil, domain.Invalid("material", "unknown material %q", in.Material)
	}
	if err := validation.First(
		validation.NonNegative("tons", in.Tons),
		validation.Percent("contamination_pct", in.ContaminationPct),
		validation.NonNegative("landfill_ef_tco2e_per_ton", in.LandfillEFTCO2ePerTon),
		validation.NonNegative("recycle_ef_tco2e_per_ton", in.RecycleEFTCO2ePerTon),
		validation.NonNegative("transport_km", in.TransportKm),
		validation.NonNegative("transport_ef_tco2e_per_ton_km", in.TransportEFTCO2ePerTonKm),
		validation.NonNegative("energy_tco2e_year", in.EnergyTCO2eYear),
	); err != nil {
		return nil, err
	}

	cleanTons := in.Tons * (1.0 - in.ContaminationPct/100.0)
	residueTons := in.Tons - cleanTons

	baseline := in.Tons * in.LandfillEFTCO2ePerTon
	b := VMR0007Breakdown{
		Recycling:       cleanTons * in.RecycleEFTCO2ePerTon,
		ResidueLandfill: residueTons * in.LandfillEFTCO2ePerTon,
		Transport:       in.Tons * in.TransportKm * in.TransportEFTCO2ePerTonKm,
		Energy:          in.EnergyTCO2eYear,
	}
	project := b.Recycling + b.ResidueLandfill + b.Transport + b.Energy

	return &VMR0007Result{
		Inputs: in,
		Outputs: VMR0007Outputs{
			CleanTons:     cleanTons,
			ResidueTons:   residueTons,
			BaselineTCO2e: baseline,
			ProjectTCO2e:  project,
			ERTCO2e:       Reduction(baseline, project, 0),
			Breakdown:     b,
		},
	}, nil
}

func decodeVMR0007(inputs, outputs []byte) (Result, error) {
	r := &VMR0007Result{}
	if err := DecodeInto(inputs, outputs, &r.Inputs, &r.Outputs); err != nil {
		return nil, err
	}
	return r, nil
}
