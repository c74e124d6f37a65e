// Package methodology implements the worked-example methodology calculators.
//
// Each calculator is a pure function from a typed input to a typed Result. The
// shared shape:
//
//  1. annual baseline = activity volume × applicable factor(s), summed over components
//  2. annual project = activity × factor with mitigation fractions applied
//  3. ER = max(baseline − project − penalty, 0)
//  4. multi-year calculators decay the project grid term by (1 − d)^(year−1); the
//     baseline is held constant
//
// kg-denominated calculators convert to tCO2e only when building their outputs.
package methodology

import (
	"encoding/json"
	"fmt"
	"math"
	"sort"
	"sync"

	"carbon-registry/internal/application/factors"
)

// Methodology codes as stored in emissions.methodology.
const (
	CodeVM0038  = "VM0038"
	CodeAM0124  = "AM0124"
	CodeVMR0007 = "VMR0007"
)

// Result is a calculator output ready for the ledger. Inputs and outputs are the
// methodology's own record shapes; they are serialized verbatim.
type Result interface {
	Methodology() string
	QuantityTCO2e() float64
	RecordInputs() interface{}
	RecordOutputs() interface{}
	DefaultNotes() string
}

// Info describes a registered methodology.
type Info struct {
	Code        string `json:"code"`
	Name        string `json:"name"`
	Description string `json:"description"`
	MultiYear   bool   `json:"multi_year"`
}

// DecodeFunc rebuilds a typed Result from stored JSON payloads.
type DecodeFunc func(inputs, outputs []byte) (Result, error)

var (
	registryMu sync.RWMutex
	registry   = map[string]registration{}
)

type registration struct {
	info   Info
	decode DecodeFunc
}

// Register adds a methodology to the registry. Registering a code twice panics.
func Register(info Info, decode DecodeFunc) {
	registryMu.Lock()
	defer registryMu.Unlock()
	if _, dup := registry[info.Code]; dup {
		panic("methodology: Register called twice for " + info.Code)
	}
	registry[info.Code] = registration{info: info, decode: decode}
}

// Lookup returns the metadata of a registered methodology.
func Lookup(code string) (Info, bool) {
	registryMu.RLock()
	defer registryMu.RUnlock()
	r, ok := registry[code]
	return r.info, ok
}

// All lists registered methodologies ordered by code.
func All() []Info {
	registryMu.RLock()
	defer registryMu.RUnlock()
	out := make([]Info, 0, len(registry))
	for _, r := range registry {
		out = append(out, r.info)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Code < out[j].Code })
	return out
}

// Decode rebuilds the typed payloads of a stored record.
func Decode(code string, inputs, outputs []byte) (Result, error) {
	registryMu.RLock()
	r, ok := registry[code]
	registryMu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("methodology %q is not registered", code)
	}
	return r.decode(inputs, outputs)
}

// DecodeInto is a DecodeFunc helper: it unmarshals both payloads into a record pair.
func DecodeInto(inputs, outputs []byte, in, out interface{}) error {
	if err := json.Unmarshal(inputs, in); err != nil {
		return fmt.Errorf("decode inputs: %w", err)
	}
	if err := json.Unmarshal(outputs, out); err != nil {
		return fmt.Errorf("decode outputs: %w", err)
	}
	return nil
}

// Reduction is the emission reduction for one period, floored at zero: a project that
// emits more than its baseline earns no credit, never negative credit.
func Reduction(baseline, project, penalty float64) float64 {
	return math.Max(baseline-project-penalty, 0)
}

// YearRow is one row of a multi-year series, in tCO2e.
type YearRow struct {
	Year          int     `json:"Year"`
	BaselineTCO2e float64 `json:"Baseline (tCO2e)"`
	ProjectTCO2e  float64 `json:"Project (tCO2e)"`
	ERTCO2e       float64 `json:"ER (tCO2e)"`
}

// series is the kg-level accumulation behind a yearly table.
type series struct {
	Rows       []YearRow
	BaselineKg float64
	ProjectKg  float64
	PenaltyKg  float64
	ERKg       float64
	FirstERKg  float64
}

// buildSeries runs the crediting-period loop. The project total is computed as
// projectKg × Σ(1 − d)^(y−1) so that with d = 0 it equals years × projectKg exactly.
func buildSeries(baselineKg, projectKg, penaltyKg float64, years int, decarbPct float64) series {
	s := series{Rows: make([]YearRow, 0, years)}
	keep := 1.0 - decarbPct/100.0
	factorSum := 0.0
	for y := 1; y <= years; y++ {
		gridFactor := math.Pow(keep, float64(y-1))
		projY := projectKg * gridFactor
		erY := Reduction(baselineKg, projY, penaltyKg)
		if y == 1 {
			s.FirstERKg = erY
		}
		factorSum += gridFactor
		s.ERKg += erY
		s.Rows = append(s.Rows, YearRow{
			Year:          y,
			BaselineTCO2e: factors.KgToTonnes(baselineKg),
			ProjectTCO2e:  factors.KgToTonnes(projY),
			ERTCO2e:       factors.KgToTonnes(erY),
		})
	}
	s.BaselineKg = baselineKg * float64(years)
	s.ProjectKg = projectKg * factorSum
	s.PenaltyKg = penaltyKg * float64(years)
	return s
}

func init() {
	Register(Info{
		Code:        CodeVM0038,
		Name:        "EV Charging",
		Description: "Baseline: ICE fuel avoided × (EF + optional WTT). Project: charging electricity × grid EF, net of renewables and charging losses, with optional grid decarbonisation.",
		MultiYear:   true,
	}, decodeVM0038)
	Register(Info{
		Code:        CodeAM0124,
		Name:        "Hydrogen via Electrolysis",
		Description: "Baseline: grid electricity for the same draw, or grey SMR hydrogen. Project: electrolysis electricity × grid EF net of renewables, less a leakage penalty.",
		MultiYear:   true,
	}, decodeAM0124)
	Register(Info{
		Code:        CodeVMR0007,
		Name:        "Waste Recovery & Recycling",
		Description: "Baseline: landfill disposal. Project: recycling, residue landfill, transport and other energy emissions.",
	}, decodeVMR0007)
}
