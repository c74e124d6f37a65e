package calculators

import (
	"encoding/json"
	"strings"
	"time"

	"carbon-registry/internal/application/factors"
	"carbon-registry/internal/application/ledger"
	"carbon-registry/internal/application/methodology"
	"carbon-registry/internal/application/scope"
	"carbon-registry/internal/domain"
	"carbon-registry/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
)

type Handlers struct {
	Store *ledger.Store
}

type calculatorFunc func(body []byte) (methodology.Result, error)

func run[In any, R methodology.Result](calc func(In) (R, error)) calculatorFunc {
	return func(body []byte) (methodology.Result, error) {
		var in In
		if err := json.Unmarshal(body, &in); err != nil {
			return nil, domain.Invalid("body", "Invalid request body: %v", err)
		}
		r, err := calc(in)
		if err != nil {
			return nil, err
		}
		return r, nil
	}
}

var calculators = map[string]calculatorFunc{
	methodology.CodeVM0038:  run(methodology.CalculateVM0038),
	methodology.CodeAM0124:  run(methodology.CalculateAM0124),
	methodology.CodeVMR0007: run(methodology.CalculateVMR0007),
	scope.Code:              run(scope.Calculate),
}

func lookup(c *fiber.Ctx) (string, calculatorFunc, error) {
	code := strings.ToUpper(c.Params("code"))
	calc, ok := calculators[code]
	if !ok {
		return "", nil, fiber.NewError(fiber.StatusNotFound, "Unknown calculator: "+c.Params("code"))
	}
	return code, calc, nil
}

// calculation is the response body of a compute call.
type calculation struct {
	Methodology   string      `json:"methodology"`
	QuantityTCO2e float64     `json:"quantity_tco2e"`
	Inputs        interface{} `json:"inputs"`
	Outputs       interface{} `json:"outputs"`
}

func view(r methodology.Result) calculation {
	return calculation{
		Methodology:   r.Methodology(),
		QuantityTCO2e: r.QuantityTCO2e(),
		Inputs:        r.RecordInputs(),
		Outputs:       r.RecordOutputs(),
	}
}

// GET /api/v1/calculators
func (h *Handlers) List(c *fiber.Ctx) error {
	all := methodology.All()
	return response.List(c, "Calculators fetched successfully", all, len(all))
}

// GET /api/v1/calculators/factors: default factor tables
func (h *Handlers) Factors(c *fiber.Ctx) error {
	return response.Success(c, "Factors fetched successfully", fiber.Map{
		"fuels":      factors.Fuels(),
		"fuel_types": factors.FuelNames(),
		"materials":  factors.Materials(),
	}, nil)
}

// POST /api/v1/calculators/:code: body is the calculator input; nothing is stored.
func (h *Handlers) Calculate(c *fiber.Ctx) error {
	_, calc, err := lookup(c)
	if err != nil {
		return err
	}
	r, err := calc(c.Body())
	if err != nil {
		return err
	}
	return response.Success(c, "Calculation completed", view(r), nil)
}

type saveBody struct {
	ProjectID  string          `json:"project_id"`
	RecordDate string          `json:"record_date"`
	Notes      string          `json:"notes"`
	Inputs     json.RawMessage `json:"inputs"`
}

type savedCalculation struct {
	EmissionID string `json:"emission_id"`
	calculation
}

// POST /api/v1/calculators/:code/save: compute and append to the ledger. A blank
// record_date is today (UTC); blank notes take the calculator's default note.
func (h *Handlers) Save(c *fiber.Ctx) error {
	_, calc, err := lookup(c)
	if err != nil {
		return err
	}
	var body saveBody
	if err := json.Unmarshal(c.Body(), &body); err != nil {
		return domain.Invalid("body", "Invalid request body")
	}
	if len(body.Inputs) == 0 {
		return domain.Invalid("inputs", "is required")
	}
	r, err := calc(body.Inputs)
	if err != nil {
		return err
	}
	if body.RecordDate == "" {
		body.RecordDate = time.Now().UTC().Format(domain.RecordDateLayout)
	}
	id, err := h.Store.SaveCalculation(c.Context(), body.ProjectID, body.RecordDate, body.Notes, r)
	if err != nil {
		return err
	}
	return response.SuccessCreated(c, "Emission record saved", savedCalculation{EmissionID: id, calculation: view(r)}, nil)
}
