package porthttp

import (
	"encoding/json"
	"fmt"
	"strings"

	"sentinel/internal/market"
	"sentinel/internal/state"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

// updateSchema constrains PUT /api/portfolio bodies before any of the values
// reach the state manager. Cross-field rules (interval legal for period) are
// checked in code afterwards; the schema handles shape and enums.
const updateSchema = `{
  "type": "object",
  "required": ["positions"],
  "additionalProperties": false,
  "properties": {
    "positions": {
      "type": "array",
      "minItems": 1,
      "items": {
        "type": "object",
        "required": ["ticker", "quantity"],
        "additionalProperties": false,
        "properties": {
          "ticker": {"type": "string", "minLength": 1, "maxLength": 12},
          "quantity": {"type": "number"}
        }
      }
    },
    "period": {"type": "string", "enum": ["1d", "5d", "1mo", "3mo", "6mo", "1y", "ytd", "max"]},
    "interval": {"type": "string", "enum": ["1m", "5m", "15m", "30m", "1h", "1d", "1wk", "1mo"]}
  }
}`

type updateValidator struct {
	schema *jsonschema.Schema
}

func newUpdateValidator() (*updateValidator, error) {
	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource("portfolio_update.json", strings.NewReader(updateSchema)); err != nil {
		return nil, err
	}
	schema, err := compiler.Compile("portfolio_update.json")
	if err != nil {
		return nil, err
	}
	return &updateValidator{schema: schema}, nil
}

// parse validates the raw body against the schema and decodes it into a
// Selection. A missing interval is filled with the period default.
func (v *updateValidator) parse(body []byte) (state.Selection, error) {
	var generic any
	if err := json.Unmarshal(body, &generic); err != nil {
		return state.Selection{}, fmt.Errorf("invalid json: %w", err)
	}
	if err := v.schema.Validate(generic); err != nil {
		return state.Selection{}, fmt.Errorf("invalid portfolio update: %w", err)
	}
	var sel state.Selection
	if err := json.Unmarshal(body, &sel); err != nil {
		return state.Selection{}, err
	}
	sel.Normalize()
	if sel.Interval == "" {
		sel.Interval = market.DefaultInterval(sel.Period)
	}
	return sel, nil
}
