package tool

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	kabuErrors "github.com/harunnryd/kabu/internal/errors"
)

func tickerSchema() map[string]interface{} {
	return map[string]interface{}{
		"type": "object",
		"properties": map[string]interface{}{
			"ticker": map[string]interface{}{"type": "string"},
			"count":  map[string]interface{}{"type": "integer"},
		},
		"required": []interface{}{"ticker"},
	}
}

func TestValidateInput_OK(t *testing.T) {
	err := ValidateInput(tickerSchema(), json.RawMessage(`{"ticker":"AAPL","count":5}`))
	assert.NoError(t, err)
}

func TestValidateInput_MissingRequired(t *testing.T) {
	err := ValidateInput(tickerSchema(), json.RawMessage(`{"count":5}`))
	require.Error(t, err)
	assert.True(t, kabuErrors.IsCategory(err, kabuErrors.ErrInvalidInput))
	assert.Contains(t, err.Error(), "ticker")
}

func TestValidateInput_WrongType(t *testing.T) {
	err := ValidateInput(tickerSchema(), json.RawMessage(`{"ticker":42}`))
	require.Error(t, err)
	assert.True(t, kabuErrors.IsCategory(err, kabuErrors.ErrInvalidInput))
}

func TestValidateInput_ExtraFieldsTolerated(t *testing.T) {
	err := ValidateInput(tickerSchema(), json.RawMessage(`{"ticker":"AAPL","hint":"apple inc"}`))
	assert.NoError(t, err)
}

func TestValidateInput_NotAnObject(t *testing.T) {
	err := ValidateInput(tickerSchema(), json.RawMessage(`["AAPL"]`))
	require.Error(t, err)
	assert.True(t, kabuErrors.IsCategory(err, kabuErrors.ErrInvalidInput))
}

func TestValidateInput_EmptyInputChecksRequired(t *testing.T) {
	err := ValidateInput(tickerSchema(), nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "missing required field")

	// No required fields means empty input passes.
	assert.NoError(t, ValidateInput(map[string]interface{}{"type": "object"}, nil))
}

func TestValidateInput_NestedArray(t *testing.T) {
	schema := map[string]interface{}{
		"type": "object",
		"properties": map[string]interface{}{
			"tickers": map[string]interface{}{
				"type":  "array",
				"items": map[string]interface{}{"type": "string"},
			},
		},
	}

	assert.NoError(t, ValidateInput(schema, json.RawMessage(`{"tickers":["AAPL","MSFT"]}`)))
	assert.Error(t, ValidateInput(schema, json.RawMessage(`{"tickers":["AAPL",7]}`)))
}
