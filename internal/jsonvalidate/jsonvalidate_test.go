package jsonvalidate

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const weatherParamsSchema = `{
	"type": "object",
	"properties": {
		"location": {"type": "string"},
		"unit": {"type": "string", "enum": ["celsius", "fahrenheit"]}
	},
	"required": ["location"]
}`

func TestValidateArguments_Valid(t *testing.T) {
	schema, err := CompileSchema(weatherParamsSchema)
	require.NoError(t, err)

	err = ValidateArguments(schema, `{"location": "Boston", "unit": "celsius"}`)
	assert.NoError(t, err)
}

func TestValidateArguments_MissingRequired(t *testing.T) {
	schema, err := CompileSchema(weatherParamsSchema)
	require.NoError(t, err)

	err = ValidateArguments(schema, `{"unit": "celsius"}`)
	assert.Error(t, err)
}

func TestValidateArguments_MalformedJSON(t *testing.T) {
	schema, err := CompileSchema(weatherParamsSchema)
	require.NoError(t, err)

	err = ValidateArguments(schema, `{"location": `)
	assert.Error(t, err)
}

func TestValidateArguments_RepairableJSONSucceeds(t *testing.T) {
	schema, err := CompileSchema(weatherParamsSchema)
	require.NoError(t, err)

	err = ValidateArguments(schema, `{"location": "Boston", "unit": "celsius",}`)
	assert.NoError(t, err)
}

func TestCompileSchema_MalformedSchema(t *testing.T) {
	_, err := CompileSchema(`{"type": `)
	assert.Error(t, err)
}

func TestValidateToolParamsJSON(t *testing.T) {
	assert.NoError(t, ValidateToolParamsJSON(weatherParamsSchema))
	assert.Error(t, ValidateToolParamsJSON(`not json at all`))
}
