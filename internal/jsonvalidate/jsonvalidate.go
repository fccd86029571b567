// Package jsonvalidate validates tool-call arguments (and tool-parameter
// schemas) against a JSON-schema text: a tool definition fails fast if its
// parameter schema doesn't even parse, and an assembled tool call's
// arguments fail if they don't validate against it. Tool parameters are
// modeled in this module as opaque JSON-schema text (model.ToolDefinition
// .ParamsJSON is a string, not a reflected Go type), so validation goes
// through github.com/santhosh-tekuri/jsonschema/v6 rather than a
// reflection-based schema generator built from Go structs.
package jsonvalidate

import (
	"encoding/json"
	"fmt"

	"github.com/kaptinlin/jsonrepair"
	"github.com/santhosh-tekuri/jsonschema/v6"
)

// CompileSchema parses and compiles a JSON-schema text into a reusable
// *jsonschema.Schema. Call once per ToolDefinition and reuse across calls.
func CompileSchema(schemaJSON string) (*jsonschema.Schema, error) {
	var schemaDoc any
	if err := json.Unmarshal([]byte(schemaJSON), &schemaDoc); err != nil {
		return nil, fmt.Errorf("unmarshal schema: %w", err)
	}

	compiler := jsonschema.NewCompiler()
	const resourceName = "tool-params.json"
	if err := compiler.AddResource(resourceName, schemaDoc); err != nil {
		return nil, fmt.Errorf("add schema resource: %w", err)
	}
	schema, err := compiler.Compile(resourceName)
	if err != nil {
		return nil, fmt.Errorf("compile schema: %w", err)
	}
	return schema, nil
}

// ValidateArguments parses argumentsJSON and validates it against schema.
// Models occasionally emit near-JSON tool arguments (a dangling comma, an
// unquoted key), so a first parse failure triggers one jsonrepair retry
// before giving up. A parse failure in argumentsJSON is reported distinctly
// from a schema validation failure so callers can map it to invalid-arg
// either way.
func ValidateArguments(schema *jsonschema.Schema, argumentsJSON string) error {
	doc, err := parseArguments(argumentsJSON)
	if err != nil {
		return fmt.Errorf("unmarshal arguments: %w", err)
	}
	if err := schema.Validate(doc); err != nil {
		return fmt.Errorf("validate arguments: %w", err)
	}
	return nil
}

func parseArguments(argumentsJSON string) (any, error) {
	var doc any
	if err := json.Unmarshal([]byte(argumentsJSON), &doc); err == nil {
		return doc, nil
	}

	repaired, repairErr := jsonrepair.JSONRepair(argumentsJSON)
	if repairErr != nil {
		return nil, fmt.Errorf("repair arguments JSON: %w", repairErr)
	}
	if err := json.Unmarshal([]byte(repaired), &doc); err != nil {
		return nil, fmt.Errorf("unmarshal repaired arguments JSON: %w (repaired: %s)", err, repaired)
	}
	return doc, nil
}

// ValidateToolParamsJSON compiles schemaJSON just to confirm it is valid
// JSON-schema text, without validating any particular arguments document.
// Used at request-serialization time to reject a ToolDefinition whose
// ParamsJSON does not even parse.
func ValidateToolParamsJSON(schemaJSON string) error {
	_, err := CompileSchema(schemaJSON)
	return err
}
