package tool

import (
	"encoding/json"

	"github.com/invopop/jsonschema"
)

// InputSchema derives the JSON Schema parameter map for a tool from
// its typed input struct. Fields without an omitempty json tag become
// required; descriptions come from jsonschema struct tags.
func InputSchema(input interface{}) map[string]interface{} {
	r := &jsonschema.Reflector{
		DoNotReference:            true,
		ExpandedStruct:            true,
		AllowAdditionalProperties: true,
	}

	schema := r.Reflect(input)
	schema.Version = ""

	raw, err := json.Marshal(schema)
	if err != nil {
		panic("tool: reflect input schema: " + err.Error())
	}

	var out map[string]interface{}
	if err := json.Unmarshal(raw, &out); err != nil {
		panic("tool: decode input schema: " + err.Error())
	}

	delete(out, "$schema")
	delete(out, "$id")
	if _, ok := out["type"]; !ok {
		out["type"] = "object"
	}
	return out
}
