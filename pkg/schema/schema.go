package schema

import (
	"github.com/invopop/jsonschema"
)

func generateSchema[T any]() *jsonschema.Schema {
	r := jsonschema.Reflector{
		AllowAdditionalProperties: true,
		DoNotReference:            true,
	}
	var v T
	return r.Reflect(v)
}

// HeroSchema is the reflected JSON Schema of Hero. Decode validates payloads
// against it, and the web view serves it as-is.
var HeroSchema = generateSchema[Hero]()
