package client

import "legaldash/internal/common/validation"

var createClientSchema = validation.MustCompile("CreateClient", `{
	"type": "object",
	"required": ["name", "userId"],
	"properties": {
		"_id":       {"type": "string", "minLength": 1, "maxLength": 255},
		"name":      {"type": "string"},
		"userId":    {"type": "string"},
		"documents": {"type": "array", "items": {"type": "string"}}
	}
}`)

// updateClientSchema checks types only; "_id" is immutable.
var updateClientSchema = validation.MustCompile("UpdateClient", `{
	"type": "object",
	"minProperties": 1,
	"properties": {
		"name":      {"type": "string"},
		"userId":    {"type": "string"},
		"documents": {"type": "array", "items": {"type": "string"}}
	},
	"not": {"required": ["_id"]}
}`)
