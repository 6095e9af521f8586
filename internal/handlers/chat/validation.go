package chat

import "legaldash/internal/common/validation"

var storeInputSchema = validation.MustCompile("AnalyzeDocumentsMinio", `{
	"type": "object",
	"required": ["sue_letter_path", "nda_path"],
	"properties": {
		"sue_letter_path": {"type": "string", "minLength": 1},
		"nda_path":        {"type": "string", "minLength": 1}
	}
}`)
