package chat

// StoreInput names the two documents to analyze by object key.
type StoreInput struct {
	SueLetterPath string `json:"sue_letter_path"`
	NDAPath       string `json:"nda_path"`
}

// Multipart field names of the upload endpoint.
const (
	FieldSueLetter = "sue_letter"
	FieldNDA       = "nda"
)
