package client

// IDField is the document key that carries the client id on the wire.
const IDField = "_id"

// Document is a free-form client record.
type Document map[string]interface{}

type CreateOutput struct {
	Message  string `json:"message"`
	ClientID string `json:"client_id"`
}

type MessageOutput struct {
	Message string `json:"message"`
}
