package models

// ModelDescriptor describes one entry of the static model catalog.
type ModelDescriptor struct {
	// Model is the provider-side model identifier sent over the wire.
	Model string `json:"model"`

	// Name is the internal key. It is unique across the catalog.
	Name string `json:"name"`

	// Display is the human readable label.
	Display string `json:"display"`

	// Provider names the hosted API serving the model.
	Provider string `json:"provider"`
}
