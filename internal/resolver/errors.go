package resolver

// unknownModelError indicates a model id absent from the catalog.
type unknownModelError struct{ id string }

func (e unknownModelError) Error() string { return "model not found: " + e.id }

// ErrUnknownModel constructs an unknownModelError.
func ErrUnknownModel(id string) error { return unknownModelError{id: id} }

// IsUnknownModel reports whether err indicates a missing model id.
func IsUnknownModel(err error) bool {
	_, ok := err.(unknownModelError)
	return ok
}

// unknownVariantError indicates a variant id absent from its model.
type unknownVariantError struct{ modelID, id string }

func (e unknownVariantError) Error() string {
	return "variant not found: " + e.id + " (model " + e.modelID + ")"
}

// ErrUnknownVariant constructs an unknownVariantError.
func ErrUnknownVariant(modelID, id string) error {
	return unknownVariantError{modelID: modelID, id: id}
}

// IsUnknownVariant reports whether err indicates a missing variant id.
func IsUnknownVariant(err error) bool {
	_, ok := err.(unknownVariantError)
	return ok
}

// unknownLoraError indicates a LoRA id absent from the catalog.
type unknownLoraError struct{ id string }

func (e unknownLoraError) Error() string { return "lora not found: " + e.id }

// ErrUnknownLora constructs an unknownLoraError.
func ErrUnknownLora(id string) error { return unknownLoraError{id: id} }

// IsUnknownLora reports whether err indicates a missing LoRA id.
func IsUnknownLora(err error) bool {
	_, ok := err.(unknownLoraError)
	return ok
}
