package libraries

type CreateLibraryPayload struct {
	Name      string `json:"name" validate:"required,max=100"`
	Path      string `json:"path" validate:"required,max=500"`
	IsDefault bool   `json:"is_default"`
}

type UpdateLibraryPayload struct {
	Name      *string `json:"name,omitempty" validate:"omitempty,max=100"`
	Path      *string `json:"path,omitempty" validate:"omitempty,max=500"`
	IsDefault *bool   `json:"is_default,omitempty"`
}
