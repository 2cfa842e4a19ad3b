package tags

// Query params for tag endpoints.
type FilterQuery struct {
	Tags []string `query:"tags" json:"tags,omitempty" validate:"max=20,dive,min=1,max=100"`
}

// Payloads for modification endpoints.
type CreateModificationPayload struct {
	Source      string  `json:"source" validate:"required,min=1,max=200"`
	Action      string  `json:"action" validate:"required,oneof=blacklist whitelist merge"`
	Target      *string `json:"target,omitempty" validate:"omitempty,min=1,max=200"`
	DisplayName *string `json:"display_name,omitempty" validate:"omitempty,min=1,max=200"`
}
