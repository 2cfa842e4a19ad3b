package settings

// UpdateThumbnailPayload is the request body for replacing the cover
// rendering settings.
type UpdateThumbnailPayload struct {
	Width   int    `json:"width" validate:"required,min=50,max=1000"`
	Height  int    `json:"height" validate:"required,min=50,max=1600"`
	Quality int    `json:"quality" validate:"required,min=1,max=100"`
	Format  string `json:"format" validate:"required,oneof=jpeg png best"`
}

// UpdateNSFWRulesPayload is the request body for replacing the classifier
// rules. Omitted lists clear the stored value.
type UpdateNSFWRulesPayload struct {
	Categories    []string `json:"categories"`
	Subcategories []string `json:"subcategories"`
	TagPatterns   []string `json:"tag_patterns"`
}
