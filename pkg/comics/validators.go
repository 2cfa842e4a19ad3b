package comics

// ListComicsQuery holds the query parameters for listing comics.
type ListComicsQuery struct {
	SeriesID  *int  `query:"series_id" json:"series_id,omitempty" validate:"omitempty,min=1"`
	Processed *bool `query:"processed" json:"processed,omitempty"`
	Limit     int   `query:"limit" json:"limit,omitempty" default:"50" validate:"min=1,max=200"`
	Offset    int   `query:"offset" json:"offset,omitempty" validate:"min=0"`
}

// DuplicatesQuery holds the query parameters for the duplicate report.
type DuplicatesQuery struct {
	FillMissing bool `query:"fill_missing" json:"fill_missing,omitempty"`
}
