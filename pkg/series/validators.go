package series

// ListSeriesQuery holds the query parameters for listing series.
type ListSeriesQuery struct {
	Category    *string `query:"category" json:"category,omitempty" validate:"omitempty,max=100"`
	Subcategory *string `query:"subcategory" json:"subcategory,omitempty" validate:"omitempty,max=100"`
	Limit       int     `query:"limit" json:"limit,omitempty" default:"50" validate:"min=1,max=200"`
	Offset      int     `query:"offset" json:"offset,omitempty" validate:"min=0"`
}

// UpdateSeriesPayload holds the editable metadata fields. Absent fields are
// left untouched.
type UpdateSeriesPayload struct {
	Name          *string   `json:"name,omitempty" validate:"omitempty,min=1,max=300"`
	Title         *string   `json:"title,omitempty" validate:"omitempty,max=300"`
	TitleEnglish  *string   `json:"title_english,omitempty" validate:"omitempty,max=300"`
	TitleJapanese *string   `json:"title_japanese,omitempty" validate:"omitempty,max=300"`
	Synopsis      *string   `json:"synopsis,omitempty" validate:"omitempty,max=10000"`
	Status        *string   `json:"status,omitempty" validate:"omitempty,max=50"`
	TotalVolumes  *int      `json:"total_volumes,omitempty" validate:"omitempty,min=0"`
	TotalChapters *int      `json:"total_chapters,omitempty" validate:"omitempty,min=0"`
	ReleaseYear   *int      `json:"release_year,omitempty" validate:"omitempty,min=1000,max=3000"`
	CoverComicID  *string   `json:"cover_comic_id,omitempty" validate:"omitempty,len=32"`
	Synonyms      *[]string `json:"synonyms,omitempty" validate:"omitempty,max=50,dive,max=300"`
	Authors       *[]string `json:"authors,omitempty" validate:"omitempty,max=50,dive,max=200"`
	Genres        *[]string `json:"genres,omitempty" validate:"omitempty,max=100,dive,max=100"`
	Tags          *[]string `json:"tags,omitempty" validate:"omitempty,max=200,dive,max=100"`
	Demographics  *[]string `json:"demographics,omitempty" validate:"omitempty,max=20,dive,max=100"`
	NSFWOverride  *bool     `json:"nsfw_override,omitempty"`

	// ClearNSFWOverride drops the manual flag so classification applies
	// again. It wins over NSFWOverride when both are sent.
	ClearNSFWOverride bool `json:"clear_nsfw_override,omitempty"`
}
