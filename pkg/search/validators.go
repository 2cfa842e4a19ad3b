package search

// SeriesQuery holds the query parameters for series search.
type SeriesQuery struct {
	Query  string `query:"q" json:"q" validate:"required,min=1,max=100"`
	Limit  int    `query:"limit" json:"limit,omitempty" default:"24" validate:"min=1,max=100"`
	Offset int    `query:"offset" json:"offset,omitempty" validate:"min=0"`
}

// SeriesSearchResult is one series in search results.
type SeriesSearchResult struct {
	ID           int     `json:"id"`
	Name         string  `json:"name"`
	Title        *string `json:"title,omitempty"`
	CoverComicID *string `json:"cover_comic_id,omitempty"`
	IsNSFW       bool    `json:"is_nsfw"`
	ComicCount   int     `json:"comic_count"`
}

// SeriesSearchResponse is the search endpoint response.
type SeriesSearchResponse struct {
	Series []SeriesSearchResult `json:"series"`
	Total  int                  `json:"total"`
}
