package sidecar

// SeriesSidecar is the series.json document dropped into a series directory.
// It applies to every comic under that directory unless a deeper directory
// carries its own sidecar.
type SeriesSidecar struct {
	Series        string   `json:"series,omitempty"`
	Title         string   `json:"title,omitempty"`
	TitleEnglish  *string  `json:"title_english,omitempty"`
	TitleJapanese *string  `json:"title_japanese,omitempty"`
	Synonyms      []string `json:"synonyms,omitempty"`
	Authors       []string `json:"authors,omitempty"`
	Synopsis      *string  `json:"synopsis,omitempty"`
	Genres        []string `json:"genres,omitempty"`
	Tags          []string `json:"tags,omitempty"`
	Demographics  []string `json:"demographics,omitempty"`
	Status        *string  `json:"status,omitempty"`
	TotalVolumes  *int     `json:"total_volumes,omitempty"`
	TotalChapters *int     `json:"total_chapters,omitempty"`
	ReleaseYear   *int     `json:"release_year,omitempty"`
	MALID         *int     `json:"mal_id,omitempty"`
	AnilistID     *int     `json:"anilist_id,omitempty"`
	IsAdult       *bool    `json:"is_adult,omitempty"`
}

// SeriesName returns the series name declared by the sidecar, preferring the
// explicit series field over the title.
func (s *SeriesSidecar) SeriesName() string {
	if s == nil {
		return ""
	}
	if s.Series != "" {
		return s.Series
	}
	return s.Title
}
