package model

// Game is a catalog entry as returned by the catalog API. Only the requested
// fields are populated; everything else stays at its zero value.
type Game struct {
	ID           int64         `json:"id"`
	Name         string        `json:"name"`
	Summary      string        `json:"summary,omitempty"`
	Cover        *Cover        `json:"cover,omitempty"`
	Genres       []Genre       `json:"genres,omitempty"`
	ReleaseDates []ReleaseDate `json:"release_dates,omitempty"`
}

type Cover struct {
	URL string `json:"url"`
}

type Genre struct {
	Name string `json:"name"`
}

type ReleaseDate struct {
	Human string `json:"human"`
}

// CoverURL returns the cover URL or "" when the game has no cover.
func (g Game) CoverURL() string {
	if g.Cover == nil {
		return ""
	}
	return g.Cover.URL
}
