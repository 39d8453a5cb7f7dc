package media

import "context"

// Title is the catalog listing shape shared by trending and search results.
type Title struct {
	ID        int    `json:"id"`
	Title     string `json:"title"`
	Overview  string `json:"overview"`
	PosterURL string `json:"posterUrl,omitempty"`
	Rating    int    `json:"rating"`
	MediaType string `json:"mediaType"`
}

// Video is a promotional clip attached to a title (trailers and teasers).
type Video struct {
	Name string `json:"name"`
	Key  string `json:"key"`
	Site string `json:"site"`
	Type string `json:"type"`
}

// Review is a published viewer review for a title.
type Review struct {
	Author  string `json:"author"`
	Content string `json:"content"`
}

// Details carries the full metadata view for one title.
type Details struct {
	Title
	Genres  []string `json:"genres"`
	Videos  []Video  `json:"videos"`
	Reviews []Review `json:"reviews"`
}

// Season summarizes one season of a TV title.
type Season struct {
	Number       int    `json:"number"`
	Name         string `json:"name"`
	EpisodeCount int    `json:"episodeCount"`
}

// Catalog exposes the read-only metadata surface the application consumes.
type Catalog interface {
	Trending(ctx context.Context) ([]Title, error)
	Search(ctx context.Context, query string) ([]Title, error)
	Details(ctx context.Context, id int, mediaType string) (Details, error)
	Seasons(ctx context.Context, tvID int) ([]Season, error)
}
