package media

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/nettrack/backend/internal/models"
)

const (
	defaultBaseURL = "https://api.themoviedb.org/3"
	posterBaseURL  = "https://image.tmdb.org/t/p/w500"

	// Discovery is pinned to titles streamable on watch provider 8 in the
	// US region.
	watchProvider = "8"
	watchRegion   = "US"

	// Search pages through at most this many discover pages per medium.
	maxSearchPages = 5
)

// TMDBClient reads title metadata from the TMDB HTTP API.
type TMDBClient struct {
	APIKey     string
	BaseURL    string
	HTTPClient *http.Client
}

// NewTMDBClient constructs a catalog client for the provided API key.
func NewTMDBClient(apiKey, baseURL string) *TMDBClient {
	if strings.TrimSpace(baseURL) == "" {
		baseURL = defaultBaseURL
	}
	return &TMDBClient{
		APIKey:     apiKey,
		BaseURL:    strings.TrimRight(baseURL, "/"),
		HTTPClient: &http.Client{Timeout: 15 * time.Second},
	}
}

type discoverPage struct {
	Page       int `json:"page"`
	TotalPages int `json:"total_pages"`
	Results    []struct {
		ID          int     `json:"id"`
		Title       string  `json:"title"`
		Name        string  `json:"name"`
		Overview    string  `json:"overview"`
		PosterPath  string  `json:"poster_path"`
		VoteAverage float64 `json:"vote_average"`
	} `json:"results"`
}

// Trending returns the first discover page for movies and TV combined.
func (c *TMDBClient) Trending(ctx context.Context) ([]Title, error) {
	if c == nil || strings.TrimSpace(c.APIKey) == "" {
		return nil, ErrCatalogUnavailable
	}

	titles := make([]Title, 0, 40)
	for _, mediaType := range []string{models.MediaTypeMovie, models.MediaTypeTV} {
		page, err := c.discover(ctx, mediaType, 1)
		if err != nil {
			return nil, err
		}
		for _, result := range page.Results {
			titles = append(titles, normalizeTitle(result.ID, result.Title, result.Name, result.Overview, result.PosterPath, result.VoteAverage, mediaType))
		}
	}
	return titles, nil
}

// Search pages through discover results for both media types, keeps titles
// whose name contains the query (case-insensitive), and dedupes by id.
func (c *TMDBClient) Search(ctx context.Context, query string) ([]Title, error) {
	if c == nil || strings.TrimSpace(c.APIKey) == "" {
		return nil, ErrCatalogUnavailable
	}

	needle := strings.ToLower(strings.TrimSpace(query))

	var matches []Title
	for _, mediaType := range []string{models.MediaTypeMovie, models.MediaTypeTV} {
		seen := make(map[int]struct{})
		for pageNum := 1; pageNum <= maxSearchPages; pageNum++ {
			page, err := c.discover(ctx, mediaType, pageNum)
			if err != nil {
				return nil, err
			}
			for _, result := range page.Results {
				if _, ok := seen[result.ID]; ok {
					continue
				}
				seen[result.ID] = struct{}{}

				title := normalizeTitle(result.ID, result.Title, result.Name, result.Overview, result.PosterPath, result.VoteAverage, mediaType)
				if needle == "" || strings.Contains(strings.ToLower(title.Title), needle) {
					matches = append(matches, title)
				}
			}
			if pageNum >= page.TotalPages {
				break
			}
		}
	}
	return matches, nil
}

// Details fetches full metadata for one title, including its trailer/teaser
// videos and reviews.
func (c *TMDBClient) Details(ctx context.Context, id int, mediaType string) (Details, error) {
	if c == nil || strings.TrimSpace(c.APIKey) == "" {
		return Details{}, ErrCatalogUnavailable
	}
	if mediaType != models.MediaTypeMovie && mediaType != models.MediaTypeTV {
		return Details{}, fmt.Errorf("%w: %q", ErrUnknownMediaType, mediaType)
	}

	var payload struct {
		ID          int     `json:"id"`
		Title       string  `json:"title"`
		Name        string  `json:"name"`
		Overview    string  `json:"overview"`
		PosterPath  string  `json:"poster_path"`
		VoteAverage float64 `json:"vote_average"`
		Genres      []struct {
			Name string `json:"name"`
		} `json:"genres"`
	}
	if err := c.get(ctx, "/"+mediaType+"/"+strconv.Itoa(id), nil, &payload); err != nil {
		return Details{}, err
	}

	details := Details{
		Title:  normalizeTitle(payload.ID, payload.Title, payload.Name, payload.Overview, payload.PosterPath, payload.VoteAverage, mediaType),
		Genres: make([]string, 0, len(payload.Genres)),
	}
	for _, genre := range payload.Genres {
		details.Genres = append(details.Genres, genre.Name)
	}

	videos, err := c.videos(ctx, id, mediaType)
	if err != nil {
		return Details{}, err
	}
	details.Videos = videos

	reviews, err := c.reviews(ctx, id, mediaType)
	if err != nil {
		return Details{}, err
	}
	details.Reviews = reviews

	return details, nil
}

// Seasons lists the seasons of a TV title with their episode counts.
func (c *TMDBClient) Seasons(ctx context.Context, tvID int) ([]Season, error) {
	if c == nil || strings.TrimSpace(c.APIKey) == "" {
		return nil, ErrCatalogUnavailable
	}

	var payload struct {
		Seasons []struct {
			SeasonNumber int    `json:"season_number"`
			Name         string `json:"name"`
			EpisodeCount int    `json:"episode_count"`
		} `json:"seasons"`
	}
	if err := c.get(ctx, "/tv/"+strconv.Itoa(tvID), nil, &payload); err != nil {
		return nil, err
	}

	seasons := make([]Season, 0, len(payload.Seasons))
	for _, season := range payload.Seasons {
		seasons = append(seasons, Season{
			Number:       season.SeasonNumber,
			Name:         season.Name,
			EpisodeCount: season.EpisodeCount,
		})
	}
	return seasons, nil
}

func (c *TMDBClient) discover(ctx context.Context, mediaType string, page int) (discoverPage, error) {
	params := url.Values{}
	params.Set("with_watch_providers", watchProvider)
	params.Set("watch_region", watchRegion)
	params.Set("page", strconv.Itoa(page))

	var payload discoverPage
	if err := c.get(ctx, "/discover/"+mediaType, params, &payload); err != nil {
		return discoverPage{}, err
	}
	return payload, nil
}

func (c *TMDBClient) videos(ctx context.Context, id int, mediaType string) ([]Video, error) {
	var payload struct {
		Results []struct {
			Name string `json:"name"`
			Key  string `json:"key"`
			Site string `json:"site"`
			Type string `json:"type"`
		} `json:"results"`
	}
	if err := c.get(ctx, "/"+mediaType+"/"+strconv.Itoa(id)+"/videos", nil, &payload); err != nil {
		return nil, err
	}

	videos := make([]Video, 0, len(payload.Results))
	for _, result := range payload.Results {
		if result.Type != "Trailer" && result.Type != "Teaser" {
			continue
		}
		videos = append(videos, Video{
			Name: result.Name,
			Key:  result.Key,
			Site: result.Site,
			Type: result.Type,
		})
	}
	return videos, nil
}

func (c *TMDBClient) reviews(ctx context.Context, id int, mediaType string) ([]Review, error) {
	var payload struct {
		Results []struct {
			Author  string `json:"author"`
			Content string `json:"content"`
		} `json:"results"`
	}
	if err := c.get(ctx, "/"+mediaType+"/"+strconv.Itoa(id)+"/reviews", nil, &payload); err != nil {
		return nil, err
	}

	reviews := make([]Review, 0, len(payload.Results))
	for _, result := range payload.Results {
		reviews = append(reviews, Review{Author: result.Author, Content: result.Content})
	}
	return reviews, nil
}

func (c *TMDBClient) get(ctx context.Context, path string, params url.Values, out any) error {
	if params == nil {
		params = url.Values{}
	}
	params.Set("api_key", c.APIKey)

	endpoint := c.BaseURL + path + "?" + params.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return fmt.Errorf("build catalog request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	client := c.HTTPClient
	if client == nil {
		client = http.DefaultClient
	}

	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("catalog request %s: %w", path, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return ErrTitleNotFound
	case resp.StatusCode != http.StatusOK:
		return fmt.Errorf("catalog request %s: unexpected status %d", path, resp.StatusCode)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode catalog response %s: %w", path, err)
	}
	return nil
}

func normalizeTitle(id int, movieTitle, tvName, overview, posterPath string, voteAverage float64, mediaType string) Title {
	name := movieTitle
	if name == "" {
		name = tvName
	}

	poster := ""
	if posterPath != "" {
		poster = posterBaseURL + posterPath
	}

	return Title{
		ID:        id,
		Title:     name,
		Overview:  overview,
		PosterURL: poster,
		Rating:    int(math.Round(voteAverage * 10)),
		MediaType: mediaType,
	}
}

var _ Catalog = (*TMDBClient)(nil)
