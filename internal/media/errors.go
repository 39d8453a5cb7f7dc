package media

import "errors"

var (
	// ErrCatalogUnavailable indicates the metadata catalog is not configured.
	ErrCatalogUnavailable = errors.New("media catalog unavailable")
	// ErrTitleNotFound indicates the catalog has no title for the id.
	ErrTitleNotFound = errors.New("title not found")
	// ErrUnknownMediaType indicates a media type outside movie/tv.
	ErrUnknownMediaType = errors.New("unknown media type")
)
