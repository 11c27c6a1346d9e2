package domain

// Category is an entry of the topic taxonomy. InternalID is the search-interest
// taxonomy id; ExternalID is the video platform's category id.
type Category struct {
	Name       string `json:"name"`
	InternalID int    `json:"trends_id"`
	ExternalID string `json:"youtube_id"`
}

// Results is everything stored for one run, as returned to API callers.
type Results struct {
	Run           Run
	Keywords      []Keyword
	Interest      []InterestPoint
	RisingQueries []RelatedQuery
	Videos        []VideoSignal
	News          []NewsSignal
}
