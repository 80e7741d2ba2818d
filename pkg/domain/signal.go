package domain

// Signal represents a single classified buying-intent record as returned by the remote store.
// All fields except CreatedUTC are optional, absent and null values decode to zero values.
type Signal struct {
	Title      string   `json:"title"`
	Permalink  string   `json:"permalink"`
	IntentType string   `json:"intent_type"`
	Summary    string   `json:"summary"`
	Tags       []string `json:"tags"`
	Source     string   `json:"source"`
	CreatedUTC string   `json:"created_utc"`
	Category   string   `json:"category"`
}

// SignalFields lists the columns requested from the remote store, in select order
var SignalFields = []string{"title", "permalink", "intent_type", "summary", "tags", "source", "created_utc", "category"}
