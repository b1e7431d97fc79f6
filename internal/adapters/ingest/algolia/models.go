package algolia

// Hit is a partial search_by_date document with the fields we use
type Hit struct {
	ObjectID    string   `json:"objectID"`
	Title       string   `json:"title"`
	URL         string   `json:"url"`
	StoryText   string   `json:"story_text"`
	Author      string   `json:"author"`
	CreatedAtI  int64    `json:"created_at_i"`
	Points      int      `json:"points"`
	NumComments int      `json:"num_comments"`
	Tags        []string `json:"_tags"`
}

// searchResponse is the envelope around a page of hits
type searchResponse struct {
	Hits    []Hit `json:"hits"`
	NbPages int   `json:"nbPages"`
}

// Story is a parsed hit in the shape the ingest pipeline consumes
type Story struct {
	ID          int64
	Title       string
	URL         string
	Text        string
	By          string
	Time        int64
	Score       int
	Descendants int
}
