// Package domain holds DTOs for story listing, detail, and curation contracts
package domain

// Story is one scored listing row
type Story struct {
	ID            int64  `json:"id"`
	Title         string `json:"title"`
	URL           string `json:"url,omitempty"`
	Domain        string `json:"domain,omitempty"`
	By            string `json:"by,omitempty"`
	Time          int64  `json:"time"`
	Score         int    `json:"score"`
	Descendants   int    `json:"descendants"`
	ContentStatus string `json:"content_status"`
	Teaser        string `json:"teaser,omitempty"`
	HitFrontPage  bool   `json:"hit_front_page"`
	FrontPageRank *int   `json:"front_page_rank,omitempty"`

	DomainMerit   int `json:"domain_merit"`
	DomainDemerit int `json:"domain_demerit"`
	WordMerit     int `json:"word_merit"`
	WordDemerit   int `json:"word_demerit"`
	MeritScore    int `json:"merit_score"`
	DemeritScore  int `json:"demerit_score"`
	NetScore      int `json:"net_score"`

	IsReadLater     bool `json:"is_read_later"`
	IsDismissed     bool `json:"is_dismissed"`
	IsRead          bool `json:"is_read"`
	IsDomainBlocked bool `json:"is_domain_blocked"`
}

// StoryDetail is the full stories row for the single story endpoint
// content comes back decompressed regardless of how it is stored
type StoryDetail struct {
	ID              int64   `json:"id"`
	Title           string  `json:"title"`
	URL             string  `json:"url,omitempty"`
	Domain          string  `json:"domain,omitempty"`
	By              string  `json:"by,omitempty"`
	Time            int64   `json:"time"`
	Score           int     `json:"score"`
	Descendants     int     `json:"descendants"`
	Content         string  `json:"content,omitempty"`
	ContentStatus   string  `json:"content_status"`
	ContentAttempts int     `json:"content_attempts"`
	ContentSource   string  `json:"content_source,omitempty"`
	BrowserMs       float64 `json:"browser_ms"`
	Teaser          string  `json:"teaser,omitempty"`
	HitFrontPage    bool    `json:"hit_front_page"`
	FrontPageRank   *int    `json:"front_page_rank,omitempty"`
	CreatedAt       string  `json:"created_at"`
	UpdatedAt       string  `json:"updated_at"`
}

// Content is the content endpoint payload
type Content struct {
	Content string `json:"content"`
	Status  string `json:"status"`
}

// Update is one recently finished story for the polling endpoint
type Update struct {
	ID            int64  `json:"id"`
	Title         string `json:"title"`
	Content       string `json:"content,omitempty"`
	ContentStatus string `json:"content_status"`
	Teaser        string `json:"teaser,omitempty"`
}

// Stats is the corpus overview for the stats endpoint
type Stats struct {
	TotalStories     int `json:"total_stories"`
	PendingContent   int `json:"pending_content"`
	FetchingContent  int `json:"fetching_content"`
	DoneContent      int `json:"done_content"`
	FailedContent    int `json:"failed_content"`
	BlockedContent   int `json:"blocked_content"`
	BlockedDomains   int `json:"blocked_domains"`
	BlockedWords     int `json:"blocked_words"`
	ReadLater        int `json:"read_later"`
	Dismissed        int `json:"dismissed"`
	FrontPageStories int `json:"front_page_stories"`
}

// Ack is the standard mutation acknowledgement
type Ack struct {
	OK bool `json:"ok"`
}
