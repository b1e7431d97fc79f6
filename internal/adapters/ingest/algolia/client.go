// Package algolia provides the HN search API client used for primary story
// ingestion. The API caps any one query at roughly 1000 results, so reads
// walk descending time windows until the caller's checkpoint is reached
package algolia

import (
	"context"
	json "encoding/json/v2"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"golang.org/x/time/rate"

	perr "newsdesk/internal/platform/errors"
	"newsdesk/internal/platform/logger"
)

const (
	baseURLDefault  = "https://hn.algolia.com/api/v1"
	defaultTimeout  = 15 * time.Second
	defaultUA       = "newsdesk-ingest"
	pageSize        = 100
	maxPagesPerWin  = 10
	windowCap       = 1000
	defaultPageRate = 100 * time.Millisecond
)

// Options configures the Client
type Options struct {
	BaseURL   string
	UserAgent string
	Timeout   time.Duration

	// PageEvery paces successive page requests to stay polite
	PageEvery time.Duration
}

// Client is a windowed search_by_date reader
type Client struct {
	http  *http.Client
	opts  Options
	log   logger.Logger
	pacer *rate.Limiter
}

// NewClient creates a new Client with sane defaults
func NewClient(o Options) *Client {
	if o.BaseURL == "" {
		o.BaseURL = baseURLDefault
	}
	if o.UserAgent == "" {
		o.UserAgent = defaultUA
	}
	if o.Timeout <= 0 {
		o.Timeout = defaultTimeout
	}
	if o.PageEvery <= 0 {
		o.PageEvery = defaultPageRate
	}
	return &Client{
		http:  &http.Client{Timeout: o.Timeout},
		opts:  o,
		log:   *logger.Named("algolia"),
		pacer: rate.NewLimiter(rate.Every(o.PageEvery), 1),
	}
}

// FetchSince returns all stories newer than since, oldest windows last.
// An error is returned only when the very first request fails; later
// failures degrade to a partial result so ingestion still makes progress
func (c *Client) FetchSince(ctx context.Context, since int64) ([]Story, error) {
	var all []Story
	var upper int64 // zero means no upper bound, newest first

	for {
		batch, err := c.fetchWindow(ctx, since, upper)
		if err != nil {
			if len(all) == 0 {
				return nil, err
			}
			c.log.Warn().Err(err).Int("fetched", len(all)).Msg("algolia window failed, keeping partial result")
			break
		}
		if len(batch) == 0 {
			break
		}
		all = append(all, batch...)

		oldest := batch[0].Time
		for _, s := range batch {
			if s.Time < oldest {
				oldest = s.Time
			}
		}
		c.log.Info().Int("batch", len(batch)).Int("total", len(all)).Int64("oldest", oldest).Msg("algolia batch")

		if oldest <= since {
			break
		}
		// a short window means the API had nothing further back
		if len(batch) < windowCap {
			break
		}
		upper = oldest
	}
	return all, nil
}

// fetchWindow reads up to windowCap stories in (since, upper) newest first
func (c *Client) fetchWindow(ctx context.Context, since, upper int64) ([]Story, error) {
	var out []Story
	for page := 0; len(out) < windowCap && page < maxPagesPerWin; page++ {
		if err := c.pacer.Wait(ctx); err != nil {
			return out, err
		}

		hits, nbPages, err := c.searchPage(ctx, since, upper, page)
		if err != nil {
			if page == 0 {
				return nil, err
			}
			c.log.Warn().Err(err).Int("page", page).Msg("algolia page failed mid window")
			break
		}
		if len(hits) == 0 {
			break
		}
		for _, h := range hits {
			s, ok := parseHit(h)
			if ok && s.Time > since {
				out = append(out, s)
			}
		}
		if page+1 >= nbPages {
			break
		}
	}
	return out, nil
}

func (c *Client) searchPage(ctx context.Context, since, upper int64, page int) ([]Hit, int, error) {
	filters := "created_at_i>" + strconv.FormatInt(since, 10)
	if upper > 0 {
		filters += ",created_at_i<" + strconv.FormatInt(upper, 10)
	}
	url := fmt.Sprintf("%s/search_by_date?tags=story&numericFilters=%s&hitsPerPage=%d&page=%d",
		c.opts.BaseURL, filters, pageSize, page)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, 0, perr.Wrapf(err, perr.ErrorCodeUnknown, "algolia new request failed")
	}
	req.Header.Set("User-Agent", c.opts.UserAgent)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, 0, perr.Wrapf(err, perr.ErrorCodeUnavailable, "algolia do failed")
	}
	defer func() {
		if cerr := resp.Body.Close(); cerr != nil {
			c.log.Error().Err(cerr).Msg("algolia close body failed")
		}
	}()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return nil, 0, perr.Newf(perr.ErrorCodeUnavailable, "algolia unexpected status %d body %s", resp.StatusCode, string(body))
	}

	var sr searchResponse
	b, err := io.ReadAll(io.LimitReader(resp.Body, 4<<20))
	if err != nil {
		return nil, 0, perr.Wrapf(err, perr.ErrorCodeUnavailable, "algolia read body failed")
	}
	if err := json.Unmarshal(b, &sr); err != nil {
		return nil, 0, perr.Wrapf(err, perr.ErrorCodeUnknown, "algolia decode failed")
	}
	return sr.Hits, sr.NbPages, nil
}

// parseHit converts a hit to a Story, rejecting non-story tagged documents
func parseHit(h Hit) (Story, bool) {
	if len(h.Tags) > 0 {
		found := false
		for _, t := range h.Tags {
			if t == "story" {
				found = true
				break
			}
		}
		if !found {
			return Story{}, false
		}
	}
	id, err := strconv.ParseInt(h.ObjectID, 10, 64)
	if err != nil {
		return Story{}, false
	}
	title := h.Title
	if title == "" {
		title = "[no title]"
	}
	by := h.Author
	if by == "" {
		by = "[deleted]"
	}
	return Story{
		ID:          id,
		Title:       title,
		URL:         h.URL,
		Text:        h.StoryText,
		By:          by,
		Time:        h.CreatedAtI,
		Score:       h.Points,
		Descendants: h.NumComments,
	}, true
}
