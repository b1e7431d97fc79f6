// Package firebase provides the official HN Firebase API client. Ingestion
// uses it as a fallback when the search API is down, and the front page
// tracker uses it for the top stories list
package firebase

import (
	"context"
	json "encoding/json/v2"
	"fmt"
	"io"
	"net/http"
	"time"

	perr "newsdesk/internal/platform/errors"
	"newsdesk/internal/platform/logger"
)

const (
	baseURLDefault = "https://hacker-news.firebaseio.com/v0"
	defaultTimeout = 15 * time.Second
	defaultUA      = "newsdesk-ingest"

	// the newstories feed is capped by the provider at about 500 ids
	newStoriesCap = 500

	defaultItemEvery = 50 * time.Millisecond
)

// Options configures the Client
type Options struct {
	BaseURL   string
	UserAgent string
	Timeout   time.Duration

	// ItemEvery paces per item fetches during a fallback walk
	ItemEvery time.Duration
}

// Item is a partial HN item document with the fields we use
type Item struct {
	ID          int64  `json:"id"`
	Type        string `json:"type"`
	Title       string `json:"title"`
	URL         string `json:"url"`
	Text        string `json:"text"`
	By          string `json:"by"`
	Time        int64  `json:"time"`
	Score       int    `json:"score"`
	Descendants int    `json:"descendants"`
}

// Client is a minimal Firebase HN reader
type Client struct {
	http  *http.Client
	opts  Options
	log   logger.Logger
	sleep func(time.Duration)
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
	if o.ItemEvery <= 0 {
		o.ItemEvery = defaultItemEvery
	}
	return &Client{
		http:  &http.Client{Timeout: o.Timeout},
		opts:  o,
		log:   *logger.Named("firebase"),
		sleep: time.Sleep,
	}
}

// NewStories returns the new stories id list, newest first
func (c *Client) NewStories(ctx context.Context) ([]int64, error) {
	return c.idList(ctx, "/newstories.json")
}

// TopStories returns the top stories id list, rank order
func (c *Client) TopStories(ctx context.Context) ([]int64, error) {
	return c.idList(ctx, "/topstories.json")
}

func (c *Client) idList(ctx context.Context, path string) ([]int64, error) {
	var ids []int64
	if err := c.getJSON(ctx, path, &ids); err != nil {
		return nil, err
	}
	return ids, nil
}

// Item fetches a single item. Deleted items and non-stories come back nil
func (c *Client) Item(ctx context.Context, id int64) (*Item, error) {
	var it *Item
	if err := c.getJSON(ctx, fmt.Sprintf("/item/%d.json", id), &it); err != nil {
		return nil, err
	}
	if it == nil || it.Type != "story" {
		return nil, nil
	}
	if it.Title == "" {
		it.Title = "[no title]"
	}
	if it.By == "" {
		it.By = "[deleted]"
	}
	return it, nil
}

// FetchSince walks the newstories feed, newest first, stopping once an item
// is at or before since. Best effort: individual item failures are skipped
func (c *Client) FetchSince(ctx context.Context, since int64) ([]Item, error) {
	ids, err := c.NewStories(ctx)
	if err != nil {
		return nil, err
	}
	if len(ids) > newStoriesCap {
		ids = ids[:newStoriesCap]
	}
	c.log.Info().Int("ids", len(ids)).Msg("firebase fallback walking new stories")

	var out []Item
	for _, id := range ids {
		select {
		case <-ctx.Done():
			return out, ctx.Err()
		default:
		}

		it, err := c.Item(ctx, id)
		if err != nil {
			c.log.Warn().Err(err).Int64("id", id).Msg("firebase item fetch failed, skipping")
			continue
		}
		if it == nil {
			continue
		}
		if it.Time <= since {
			break
		}
		out = append(out, *it)
		c.sleep(c.opts.ItemEvery)
	}
	c.log.Info().Int("stories", len(out)).Msg("firebase fallback done")
	return out, nil
}

func (c *Client) getJSON(ctx context.Context, path string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.opts.BaseURL+path, nil)
	if err != nil {
		return perr.Wrapf(err, perr.ErrorCodeUnknown, "firebase new request failed")
	}
	req.Header.Set("User-Agent", c.opts.UserAgent)

	resp, err := c.http.Do(req)
	if err != nil {
		return perr.Wrapf(err, perr.ErrorCodeUnavailable, "firebase do failed")
	}
	defer func() {
		if cerr := resp.Body.Close(); cerr != nil {
			c.log.Error().Err(cerr).Str("path", path).Msg("firebase close body failed")
		}
	}()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return perr.Newf(perr.ErrorCodeUnavailable, "firebase unexpected status %d body %s", resp.StatusCode, string(body))
	}

	b, err := io.ReadAll(io.LimitReader(resp.Body, 4<<20))
	if err != nil {
		return perr.Wrapf(err, perr.ErrorCodeUnavailable, "firebase read body failed")
	}
	if err := json.Unmarshal(b, out); err != nil {
		return perr.Wrapf(err, perr.ErrorCodeUnknown, "firebase decode failed")
	}
	return nil
}
