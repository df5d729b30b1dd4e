// Package worldstatus scrapes the public server-status page and tracks one
// world's published status between polls.
package worldstatus

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
)

const (
	statusPageURL = "https://www.newworld.com/en-us/support/server-status"
	attrPrefix    = "ags-ServerStatus-content-responses-response"
)

// regionIndex maps region names to the data-index of their block on the
// status page.
var regionIndex = map[string]int{
	"us-west":      0,
	"us-east":      1,
	"sa-east":      2,
	"eu-central":   3,
	"ap-southwest": 4,
}

// KnownRegion reports whether a region name appears on the status page.
func KnownRegion(region string) bool {
	_, ok := regionIndex[region]
	return ok
}

// Client tracks one world's status. It owns the previous-status memory; the
// scheduler only reacts to HasChanged's verdict.
type Client struct {
	http     *http.Client
	pageURL  string
	regionID int
	world    string

	statuses map[string]string // every world in the region, last poll
	current  string
}

// New builds a client for one (region, world) pair and performs the first
// fetch so the change baseline is established.
func New(ctx context.Context, region, world string) (*Client, error) {
	idx, ok := regionIndex[region]
	if !ok {
		return nil, fmt.Errorf("worldstatus: unknown region %q", region)
	}
	c := &Client{
		http:     &http.Client{Timeout: 10 * time.Second},
		pageURL:  statusPageURL,
		regionID: idx,
		world:    world,
	}
	if err := c.refresh(ctx); err != nil {
		return nil, err
	}
	status, ok := c.statuses[world]
	if !ok {
		return nil, fmt.Errorf("worldstatus: world %q not listed in region %q", world, region)
	}
	c.current = status
	return c, nil
}

// World returns the world name this client watches.
func (c *Client) World() string {
	return c.world
}

// CurrentStatus returns the status as of the last poll.
func (c *Client) CurrentStatus() string {
	return c.current
}

// HasChanged re-fetches the status page and reports whether the watched
// world's status moved since the previous poll, updating the snapshot.
func (c *Client) HasChanged(ctx context.Context) (bool, error) {
	if err := c.refresh(ctx); err != nil {
		return false, err
	}
	next, ok := c.statuses[c.world]
	if !ok {
		return false, fmt.Errorf("worldstatus: world %q disappeared from the status page", c.world)
	}
	changed := next != c.current
	c.current = next
	return changed, nil
}

// refresh fetches the page and replaces the region's status snapshot.
func (c *Client) refresh(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.pageURL, nil)
	if err != nil {
		return fmt.Errorf("worldstatus: build request: %w", err)
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("worldstatus: fetch status page: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("worldstatus: status page returned %d", resp.StatusCode)
	}

	statuses, err := parseStatuses(resp.Body, c.regionID)
	if err != nil {
		return err
	}
	c.statuses = statuses
	return nil
}

// parseStatuses extracts world name -> status for one region block.
func parseStatuses(r io.Reader, regionID int) (map[string]string, error) {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return nil, fmt.Errorf("worldstatus: parse status page: %w", err)
	}

	region := doc.Find(fmt.Sprintf(`div[data-index="%d"]`, regionID))
	if region.Length() == 0 {
		return nil, fmt.Errorf("worldstatus: region block %d not found", regionID)
	}

	statuses := make(map[string]string)
	region.Find("div." + attrPrefix + "-server").Each(func(_ int, s *goquery.Selection) {
		name := strings.TrimSpace(s.Find("div." + attrPrefix + "-server-name").Text())
		status, _ := s.Find("div." + attrPrefix + "-server-status").Attr("title")
		if name != "" {
			statuses[name] = status
		}
	})
	return statuses, nil
}
