// Package feedtypes provides the wire types shared by the API client, renderer and pager.
package feedtypes

import "strconv"

// Post is a single syndicated post as returned by the feed API.
type Post struct {
	ID         int64  `json:"id"`
	Title      string `json:"title"`
	Content    string `json:"content"`
	URL        string `json:"url"`
	BaseURL    string `json:"base_url"`
	ImageURL   string `json:"image_url,omitempty"`
	FaviconURL string `json:"favicon_url,omitempty"`
	PostDate   string `json:"post_date"`
}

// Key returns the identity key used to deduplicate rendered posts.
// The post URL is authoritative; the numeric ID is used only when the URL is missing.
func (p Post) Key() string {
	if p.URL != "" {
		return p.URL
	}
	return "id:" + strconv.FormatInt(p.ID, 10)
}

// PageResponse is the body of GET /rssfeeds/api?page=N.
type PageResponse struct {
	Posts   []Post `json:"posts"`
	HasMore bool   `json:"has_more"`
}

// Empty reports whether the page carried no posts, which ends the feed.
func (r *PageResponse) Empty() bool {
	return r == nil || len(r.Posts) == 0
}

// ReadLogRequest is the body of POST /rssfeeds/log.
type ReadLogRequest struct {
	URL string `json:"rss_feed_content_url"`
}
