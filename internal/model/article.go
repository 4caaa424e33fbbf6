package model

import "time"

// Article is a raw item returned by the news search API, before any
// filtering or extraction.
type Article struct {
	Title       string        `json:"title"`
	Description string        `json:"description"`
	URL         string        `json:"url"`
	PublishedAt time.Time     `json:"publishedAt"`
	Source      ArticleSource `json:"source"`
}

// ArticleSource identifies the outlet an article came from.
type ArticleSource struct {
	Name string `json:"name"`
}
