package models

import "time"

// Article is one wiki page at a specific revision.
type Article struct {
	Title     string    `json:"title"`
	Text      string    `json:"text"`
	RevID     int64     `json:"revid"`
	Timestamp time.Time `json:"timestamp"`
}

// EditRequest replaces the text of an article. BaseTimestamp is the revision
// timestamp the new text was derived from; the wiki refuses the edit when the
// page changed since.
type EditRequest struct {
	Title         string
	Text          string
	Summary       string
	BaseTimestamp time.Time
}

// EditResult is what the wiki reports after a successful edit.
type EditResult struct {
	Title    string    `json:"title"`
	NewRevID int64     `json:"newrevid"`
	NoChange bool      `json:"nochange,omitempty"`
	Time     time.Time `json:"timestamp"`
}
