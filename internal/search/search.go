// Package search finds a user's own tasks, risks, projects and posts by text.
// Meilisearch is used when configured and reachable; Postgres full-text
// search is the fallback.
package search

import (
	"context"
	"fmt"

	"jerrygfit/api/internal/store"
)

// ResultType identifies the kind of entity in a search result.
type ResultType string

const (
	ResultTask    ResultType = "task"
	ResultRisk    ResultType = "risk"
	ResultProject ResultType = "project"
	ResultPost    ResultType = "post"
)

var ResultTypes = []ResultType{ResultTask, ResultRisk, ResultProject, ResultPost}

// Result is a single search hit returned to the caller.
type Result struct {
	Type    ResultType `json:"type"`
	ID      int64      `json:"id"`
	Title   string     `json:"title"`
	Snippet string     `json:"snippet"`
}

// Query describes a search request. OwnerID is mandatory: results never cross
// account boundaries.
type Query struct {
	Text       string
	OwnerID    int64
	FilterType ResultType // empty = all types
	Limit      int
	Offset     int
}

// Response is the envelope returned by the search endpoint.
type Response struct {
	Results []Result `json:"results"`
	Total   int      `json:"total"`
	Query   string   `json:"query"`
}

// Searcher can execute a full-text search.
type Searcher interface {
	Search(ctx context.Context, q Query) ([]Result, int, error)
	Healthy(ctx context.Context) bool
}

// Indexer can push entities into a search index.
type Indexer interface {
	IndexRecords(ctx context.Context, records []Record) error
	DeleteRecord(ctx context.Context, kind ResultType, id int64) error
}

// Record is the flattened form of any searchable entity.
type Record struct {
	Key      string     `json:"id"`
	Kind     ResultType `json:"kind"`
	EntityID int64      `json:"entityId"`
	OwnerID  int64      `json:"ownerId"`
	Title    string     `json:"title"`
	Body     string     `json:"body"`
}

func recordKey(kind ResultType, id int64) string {
	return fmt.Sprintf("%s-%d", kind, id)
}

func newRecord(kind ResultType, id, owner int64, title string, body ...string) Record {
	text := ""
	for _, part := range body {
		if part == "" {
			continue
		}
		if text != "" {
			text += " "
		}
		text += part
	}
	return Record{Key: recordKey(kind, id), Kind: kind, EntityID: id, OwnerID: owner, Title: title, Body: text}
}

func TaskRecord(t store.Task) Record {
	return newRecord(ResultTask, t.ID, t.OwnerID, t.Title, t.Description)
}

func RiskRecord(r store.Risk) Record {
	return newRecord(ResultRisk, r.ID, r.OwnerID, r.Title, r.Description, r.MitigationPlan)
}

func ProjectRecord(p store.Project) Record {
	return newRecord(ResultProject, p.ID, p.OwnerID, p.Name, p.Description)
}

func PostRecord(p store.Post) Record {
	return newRecord(ResultPost, p.ID, p.UserID, p.Title, p.Content, p.Caption, p.Hashtags)
}
