package search

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
)

// PgFTS implements Searcher using PostgreSQL full-text search as a fallback.
type PgFTS struct {
	db *sql.DB
}

// NewPgFTS creates a PostgreSQL FTS searcher.
func NewPgFTS(db *sql.DB) *PgFTS {
	return &PgFTS{db: db}
}

// Healthy always returns true; if Postgres is down, the whole app is down.
func (p *PgFTS) Healthy(context.Context) bool {
	return true
}

// ftsSource describes one searchable table. The document expression matches
// the GIN index built for that table.
type ftsSource struct {
	kind     ResultType
	table    string
	owner    string
	title    string
	document string
}

var ftsSources = []ftsSource{
	{ResultTask, "tasks", "owner_id", "title",
		"title || ' ' || COALESCE(description, '')"},
	{ResultRisk, "risks", "owner_id", "title",
		"title || ' ' || COALESCE(description, '') || ' ' || COALESCE(mitigation_plan, '')"},
	{ResultProject, "projects", "owner_id", "name",
		"name || ' ' || COALESCE(description, '')"},
	{ResultPost, "posts", "user_id", "title",
		"title || ' ' || content || ' ' || COALESCE(caption, '') || ' ' || COALESCE(hashtags, '')"},
}

// Search executes a UNION ALL query across the owner's tables using
// plainto_tsquery and ts_rank, with ts_headline for snippets.
func (p *PgFTS) Search(ctx context.Context, q Query) ([]Result, int, error) {
	if strings.TrimSpace(q.Text) == "" {
		return nil, 0, nil
	}

	limit := q.Limit
	if limit <= 0 {
		limit = 20
	}
	offset := max(q.Offset, 0)

	const tsQuery = "plainto_tsquery('english', $1)"
	var subQueries []string
	for _, src := range ftsSources {
		if q.FilterType != "" && q.FilterType != src.kind {
			continue
		}
		vector := fmt.Sprintf("to_tsvector('english', %s)", src.document)
		subQueries = append(subQueries, fmt.Sprintf(`
			SELECT '%s'::text AS type, id, %s AS title,
				ts_headline('english', %s, %s, 'MaxFragments=1,MaxWords=30') AS snippet,
				ts_rank(%s, %s) AS rank
			FROM %s
			WHERE %s = $2 AND %s @@ %s`,
			src.kind, src.title, src.document, tsQuery, vector, tsQuery, src.table, src.owner, vector, tsQuery))
	}
	if len(subQueries) == 0 {
		return nil, 0, nil
	}
	union := strings.Join(subQueries, " UNION ALL ")
	args := []any{q.Text, q.OwnerID}

	var total int
	if err := p.db.QueryRowContext(ctx, fmt.Sprintf("SELECT count(*) FROM (%s) sub", union), args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("pgfts count: %w", err)
	}

	rows, err := p.db.QueryContext(ctx, fmt.Sprintf(`SELECT type, id, title, snippet
		FROM (%s) sub
		ORDER BY rank DESC, type, id
		LIMIT %d OFFSET %d`, union, limit, offset), args...)
	if err != nil {
		return nil, 0, fmt.Errorf("pgfts query: %w", err)
	}
	defer rows.Close()

	var results []Result
	for rows.Next() {
		var r Result
		var typ string
		if err := rows.Scan(&typ, &r.ID, &r.Title, &r.Snippet); err != nil {
			return nil, 0, fmt.Errorf("pgfts scan: %w", err)
		}
		r.Type = ResultType(typ)
		results = append(results, r)
	}
	return results, total, rows.Err()
}

// LoadAllRecords returns every searchable row for a full reindex.
func (p *PgFTS) LoadAllRecords(ctx context.Context) ([]Record, error) {
	var records []Record
	for _, src := range ftsSources {
		rows, err := p.db.QueryContext(ctx, fmt.Sprintf(`SELECT id, %s, %s, %s FROM %s ORDER BY id`,
			src.owner, src.title, src.document, src.table))
		if err != nil {
			return nil, fmt.Errorf("load %s: %w", src.table, err)
		}
		for rows.Next() {
			var id, owner int64
			var title, body string
			if err := rows.Scan(&id, &owner, &title, &body); err != nil {
				rows.Close()
				return nil, fmt.Errorf("scan %s: %w", src.table, err)
			}
			// The document expression starts with the title; index only the rest as body.
			body = strings.TrimSpace(strings.TrimPrefix(body, title))
			records = append(records, newRecord(src.kind, id, owner, title, body))
		}
		err = rows.Err()
		rows.Close()
		if err != nil {
			return nil, fmt.Errorf("iterate %s: %w", src.table, err)
		}
	}
	return records, nil
}
