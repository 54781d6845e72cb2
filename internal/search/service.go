package search

import (
	"context"

	"github.com/rs/zerolog"
)

// Service is the facade that tries Meilisearch first and falls back to PG FTS.
type Service struct {
	primary  Searcher
	indexer  Indexer
	fallback Searcher
	loader   recordLoader
	log      zerolog.Logger
}

type recordLoader interface {
	LoadAllRecords(ctx context.Context) ([]Record, error)
}

// NewService creates a search service. meili may be nil if Meilisearch is not configured.
func NewService(meili *Meili, pgfts *PgFTS, log zerolog.Logger) *Service {
	s := &Service{log: log.With().Str("component", "search").Logger()}
	if pgfts != nil {
		s.fallback = pgfts
		s.loader = pgfts
	}
	if meili != nil {
		s.primary = meili
		s.indexer = meili
	}
	return s
}

// Search tries Meilisearch if healthy, otherwise falls back to PG FTS.
func (s *Service) Search(ctx context.Context, q Query) Response {
	if s.primary != nil && s.primary.Healthy(ctx) {
		results, total, err := s.primary.Search(ctx, q)
		if err == nil {
			return Response{Results: nonNil(results), Total: total, Query: q.Text}
		}
		s.log.Warn().Err(err).Msg("meilisearch error, falling back to pgfts")
	}

	if s.fallback == nil {
		return Response{Results: []Result{}, Query: q.Text}
	}
	results, total, err := s.fallback.Search(ctx, q)
	if err != nil {
		s.log.Error().Err(err).Msg("pgfts error")
		return Response{Results: []Result{}, Total: 0, Query: q.Text}
	}
	return Response{Results: nonNil(results), Total: total, Query: q.Text}
}

// Index writes one record to the search index. Failures are logged, never
// returned: the database stays the source of truth.
func (s *Service) Index(ctx context.Context, record Record) {
	if s.indexer == nil || !s.primary.Healthy(ctx) {
		return
	}
	if err := s.indexer.IndexRecords(ctx, []Record{record}); err != nil {
		s.log.Warn().Err(err).Str("record", record.Key).Msg("index record")
	}
}

// Delete removes one entity from the search index.
func (s *Service) Delete(ctx context.Context, kind ResultType, id int64) {
	if s.indexer == nil || !s.primary.Healthy(ctx) {
		return
	}
	if err := s.indexer.DeleteRecord(ctx, kind, id); err != nil {
		s.log.Warn().Err(err).Str("record", recordKey(kind, id)).Msg("delete record")
	}
}

// ReindexAllFromPG reindexes all searchable entities from PostgreSQL into
// Meilisearch and returns how many records were pushed.
func (s *Service) ReindexAllFromPG(ctx context.Context) (int, error) {
	if s.indexer == nil || s.loader == nil || !s.primary.Healthy(ctx) {
		return 0, nil
	}
	records, err := s.loader.LoadAllRecords(ctx)
	if err != nil {
		return 0, err
	}
	if err := s.indexer.IndexRecords(ctx, records); err != nil {
		return 0, err
	}
	return len(records), nil
}

func nonNil(r []Result) []Result {
	if r == nil {
		return []Result{}
	}
	return r
}
