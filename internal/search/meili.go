package search

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"time"

	meili "github.com/meilisearch/meilisearch-go"
	"github.com/rs/zerolog"
)

const idxContent = "jerrygfit_content"

// healthTTL is how long a health probe result is trusted.
const healthTTL = 10 * time.Second

// Meili implements Searcher and Indexer via Meilisearch. Health is probed
// lazily on use and cached for healthTTL.
type Meili struct {
	client meili.ServiceManager
	log    zerolog.Logger
	now    func() time.Time

	mu         sync.Mutex
	healthy    bool
	checkedAt  time.Time
	configured bool
}

// NewMeili creates a Meilisearch client. No request is made until first use.
func NewMeili(url, apiKey string, log zerolog.Logger) *Meili {
	return &Meili{
		client: meili.New(url, meili.WithAPIKey(apiKey)),
		log:    log.With().Str("component", "search").Logger(),
		now:    time.Now,
	}
}

// Healthy reports whether Meilisearch is reachable, re-probing once the cached
// answer is older than healthTTL. The index is configured on the first
// successful probe.
func (m *Meili) Healthy(_ context.Context) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.checkedAt.IsZero() && m.now().Sub(m.checkedAt) < healthTTL {
		return m.healthy
	}
	_, err := m.client.Health()
	wasHealthy := m.healthy
	m.healthy = err == nil
	m.checkedAt = m.now()
	if err != nil {
		if wasHealthy || !m.configured {
			m.log.Warn().Err(err).Msg("meilisearch unavailable")
		}
		return false
	}
	if !m.configured {
		m.configureIndex()
		m.configured = true
	} else if !wasHealthy {
		m.log.Info().Msg("meilisearch recovered")
	}
	return true
}

func (m *Meili) markUnhealthy() {
	m.mu.Lock()
	m.healthy = false
	m.checkedAt = m.now()
	m.mu.Unlock()
}

func (m *Meili) configureIndex() {
	if _, err := m.client.CreateIndex(&meili.IndexConfig{Uid: idxContent, PrimaryKey: "id"}); err != nil {
		m.log.Debug().Err(err).Str("index", idxContent).Msg("create index (may already exist)")
	}

	index := m.client.Index(idxContent)
	filterable := []interface{}{"ownerId", "kind"}
	if _, err := index.UpdateFilterableAttributes(&filterable); err != nil {
		m.log.Warn().Err(err).Msg("update filterable attributes")
	}
	searchable := []string{"title", "body"}
	if _, err := index.UpdateSearchableAttributes(&searchable); err != nil {
		m.log.Warn().Err(err).Msg("update searchable attributes")
	}
}

// Search queries the content index restricted to the owner.
func (m *Meili) Search(ctx context.Context, q Query) ([]Result, int, error) {
	if !m.Healthy(ctx) {
		return nil, 0, fmt.Errorf("meilisearch unhealthy")
	}

	limit := int64(q.Limit)
	if limit <= 0 {
		limit = 20
	}

	filters := []string{fmt.Sprintf("ownerId = %d", q.OwnerID)}
	if q.FilterType != "" {
		filters = append(filters, fmt.Sprintf("kind = %q", q.FilterType))
	}

	resp, err := m.client.MultiSearch(&meili.MultiSearchRequest{
		Queries: []*meili.SearchRequest{{
			IndexUID:              idxContent,
			Query:                 q.Text,
			Limit:                 limit,
			Offset:                int64(q.Offset),
			Filter:                filters,
			AttributesToHighlight: []string{"title", "body"},
			HighlightPreTag:       "<mark>",
			HighlightPostTag:      "</mark>",
		}},
	})
	if err != nil {
		m.markUnhealthy()
		return nil, 0, fmt.Errorf("meilisearch multi-search: %w", err)
	}

	var results []Result
	total := 0
	for _, sr := range resp.Results {
		total += int(sr.EstimatedTotalHits)
		for _, hit := range sr.Hits {
			results = append(results, hitToResult(hit))
		}
	}
	return results, total, nil
}

func hitToResult(hit meili.Hit) Result {
	r := Result{Type: ResultType(decodeString(hit, "kind"))}
	if raw, ok := hit["entityId"]; ok {
		_ = json.Unmarshal(raw, &r.ID)
	}
	r.Title = firstNonBlank(decodeFormattedString(hit, "title"), decodeString(hit, "title"))
	r.Snippet = firstNonBlank(decodeFormattedString(hit, "body"), decodeString(hit, "body"))
	return r
}

func decodeString(hit meili.Hit, key string) string {
	raw, ok := hit[key]
	if !ok {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	return ""
}

func decodeFormattedString(hit meili.Hit, key string) string {
	raw, ok := hit["_formatted"]
	if !ok {
		return ""
	}
	var formatted map[string]json.RawMessage
	if err := json.Unmarshal(raw, &formatted); err != nil {
		return ""
	}
	var s string
	if err := json.Unmarshal(formatted[key], &s); err != nil {
		return ""
	}
	return strings.TrimSpace(s)
}

func firstNonBlank(values ...string) string {
	for _, value := range values {
		if strings.TrimSpace(value) != "" {
			return value
		}
	}
	return ""
}

// IndexRecords adds or replaces records in the content index.
func (m *Meili) IndexRecords(_ context.Context, records []Record) error {
	if len(records) == 0 {
		return nil
	}
	_, err := m.client.Index(idxContent).AddDocuments(records, nil)
	return err
}

// DeleteRecord removes one entity from the content index.
func (m *Meili) DeleteRecord(_ context.Context, kind ResultType, id int64) error {
	_, err := m.client.Index(idxContent).DeleteDocument(recordKey(kind, id), nil)
	return err
}
