package polysearch

import (
	"github.com/kailas-cloud/polysearch/internal/domain/document"
	"github.com/kailas-cloud/polysearch/internal/domain/search/hit"
	healthuc "github.com/kailas-cloud/polysearch/internal/usecase/health"
	queryuc "github.com/kailas-cloud/polysearch/internal/usecase/query"
)

// Document is an ingested document as stored in the index.
type Document struct {
	ID              string
	Filename        string
	Text            string
	Source          string
	StorageLocation string
}

// Hit is one ranked search result. Score is cosine similarity, higher is closer.
type Hit struct {
	ID              string
	Score           float64
	Text            string
	Source          string
	Filename        string
	StorageLocation string
}

// SearchResult is a query as received, as searched, and its hits best first.
type SearchResult struct {
	Query           string
	TranslatedQuery string
	SourceLanguage  string
	Hits            []Hit
}

// HealthStatus represents the aggregated system health.
type HealthStatus struct {
	Status                string            // "ok" or "degraded"
	Checks                map[string]string // component → "ok"/"error"
	Backend               string
	BackendVersion        string
	ClientVersion         string
	ExpectedVersion       string
	ExpectedClientVersion string
	Compatible            bool
	Model                 string
	Collection            string
}

func fromRecord(rec *document.Record) Document {
	p := rec.Payload()
	return Document{
		ID:              rec.ID(),
		Filename:        p.Filename,
		Text:            p.Text,
		Source:          p.Source,
		StorageLocation: p.StorageLocation,
	}
}

func fromQueryResult(res queryuc.Result) SearchResult {
	hits := make([]Hit, len(res.Hits))
	for i := range res.Hits {
		hits[i] = fromHit(&res.Hits[i])
	}
	return SearchResult{
		Query:           res.Original,
		TranslatedQuery: res.Translated,
		SourceLanguage:  res.SourceLanguage,
		Hits:            hits,
	}
}

func fromHit(h *hit.Hit) Hit {
	p := h.Payload()
	return Hit{
		ID:              h.ID(),
		Score:           h.Score(),
		Text:            str(p, document.FieldText),
		Source:          str(p, document.FieldSource),
		Filename:        str(p, document.FieldFilename),
		StorageLocation: str(p, document.FieldStorageLocation),
	}
}

func fromReport(r healthuc.Report) HealthStatus {
	checks := make(map[string]string, len(r.Checks))
	for k, v := range r.Checks {
		checks[k] = string(v)
	}
	c := r.Compatibility
	return HealthStatus{
		Status:                string(r.Status),
		Checks:                checks,
		Backend:               r.Backend,
		BackendVersion:        c.ServerVersion,
		ClientVersion:         c.ClientVersion,
		ExpectedVersion:       c.ExpectedServerVersion,
		ExpectedClientVersion: c.ExpectedClientVersion,
		Compatible:            c.Compatible,
		Model:                 r.Model,
		Collection:            r.Collection,
	}
}

func str(m map[string]any, key string) string {
	s, _ := m[key].(string)
	return s
}
