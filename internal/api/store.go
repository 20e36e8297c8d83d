package api

import (
	"time"

	"github.com/google/uuid"

	"github.com/banshee-data/spm.report/internal/analysis"
	"github.com/banshee-data/spm.report/internal/cache"
	"github.com/banshee-data/spm.report/internal/report"
)

// storedReport keeps what the download endpoints need to render a report
// again in another format.
type storedReport struct {
	report *report.Report
	result *analysis.Result
}

// reportStore holds finished reports for download under random ids. Old
// entries expire or are evicted once the store is full.
type reportStore struct {
	entries *cache.Cache[*storedReport]
}

func newReportStore(size int, ttl time.Duration) *reportStore {
	return &reportStore{entries: cache.New[*storedReport](size, ttl)}
}

func (s *reportStore) put(rep *report.Report, res *analysis.Result) (string, error) {
	id := uuid.NewString()
	if err := s.entries.Set(id, &storedReport{report: rep, result: res}); err != nil {
		return "", err
	}
	return id, nil
}

func (s *reportStore) get(id string) (*storedReport, bool) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, false
	}
	return s.entries.Get(id)
}

func (s *reportStore) len() int {
	return s.entries.Len()
}
