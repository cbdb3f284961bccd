package health

import (
	"context"

	"github.com/kailas-cloud/polysearch/internal/usecase/index"
)

// Status represents the aggregated health status.
type Status string

const (
	// Healthy indicates all components are operational.
	Healthy Status = "ok"
	// Degraded indicates partial failure.
	Degraded Status = "degraded"
)

// CheckResult represents an individual component health check outcome.
type CheckResult string

const (
	// CheckOK indicates a passing health check.
	CheckOK CheckResult = "ok"
	// CheckError indicates a failing health check.
	CheckError CheckResult = "error"
)

// Check names.
const (
	CheckIndexBackend = "index_backend"
	CheckEmbedding    = "embedding"
	CheckTranslation  = "translation"
)

// Report aggregates health check results.
type Report struct {
	Status        Status
	Checks        map[string]CheckResult
	Compatibility index.Compatibility
	Backend       string
	Model         string
	Collection    string
}

// Service coordinates health checks.
type Service struct {
	backend     BackendPinger
	index       CompatibilityReporter
	embedding   Checker
	translation Checker
	model       string
}

// New creates a Service. embedding and translation can be nil.
func New(backend BackendPinger, idx CompatibilityReporter, embedding, translation Checker, model string) *Service {
	return &Service{
		backend:     backend,
		index:       idx,
		embedding:   embedding,
		translation: translation,
		model:       model,
	}
}

// Check runs health checks against all components. Version incompatibility degrades the report.
func (s *Service) Check(ctx context.Context) Report {
	checks := make(map[string]CheckResult)

	checks[CheckIndexBackend] = result(s.backend.Ping(ctx))

	if s.embedding != nil {
		checks[CheckEmbedding] = result(s.embedding.HealthCheck(ctx))
	}
	if s.translation != nil {
		checks[CheckTranslation] = result(s.translation.HealthCheck(ctx))
	}

	compat := s.index.Compatibility(ctx)

	status := Healthy
	if !compat.Compatible {
		status = Degraded
	}
	for _, v := range checks {
		if v == CheckError {
			status = Degraded
			break
		}
	}

	return Report{
		Status:        status,
		Checks:        checks,
		Compatibility: compat,
		Backend:       s.index.Backend(),
		Model:         s.model,
		Collection:    s.index.Collection(),
	}
}

func result(err error) CheckResult {
	if err != nil {
		return CheckError
	}
	return CheckOK
}
