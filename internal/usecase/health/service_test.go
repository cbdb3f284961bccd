package health

import (
	"context"
	"errors"
	"testing"

	"github.com/kailas-cloud/polysearch/internal/usecase/index"
)

// --- Mocks ---

type mockPinger struct {
	err error
}

func (m *mockPinger) Ping(_ context.Context) error { return m.err }

type mockChecker struct {
	err error
}

func (m *mockChecker) HealthCheck(_ context.Context) error { return m.err }

type mockIndex struct {
	compat index.Compatibility
}

func (m *mockIndex) Compatibility(_ context.Context) index.Compatibility { return m.compat }

func (m *mockIndex) Collection() string { return "my_multilingual_docs" }

func (m *mockIndex) Backend() string { return "qdrant" }

func compatible() *mockIndex {
	return &mockIndex{compat: index.Compatibility{
		ServerVersion:         "1.15.1",
		ClientVersion:         "1.15.1",
		ExpectedServerVersion: "1.15.1",
		ExpectedClientVersion: "1.15.1",
		Compatible:            true,
	}}
}

// --- Tests ---

func TestCheck_AllHealthy(t *testing.T) {
	svc := New(&mockPinger{}, compatible(), &mockChecker{}, &mockChecker{}, "mpnet")
	r := svc.Check(context.Background())

	if r.Status != Healthy {
		t.Errorf("expected %q, got %q", Healthy, r.Status)
	}
	for _, name := range []string{CheckIndexBackend, CheckEmbedding, CheckTranslation} {
		if r.Checks[name] != CheckOK {
			t.Errorf("expected %s %q, got %q", name, CheckOK, r.Checks[name])
		}
	}
	if r.Model != "mpnet" {
		t.Errorf("expected model mpnet, got %q", r.Model)
	}
	if r.Collection != "my_multilingual_docs" {
		t.Errorf("unexpected collection %q", r.Collection)
	}
	if r.Backend != "qdrant" {
		t.Errorf("unexpected backend %q", r.Backend)
	}
	if r.Compatibility.ServerVersion != "1.15.1" {
		t.Errorf("unexpected server version %q", r.Compatibility.ServerVersion)
	}
}

func TestCheck_BackendError(t *testing.T) {
	svc := New(&mockPinger{err: errors.New("conn refused")}, compatible(), &mockChecker{}, nil, "m")
	r := svc.Check(context.Background())

	if r.Status != Degraded {
		t.Errorf("expected %q, got %q", Degraded, r.Status)
	}
	if r.Checks[CheckIndexBackend] != CheckError {
		t.Errorf("expected backend %q, got %q", CheckError, r.Checks[CheckIndexBackend])
	}
	if r.Checks[CheckEmbedding] != CheckOK {
		t.Errorf("expected embedding %q, got %q", CheckOK, r.Checks[CheckEmbedding])
	}
}

func TestCheck_EmbeddingError(t *testing.T) {
	svc := New(&mockPinger{}, compatible(), &mockChecker{err: errors.New("timeout")}, nil, "m")
	r := svc.Check(context.Background())

	if r.Status != Degraded {
		t.Errorf("expected %q, got %q", Degraded, r.Status)
	}
	if r.Checks[CheckEmbedding] != CheckError {
		t.Errorf("expected embedding %q, got %q", CheckError, r.Checks[CheckEmbedding])
	}
}

func TestCheck_TranslationError(t *testing.T) {
	svc := New(&mockPinger{}, compatible(), nil, &mockChecker{err: errors.New("401")}, "m")
	r := svc.Check(context.Background())

	if r.Status != Degraded {
		t.Errorf("expected %q, got %q", Degraded, r.Status)
	}
	if r.Checks[CheckTranslation] != CheckError {
		t.Error("expected translation error")
	}
}

func TestCheck_VersionMismatchDegrades(t *testing.T) {
	idx := &mockIndex{compat: index.Compatibility{
		ServerVersion:         "1.14.0",
		ClientVersion:         "1.15.1",
		ExpectedServerVersion: "1.15.1",
		ExpectedClientVersion: "1.15.1",
	}}
	svc := New(&mockPinger{}, idx, nil, nil, "m")
	r := svc.Check(context.Background())

	if r.Status != Degraded {
		t.Errorf("expected %q, got %q", Degraded, r.Status)
	}
	if r.Checks[CheckIndexBackend] != CheckOK {
		t.Error("backend is reachable, its check should pass")
	}
	if r.Compatibility.Compatible {
		t.Error("expected incompatible report")
	}
}

func TestCheck_OptionalCheckersAbsent(t *testing.T) {
	svc := New(&mockPinger{}, compatible(), nil, nil, "m")
	r := svc.Check(context.Background())

	if r.Status != Healthy {
		t.Errorf("expected %q, got %q", Healthy, r.Status)
	}
	if _, ok := r.Checks[CheckEmbedding]; ok {
		t.Error("embedding check should be absent when embedding is nil")
	}
	if _, ok := r.Checks[CheckTranslation]; ok {
		t.Error("translation check should be absent when translation is nil")
	}
}
