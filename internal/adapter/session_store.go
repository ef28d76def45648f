package adapter

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"sync"
	"time"

	m "spectra.dev/pkg/spectra/internal/model"
)

// SessionStore persists populations, executions and analyses addressed by a
// session identifier.
type SessionStore interface {
	SavePopulation(ctx context.Context, pop *m.Population) error
	GetPopulation(ctx context.Context, sessionID string) (*m.Population, bool, error)
	SaveAnalysis(ctx context.Context, analysis m.FaultLocalizationAnalysis) error
	GetAnalysis(ctx context.Context, id string) (m.FaultLocalizationAnalysis, bool, error)
	LatestAnalysis(ctx context.Context, sessionID string) (m.FaultLocalizationAnalysis, bool, error)
	SaveExecutions(ctx context.Context, sessionID string, results []m.TestExecutionResult) error
	GetExecutions(ctx context.Context, sessionID string) ([]m.TestExecutionResult, error)
	ListSessions(ctx context.Context) ([]m.SessionInfo, error)
	// DeleteSession drops everything stored under the session and reports
	// whether it existed.
	DeleteSession(ctx context.Context, sessionID string) (bool, error)
	Close() error
}

// Store kinds accepted by NewSessionStore.
const (
	StoreMemory = "memory"
	StoreSQLite = "sqlite"
)

// NewSessionStore opens the backend named by kind. path is only used by
// the sqlite backend.
func NewSessionStore(ctx context.Context, kind, path string) (SessionStore, error) {
	switch kind {
	case "", StoreMemory:
		return NewMemorySessionStore(), nil
	case StoreSQLite:
		return OpenSQLiteSessionStore(ctx, path)
	default:
		return nil, fmt.Errorf("unsupported store backend: %s", kind)
	}
}

func encodePayload(v any) ([]byte, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("encode payload: %w", err)
	}

	return data, nil
}

func decodePayload[T any](data []byte) (T, error) {
	var v T
	if err := json.Unmarshal(data, &v); err != nil {
		return v, fmt.Errorf("decode payload: %w", err)
	}

	return v, nil
}

type storedAnalysis struct {
	id        string
	createdAt time.Time
	payload   []byte
}

// MemorySessionStore keeps encoded payloads in memory, so stored values
// never alias the caller's.
type MemorySessionStore struct {
	mu          sync.RWMutex
	populations map[string][]byte
	analyses    map[string][]storedAnalysis
	executions  map[string][][]byte
	updated     map[string]time.Time
}

// NewMemorySessionStore returns an empty in-memory store.
func NewMemorySessionStore() *MemorySessionStore {
	return &MemorySessionStore{
		populations: make(map[string][]byte),
		analyses:    make(map[string][]storedAnalysis),
		executions:  make(map[string][][]byte),
		updated:     make(map[string]time.Time),
	}
}

// SavePopulation replaces the stored snapshot of the session.
func (s *MemorySessionStore) SavePopulation(_ context.Context, pop *m.Population) error {
	payload, err := encodePayload(pop)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.populations[pop.SessionID] = payload
	s.updated[pop.SessionID] = time.Now()

	return nil
}

// GetPopulation returns the latest snapshot of the session.
func (s *MemorySessionStore) GetPopulation(_ context.Context, sessionID string) (*m.Population, bool, error) {
	s.mu.RLock()
	payload, ok := s.populations[sessionID]
	s.mu.RUnlock()

	if !ok {
		return nil, false, nil
	}

	pop, err := decodePayload[m.Population](payload)
	if err != nil {
		return nil, false, err
	}

	return &pop, true, nil
}

// SaveAnalysis stores an analysis under its session.
func (s *MemorySessionStore) SaveAnalysis(_ context.Context, analysis m.FaultLocalizationAnalysis) error {
	payload, err := encodePayload(analysis)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.analyses[analysis.SessionID] = append(s.analyses[analysis.SessionID], storedAnalysis{
		id:        analysis.ID,
		createdAt: analysis.CreatedAt,
		payload:   payload,
	})
	s.updated[analysis.SessionID] = time.Now()

	return nil
}

// GetAnalysis finds an analysis by id.
func (s *MemorySessionStore) GetAnalysis(_ context.Context, id string) (m.FaultLocalizationAnalysis, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, list := range s.analyses {
		for _, a := range list {
			if a.id == id {
				analysis, err := decodePayload[m.FaultLocalizationAnalysis](a.payload)
				return analysis, err == nil, err
			}
		}
	}

	return m.FaultLocalizationAnalysis{}, false, nil
}

// LatestAnalysis returns the newest analysis of the session; the last saved
// wins ties.
func (s *MemorySessionStore) LatestAnalysis(_ context.Context, sessionID string) (m.FaultLocalizationAnalysis, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	list := s.analyses[sessionID]
	if len(list) == 0 {
		return m.FaultLocalizationAnalysis{}, false, nil
	}

	latest := list[0]
	for _, a := range list[1:] {
		if !a.createdAt.Before(latest.createdAt) {
			latest = a
		}
	}

	analysis, err := decodePayload[m.FaultLocalizationAnalysis](latest.payload)

	return analysis, err == nil, err
}

// SaveExecutions appends results to the session.
func (s *MemorySessionStore) SaveExecutions(_ context.Context, sessionID string, results []m.TestExecutionResult) error {
	payloads := make([][]byte, 0, len(results))

	for _, r := range results {
		payload, err := encodePayload(r)
		if err != nil {
			return err
		}

		payloads = append(payloads, payload)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.executions[sessionID] = append(s.executions[sessionID], payloads...)
	s.updated[sessionID] = time.Now()

	return nil
}

// GetExecutions returns every stored result of the session in save order.
func (s *MemorySessionStore) GetExecutions(_ context.Context, sessionID string) ([]m.TestExecutionResult, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	results := make([]m.TestExecutionResult, 0, len(s.executions[sessionID]))

	for _, payload := range s.executions[sessionID] {
		r, err := decodePayload[m.TestExecutionResult](payload)
		if err != nil {
			return nil, err
		}

		results = append(results, r)
	}

	return results, nil
}

// ListSessions describes every known session, most recently updated first.
func (s *MemorySessionStore) ListSessions(ctx context.Context) ([]m.SessionInfo, error) {
	s.mu.RLock()
	ids := make([]string, 0, len(s.updated))

	for id := range s.updated {
		ids = append(ids, id)
	}
	s.mu.RUnlock()

	infos := make([]m.SessionInfo, 0, len(ids))

	for _, id := range ids {
		info := m.SessionInfo{ID: id}

		pop, ok, err := s.GetPopulation(ctx, id)
		if err != nil {
			return nil, err
		}

		if ok {
			info.Generation = pop.Generation
			if best := pop.Best(); best != nil {
				info.BestFitness = best.Fitness
			}
		}

		s.mu.RLock()
		info.Executions = len(s.executions[id])
		info.Analyses = len(s.analyses[id])
		info.UpdatedAt = s.updated[id]
		s.mu.RUnlock()

		infos = append(infos, info)
	}

	sortSessions(infos)

	return infos, nil
}

// DeleteSession drops the population, executions and analyses of the session.
func (s *MemorySessionStore) DeleteSession(_ context.Context, sessionID string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, ok := s.updated[sessionID]

	delete(s.populations, sessionID)
	delete(s.analyses, sessionID)
	delete(s.executions, sessionID)
	delete(s.updated, sessionID)

	return ok, nil
}

// Close is a no-op.
func (s *MemorySessionStore) Close() error {
	return nil
}

func sortSessions(infos []m.SessionInfo) {
	sort.Slice(infos, func(i, j int) bool {
		if !infos[i].UpdatedAt.Equal(infos[j].UpdatedAt) {
			return infos[i].UpdatedAt.After(infos[j].UpdatedAt)
		}

		return infos[i].ID < infos[j].ID
	})
}
