package testutil

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/turtacn/CaseIntel/internal/domain/analytics"
	"github.com/turtacn/CaseIntel/internal/domain/entity"
	"github.com/turtacn/CaseIntel/internal/domain/litigation"
	pipeline "github.com/turtacn/CaseIntel/internal/intelligence/common"
	"github.com/turtacn/CaseIntel/pkg/errors"
	"github.com/turtacn/CaseIntel/pkg/types/common"
)

// Faults injects errors into the in-memory stores.  Fail is consulted on
// every call with the operation name, e.g. "entity.Create"; a non-nil return
// aborts the call.
type Faults struct {
	mu   sync.Mutex
	Fail func(op string) error
	// Calls counts invocations per operation.
	Calls map[string]int
}

func (f *Faults) check(op string) error {
	if f == nil {
		return nil
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.Calls == nil {
		f.Calls = map[string]int{}
	}
	f.Calls[op]++
	if f.Fail != nil {
		return f.Fail(op)
	}
	return nil
}

// Count returns how many times op was called.
func (f *Faults) Count(op string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.Calls[op]
}

// FailTimes returns a Fail func that fails op with err for the first n calls.
func FailTimes(op string, n int, err error) func(string) error {
	var mu sync.Mutex
	left := n
	return func(got string) error {
		if got != op {
			return nil
		}
		mu.Lock()
		defer mu.Unlock()
		if left > 0 {
			left--
			return err
		}
		return nil
	}
}

// ─────────────────────────────────────────────────────────────────────────────
// Entities
// ─────────────────────────────────────────────────────────────────────────────

// EntityStore is an in-memory entity.Repository enforcing the unique
// (category, normalized_key) constraint.
type EntityStore struct {
	Faults
	mu   sync.RWMutex
	byID map[string]*entity.Entity
}

// NewEntityStore creates an EntityStore pre-loaded with seed.
func NewEntityStore(seed ...*entity.Entity) *EntityStore {
	s := &EntityStore{byID: map[string]*entity.Entity{}}
	for _, e := range seed {
		s.byID[e.ID] = e.Clone()
	}
	return s
}

func (s *EntityStore) Create(_ context.Context, e *entity.Entity) error {
	if err := s.check("entity.Create"); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, cur := range s.byID {
		if cur.Category == e.Category && cur.NormalizedKey == e.NormalizedKey {
			return errors.New(errors.ErrCodeEntityAlreadyExists, "entity already exists").WithDetail(e.NormalizedKey)
		}
	}
	s.byID[e.ID] = e.Clone()
	return nil
}

func (s *EntityStore) Update(_ context.Context, e *entity.Entity) error {
	if err := s.check("entity.Update"); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.byID[e.ID]; !ok {
		return errors.New(errors.ErrCodeEntityNotFound, "entity not found").WithDetail(e.ID)
	}
	s.byID[e.ID] = e.Clone()
	return nil
}

func (s *EntityStore) GetByID(_ context.Context, id string) (*entity.Entity, error) {
	if err := s.check("entity.GetByID"); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	e, ok := s.byID[id]
	if !ok {
		return nil, errors.New(errors.ErrCodeEntityNotFound, "entity not found").WithDetail(id)
	}
	return e.Clone(), nil
}

func (s *EntityStore) ListByCategory(_ context.Context, category entity.Category) ([]*entity.Entity, error) {
	if err := s.check("entity.ListByCategory"); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*entity.Entity
	for _, e := range s.byID {
		if e.Category == category {
			out = append(out, e.Clone())
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s *EntityStore) ListIDs(_ context.Context, f entity.ListFilter) ([]string, error) {
	if err := s.check("entity.ListIDs"); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	var ids []string
	for id, e := range s.byID {
		if f.Category != "" && e.Category != f.Category {
			continue
		}
		if f.ActiveOnly && !e.Active {
			continue
		}
		if id <= f.AfterID {
			continue
		}
		ids = append(ids, id)
	}
	sort.Strings(ids)
	if f.Limit > 0 && len(ids) > f.Limit {
		ids = ids[:f.Limit]
	}
	return ids, nil
}

// All returns every entity ordered by category then canonical name.
func (s *EntityStore) All() []*entity.Entity {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*entity.Entity, 0, len(s.byID))
	for _, e := range s.byID {
		out = append(out, e.Clone())
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Category != out[j].Category {
			return out[i].Category < out[j].Category
		}
		return out[i].CanonicalName < out[j].CanonicalName
	})
	return out
}

// Find returns the entity with category and key, or nil.
func (s *EntityStore) Find(category entity.Category, key string) *entity.Entity {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, e := range s.byID {
		if e.Category == category && e.NormalizedKey == key {
			return e.Clone()
		}
	}
	return nil
}

// ─────────────────────────────────────────────────────────────────────────────
// Cases
// ─────────────────────────────────────────────────────────────────────────────

// CaseStore is an in-memory litigation.CaseReader.
type CaseStore struct {
	Faults
	mu    sync.RWMutex
	cases []*litigation.CaseRecord
}

// NewCaseStore creates a CaseStore holding cases ordered by id.
func NewCaseStore(cases ...*litigation.CaseRecord) *CaseStore {
	s := &CaseStore{cases: append([]*litigation.CaseRecord{}, cases...)}
	sort.Slice(s.cases, func(i, j int) bool { return s.cases[i].ID < s.cases[j].ID })
	return s
}

// Add inserts cases, keeping id order.
func (s *CaseStore) Add(cases ...*litigation.CaseRecord) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cases = append(s.cases, cases...)
	sort.Slice(s.cases, func(i, j int) bool { return s.cases[i].ID < s.cases[j].ID })
}

func (s *CaseStore) Get(_ context.Context, id int64) (*litigation.CaseRecord, error) {
	if err := s.check("case.Get"); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, c := range s.cases {
		if c.ID == id {
			cp := *c
			return &cp, nil
		}
	}
	return nil, errors.New(errors.ErrCodeCaseNotFound, "case not found")
}

func (s *CaseStore) Scan(_ context.Context, page common.PageRequest) ([]*litigation.CaseRecord, error) {
	if err := s.check("case.Scan"); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	page = page.Normalize(1000)
	var out []*litigation.CaseRecord
	for _, c := range s.cases {
		if c.ID <= page.After {
			continue
		}
		cp := *c
		out = append(out, &cp)
		if len(out) == page.Limit {
			break
		}
	}
	return out, nil
}

func (s *CaseStore) FindByNames(_ context.Context, names []string) ([]*litigation.CaseRecord, error) {
	if err := s.check("case.FindByNames"); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*litigation.CaseRecord
	for _, c := range s.cases {
		if litigation.Mentions(c, names) {
			cp := *c
			out = append(out, &cp)
		}
	}
	return out, nil
}

// ─────────────────────────────────────────────────────────────────────────────
// Statistics and analytics
// ─────────────────────────────────────────────────────────────────────────────

// StatisticsStore is an in-memory analytics.StatisticsRepository.
type StatisticsStore struct {
	Faults
	mu   sync.RWMutex
	data map[string]analytics.CaseStatistics
}

// NewStatisticsStore creates an empty StatisticsStore.
func NewStatisticsStore() *StatisticsStore {
	return &StatisticsStore{data: map[string]analytics.CaseStatistics{}}
}

func (s *StatisticsStore) Upsert(_ context.Context, st *analytics.CaseStatistics) error {
	if err := s.check("statistics.Upsert"); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *st
	cp.SubjectCounts = copyCounts(st.SubjectCounts)
	s.data[st.EntityID] = cp
	return nil
}

func (s *StatisticsStore) GetByEntityID(_ context.Context, id string) (*analytics.CaseStatistics, error) {
	if err := s.check("statistics.GetByEntityID"); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	st, ok := s.data[id]
	if !ok {
		return nil, errors.New(errors.ErrCodeStatisticsNotFound, "case statistics not found").WithDetail(id)
	}
	st.SubjectCounts = copyCounts(st.SubjectCounts)
	return &st, nil
}

// Len returns the number of stored records.
func (s *StatisticsStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.data)
}

// AnalyticsStore is an in-memory analytics.AnalyticsRepository.
type AnalyticsStore struct {
	Faults
	mu   sync.RWMutex
	data map[string]analytics.Analytics
}

// NewAnalyticsStore creates an empty AnalyticsStore.
func NewAnalyticsStore() *AnalyticsStore {
	return &AnalyticsStore{data: map[string]analytics.Analytics{}}
}

func (s *AnalyticsStore) Upsert(_ context.Context, a *analytics.Analytics) error {
	if err := s.check("analytics.Upsert"); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *a
	cp.RiskFactors = append([]string{}, a.RiskFactors...)
	s.data[a.EntityID] = cp
	return nil
}

func (s *AnalyticsStore) GetByEntityID(_ context.Context, id string) (*analytics.Analytics, error) {
	if err := s.check("analytics.GetByEntityID"); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	a, ok := s.data[id]
	if !ok {
		return nil, errors.New(errors.ErrCodeAnalyticsNotFound, "analytics not found").WithDetail(id)
	}
	a.RiskFactors = append([]string{}, a.RiskFactors...)
	return &a, nil
}

// Len returns the number of stored records.
func (s *AnalyticsStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.data)
}

// ResultStore is an in-memory analytics.ResultWriter over a StatisticsStore
// and an AnalyticsStore.  SaveResults replaces both records or neither.
type ResultStore struct {
	Faults
	Stats     *StatisticsStore
	Analytics *AnalyticsStore
}

// NewResultStore creates a ResultStore over fresh stores.
func NewResultStore() *ResultStore {
	return &ResultStore{Stats: NewStatisticsStore(), Analytics: NewAnalyticsStore()}
}

func (r *ResultStore) SaveResults(_ context.Context, st *analytics.CaseStatistics, a *analytics.Analytics) error {
	if err := r.check("results.Save"); err != nil {
		return err
	}
	r.Stats.mu.Lock()
	defer r.Stats.mu.Unlock()
	r.Analytics.mu.Lock()
	defer r.Analytics.mu.Unlock()

	cs := *st
	cs.SubjectCounts = copyCounts(st.SubjectCounts)
	ca := *a
	ca.RiskFactors = append([]string{}, a.RiskFactors...)
	r.Stats.data[st.EntityID] = cs
	r.Analytics.data[a.EntityID] = ca
	return nil
}

func copyCounts(in map[string]int) map[string]int {
	out := make(map[string]int, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}

// ─────────────────────────────────────────────────────────────────────────────
// Checkpoints
// ─────────────────────────────────────────────────────────────────────────────

// CheckpointStore is an in-memory pipeline.Checkpointer.
type CheckpointStore struct {
	mu   sync.Mutex
	data map[string]string
	// Saves records every saved position per name, in order.
	Saves map[string][]string
}

// NewCheckpointStore creates an empty CheckpointStore.
func NewCheckpointStore() *CheckpointStore {
	return &CheckpointStore{data: map[string]string{}, Saves: map[string][]string{}}
}

func (c *CheckpointStore) Load(_ context.Context, name string) (string, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	v, ok := c.data[name]
	return v, ok, nil
}

func (c *CheckpointStore) Save(_ context.Context, name, position string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.data[name] = position
	c.Saves[name] = append(c.Saves[name], position)
	return nil
}

func (c *CheckpointStore) Clear(_ context.Context, name string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.data, name)
	return nil
}

// ─────────────────────────────────────────────────────────────────────────────
// Events and locks
// ─────────────────────────────────────────────────────────────────────────────

// RecordingPublisher is an analytics.EventPublisher that keeps every event.
type RecordingPublisher struct {
	Faults
	mu     sync.Mutex
	events []analytics.UpdatedEvent
}

func (p *RecordingPublisher) PublishUpdated(_ context.Context, ev *analytics.UpdatedEvent) error {
	if err := p.check("events.Publish"); err != nil {
		return err
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, *ev)
	return nil
}

// Events returns the published events ordered by entity id.
func (p *RecordingPublisher) Events() []analytics.UpdatedEvent {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := append([]analytics.UpdatedEvent{}, p.events...)
	sort.Slice(out, func(i, j int) bool { return out[i].EntityID < out[j].EntityID })
	return out
}

// MemoryLocker is a process-local pipeline.Locker.  Acquire fails with
// ErrCodeLockNotAcquired while the key is held.  TTLs are ignored.
type MemoryLocker struct {
	mu   sync.Mutex
	held map[string]bool
	// MaxHeld is the largest number of keys held at once.
	MaxHeld  int
	Acquired int
}

// NewMemoryLocker creates an empty MemoryLocker.
func NewMemoryLocker() *MemoryLocker {
	return &MemoryLocker{held: map[string]bool{}}
}

func (l *MemoryLocker) Acquire(_ context.Context, key string, _ time.Duration) (pipeline.Unlocker, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.held[key] {
		return nil, errors.New(errors.ErrCodeLockNotAcquired, "lock held").WithDetail(key)
	}
	l.held[key] = true
	l.Acquired++
	if len(l.held) > l.MaxHeld {
		l.MaxHeld = len(l.held)
	}
	return memoryUnlock{l: l, key: key}, nil
}

// Held reports whether key is currently held.
func (l *MemoryLocker) Held(key string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.held[key]
}

type memoryUnlock struct {
	l   *MemoryLocker
	key string
}

func (u memoryUnlock) Release(context.Context) error {
	u.l.mu.Lock()
	defer u.l.mu.Unlock()
	delete(u.l.held, u.key)
	return nil
}

//Personal.AI order the ending
