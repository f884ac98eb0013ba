package service

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/kursadbilgin/alert-dispatch/internal/domain"
	"github.com/kursadbilgin/alert-dispatch/internal/provider"
	"github.com/kursadbilgin/alert-dispatch/internal/queue"
)

type fakeAlertRepo struct {
	mu       sync.Mutex
	created  []domain.AlertRecord
	createFn func(ctx context.Context, a *domain.AlertRecord) error
	getFn    func(ctx context.Context, id string) (*domain.AlertRecord, error)
	listFn   func(ctx context.Context, limit int) ([]domain.AlertRecord, error)
}

func (f *fakeAlertRepo) Create(ctx context.Context, a *domain.AlertRecord) error {
	if f.createFn != nil {
		if err := f.createFn(ctx, a); err != nil {
			return err
		}
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.created = append(f.created, *a)
	return nil
}

func (f *fakeAlertRepo) GetByID(ctx context.Context, id string) (*domain.AlertRecord, error) {
	if f.getFn != nil {
		return f.getFn(ctx, id)
	}
	return nil, domain.ErrNotFound
}

func (f *fakeAlertRepo) List(ctx context.Context, limit int) ([]domain.AlertRecord, error) {
	if f.listFn != nil {
		return f.listFn(ctx, limit)
	}
	return nil, nil
}

// memDeliveryRepo keeps deliveries in memory with the same conditional
// transition semantics as the GORM repository.
type memDeliveryRepo struct {
	mu       sync.Mutex
	records  map[string]*domain.DeliveryRecord
	order    []string
	createFn func(ctx context.Context, d *domain.DeliveryRecord) error
	findErr  error
}

func newMemDeliveryRepo() *memDeliveryRepo {
	return &memDeliveryRepo{records: make(map[string]*domain.DeliveryRecord)}
}

func (m *memDeliveryRepo) Create(ctx context.Context, d *domain.DeliveryRecord) error {
	if m.createFn != nil {
		if err := m.createFn(ctx, d); err != nil {
			return err
		}
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.records[d.ID]; ok {
		return fmt.Errorf("%w: delivery %s exists", domain.ErrConflict, d.ID)
	}
	cp := *d
	m.records[d.ID] = &cp
	m.order = append(m.order, d.ID)
	return nil
}

func (m *memDeliveryRepo) GetByID(ctx context.Context, id string) (*domain.DeliveryRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	d, ok := m.records[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *d
	return &cp, nil
}

func (m *memDeliveryRepo) ListByAlertID(ctx context.Context, alertID string) ([]domain.DeliveryRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []domain.DeliveryRecord
	for _, id := range m.order {
		if d := m.records[id]; d.AlertID == alertID {
			out = append(out, *d)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].UnitName < out[j].UnitName })
	return out, nil
}

func (m *memDeliveryRepo) FindByProviderRef(ctx context.Context, providerRef string) (*domain.DeliveryRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.findErr != nil {
		return nil, m.findErr
	}
	for i := len(m.order) - 1; i >= 0; i-- {
		d := m.records[m.order[i]]
		if d.ProviderRef != nil && *d.ProviderRef == providerRef {
			cp := *d
			return &cp, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (m *memDeliveryRepo) FindLatestSentByAddress(ctx context.Context, address string, providerRef string) (*domain.DeliveryRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.findErr != nil {
		return nil, m.findErr
	}
	var latest *domain.DeliveryRecord
	for _, id := range m.order {
		d := m.records[id]
		if d.ContactAddress != address || d.Status != domain.DeliveryStatusSent {
			continue
		}
		if providerRef != "" && d.ProviderRef != nil && *d.ProviderRef != providerRef {
			continue
		}
		if latest == nil || !d.SentAt.Before(latest.SentAt) {
			latest = d
		}
	}
	if latest == nil {
		return nil, domain.ErrNotFound
	}
	cp := *latest
	return &cp, nil
}

func (m *memDeliveryRepo) TransitionFromSent(ctx context.Context, id string, t domain.DeliveryTransition) (bool, error) {
	if !domain.CanTransition(domain.DeliveryStatusSent, t.Status) {
		return false, fmt.Errorf("%w: invalid transition to %s", domain.ErrValidation, t.Status)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	d, ok := m.records[id]
	if !ok || d.Status != domain.DeliveryStatusSent {
		return false, nil
	}
	d.Status = t.Status
	d.ErrorReason = t.ErrorReason
	d.DeliveredAt = t.DeliveredAt
	return true, nil
}

func (m *memDeliveryRepo) all() []domain.DeliveryRecord {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]domain.DeliveryRecord, 0, len(m.order))
	for _, id := range m.order {
		out = append(out, *m.records[id])
	}
	return out
}

type fakeDirectory struct {
	units       []domain.Unit
	err         error
	listCalls   int
	listUnitsFn func(ctx context.Context) ([]domain.Unit, error)
}

func (f *fakeDirectory) ListUnits(ctx context.Context) ([]domain.Unit, error) {
	f.listCalls++
	if f.listUnitsFn != nil {
		return f.listUnitsFn(ctx)
	}
	return f.units, f.err
}

type fakeGateway struct {
	sendFn func(ctx context.Context, msg provider.Message) (*provider.SendResult, error)
}

func (f *fakeGateway) Send(ctx context.Context, msg provider.Message) (*provider.SendResult, error) {
	if f.sendFn != nil {
		return f.sendFn(ctx, msg)
	}
	return &provider.SendResult{ProviderRef: "SM" + msg.To, Status: "queued"}, nil
}

type fakeRateLimiter struct {
	allowFn func(ctx context.Context, lane string) (bool, error)
	waitFn  func(ctx context.Context, lane string) error
}

func (f *fakeRateLimiter) Allow(ctx context.Context, lane string) (bool, error) {
	if f.allowFn != nil {
		return f.allowFn(ctx, lane)
	}
	return true, nil
}

func (f *fakeRateLimiter) Wait(ctx context.Context, lane string) error {
	if f.waitFn != nil {
		return f.waitFn(ctx, lane)
	}
	return nil
}

type fakeFailureRecorder struct {
	mu    sync.Mutex
	calls []string
	err   error
}

func (f *fakeFailureRecorder) RecordFailure(ctx context.Context, contactPointID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, contactPointID)
	return f.err
}

func (f *fakeFailureRecorder) recorded() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.calls...)
}

// memReliabilityStore counts failures in memory.
type memReliabilityStore struct {
	mu          sync.Mutex
	points      map[string]*domain.ContactPoint
	incrementFn func(ctx context.Context, id string, failedAt time.Time) error
	resetFn     func(ctx context.Context, id string) error
}

func newMemReliabilityStore(ids ...string) *memReliabilityStore {
	s := &memReliabilityStore{points: make(map[string]*domain.ContactPoint)}
	for _, id := range ids {
		s.points[id] = &domain.ContactPoint{ID: id}
	}
	return s
}

func (s *memReliabilityStore) GetContactPoint(ctx context.Context, id string) (*domain.ContactPoint, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp, ok := s.points[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	out := *cp
	return &out, nil
}

func (s *memReliabilityStore) IncrementFailures(ctx context.Context, id string, failedAt time.Time) error {
	if s.incrementFn != nil {
		return s.incrementFn(ctx, id, failedAt)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	cp, ok := s.points[id]
	if !ok {
		return domain.ErrNotFound
	}
	cp.ConsecutiveFailures++
	at := failedAt
	cp.LastFailedAt = &at
	return nil
}

func (s *memReliabilityStore) ResetFailures(ctx context.Context, id string) error {
	if s.resetFn != nil {
		return s.resetFn(ctx, id)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	cp, ok := s.points[id]
	if !ok {
		return domain.ErrNotFound
	}
	cp.ConsecutiveFailures = 0
	return nil
}

type fakePublisher struct {
	publishFn func(ctx context.Context, queueName string, msg queue.StatusCallbackMessage) error
}

func (f *fakePublisher) Publish(ctx context.Context, queueName string, msg queue.StatusCallbackMessage) error {
	if f.publishFn != nil {
		return f.publishFn(ctx, queueName, msg)
	}
	return nil
}

func (f *fakePublisher) Close() error { return nil }

type fakeConsumer struct {
	consumeFn func(ctx context.Context, queueName string, handler queue.MessageHandler) error
}

func (f *fakeConsumer) Consume(ctx context.Context, queueName string, handler queue.MessageHandler) error {
	if f.consumeFn != nil {
		return f.consumeFn(ctx, queueName, handler)
	}
	<-ctx.Done()
	return nil
}

func (f *fakeConsumer) Close() error { return nil }

type fakeReconciler struct {
	mu          sync.Mutex
	callbacks   []domain.StatusCallback
	contexts    []context.Context
	reconcileFn func(ctx context.Context, cb domain.StatusCallback) ReconcileOutcome
}

func (f *fakeReconciler) Reconcile(ctx context.Context, cb domain.StatusCallback) ReconcileOutcome {
	f.mu.Lock()
	f.callbacks = append(f.callbacks, cb)
	f.contexts = append(f.contexts, ctx)
	f.mu.Unlock()
	if f.reconcileFn != nil {
		return f.reconcileFn(ctx, cb)
	}
	return ReconcileApplied
}

func testUnit(id string, name string, list domain.FeedList, addresses ...string) domain.Unit {
	unit := domain.Unit{ID: id, Name: name, List: list}
	for i, addr := range addresses {
		unit.ContactPoints = append(unit.ContactPoints, domain.ContactPoint{
			ID:       fmt.Sprintf("%s-cp%d", id, i+1),
			UnitID:   id,
			Label:    "Main",
			Address:  addr,
			Position: i,
		})
	}
	return unit
}

func ptr[T any](v T) *T { return &v }
