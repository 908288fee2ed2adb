package bulkop

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"go-assetlink/internal/features/changelog"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

var errTransport = errors.New("repository unreachable")

// fakeAssociationStore is an in-memory device/asset store. Setting failDevice
// makes any touch of that device return a transport error, simulating loss of
// connectivity mid-run.
type fakeAssociationStore struct {
	mu         sync.Mutex
	devices    map[string]bool
	assets     map[string]bool
	links      map[string]string
	failDevice string
}

func newFakeAssociationStore() *fakeAssociationStore {
	return &fakeAssociationStore{
		devices: make(map[string]bool),
		assets:  make(map[string]bool),
		links:   make(map[string]string),
	}
}

func (f *fakeAssociationStore) addDevice(id string)    { f.devices[id] = true }
func (f *fakeAssociationStore) addAsset(id string)     { f.assets[id] = true }
func (f *fakeAssociationStore) link(dev, asset string) { f.links[dev] = asset }
func (f *fakeAssociationStore) removeDevice(id string) { delete(f.devices, id) }

func (f *fakeAssociationStore) DeviceExists(ctx context.Context, deviceID string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if deviceID == f.failDevice {
		return false, errTransport
	}
	return f.devices[deviceID], nil
}

func (f *fakeAssociationStore) AssetExists(ctx context.Context, assetID string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.assets[assetID], nil
}

func (f *fakeAssociationStore) GetCurrentAssociation(ctx context.Context, deviceID string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if deviceID == f.failDevice {
		return "", errTransport
	}
	return f.links[deviceID], nil
}

func (f *fakeAssociationStore) SetAssociation(ctx context.Context, deviceID, assetID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if deviceID == f.failDevice {
		return errTransport
	}
	f.links[deviceID] = assetID
	return nil
}

func (f *fakeAssociationStore) ClearAssociation(ctx context.Context, deviceID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if deviceID == f.failDevice {
		return errTransport
	}
	delete(f.links, deviceID)
	return nil
}

// fakeOperationStore mimics the conditional-update semantics of the real
// store under a single mutex.
type fakeOperationStore struct {
	mu    sync.Mutex
	ops   map[string]*BulkOperation
	items map[string][]BulkOperationItem
	order []string
}

func newFakeOperationStore() *fakeOperationStore {
	return &fakeOperationStore{
		ops:   make(map[string]*BulkOperation),
		items: make(map[string][]BulkOperationItem),
	}
}

func (f *fakeOperationStore) Create(ctx context.Context, op *BulkOperation, items []BulkOperationItem) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	op.ID = primitive.NewObjectID()
	op.CreatedAt = time.Now()
	op.UpdatedAt = op.CreatedAt
	id := op.ID.Hex()

	stored := *op
	f.ops[id] = &stored
	f.order = append(f.order, id)

	for i := range items {
		items[i].ID = primitive.NewObjectID()
		items[i].BulkOperationID = op.ID
	}
	f.items[id] = append([]BulkOperationItem(nil), items...)
	return nil
}

func (f *fakeOperationStore) Get(ctx context.Context, id string) (*BulkOperation, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	op, ok := f.ops[id]
	if !ok {
		return nil, ErrOperationNotFound
	}
	copied := *op
	return &copied, nil
}

func (f *fakeOperationStore) List(ctx context.Context, limit int64) ([]BulkOperation, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var ops []BulkOperation
	for i := len(f.order) - 1; i >= 0 && int64(len(ops)) < limit; i-- {
		ops = append(ops, *f.ops[f.order[i]])
	}
	return ops, nil
}

func (f *fakeOperationStore) ListItems(ctx context.Context, opID string) ([]BulkOperationItem, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	items := append([]BulkOperationItem(nil), f.items[opID]...)
	sort.Slice(items, func(i, j int) bool { return items[i].RowNumber < items[j].RowNumber })
	return items, nil
}

func (f *fakeOperationStore) TransitionStatus(ctx context.Context, id string, from, to OperationStatus) (*BulkOperation, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	op, ok := f.ops[id]
	if !ok {
		return nil, ErrOperationNotFound
	}
	if op.Status != from {
		return nil, fmt.Errorf("%w: operation is %s, expected %s", ErrInvalidOperationState, op.Status, from)
	}
	op.Status = to
	op.UpdatedAt = time.Now()
	copied := *op
	return &copied, nil
}

func (f *fakeOperationStore) BeginUndo(ctx context.Context, id string, now time.Time) (*BulkOperation, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	op, ok := f.ops[id]
	if !ok {
		return nil, ErrOperationNotFound
	}
	if op.Status != StatusCompleted {
		return nil, fmt.Errorf("%w: operation is %s, expected %s", ErrInvalidOperationState, op.Status, StatusCompleted)
	}
	if op.UndoDeadline == nil || !now.Before(*op.UndoDeadline) {
		return nil, ErrUndoWindowExpired
	}
	op.Status = StatusUndone
	op.UpdatedAt = now
	copied := *op
	return &copied, nil
}

func (f *fakeOperationStore) UpdateItem(ctx context.Context, item *BulkOperationItem) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	items := f.items[item.BulkOperationID.Hex()]
	for i := range items {
		if items[i].ID == item.ID {
			items[i] = *item
			return nil
		}
	}
	return fmt.Errorf("item %s not found", item.ID.Hex())
}

func (f *fakeOperationStore) UpdateProgress(ctx context.Context, id string, processed, success, errorCount, skipped int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	op, ok := f.ops[id]
	if !ok {
		return ErrOperationNotFound
	}
	op.ProcessedItems = processed
	op.SuccessCount = success
	op.ErrorCount = errorCount
	op.SkippedCount = skipped
	op.UpdatedAt = time.Now()
	return nil
}

func (f *fakeOperationStore) Finalize(ctx context.Context, id string, status OperationStatus, undoDeadline *time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	op, ok := f.ops[id]
	if !ok {
		return ErrOperationNotFound
	}
	op.Status = status
	if undoDeadline != nil {
		op.UndoDeadline = undoDeadline
	}
	op.UpdatedAt = time.Now()
	return nil
}

func (f *fakeOperationStore) DeleteOlderThan(ctx context.Context, cutoff time.Time, statuses []OperationStatus) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var deleted int64
	var kept []string
	for _, id := range f.order {
		op := f.ops[id]
		terminal := false
		for _, s := range statuses {
			if op.Status == s {
				terminal = true
				break
			}
		}
		if terminal && op.CreatedAt.Before(cutoff) {
			delete(f.ops, id)
			delete(f.items, id)
			deleted++
			continue
		}
		kept = append(kept, id)
	}
	f.order = kept
	return deleted, nil
}

func (f *fakeOperationStore) EnsureIndexes(ctx context.Context) error { return nil }

type fakeChangeLog struct {
	mu      sync.Mutex
	entries []changelog.Entry
}

func (f *fakeChangeLog) Record(ctx context.Context, entry changelog.Entry) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	entry.CreatedAt = time.Now()
	f.entries = append(f.entries, entry)
	return nil
}

func (f *fakeChangeLog) List(ctx context.Context, filter changelog.Filter, limit int64) ([]changelog.Entry, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []changelog.Entry
	for _, e := range f.entries {
		if filter.DeviceID != "" && e.DeviceID != filter.DeviceID {
			continue
		}
		if filter.BulkOperationID != "" && e.BulkOperationID != filter.BulkOperationID {
			continue
		}
		out = append(out, e)
	}
	return out, nil
}

func newTestService() (*BulkOperationServiceImpl, *fakeAssociationStore, *fakeOperationStore, *fakeChangeLog) {
	assoc := newFakeAssociationStore()
	ops := newFakeOperationStore()
	cl := &fakeChangeLog{}
	svc := &BulkOperationServiceImpl{
		OpRepo:     ops,
		Assoc:      assoc,
		ChangeLog:  cl,
		Logger:     zap.NewNop(),
		undoWindow: 30 * time.Minute,
		now:        time.Now,
	}
	return svc, assoc, ops, cl
}
