// Package testutil provides testing utilities.
package testutil

import (
	"context"
	"sync"

	"followup/internal/service"
)

// FakeService is an in-memory implementation of service.Service for testing.
// It serves canned item lookups and records every call.
type FakeService struct {
	mu      sync.RWMutex
	items   map[string]*service.ItemWithAncestors
	getIDs  []string
	batches [][]service.Command

	// Error injection for testing
	GetItemErr error
	SyncErr    error
}

// NewFakeService creates an empty FakeService.
// Lookups of unknown items return a nil result.
func NewFakeService() *FakeService {
	return &FakeService{
		items: make(map[string]*service.ItemWithAncestors),
	}
}

// SetItem registers the lookup response for item.ID.
func (f *FakeService) SetItem(item service.Item, ancestors ...service.Item) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.items[item.ID] = &service.ItemWithAncestors{Ancestors: ancestors, Item: item}
}

// GetItem implements service.Service.
func (f *FakeService) GetItem(ctx context.Context, itemID string) (*service.ItemWithAncestors, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.getIDs = append(f.getIDs, itemID)

	if f.GetItemErr != nil {
		return nil, f.GetItemErr
	}
	res, ok := f.items[itemID]
	if !ok {
		return nil, nil
	}
	cp := *res
	return &cp, nil
}

// Sync implements service.Service.
func (f *FakeService) Sync(ctx context.Context, commands []service.Command) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.batches = append(f.batches, commands)
	return f.SyncErr
}

// GetItemCalls returns the ids passed to GetItem, in call order.
func (f *FakeService) GetItemCalls() []string {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return append([]string(nil), f.getIDs...)
}

// Batches returns every batch passed to Sync, in call order.
func (f *FakeService) Batches() [][]service.Command {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return append([][]service.Command(nil), f.batches...)
}

// Calls returns the total number of remote calls.
func (f *FakeService) Calls() int {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return len(f.getIDs) + len(f.batches)
}

// Ptr returns a pointer to s, for optional item fields.
func Ptr(s string) *string { return &s }
