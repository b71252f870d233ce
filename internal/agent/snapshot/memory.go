package snapshot

import (
	"context"
	"sort"
	"sync"

	"github.com/dmitrijs2005/manholepro/internal/agent/cache"
)

var _ cache.Snapshots = (*Memory)(nil)

// Memory keeps snapshots in process memory.
type Memory struct {
	mu       sync.RWMutex
	versions map[string]map[string]cache.Asset
	active   string
}

func NewMemory() *Memory {
	return &Memory{versions: make(map[string]map[string]cache.Asset)}
}

func (m *Memory) Versions(ctx context.Context) ([]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]string, 0, len(m.versions))
	for v := range m.versions {
		out = append(out, v)
	}
	sort.Strings(out)
	return out, nil
}

func (m *Memory) PutAll(ctx context.Context, version string, assets []cache.Asset) error {
	snap := make(map[string]cache.Asset, len(assets))
	for _, a := range assets {
		snap[a.Key] = a.Clone()
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.versions[version] = snap
	return nil
}

func (m *Memory) Put(ctx context.Context, version string, asset cache.Asset) error {
	asset = asset.Clone()

	m.mu.Lock()
	defer m.mu.Unlock()
	snap, ok := m.versions[version]
	if !ok {
		snap = make(map[string]cache.Asset)
		m.versions[version] = snap
	}
	snap[asset.Key] = asset
	return nil
}

func (m *Memory) Match(ctx context.Context, version, key string) (cache.Asset, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	a, ok := m.versions[version][key]
	if !ok {
		return cache.Asset{}, false, nil
	}
	return a.Clone(), true, nil
}

func (m *Memory) Keys(ctx context.Context, version string) ([]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]string, 0, len(m.versions[version]))
	for k := range m.versions[version] {
		out = append(out, k)
	}
	sort.Strings(out)
	return out, nil
}

func (m *Memory) Delete(ctx context.Context, version string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.versions, version)
	return nil
}

func (m *Memory) ActiveVersion(ctx context.Context) (string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.active, nil
}

func (m *Memory) SetActiveVersion(ctx context.Context, version string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.active = version
	return nil
}
