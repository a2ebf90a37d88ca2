package cache

import (
	"context"
	"encoding/json"
	"strconv"
	"sync"
	"time"
)

// DefaultStaleTime matches how long the terminal client trusts a response.
const DefaultStaleTime = 5 * time.Minute

type entry struct {
	data    []byte
	expires time.Time
}

// Memory is an in-process Store. A zero ttl on Set uses the store default.
type Memory struct {
	mu         sync.Mutex
	namespaces map[string]map[string]entry
	versions   map[string]uint64
	ttl        time.Duration
	now        func() time.Time
}

func NewMemory(ttl time.Duration) *Memory {
	if ttl <= 0 {
		ttl = DefaultStaleTime
	}
	return &Memory{
		namespaces: make(map[string]map[string]entry),
		versions:   make(map[string]uint64),
		ttl:        ttl,
		now:        time.Now,
	}
}

func (m *Memory) Get(_ context.Context, namespace, key string, dst any) (bool, error) {
	m.mu.Lock()
	e, ok := m.namespaces[namespace][key]
	if ok && !m.now().Before(e.expires) {
		delete(m.namespaces[namespace], key)
		ok = false
	}
	m.mu.Unlock()

	if !ok {
		return false, nil
	}
	if err := json.Unmarshal(e.data, dst); err != nil {
		return false, err
	}
	return true, nil
}

func (m *Memory) Set(ctx context.Context, namespace, key string, value any, ttl time.Duration) error {
	version, _ := m.Version(ctx, namespace)
	return m.SetAt(ctx, namespace, version, key, value, ttl)
}

func (m *Memory) Version(_ context.Context, namespace string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return strconv.FormatUint(m.versions[namespace], 10), nil
}

func (m *Memory) SetAt(_ context.Context, namespace, version, key string, value any, ttl time.Duration) error {
	data, err := json.Marshal(value)
	if err != nil {
		return err
	}
	if ttl <= 0 {
		ttl = m.ttl
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if strconv.FormatUint(m.versions[namespace], 10) != version {
		return nil
	}
	ns, ok := m.namespaces[namespace]
	if !ok {
		ns = make(map[string]entry)
		m.namespaces[namespace] = ns
	}
	ns[key] = entry{data: data, expires: m.now().Add(ttl)}
	return nil
}

func (m *Memory) Delete(_ context.Context, namespace, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.namespaces[namespace], key)
	return nil
}

func (m *Memory) Invalidate(_ context.Context, namespace string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.namespaces, namespace)
	m.versions[namespace]++
	return nil
}
