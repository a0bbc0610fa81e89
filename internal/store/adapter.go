package store

// Adapter is the persistence provider the store writes through. The store
// only needs load-on-init and save-on-change, keyed by collection name;
// whether the backing medium is durable is the adapter's business.
type Adapter interface {
	// Load returns the stored value for key, or (nil, nil) when the key
	// has never been written.
	Load(key string) ([]byte, error)
	// Save overwrites the value for key.
	Save(key string, value []byte) error
}

// MemoryAdapter keeps snapshots in a plain map. Used in tests and as the
// fallback when no DATABASE_URL or DATA_DIR is configured.
type MemoryAdapter struct {
	values map[string][]byte
}

func NewMemoryAdapter() *MemoryAdapter {
	return &MemoryAdapter{values: make(map[string][]byte)}
}

func (m *MemoryAdapter) Load(key string) ([]byte, error) {
	v, ok := m.values[key]
	if !ok {
		return nil, nil
	}
	return v, nil
}

func (m *MemoryAdapter) Save(key string, value []byte) error {
	cp := make([]byte, len(value))
	copy(cp, value)
	m.values[key] = cp
	return nil
}
