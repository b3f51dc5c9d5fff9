package store

type Reader interface {
	Read(key string) ([]byte, error)
}

type Writer interface {
	Write(key string, data []byte) error
}

type ReadWriter interface {
	Reader
	Writer
}

type MemStore struct {
	data map[string][]byte
}

func (m MemStore) Read(key string) ([]byte, error) {
	return m.data[key], nil
}

func (m MemStore) Write(key string, data []byte) error {
	m.data[key] = data
	return nil
}

// CachedStore wraps a store by pointer; its parent is MemStore.
type CachedStore struct {
	*MemStore
	hits int
}

type ReadOnlyCache struct{}

func (ReadOnlyCache) Read(string) ([]byte, error) {
	return nil, nil
}
