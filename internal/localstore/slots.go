// Package localstore keeps the client-side state that survives restarts:
// the local cart and the session slots. State lives in named string slots
// behind the Slots interface so the backing store can be a file, Redis, or
// memory without the cart logic noticing.
package localstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// Slots is a flat string key-value store.
type Slots interface {
	// Get returns the slot value and whether it was present.
	Get(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key, value string) error
	Delete(ctx context.Context, key string) error
}

// Slot names under a namespace.
const (
	SlotCart     = "cart"
	SlotToken    = "token"
	SlotUserName = "userName"
)

// errMalformedState marks a state file that exists but does not parse.
var errMalformedState = errors.New("malformed state file")

// Key returns the namespaced key for slot.
func Key(namespace, slot string) string {
	if namespace == "" {
		return slot
	}
	return namespace + ":" + slot
}

// === Memory ===

// MemorySlots keeps slots in process memory. Used by tests and the
// "memory" storage backend.
type MemorySlots struct {
	mu   sync.RWMutex
	data map[string]string
}

// NewMemorySlots creates an empty in-memory slot store.
func NewMemorySlots() *MemorySlots {
	return &MemorySlots{data: make(map[string]string)}
}

func (m *MemorySlots) Get(_ context.Context, key string) (string, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	v, ok := m.data[key]
	return v, ok, nil
}

func (m *MemorySlots) Set(_ context.Context, key, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[key] = value
	return nil
}

func (m *MemorySlots) Delete(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.data, key)
	return nil
}

// === File ===

// FileSlots stores every slot in one JSON object on disk.
// Writes go to a temp file that is renamed over the original, so a crash
// never leaves a half-written document.
type FileSlots struct {
	mu     sync.Mutex
	path   string
	logger *slog.Logger
}

// NewFileSlots returns a file-backed slot store at path. The file and its
// directory are created on first write. A nil logger uses slog.Default.
func NewFileSlots(path string, logger *slog.Logger) *FileSlots {
	if logger == nil {
		logger = slog.Default()
	}
	return &FileSlots{path: path, logger: logger}
}

// Path returns the backing file path.
func (f *FileSlots) Path() string {
	return f.path
}

func (f *FileSlots) Get(_ context.Context, key string) (string, bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	doc, err := f.load()
	if err != nil {
		return "", false, err
	}
	v, ok := doc[key]
	return v, ok, nil
}

func (f *FileSlots) Set(_ context.Context, key, value string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	doc, err := f.loadForWrite(key)
	if err != nil {
		return err
	}
	doc[key] = value
	return f.save(doc)
}

func (f *FileSlots) Delete(_ context.Context, key string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	doc, err := f.loadForWrite(key)
	if err != nil {
		return err
	}
	if _, ok := doc[key]; !ok {
		return nil
	}
	delete(doc, key)
	return f.save(doc)
}

func (f *FileSlots) load() (map[string]string, error) {
	data, err := os.ReadFile(f.path)
	if errors.Is(err, os.ErrNotExist) {
		return make(map[string]string), nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading state file: %w", err)
	}
	if len(data) == 0 {
		return make(map[string]string), nil
	}

	doc := make(map[string]string)
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", errMalformedState, f.path, err)
	}
	return doc, nil
}

// loadForWrite loads the document for a write to key. An unparseable
// document is replaced by an empty one so writes keep working; every other
// slot in it, the session included, is lost, which is logged.
func (f *FileSlots) loadForWrite(key string) (map[string]string, error) {
	doc, err := f.load()
	if errors.Is(err, errMalformedState) {
		f.logger.Warn("state file is unreadable, replacing it; other stored slots are lost",
			slog.String("path", f.path),
			slog.String("key", key),
			slog.String("error", err.Error()),
		)
		return make(map[string]string), nil
	}
	return doc, err
}

func (f *FileSlots) save(doc map[string]string) error {
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding state file: %w", err)
	}

	dir := filepath.Dir(f.path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return fmt.Errorf("creating state dir: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".state-*.json")
	if err != nil {
		return fmt.Errorf("creating temp state file: %w", err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName) // no-op after a successful rename

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("writing temp state file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("closing temp state file: %w", err)
	}
	if err := os.Rename(tmpName, f.path); err != nil {
		return fmt.Errorf("replacing state file: %w", err)
	}
	return nil
}

// === Redis ===

// RedisSlots stores slots as plain Redis string keys.
type RedisSlots struct {
	client redis.UniversalClient
}

// NewRedisSlots wraps an existing Redis client.
func NewRedisSlots(client redis.UniversalClient) *RedisSlots {
	return &RedisSlots{client: client}
}

// OpenRedis connects to redisURL and verifies the connection.
func OpenRedis(ctx context.Context, redisURL string) (*RedisSlots, error) {
	opt, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("invalid redis URL: %w", err)
	}

	client := redis.NewClient(opt)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := client.Ping(pingCtx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}
	return &RedisSlots{client: client}, nil
}

func (r *RedisSlots) Get(ctx context.Context, key string) (string, bool, error) {
	v, err := r.client.Get(ctx, key).Result()
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("redis get %s: %w", key, err)
	}
	return v, true, nil
}

func (r *RedisSlots) Set(ctx context.Context, key, value string) error {
	if err := r.client.Set(ctx, key, value, 0).Err(); err != nil {
		return fmt.Errorf("redis set %s: %w", key, err)
	}
	return nil
}

func (r *RedisSlots) Delete(ctx context.Context, key string) error {
	if err := r.client.Del(ctx, key).Err(); err != nil {
		return fmt.Errorf("redis del %s: %w", key, err)
	}
	return nil
}

// Close releases the Redis connection pool.
func (r *RedisSlots) Close() error {
	return r.client.Close()
}

// Compile-time interface checks.
var (
	_ Slots = (*MemorySlots)(nil)
	_ Slots = (*FileSlots)(nil)
	_ Slots = (*RedisSlots)(nil)
)
