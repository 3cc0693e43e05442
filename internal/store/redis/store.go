// Package redis implements the signal store on Redis hashes. Each symbol
// owns two namespaces, open and closed, held as hashes keyed by push ID.
package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	goredis "github.com/go-redis/redis/v8"
	"github.com/google/uuid"

	"bullsignals/internal/model"
)

// Config configures the Redis signal store.
type Config struct {
	Addr     string // Redis address, e.g. "localhost:6379"
	Password string
	DB       int
}

// Store persists open and closed signal records. It satisfies
// model.SignalStore.
type Store struct {
	client *goredis.Client
}

// Client returns the underlying Redis client for health checks.
func (s *Store) Client() *goredis.Client { return s.client }

// New creates a Store and pings the server.
func New(cfg Config) (*Store, error) {
	client := goredis.NewClient(&goredis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("redis ping: %w", err)
	}

	log.Printf("[redis] connected to %s", cfg.Addr)
	return &Store{client: client}, nil
}

// Close releases the underlying connection pool.
func (s *Store) Close() error { return s.client.Close() }

func openKey(symbol string) string   { return "signals:" + symbol + ":open" }
func closedKey(symbol string) string { return "signals:" + symbol + ":closed" }

// Append writes s under a freshly generated push ID in the open namespace.
// UUIDs keep concurrent writers collision-free without coordination.
func (s *Store) Append(ctx context.Context, symbol string, sig *model.Signal) (string, error) {
	id := uuid.NewString()
	data, err := json.Marshal(sig)
	if err != nil {
		return "", &model.PersistenceError{Op: "append", Err: err}
	}
	if err := s.client.HSet(ctx, openKey(symbol), id, data).Err(); err != nil {
		return "", &model.PersistenceError{Op: "append", Err: err}
	}
	return id, nil
}

// ListOpen returns all open records for symbol keyed by ID.
func (s *Store) ListOpen(ctx context.Context, symbol string) (map[string]*model.Signal, error) {
	return s.list(ctx, openKey(symbol), "list open")
}

// ListClosed returns all closed records for symbol keyed by ID.
func (s *Store) ListClosed(ctx context.Context, symbol string) (map[string]*model.Signal, error) {
	return s.list(ctx, closedKey(symbol), "list closed")
}

func (s *Store) list(ctx context.Context, key, op string) (map[string]*model.Signal, error) {
	raw, err := s.client.HGetAll(ctx, key).Result()
	if err != nil {
		return nil, &model.PersistenceError{Op: op, Err: err}
	}
	out := make(map[string]*model.Signal, len(raw))
	for id, data := range raw {
		var sig model.Signal
		if err := json.Unmarshal([]byte(data), &sig); err != nil {
			// A corrupt record must not hide the rest of the namespace.
			log.Printf("[redis] skipping corrupt record %s in %s: %v", id, key, err)
			continue
		}
		out[id] = &sig
	}
	return out, nil
}

// UpdateLastPrice rewrites an open record with a fresh last_price. A record
// that vanished between list and update is not an error — another writer
// closed it first.
func (s *Store) UpdateLastPrice(ctx context.Context, symbol, id string, price float64) error {
	key := openKey(symbol)
	data, err := s.client.HGet(ctx, key, id).Result()
	if err == goredis.Nil {
		return nil
	}
	if err != nil {
		return &model.PersistenceError{Op: "update last_price", Err: err}
	}
	var sig model.Signal
	if err := json.Unmarshal([]byte(data), &sig); err != nil {
		return &model.PersistenceError{Op: "update last_price", Err: err}
	}
	sig.LastPrice = price
	updated, err := json.Marshal(&sig)
	if err != nil {
		return &model.PersistenceError{Op: "update last_price", Err: err}
	}
	if err := s.client.HSet(ctx, key, id, updated).Err(); err != nil {
		return &model.PersistenceError{Op: "update last_price", Err: err}
	}
	return nil
}

// WriteClosed writes a closed record under the same ID it held while open.
func (s *Store) WriteClosed(ctx context.Context, symbol, id string, sig *model.Signal) error {
	data, err := json.Marshal(sig)
	if err != nil {
		return &model.PersistenceError{Op: "write closed", Err: err}
	}
	if err := s.client.HSet(ctx, closedKey(symbol), id, data).Err(); err != nil {
		return &model.PersistenceError{Op: "write closed", Err: err}
	}
	return nil
}

// RemoveOpen deletes an open record. Deleting an absent ID is a no-op.
func (s *Store) RemoveOpen(ctx context.Context, symbol, id string) error {
	if err := s.client.HDel(ctx, openKey(symbol), id).Err(); err != nil {
		return &model.PersistenceError{Op: "remove open", Err: err}
	}
	return nil
}

// ClosedExists reports whether a closed record exists for id.
func (s *Store) ClosedExists(ctx context.Context, symbol, id string) (bool, error) {
	exists, err := s.client.HExists(ctx, closedKey(symbol), id).Result()
	if err != nil {
		return false, &model.PersistenceError{Op: "closed exists", Err: err}
	}
	return exists, nil
}
