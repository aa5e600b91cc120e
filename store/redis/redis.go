/*
Package redis provides a Redis-backed booking.DocumentStore.

LAYOUT:
  {prefix}:{collection}:{key}   hash, one field per top-level document field
                                (JSON text) plus "__version"
  {prefix}:{collection}         set of document keys, for List

  HSET is a field-level merge, which is exactly the Write semantics.

CONDITIONAL COMMITS:
  Commit WATCHes every written document, checks the version preconditions,
  then writes everything in one MULTI/EXEC. If a watched document changes
  before EXEC, Redis aborts the transaction and Commit returns
  booking.ErrConcurrentModification. This is stricter than the contract:
  an unconditional write also loses when its document changed underneath,
  and the engine retries it.
*/
package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strconv"

	goredis "github.com/go-redis/redis/v8"
	"github.com/warp/ticket-engine/booking"
)

const versionField = "__version"

// DefaultPrefix namespaces every key written by the store.
const DefaultPrefix = "ticket-engine"

// Store implements booking.DocumentStore on Redis.
type Store struct {
	Client *goredis.Client
	prefix string
}

// New wraps a Redis client. An empty prefix uses DefaultPrefix.
func New(client *goredis.Client, prefix string) *Store {
	if prefix == "" {
		prefix = DefaultPrefix
	}
	return &Store{Client: client, prefix: prefix}
}

// Ping checks the connection.
func (s *Store) Ping(ctx context.Context) error {
	return s.Client.Ping(ctx).Err()
}

func (s *Store) Close() error { return s.Client.Close() }

func (s *Store) docKey(c booking.Collection, key string) string {
	return s.prefix + ":" + string(c) + ":" + key
}

func (s *Store) indexKey(c booking.Collection) string {
	return s.prefix + ":" + string(c)
}

// Get returns a document, or an empty Version 0 document if absent.
func (s *Store) Get(ctx context.Context, c booking.Collection, key string) (booking.Document, error) {
	hash, err := s.Client.HGetAll(ctx, s.docKey(c, key)).Result()
	if err != nil {
		return booking.Document{}, fmt.Errorf("redis: load %s/%s: %w", c, key, err)
	}
	return decodeHash(key, hash)
}

// List returns every document of a collection ordered by key.
func (s *Store) List(ctx context.Context, c booking.Collection) ([]booking.Document, error) {
	keys, err := s.Client.SMembers(ctx, s.indexKey(c)).Result()
	if err != nil {
		return nil, fmt.Errorf("redis: list %s: %w", c, err)
	}
	sort.Strings(keys)

	cmds := make([]*goredis.StringStringMapCmd, len(keys))
	_, err = s.Client.Pipelined(ctx, func(pipe goredis.Pipeliner) error {
		for i, k := range keys {
			cmds[i] = pipe.HGetAll(ctx, s.docKey(c, k))
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("redis: list %s: %w", c, err)
	}

	docs := make([]booking.Document, 0, len(keys))
	for i, k := range keys {
		doc, err := decodeHash(k, cmds[i].Val())
		if err != nil {
			return nil, err
		}
		if doc.Exists() {
			docs = append(docs, doc)
		}
	}
	return docs, nil
}

// Commit applies all writes in one WATCH/MULTI/EXEC transaction.
func (s *Store) Commit(ctx context.Context, writes ...booking.Write) error {
	keys := make([]string, len(writes))
	for i, w := range writes {
		keys[i] = s.docKey(w.Collection, w.Key)
	}

	txf := func(tx *goredis.Tx) error {
		for i, w := range writes {
			if w.MatchVersion == booking.AnyVersion {
				continue
			}
			version, err := tx.HGet(ctx, keys[i], versionField).Int64()
			if errors.Is(err, goredis.Nil) {
				version = 0
			} else if err != nil {
				return fmt.Errorf("redis: read version %s: %w", keys[i], err)
			}
			if version != w.MatchVersion {
				return booking.ErrConcurrentModification
			}
		}

		_, err := tx.TxPipelined(ctx, func(pipe goredis.Pipeliner) error {
			for i, w := range writes {
				if len(w.Fields) > 0 {
					values := make(map[string]interface{}, len(w.Fields))
					for field, raw := range w.Fields {
						values[field] = string(raw)
					}
					pipe.HSet(ctx, keys[i], values)
				}
				pipe.HIncrBy(ctx, keys[i], versionField, 1)
				pipe.SAdd(ctx, s.indexKey(w.Collection), w.Key)
			}
			return nil
		})
		return err
	}

	err := s.Client.Watch(ctx, txf, keys...)
	switch {
	case err == nil:
		return nil
	case errors.Is(err, goredis.TxFailedErr), errors.Is(err, booking.ErrConcurrentModification):
		return booking.ErrConcurrentModification
	default:
		return fmt.Errorf("redis: commit: %w", err)
	}
}

// Reset deletes every document of the booking collections.
func (s *Store) Reset(ctx context.Context) error {
	for _, c := range []booking.Collection{booking.RouteCollection, booking.LedgerCollection} {
		keys, err := s.Client.SMembers(ctx, s.indexKey(c)).Result()
		if err != nil {
			return err
		}
		del := []string{s.indexKey(c)}
		for _, k := range keys {
			del = append(del, s.docKey(c, k))
		}
		if err := s.Client.Del(ctx, del...).Err(); err != nil {
			return err
		}
	}
	return nil
}

func decodeHash(key string, hash map[string]string) (booking.Document, error) {
	doc := booking.Document{Key: key, Fields: make(map[string]json.RawMessage, len(hash))}
	for field, value := range hash {
		if field == versionField {
			v, err := strconv.ParseInt(value, 10, 64)
			if err != nil {
				return booking.Document{}, fmt.Errorf("redis: bad version on %s: %w", key, err)
			}
			doc.Version = v
			continue
		}
		if !json.Valid([]byte(value)) {
			return booking.Document{}, fmt.Errorf("redis: field %s of %s is not JSON", field, key)
		}
		doc.Fields[field] = json.RawMessage(value)
	}
	return doc, nil
}
