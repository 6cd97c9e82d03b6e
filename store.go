package main

import (
	"context"
	"errors"
	"fmt"
	"iter"
	"strconv"

	"github.com/go-redis/redis/v8"
)

// Store is the durable id-to-item map plus the id allocation counter.
type Store interface {
	// AllocateID returns the current counter value and advances the counter.
	AllocateID(ctx context.Context) (uint64, error)
	// Get returns the item stored under id.
	Get(ctx context.Context, id uint64) (Item, bool, error)
	// Put inserts or overwrites the item stored under item.ID.
	Put(ctx context.Context, item Item) error
	// Remove deletes the item stored under id and returns it.
	Remove(ctx context.Context, id uint64) (Item, bool, error)
	// Iterate starts a fresh traversal of all items in ascending id order.
	Iterate(ctx context.Context) iter.Seq2[Item, error]
	Close() error
}

const (
	redisCounterKey = "items:next_id"
	redisIndexKey   = "items"
	redisPageSize   = 100
)

// RedisStore provides item persistence in Redis.
type RedisStore struct {
	client *redis.Client
}

// NewRedisStore creates a new RedisStore.
func NewRedisStore(client *redis.Client) *RedisStore {
	return &RedisStore{client: client}
}

func redisItemKey(id uint64) string {
	return fmt.Sprintf("item:%d", id)
}

// redisIndexMember zero-pads id so that members sharing score 0 sort
// lexicographically in ascending id order over the full uint64 range.
func redisIndexMember(id uint64) string {
	return fmt.Sprintf("%020d", id)
}

// AllocateID increments the counter key; INCR yields the post-increment value.
func (s *RedisStore) AllocateID(ctx context.Context) (uint64, error) {
	n, err := s.client.Incr(ctx, redisCounterKey).Result()
	if err != nil {
		return 0, fmt.Errorf("advance id counter: %w", err)
	}
	if n < 1 {
		return 0, fmt.Errorf("advance id counter: unexpected value %d", n)
	}
	return uint64(n - 1), nil
}

// Get retrieves an item by ID.
func (s *RedisStore) Get(ctx context.Context, id uint64) (Item, bool, error) {
	data, err := s.client.Get(ctx, redisItemKey(id)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return Item{}, false, nil
		}
		return Item{}, false, err
	}
	item, err := decodeItem(id, data)
	if err != nil {
		return Item{}, false, err
	}
	return item, true, nil
}

// Put stores a new or updated item and indexes its id.
func (s *RedisStore) Put(ctx context.Context, item Item) error {
	data, err := encodeItem(item)
	if err != nil {
		return err
	}
	_, err = s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Set(ctx, redisItemKey(item.ID), data, 0)
		pipe.ZAdd(ctx, redisIndexKey, &redis.Z{Score: 0, Member: redisIndexMember(item.ID)})
		return nil
	})
	return err
}

// Remove deletes an item and its index entry.
func (s *RedisStore) Remove(ctx context.Context, id uint64) (Item, bool, error) {
	item, ok, err := s.Get(ctx, id)
	if err != nil || !ok {
		return Item{}, ok, err
	}
	_, err = s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Del(ctx, redisItemKey(id))
		pipe.ZRem(ctx, redisIndexKey, redisIndexMember(id))
		return nil
	})
	if err != nil {
		return Item{}, false, err
	}
	return item, true, nil
}

// Iterate pages through the id index and fetches each page with one pipeline.
func (s *RedisStore) Iterate(ctx context.Context) iter.Seq2[Item, error] {
	return func(yield func(Item, error) bool) {
		var start int64
		for {
			members, err := s.client.ZRange(ctx, redisIndexKey, start, start+redisPageSize-1).Result()
			if err != nil {
				yield(Item{}, err)
				return
			}
			if len(members) == 0 {
				return
			}
			ids := make([]uint64, len(members))
			for i, m := range members {
				id, err := strconv.ParseUint(m, 10, 64)
				if err != nil {
					yield(Item{}, fmt.Errorf("%w: index member %q", ErrCorruptRecord, m))
					return
				}
				ids[i] = id
			}

			pipe := s.client.Pipeline()
			cmds := make([]*redis.StringCmd, len(ids))
			for i, id := range ids {
				cmds[i] = pipe.Get(ctx, redisItemKey(id))
			}
			if _, err := pipe.Exec(ctx); err != nil && !errors.Is(err, redis.Nil) {
				yield(Item{}, err)
				return
			}
			for i, cmd := range cmds {
				data, err := cmd.Bytes()
				if err != nil {
					if errors.Is(err, redis.Nil) {
						// removed between the index read and the fetch
						continue
					}
					yield(Item{}, err)
					return
				}
				item, err := decodeItem(ids[i], data)
				if !yield(item, err) || err != nil {
					return
				}
			}
			if len(members) < redisPageSize {
				return
			}
			start += redisPageSize
		}
	}
}

// Close releases the underlying client.
func (s *RedisStore) Close() error {
	return s.client.Close()
}
