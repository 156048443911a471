package repository

import (
	"context"
	"fmt"

	"address_lookup_backend/platform/apperr"

	"github.com/redis/go-redis/v9"
)

// Redis stores each record as a hash under prefix+recordID.
type Redis struct {
	client *redis.Client
	prefix string
}

// NewRedis creates a redis-backed record store.
func NewRedis(client *redis.Client, prefix string) *Redis {
	return &Redis{client: client, prefix: prefix}
}

func (r *Redis) key(recordID string) string {
	return r.prefix + recordID
}

// FetchFields returns the requested hash fields present on the record.
func (r *Redis) FetchFields(ctx context.Context, recordID string, fields []string) (map[string]string, error) {
	key := r.key(recordID)

	exists, err := r.client.Exists(ctx, key).Result()
	if err != nil {
		return nil, fmt.Errorf("check record: %w", err)
	}
	if exists == 0 {
		return nil, apperr.NotFound(recordNotFoundMessage)
	}

	out := make(map[string]string, len(fields))
	if len(fields) == 0 {
		return out, nil
	}

	values, err := r.client.HMGet(ctx, key, fields...).Result()
	if err != nil {
		return nil, fmt.Errorf("fetch record fields: %w", err)
	}
	for i, v := range values {
		if v == nil {
			continue
		}
		if s, ok := v.(string); ok {
			out[fields[i]] = s
		}
	}
	return out, nil
}

// UpdateFields writes values into an existing record hash. The key is
// WATCHed so a concurrent delete aborts the write instead of recreating it.
func (r *Redis) UpdateFields(ctx context.Context, recordID string, fields map[string]string) error {
	if len(fields) == 0 {
		return nil
	}
	key := r.key(recordID)

	values := make(map[string]any, len(fields))
	for k, v := range fields {
		values[k] = v
	}

	err := r.client.Watch(ctx, func(tx *redis.Tx) error {
		exists, err := tx.Exists(ctx, key).Result()
		if err != nil {
			return fmt.Errorf("check record: %w", err)
		}
		if exists == 0 {
			return apperr.NotFound(recordNotFoundMessage)
		}

		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.HSet(ctx, key, values)
			return nil
		})
		return err
	}, key)
	if err != nil {
		if apperr.Is(err, apperr.KindNotFound) {
			return err
		}
		return fmt.Errorf("update record fields: %w", err)
	}
	return nil
}
