package redis

import (
	"context"
	"fmt"

	"github.com/redis/rueidis"

	"github.com/kailas-cloud/policyqa/internal/db"
)

// HMGetMulti fetches the given fields of many hashes in a single DoMulti round-trip.
// Missing fields are absent from the returned map.
func (s *Store) HMGetMulti(ctx context.Context, keys, fields []string) ([]map[string]string, error) {
	if len(keys) == 0 {
		return nil, nil
	}
	if len(fields) == 0 {
		return nil, fmt.Errorf("fields are required")
	}

	cmds := make([]rueidis.Completed, len(keys))
	for i, key := range keys {
		cmds[i] = s.b().Hmget().Key(key).Field(fields...).Build()
	}

	results := s.client.DoMulti(ctx, cmds...)
	out := make([]map[string]string, len(results))

	for i, res := range results {
		values, err := res.ToArray()
		if err != nil {
			return nil, &db.Error{Op: db.OpHMGet, Err: fmt.Errorf("key %s: %w", keys[i], err)}
		}
		m := make(map[string]string, len(fields))
		for j := 0; j < len(values) && j < len(fields); j++ {
			v, err := values[j].ToString()
			if err != nil {
				continue // nil reply: field missing
			}
			m[fields[j]] = v
		}
		out[i] = m
	}

	return out, nil
}

// Scan iterates keys matching a pattern.
func (s *Store) Scan(ctx context.Context, pattern string) ([]string, error) {
	var keys []string
	var cursor uint64

	for {
		cmd := s.b().Scan().Cursor(cursor).Match(pattern).Count(500).Build()
		res, err := s.do(ctx, cmd).AsScanEntry()
		if err != nil {
			return nil, &db.Error{Op: db.OpScan, Err: err}
		}
		keys = append(keys, res.Elements...)
		cursor = res.Cursor
		if cursor == 0 {
			break
		}
	}

	return keys, nil
}
