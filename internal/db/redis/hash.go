package redis

import (
	"context"
	"fmt"
	"maps"
	"slices"

	"github.com/redis/rueidis"

	"github.com/kailas-cloud/nodesearch/internal/db"
)

// Replace overwrites a hash: stale fields are dropped and the new ones set in
// key order, in one round-trip.
func (s *Store) Replace(ctx context.Context, key string, fields map[string]string) error {
	return s.ReplaceMulti(ctx, []db.HashSetItem{{Key: key, Fields: fields}})
}

// ReplaceMulti overwrites multiple hashes. Every item contributes a DEL and
// an HSET to a single DoMulti round-trip.
func (s *Store) ReplaceMulti(ctx context.Context, items []db.HashSetItem) error {
	if len(items) == 0 {
		return nil
	}

	cmds := make([]rueidis.Completed, 0, 2*len(items))
	for _, item := range items {
		cmds = append(cmds, s.b().Del().Key(item.Key).Build(), s.hset(item.Key, item.Fields))
	}

	results := s.client.DoMulti(ctx, cmds...)
	for i, res := range results {
		if err := res.Error(); err != nil {
			op := db.OpDel
			if i%2 == 1 {
				op = db.OpHSet
			}
			return &db.Error{Op: op, Err: fmt.Errorf("key %s: %w", items[i/2].Key, err)}
		}
	}
	return nil
}

func (s *Store) hset(key string, fields map[string]string) rueidis.Completed {
	cmd := s.b().Hset().Key(key).FieldValue()
	for _, k := range slices.Sorted(maps.Keys(fields)) {
		cmd = cmd.FieldValue(k, fields[k])
	}
	return cmd.Build()
}
