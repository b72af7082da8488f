package storage

import (
	"context"
	"fmt"
)

// Count is one bucket of a grouped count.
type Count struct {
	Key   string `db:"key"`
	Count int    `db:"n"`
}

// Stats summarizes what the store holds.
type Stats struct {
	PostsBySpace []Count
	PostsByType  []Count
	AssetsByType []Count
	Users        int
}

func (s *Store) Stats(ctx context.Context) (Stats, error) {
	var st Stats
	if err := s.db.SelectContext(ctx, &st.PostsBySpace,
		`SELECT COALESCE(space, '') AS key, COUNT(*) AS n FROM post GROUP BY space ORDER BY n DESC, key`); err != nil {
		return st, fmt.Errorf("posts by space: %w", err)
	}
	if err := s.db.SelectContext(ctx, &st.PostsByType,
		`SELECT COALESCE(type, '') AS key, COUNT(*) AS n FROM post GROUP BY type ORDER BY key`); err != nil {
		return st, fmt.Errorf("posts by type: %w", err)
	}
	if err := s.db.SelectContext(ctx, &st.AssetsByType,
		`SELECT COALESCE(media_type, '') AS key, COUNT(*) AS n FROM asset GROUP BY media_type ORDER BY n DESC, key`); err != nil {
		return st, fmt.Errorf("assets by type: %w", err)
	}
	if err := s.db.GetContext(ctx, &st.Users, `SELECT COUNT(*) FROM user`); err != nil {
		return st, fmt.Errorf("users: %w", err)
	}
	return st, nil
}
