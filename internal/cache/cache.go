// Package cache holds the query cache the web front keeps per browser
// workspace. Entries are replaced only by an explicit re-fetch or removed by
// invalidation; the store TTL only reclaims entries of abandoned workspaces.
package cache

import (
	"context"
	"fmt"
)

// Store is implemented by Memory and by the Redis-backed store in internal/redis.
type Store interface {
	// Get decodes the entry at key into dst and reports whether it existed.
	Get(ctx context.Context, key string, dst any) (bool, error)
	Set(ctx context.Context, key string, value any) error
	Delete(ctx context.Context, keys ...string) error
	// DeletePrefix removes every entry whose key starts with prefix.
	DeletePrefix(ctx context.Context, prefix string) error
	Ping(ctx context.Context) error
}

// Key layout:
//   ws:{workspace}:isauth         session gate result
//   ws:{workspace}:poll_list      the dashboard's visible list
//   ws:{workspace}:poll:{poll_id} a single poll for the voting view

func WorkspacePrefix(workspaceID string) string {
	return fmt.Sprintf("ws:%s:", workspaceID)
}

func SessionKey(workspaceID string) string {
	return WorkspacePrefix(workspaceID) + "isauth"
}

func PollListKey(workspaceID string) string {
	return WorkspacePrefix(workspaceID) + "poll_list"
}

func PollKey(workspaceID, pollID string) string {
	return WorkspacePrefix(workspaceID) + "poll:" + pollID
}
