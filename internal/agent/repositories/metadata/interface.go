// Package metadata stores small named values next to the asset snapshots,
// such as the active version.
package metadata

import (
	"context"
)

// ActiveVersionKey holds the version the agent serves from.
const ActiveVersionKey = "active_version"

type Repository interface {
	// Get returns the value for key; ok is false when key is unset.
	Get(ctx context.Context, key string) (value string, ok bool, err error)
	Set(ctx context.Context, key, value string) error
	Delete(ctx context.Context, key string) error
}
