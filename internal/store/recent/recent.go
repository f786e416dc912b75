// Package recent persists the most recently selected destinations across
// sessions, behind sqlite and postgres backends.
package recent

import (
	"context"

	"github.com/printhq/cloudprint/pkg/destination"
)

type Store interface {
	String() string
	Save(ctx context.Context, dest *destination.Destination) error
	List(ctx context.Context, limit int) ([]*destination.Destination, error)
	Close() error
}
