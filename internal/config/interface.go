package config

import (
	"context"

	"github.com/vk/girder/internal/source"
)

// Loader is the interface for a format-specific configuration loader. It
// reads declaration files from the given paths, translates them into the
// format-agnostic Model, and returns the matching semantic source model for
// that substrate.
type Loader interface {
	Load(ctx context.Context, paths ...string) (*Model, source.Model, error)
}
