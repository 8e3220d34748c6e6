// Package relay provides the streaming chat relay: it validates a chat
// request, picks the provider for the requested model and re-frames the
// provider's deltas as a server-sent event stream.
package relay

import (
	"time"

	"github.com/papercomputeco/quill/pkg/eventstream"
	"github.com/papercomputeco/quill/pkg/llm/provider"
	"github.com/papercomputeco/quill/pkg/models"
	"github.com/papercomputeco/quill/pkg/storage"
)

// Config is the relay server configuration.
type Config struct {
	// ListenAddr is the address to listen on (e.g., ":8080")
	ListenAddr string

	// Registry resolves request model ids. Defaults to models.Builtin().
	Registry *models.Registry

	// Providers maps provider names to adapters. A model whose provider is
	// missing from the set fails with 500 before streaming starts.
	Providers provider.Set

	// RequestTimeout bounds a whole upstream turn. Zero means no limit.
	RequestTimeout time.Duration

	// TurnStore records completed turns. If nil, recording is disabled.
	TurnStore storage.TurnStore

	// Publisher receives an event for every recorded turn. Optional.
	Publisher eventstream.Publisher
}
