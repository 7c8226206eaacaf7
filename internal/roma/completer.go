package roma

import "context"

// Completer is the single network dependency of the engine: it sends a
// prompt to an external completion service and returns text or an error.
// Executors that use it always carry a deterministic branch for when the
// call fails or returns a low-value reply.
type Completer interface {
	Complete(ctx context.Context, system, prompt string) (string, error)
}
