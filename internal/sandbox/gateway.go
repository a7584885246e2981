package sandbox

import "context"

const (
	TypeFile      = "file"
	TypeDirectory = "directory"
)

// Entry is one record from a sandbox directory listing, prior to any
// tree assembly.
type Entry struct {
	Name string `json:"name"`
	Path string `json:"path"`
	Type string `json:"type"`
}

// Handle references a live sandbox on the provider side. Handles are not
// pooled; callers reconnect by id per operation.
type Handle struct {
	SandboxID string
}

// Gateway is the narrow facade over the remote sandbox provider. All
// operations are remote calls; failures surface immediately, no retries.
type Gateway interface {
	// Provision creates a fresh sandbox scaffolded from the configured
	// application template.
	Provision(ctx context.Context) (Handle, error)

	// Start launches the dev server inside the sandbox and returns its
	// externally reachable URL.
	Start(ctx context.Context, h Handle) (string, error)

	// Reconnect resolves an existing sandbox by id.
	Reconnect(ctx context.Context, sandboxID string) (Handle, error)

	// Terminate kills the sandbox. Terminating an already-dead sandbox
	// is an error the caller may choose to ignore.
	Terminate(ctx context.Context, h Handle) error

	ReadFile(ctx context.Context, h Handle, path string) (string, error)

	// WriteFile updates an existing file. Writing a path that does not
	// exist fails; creation goes through CreateEntry.
	WriteFile(ctx context.Context, h Handle, path, content string) error

	// CreateEntry creates a file (with optional initial content) or a
	// directory at path. kind is TypeFile or TypeDirectory.
	CreateEntry(ctx context.Context, h Handle, path, kind, content string) error

	DeleteEntry(ctx context.Context, h Handle, path string) error

	// List returns the flat recursive listing rooted at root.
	List(ctx context.Context, h Handle, root string) ([]Entry, error)
}
