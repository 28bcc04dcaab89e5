// Package plugin holds the built-in release plugins and the hooks the
// orchestrator invokes on them, one per lifecycle phase.
package plugin

import (
	"context"

	"github.com/compozy/releasepipe/internal/domain"
)

// Plugin is a configured pipeline step. A plugin takes part in a phase by
// implementing the matching hook interface.
type Plugin interface {
	Name() string
}

// ConditionVerifier checks prerequisites such as credentials and files.
type ConditionVerifier interface {
	VerifyConditions(ctx context.Context, rc *Context) error
}

// CommitAnalyzer determines the release type from the collected commits.
type CommitAnalyzer interface {
	AnalyzeCommits(ctx context.Context, rc *Context) (domain.ReleaseType, error)
}

// ReleaseVerifier vetoes a computed release.
type ReleaseVerifier interface {
	VerifyRelease(ctx context.Context, rc *Context) error
}

// NotesGenerator contributes a section of the release notes.
type NotesGenerator interface {
	GenerateNotes(ctx context.Context, rc *Context) (string, error)
}

// Preparer rewrites files or commits before the tag is created.
type Preparer interface {
	Prepare(ctx context.Context, rc *Context) error
}

// Publisher distributes the release. A nil release means nothing to report.
type Publisher interface {
	Publish(ctx context.Context, rc *Context) (*domain.PublishedRelease, error)
}

// SuccessNotifier runs after every publisher succeeded.
type SuccessNotifier interface {
	Success(ctx context.Context, rc *Context) error
}

// FailureNotifier runs when any phase failed.
type FailureNotifier interface {
	Fail(ctx context.Context, rc *Context, cause error) error
}
