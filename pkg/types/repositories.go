package types

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// CardRepository persists base cards and their original child collections.
type CardRepository interface {
	CreateCard(ctx context.Context, input CardCreate) (*Card, error)
	GetCard(ctx context.Context, id uuid.UUID) (*Card, error)
	ListCards(ctx context.Context, pagination Pagination) (CardPage, error)
	UpdateCard(ctx context.Context, id uuid.UUID, update CardUpdate) error
	DeleteCard(ctx context.Context, id uuid.UUID) error
	CountCards(ctx context.Context) (int, error)
}

// VersionRepository manages the version lifecycle for cards. Every mutation
// executes as a single transaction so the one-active-version invariant is
// never observable mid-flight.
type VersionRepository interface {
	CreateVersion(ctx context.Context, input VersionCreate) (*Version, error)
	GetVersion(ctx context.Context, id uuid.UUID) (*Version, error)
	ListVersions(ctx context.Context, cardID uuid.UUID) ([]Version, error)
	UpdateVersion(ctx context.Context, id uuid.UUID, update VersionUpdate) error
	SetActiveVersion(ctx context.Context, id uuid.UUID) error
	DeleteVersion(ctx context.Context, id uuid.UUID) error
	SaveProvenance(ctx context.Context, versionID uuid.UUID, prov Provenance) error
	NextExtractionTag(ctx context.Context, cardID uuid.UUID, baseTag string) (string, error)
}

// Clock abstracts time retrieval for deterministic testing.
type Clock interface {
	Now() time.Time
}

// IDGenerator abstracts UUID creation.
type IDGenerator interface {
	UUID() uuid.UUID
}

// Logger captures basic logging hooks used by the commands and repositories.
type Logger interface {
	Debug(msg string, fields ...any)
	Info(msg string, fields ...any)
	Error(msg string, err error, fields ...any)
}

// SystemClock defers to time.Now for production usage.
type SystemClock struct{}

// Now implements Clock.
func (SystemClock) Now() time.Time { return time.Now().UTC() }

// UUIDGenerator produces UUIDv4 identifiers.
type UUIDGenerator struct{}

// UUID implements IDGenerator.
func (UUIDGenerator) UUID() uuid.UUID { return uuid.New() }

// NopLogger discards all log lines.
type NopLogger struct{}

// Debug implements Logger.
func (NopLogger) Debug(string, ...any) {}

// Info implements Logger.
func (NopLogger) Info(string, ...any) {}

// Error implements Logger.
func (NopLogger) Error(string, error, ...any) {}
