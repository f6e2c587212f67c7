package query

import (
	"context"

	"github.com/cardfolio/go-cardfolio/pkg/types"
	gocommand "github.com/goliatone/go-command"
)

// VersionDetailQuery loads one version with its data, collections, and
// provenance.
type VersionDetailQuery struct {
	repo   types.VersionRepository
	logger types.Logger
}

// NewVersionDetailQuery constructs the detail query.
func NewVersionDetailQuery(repo types.VersionRepository, logger types.Logger) *VersionDetailQuery {
	return &VersionDetailQuery{repo: repo, logger: logger}
}

var _ gocommand.Querier[types.VersionDetailFilter, *types.Version] = (*VersionDetailQuery)(nil)

// Query returns the version or a not-found error.
func (q *VersionDetailQuery) Query(ctx context.Context, filter types.VersionDetailFilter) (*types.Version, error) {
	if q.repo == nil {
		return nil, ErrMissingVersionRepository
	}
	if err := filter.Validate(); err != nil {
		return nil, err
	}
	return q.repo.GetVersion(ctx, filter.VersionID)
}

// VersionListQuery lists every version of a card, newest first.
type VersionListQuery struct {
	repo   types.VersionRepository
	logger types.Logger
}

// NewVersionListQuery constructs the list query.
func NewVersionListQuery(repo types.VersionRepository, logger types.Logger) *VersionListQuery {
	return &VersionListQuery{repo: repo, logger: logger}
}

var _ gocommand.Querier[types.VersionListFilter, []types.Version] = (*VersionListQuery)(nil)

// Query returns the card's versions or card-not-found when the card is absent.
func (q *VersionListQuery) Query(ctx context.Context, filter types.VersionListFilter) ([]types.Version, error) {
	if q.repo == nil {
		return nil, ErrMissingVersionRepository
	}
	if err := filter.Validate(); err != nil {
		return nil, err
	}
	return q.repo.ListVersions(ctx, filter.CardID)
}
