package query

import (
	"context"
	"errors"

	"github.com/cardfolio/go-cardfolio/pkg/types"
	gocommand "github.com/goliatone/go-command"
)

const (
	defaultListLimit = 50
	maxListLimit     = 200
)

var (
	// ErrMissingCardRepository indicates the query has no card repository wired.
	ErrMissingCardRepository = errors.New("go-cardfolio: card repository required")
	// ErrMissingVersionRepository indicates the query has no version repository wired.
	ErrMissingVersionRepository = errors.New("go-cardfolio: version repository required")
)

// CardDetailQuery loads one card with its original collections.
type CardDetailQuery struct {
	repo   types.CardRepository
	logger types.Logger
}

// NewCardDetailQuery constructs the detail query.
func NewCardDetailQuery(repo types.CardRepository, logger types.Logger) *CardDetailQuery {
	return &CardDetailQuery{repo: repo, logger: logger}
}

var _ gocommand.Querier[types.CardDetailFilter, *types.Card] = (*CardDetailQuery)(nil)

// Query returns the card or a not-found error.
func (q *CardDetailQuery) Query(ctx context.Context, filter types.CardDetailFilter) (*types.Card, error) {
	if q.repo == nil {
		return nil, ErrMissingCardRepository
	}
	if err := filter.Validate(); err != nil {
		return nil, err
	}
	return q.repo.GetCard(ctx, filter.CardID)
}

// CardListQuery pages through cards, newest first.
type CardListQuery struct {
	repo   types.CardRepository
	logger types.Logger
}

// NewCardListQuery constructs the list query.
func NewCardListQuery(repo types.CardRepository, logger types.Logger) *CardListQuery {
	return &CardListQuery{repo: repo, logger: logger}
}

var _ gocommand.Querier[types.CardListFilter, types.CardPage] = (*CardListQuery)(nil)

// Query delegates to the repository after normalizing pagination.
func (q *CardListQuery) Query(ctx context.Context, filter types.CardListFilter) (types.CardPage, error) {
	if q.repo == nil {
		return types.CardPage{}, ErrMissingCardRepository
	}
	return q.repo.ListCards(ctx, normalizePagination(filter.Pagination))
}

func normalizePagination(p types.Pagination) types.Pagination {
	out := p
	if out.Limit <= 0 {
		out.Limit = defaultListLimit
	}
	if out.Limit > maxListLimit {
		out.Limit = maxListLimit
	}
	if out.Offset < 0 {
		out.Offset = 0
	}
	return out
}
