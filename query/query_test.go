package query

import (
	"context"
	"testing"

	"github.com/cardfolio/go-cardfolio/pkg/types"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

func TestCardDetailQuery(t *testing.T) {
	repo := &fakeCardRepo{cards: map[uuid.UUID]*types.Card{}}
	q := NewCardDetailQuery(repo, types.NopLogger{})

	_, err := q.Query(context.Background(), types.CardDetailFilter{})
	require.ErrorIs(t, err, types.ErrCardIDRequired)

	id := uuid.New()
	repo.cards[id] = &types.Card{ID: id, Hash: "sha256:abc"}

	card, err := q.Query(context.Background(), types.CardDetailFilter{CardID: id})
	require.NoError(t, err)
	require.Equal(t, "sha256:abc", card.Hash)

	_, err = q.Query(context.Background(), types.CardDetailFilter{CardID: uuid.New()})
	require.True(t, types.IsNotFound(err))
}

func TestCardDetailQuery_MissingRepo(t *testing.T) {
	q := NewCardDetailQuery(nil, types.NopLogger{})
	_, err := q.Query(context.Background(), types.CardDetailFilter{CardID: uuid.New()})
	require.ErrorIs(t, err, ErrMissingCardRepository)
}

func TestCardListQuery_NormalizesPagination(t *testing.T) {
	repo := &fakeCardRepo{cards: map[uuid.UUID]*types.Card{}}
	q := NewCardListQuery(repo, types.NopLogger{})

	_, err := q.Query(context.Background(), types.CardListFilter{
		Pagination: types.Pagination{Limit: -5, Offset: -1},
	})
	require.NoError(t, err)
	require.Equal(t, defaultListLimit, repo.lastPagination.Limit)
	require.Equal(t, 0, repo.lastPagination.Offset)

	_, err = q.Query(context.Background(), types.CardListFilter{
		Pagination: types.Pagination{Limit: 10_000},
	})
	require.NoError(t, err)
	require.Equal(t, maxListLimit, repo.lastPagination.Limit)
}

func TestVersionQueries(t *testing.T) {
	repo := &fakeVersionRepo{versions: map[uuid.UUID]*types.Version{}}
	detail := NewVersionDetailQuery(repo, types.NopLogger{})
	list := NewVersionListQuery(repo, types.NopLogger{})

	_, err := detail.Query(context.Background(), types.VersionDetailFilter{})
	require.ErrorIs(t, err, types.ErrVersionIDRequired)

	_, err = list.Query(context.Background(), types.VersionListFilter{})
	require.ErrorIs(t, err, types.ErrCardIDRequired)

	cardID := uuid.New()
	versionID := uuid.New()
	repo.versions[versionID] = &types.Version{ID: versionID, CardID: cardID, Tag: "v1"}

	v, err := detail.Query(context.Background(), types.VersionDetailFilter{VersionID: versionID})
	require.NoError(t, err)
	require.Equal(t, "v1", v.Tag)

	listed, err := list.Query(context.Background(), types.VersionListFilter{CardID: cardID})
	require.NoError(t, err)
	require.Len(t, listed, 1)
}

type fakeCardRepo struct {
	cards          map[uuid.UUID]*types.Card
	lastPagination types.Pagination
}

func (f *fakeCardRepo) CreateCard(_ context.Context, _ types.CardCreate) (*types.Card, error) {
	return nil, nil
}

func (f *fakeCardRepo) GetCard(_ context.Context, id uuid.UUID) (*types.Card, error) {
	card, ok := f.cards[id]
	if !ok {
		return nil, types.CardNotFound(id)
	}
	return card, nil
}

func (f *fakeCardRepo) ListCards(_ context.Context, pagination types.Pagination) (types.CardPage, error) {
	f.lastPagination = pagination
	return types.CardPage{}, nil
}

func (f *fakeCardRepo) UpdateCard(_ context.Context, _ uuid.UUID, _ types.CardUpdate) error {
	return nil
}

func (f *fakeCardRepo) DeleteCard(_ context.Context, _ uuid.UUID) error { return nil }

func (f *fakeCardRepo) CountCards(_ context.Context) (int, error) { return len(f.cards), nil }

type fakeVersionRepo struct {
	versions map[uuid.UUID]*types.Version
}

func (f *fakeVersionRepo) CreateVersion(_ context.Context, _ types.VersionCreate) (*types.Version, error) {
	return nil, nil
}

func (f *fakeVersionRepo) GetVersion(_ context.Context, id uuid.UUID) (*types.Version, error) {
	v, ok := f.versions[id]
	if !ok {
		return nil, types.VersionNotFound(id)
	}
	return v, nil
}

func (f *fakeVersionRepo) ListVersions(_ context.Context, cardID uuid.UUID) ([]types.Version, error) {
	var out []types.Version
	for _, v := range f.versions {
		if v.CardID == cardID {
			out = append(out, *v)
		}
	}
	return out, nil
}

func (f *fakeVersionRepo) UpdateVersion(_ context.Context, _ uuid.UUID, _ types.VersionUpdate) error {
	return nil
}

func (f *fakeVersionRepo) SetActiveVersion(_ context.Context, _ uuid.UUID) error { return nil }

func (f *fakeVersionRepo) DeleteVersion(_ context.Context, _ uuid.UUID) error { return nil }

func (f *fakeVersionRepo) SaveProvenance(_ context.Context, _ uuid.UUID, _ types.Provenance) error {
	return nil
}

func (f *fakeVersionRepo) NextExtractionTag(_ context.Context, _ uuid.UUID, baseTag string) (string, error) {
	return baseTag, nil
}
