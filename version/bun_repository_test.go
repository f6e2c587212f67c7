package version

import (
	"context"
	"database/sql"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/cardfolio/go-cardfolio/card"
	"github.com/cardfolio/go-cardfolio/pkg/types"
	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"
	"github.com/stretchr/testify/require"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/sqlitedialect"
)

func TestRepository_CreateFromBase(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)
	applyDDL(t, db)
	cards, repo := newRepos(t, db)

	base, err := cards.CreateCard(ctx, types.CardCreate{
		Hash: "sha256:base",
		Fields: types.ContactFields{
			GivenName:  "Maya",
			FamilyName: "Chen",
			JobTitle:   "Engineer",
		},
		Collections: types.Collections{
			PhoneNumbers:   []string{"+1 555 0100"},
			EmailAddresses: []string{"maya@acme.example"},
			PostalAddresses: []types.PostalAddress{
				{Street: "1 Main St", City: "Springfield"},
			},
		},
	})
	require.NoError(t, err)

	created, err := repo.CreateVersion(ctx, types.VersionCreate{
		CardID: base.ID,
		Tag:    "original",
	})
	require.NoError(t, err)
	require.True(t, created.IsActive)
	require.Equal(t, "original", created.Tag)
	require.NotNil(t, created.Data)
	require.Equal(t, "Maya", created.Data.GivenName)
	require.Equal(t, "Engineer", created.Data.JobTitle)
	require.Equal(t, []string{"+1 555 0100"}, created.PhoneNumbers)
	require.Equal(t, []string{"maya@acme.example"}, created.EmailAddresses)
	require.Len(t, created.PostalAddresses, 1)
	require.Equal(t, "Springfield", created.PostalAddresses[0].City)
}

func TestRepository_CreateBlank(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)
	applyDDL(t, db)
	cards, repo := newRepos(t, db)

	base, err := cards.CreateCard(ctx, types.CardCreate{
		Hash:   "sha256:blank",
		Fields: types.ContactFields{GivenName: "Maya"},
		Collections: types.Collections{
			PhoneNumbers: []string{"+1 555 0100"},
		},
	})
	require.NoError(t, err)

	created, err := repo.CreateVersion(ctx, types.VersionCreate{
		CardID: base.ID,
		Tag:    "manual",
		Blank:  true,
	})
	require.NoError(t, err)
	require.NotNil(t, created.Data)
	require.Empty(t, created.Data.GivenName)
	require.Empty(t, created.PhoneNumbers)
}

func TestRepository_CreateDeactivatesSiblings(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)
	applyDDL(t, db)
	cards, repo := newRepos(t, db)

	base, err := cards.CreateCard(ctx, types.CardCreate{Hash: "sha256:sib"})
	require.NoError(t, err)

	first, err := repo.CreateVersion(ctx, types.VersionCreate{CardID: base.ID, Tag: "v1"})
	require.NoError(t, err)
	second, err := repo.CreateVersion(ctx, types.VersionCreate{CardID: base.ID, Tag: "v2"})
	require.NoError(t, err)

	require.True(t, second.IsActive)
	requireSingleActive(t, ctx, db, base.ID, second.ID)

	older, err := repo.GetVersion(ctx, first.ID)
	require.NoError(t, err)
	require.False(t, older.IsActive)
}

func TestRepository_CreateFromSource(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)
	applyDDL(t, db)
	cards, repo := newRepos(t, db)

	base, err := cards.CreateCard(ctx, types.CardCreate{
		Hash:   "sha256:src",
		Fields: types.ContactFields{GivenName: "Maya"},
		Collections: types.Collections{
			EmailAddresses: []string{"base@acme.example"},
		},
	})
	require.NoError(t, err)

	// Blank source: it carries a data row and whatever the update adds, but
	// no email rows of its own.
	source, err := repo.CreateVersion(ctx, types.VersionCreate{CardID: base.ID, Tag: "edited", Blank: true})
	require.NoError(t, err)

	name := "Margaret"
	err = repo.UpdateVersion(ctx, source.ID, types.VersionUpdate{
		GivenName:    &name,
		PhoneNumbers: []string{"+1 555 0199"},
	})
	require.NoError(t, err)

	copied, err := repo.CreateVersion(ctx, types.VersionCreate{
		CardID:          base.ID,
		Tag:             "copy",
		SourceVersionID: source.ID,
	})
	require.NoError(t, err)
	require.NotNil(t, copied.Data)
	require.Equal(t, "Margaret", copied.Data.GivenName)
	require.Equal(t, []string{"+1 555 0199"}, copied.PhoneNumbers)
	// Source has no email rows, so the group falls back to the base card.
	require.Equal(t, []string{"base@acme.example"}, copied.EmailAddresses)
}

func TestRepository_CopyVersionDataRerunKeepsRows(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)
	applyDDL(t, db)
	cards, repo := newRepos(t, db)

	base, err := cards.CreateCard(ctx, types.CardCreate{
		Hash:   "sha256:rerun",
		Fields: types.ContactFields{GivenName: "Maya", JobTitle: "Engineer"},
		Collections: types.Collections{
			PhoneNumbers:   []string{"+1 555 0100", "+1 555 0101"},
			EmailAddresses: []string{"maya@acme.example"},
			PostalAddresses: []types.PostalAddress{
				{Street: "1 Main St", City: "Springfield"},
			},
		},
	})
	require.NoError(t, err)

	source, err := repo.CreateVersion(ctx, types.VersionCreate{CardID: base.ID, Tag: "v1"})
	require.NoError(t, err)
	target, err := repo.CreateVersion(ctx, types.VersionCreate{
		CardID:          base.ID,
		Tag:             "v2",
		SourceVersionID: source.ID,
	})
	require.NoError(t, err)

	before, err := repo.GetVersion(ctx, target.ID)
	require.NoError(t, err)

	err = db.RunInTx(ctx, &sql.TxOptions{}, func(ctx context.Context, tx bun.Tx) error {
		return repo.copyVersionData(ctx, tx, source.ID, target.ID)
	})
	require.NoError(t, err)

	after, err := repo.GetVersion(ctx, target.ID)
	require.NoError(t, err)
	require.Equal(t, before.Data, after.Data)
	require.Equal(t, before.PhoneNumbers, after.PhoneNumbers)
	require.Equal(t, before.EmailAddresses, after.EmailAddresses)
	require.Equal(t, before.PostalAddresses, after.PostalAddresses)

	dataCount, err := db.NewSelect().Model((*DataRow)(nil)).
		Where("version_id = ?", target.ID).Count(ctx)
	require.NoError(t, err)
	require.Equal(t, 1, dataCount)

	phoneCount, err := db.NewSelect().Model((*PhoneNumberRow)(nil)).
		Where("version_id = ?", target.ID).Count(ctx)
	require.NoError(t, err)
	require.Equal(t, 2, phoneCount)

	addressCount, err := db.NewSelect().Model((*PostalAddressRow)(nil)).
		Where("version_id = ?", target.ID).Count(ctx)
	require.NoError(t, err)
	require.Equal(t, 1, addressCount)
}

func TestRepository_CreateMissingSource(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)
	applyDDL(t, db)
	cards, repo := newRepos(t, db)

	base, err := cards.CreateCard(ctx, types.CardCreate{Hash: "sha256:nosrc"})
	require.NoError(t, err)

	_, err = repo.CreateVersion(ctx, types.VersionCreate{
		CardID:          base.ID,
		Tag:             "copy",
		SourceVersionID: uuid.New(),
	})
	require.Error(t, err)
	require.True(t, types.IsNotFound(err))

	versions, err := repo.ListVersions(ctx, base.ID)
	require.NoError(t, err)
	require.Empty(t, versions)
}

func TestRepository_CreateMissingCard(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)
	applyDDL(t, db)
	_, repo := newRepos(t, db)

	_, err := repo.CreateVersion(ctx, types.VersionCreate{CardID: uuid.New(), Tag: "v1"})
	require.Error(t, err)
	require.True(t, types.IsNotFound(err))
}

func TestRepository_CreateRequiresTag(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)
	applyDDL(t, db)
	cards, repo := newRepos(t, db)

	base, err := cards.CreateCard(ctx, types.CardCreate{Hash: "sha256:tag"})
	require.NoError(t, err)

	_, err = repo.CreateVersion(ctx, types.VersionCreate{CardID: base.ID, Tag: "  "})
	require.Error(t, err)
	require.True(t, types.IsValidation(err))
}

func TestRepository_UpdateFieldsAndCollections(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)
	applyDDL(t, db)
	cards, repo := newRepos(t, db)

	base, err := cards.CreateCard(ctx, types.CardCreate{
		Hash:   "sha256:upd",
		Fields: types.ContactFields{GivenName: "Maya", JobTitle: "Engineer"},
		Collections: types.Collections{
			PhoneNumbers:   []string{"+1 555 0100"},
			EmailAddresses: []string{"maya@acme.example"},
		},
	})
	require.NoError(t, err)

	created, err := repo.CreateVersion(ctx, types.VersionCreate{CardID: base.ID, Tag: "work"})
	require.NoError(t, err)

	title := "Staff Engineer"
	notes := "cleanup pass"
	err = repo.UpdateVersion(ctx, created.ID, types.VersionUpdate{
		JobTitle:       &title,
		Notes:          &notes,
		EmailAddresses: []string{"maya.chen@acme.example", "  "},
		PhoneNumbers:   []string{},
	})
	require.NoError(t, err)

	fetched, err := repo.GetVersion(ctx, created.ID)
	require.NoError(t, err)
	require.Equal(t, "Staff Engineer", fetched.Data.JobTitle)
	require.Equal(t, "Maya", fetched.Data.GivenName)
	require.Equal(t, "cleanup pass", fetched.Notes)
	require.Equal(t, []string{"maya.chen@acme.example"}, fetched.EmailAddresses)
	require.Empty(t, fetched.PhoneNumbers)
}

func TestRepository_UpdateActivation(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)
	applyDDL(t, db)
	cards, repo := newRepos(t, db)

	base, err := cards.CreateCard(ctx, types.CardCreate{Hash: "sha256:act"})
	require.NoError(t, err)

	first, err := repo.CreateVersion(ctx, types.VersionCreate{CardID: base.ID, Tag: "v1"})
	require.NoError(t, err)
	_, err = repo.CreateVersion(ctx, types.VersionCreate{CardID: base.ID, Tag: "v2"})
	require.NoError(t, err)

	active := true
	err = repo.UpdateVersion(ctx, first.ID, types.VersionUpdate{IsActive: &active})
	require.NoError(t, err)

	requireSingleActive(t, ctx, db, base.ID, first.ID)
}

func TestRepository_UpdateRejectsInvalidEmail(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)
	applyDDL(t, db)
	cards, repo := newRepos(t, db)

	base, err := cards.CreateCard(ctx, types.CardCreate{Hash: "sha256:mail"})
	require.NoError(t, err)
	created, err := repo.CreateVersion(ctx, types.VersionCreate{CardID: base.ID, Tag: "v1"})
	require.NoError(t, err)

	err = repo.UpdateVersion(ctx, created.ID, types.VersionUpdate{
		EmailAddresses: []string{"broken"},
	})
	require.Error(t, err)
	require.True(t, types.IsValidation(err))
}

func TestRepository_UpdateMissingVersion(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)
	applyDDL(t, db)
	_, repo := newRepos(t, db)

	notes := "x"
	err := repo.UpdateVersion(ctx, uuid.New(), types.VersionUpdate{Notes: &notes})
	require.Error(t, err)
	require.True(t, types.IsNotFound(err))
}

func TestRepository_SetActiveVersion(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)
	applyDDL(t, db)
	cards, repo := newRepos(t, db)

	base, err := cards.CreateCard(ctx, types.CardCreate{Hash: "sha256:set"})
	require.NoError(t, err)

	first, err := repo.CreateVersion(ctx, types.VersionCreate{CardID: base.ID, Tag: "v1"})
	require.NoError(t, err)
	second, err := repo.CreateVersion(ctx, types.VersionCreate{CardID: base.ID, Tag: "v2"})
	require.NoError(t, err)

	require.NoError(t, repo.SetActiveVersion(ctx, first.ID))
	requireSingleActive(t, ctx, db, base.ID, first.ID)

	// Activating the already-active version keeps the invariant.
	require.NoError(t, repo.SetActiveVersion(ctx, first.ID))
	requireSingleActive(t, ctx, db, base.ID, first.ID)

	require.NoError(t, repo.SetActiveVersion(ctx, second.ID))
	requireSingleActive(t, ctx, db, base.ID, second.ID)

	err = repo.SetActiveVersion(ctx, uuid.New())
	require.Error(t, err)
	require.True(t, types.IsNotFound(err))
}

func TestRepository_DeleteOnlyVersionRefused(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)
	applyDDL(t, db)
	cards, repo := newRepos(t, db)

	base, err := cards.CreateCard(ctx, types.CardCreate{Hash: "sha256:only"})
	require.NoError(t, err)

	only, err := repo.CreateVersion(ctx, types.VersionCreate{CardID: base.ID, Tag: "v1"})
	require.NoError(t, err)

	err = repo.DeleteVersion(ctx, only.ID)
	require.Error(t, err)
	require.True(t, types.IsOnlyVersion(err))

	kept, err := repo.GetVersion(ctx, only.ID)
	require.NoError(t, err)
	require.True(t, kept.IsActive)
}

func TestRepository_DeleteActivePromotesNewest(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)
	applyDDL(t, db)

	clock := &stepClock{}
	cards, err := card.NewRepository(card.RepositoryConfig{DB: db, Clock: clock})
	require.NoError(t, err)
	repo, err := NewRepository(RepositoryConfig{DB: db, Clock: clock})
	require.NoError(t, err)

	base, err := cards.CreateCard(ctx, types.CardCreate{Hash: "sha256:promo"})
	require.NoError(t, err)

	oldest, err := repo.CreateVersion(ctx, types.VersionCreate{CardID: base.ID, Tag: "v1"})
	require.NoError(t, err)
	middle, err := repo.CreateVersion(ctx, types.VersionCreate{CardID: base.ID, Tag: "v2"})
	require.NoError(t, err)
	newest, err := repo.CreateVersion(ctx, types.VersionCreate{CardID: base.ID, Tag: "v3"})
	require.NoError(t, err)

	require.NoError(t, repo.DeleteVersion(ctx, newest.ID))

	// The most recently created survivor takes over, not the previously active.
	requireSingleActive(t, ctx, db, base.ID, middle.ID)

	require.NoError(t, repo.DeleteVersion(ctx, middle.ID))
	requireSingleActive(t, ctx, db, base.ID, oldest.ID)

	_, err = repo.GetVersion(ctx, newest.ID)
	require.True(t, types.IsNotFound(err))
}

func TestRepository_DeleteInactiveKeepsActive(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)
	applyDDL(t, db)
	cards, repo := newRepos(t, db)

	base, err := cards.CreateCard(ctx, types.CardCreate{Hash: "sha256:keep"})
	require.NoError(t, err)

	first, err := repo.CreateVersion(ctx, types.VersionCreate{CardID: base.ID, Tag: "v1"})
	require.NoError(t, err)
	second, err := repo.CreateVersion(ctx, types.VersionCreate{CardID: base.ID, Tag: "v2"})
	require.NoError(t, err)

	require.NoError(t, repo.DeleteVersion(ctx, first.ID))
	requireSingleActive(t, ctx, db, base.ID, second.ID)
}

func TestRepository_SaveProvenance(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)
	applyDDL(t, db)
	cards, repo := newRepos(t, db)

	base, err := cards.CreateCard(ctx, types.CardCreate{Hash: "sha256:prov"})
	require.NoError(t, err)
	created, err := repo.CreateVersion(ctx, types.VersionCreate{CardID: base.ID, Tag: "extracted"})
	require.NoError(t, err)

	extractedAt := time.Date(2026, 3, 14, 9, 26, 53, 0, time.UTC)
	err = repo.SaveProvenance(ctx, created.ID, types.Provenance{
		ModelID:        "vision-large",
		ProgramName:    "card-extractor",
		ProgramVersion: "3",
		Provider:       "inhouse",
		ExtractedAt:    extractedAt,
	})
	require.NoError(t, err)

	fetched, err := repo.GetVersion(ctx, created.ID)
	require.NoError(t, err)
	require.NotNil(t, fetched.Provenance)
	require.Equal(t, "vision-large", fetched.Provenance.ModelID)
	require.True(t, extractedAt.Equal(fetched.Provenance.ExtractedAt))

	// A second write replaces the previous row.
	err = repo.SaveProvenance(ctx, created.ID, types.Provenance{ModelID: "vision-small"})
	require.NoError(t, err)

	fetched, err = repo.GetVersion(ctx, created.ID)
	require.NoError(t, err)
	require.Equal(t, "vision-small", fetched.Provenance.ModelID)

	err = repo.SaveProvenance(ctx, uuid.New(), types.Provenance{ModelID: "x"})
	require.Error(t, err)
	require.True(t, types.IsNotFound(err))
}

func TestRepository_ListVersions(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)
	applyDDL(t, db)

	clock := &stepClock{}
	cards, err := card.NewRepository(card.RepositoryConfig{DB: db, Clock: clock})
	require.NoError(t, err)
	repo, err := NewRepository(RepositoryConfig{DB: db, Clock: clock})
	require.NoError(t, err)

	base, err := cards.CreateCard(ctx, types.CardCreate{Hash: "sha256:list"})
	require.NoError(t, err)

	_, err = repo.CreateVersion(ctx, types.VersionCreate{CardID: base.ID, Tag: "v1"})
	require.NoError(t, err)
	_, err = repo.CreateVersion(ctx, types.VersionCreate{CardID: base.ID, Tag: "v2"})
	require.NoError(t, err)

	versions, err := repo.ListVersions(ctx, base.ID)
	require.NoError(t, err)
	require.Len(t, versions, 2)
	require.Equal(t, "v2", versions[0].Tag)
	require.Equal(t, "v1", versions[1].Tag)
	require.NotNil(t, versions[0].Data)

	_, err = repo.ListVersions(ctx, uuid.New())
	require.Error(t, err)
	require.True(t, types.IsNotFound(err))
}

func TestRepository_NextExtractionTag(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)
	applyDDL(t, db)
	cards, repo := newRepos(t, db)

	base, err := cards.CreateCard(ctx, types.CardCreate{Hash: "sha256:tags"})
	require.NoError(t, err)

	tag, err := repo.NextExtractionTag(ctx, base.ID, "extracted_vision_v3")
	require.NoError(t, err)
	require.Equal(t, "extracted_vision_v3", tag)

	_, err = repo.CreateVersion(ctx, types.VersionCreate{CardID: base.ID, Tag: tag})
	require.NoError(t, err)

	tag, err = repo.NextExtractionTag(ctx, base.ID, "extracted_vision_v3")
	require.NoError(t, err)
	require.Equal(t, "extracted_vision_v3-2", tag)

	_, err = repo.CreateVersion(ctx, types.VersionCreate{CardID: base.ID, Tag: tag})
	require.NoError(t, err)

	tag, err = repo.NextExtractionTag(ctx, base.ID, "extracted_vision_v3")
	require.NoError(t, err)
	require.Equal(t, "extracted_vision_v3-3", tag)
}

func newRepos(t *testing.T, db *bun.DB) (*card.Repository, *Repository) {
	cards, err := card.NewRepository(card.RepositoryConfig{DB: db})
	require.NoError(t, err)
	repo, err := NewRepository(RepositoryConfig{DB: db})
	require.NoError(t, err)
	return cards, repo
}

func requireSingleActive(t *testing.T, ctx context.Context, db *bun.DB, cardID, wantID uuid.UUID) {
	t.Helper()
	var ids []string
	err := db.NewSelect().Model((*Record)(nil)).
		Column("id").
		Where("card_id = ?", cardID).
		Where("is_active = ?", true).
		Scan(ctx, &ids)
	require.NoError(t, err)
	require.Len(t, ids, 1)
	require.Equal(t, wantID.String(), ids[0])
}

type stepClock struct {
	n int
}

func (c *stepClock) Now() time.Time {
	c.n++
	return time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC).Add(time.Duration(c.n) * time.Second)
}

func newTestDB(t *testing.T) *bun.DB {
	sqldb, err := sql.Open("sqlite3", ":memory:?cache=shared")
	require.NoError(t, err)
	sqldb.SetMaxOpenConns(1)
	db := bun.NewDB(sqldb, sqlitedialect.New())
	t.Cleanup(func() {
		_ = db.Close()
		_ = sqldb.Close()
	})
	return db
}

func applyDDL(t *testing.T, db *bun.DB) {
	for _, name := range []string{
		"../data/sql/migrations/sqlite/00001_cards.up.sql",
		"../data/sql/migrations/sqlite/00002_card_versions.up.sql",
	} {
		content, err := os.ReadFile(name)
		require.NoError(t, err)
		for _, stmt := range splitStatements(string(content)) {
			if strings.TrimSpace(stmt) == "" {
				continue
			}
			_, err := db.Exec(stmt)
			require.NoError(t, err)
		}
	}
}

func splitStatements(sql string) []string {
	lines := strings.Split(sql, "\n")
	var builder strings.Builder
	var statements []string
	for _, line := range lines {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "--") {
			continue
		}
		builder.WriteString(line)
		if strings.HasSuffix(line, ";") {
			statements = append(statements, strings.TrimSuffix(builder.String(), ";"))
			builder.Reset()
		} else {
			builder.WriteString(" ")
		}
	}
	if builder.Len() > 0 {
		statements = append(statements, builder.String())
	}
	return statements
}
