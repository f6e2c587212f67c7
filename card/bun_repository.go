package card

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/cardfolio/go-cardfolio/pkg/types"
	repository "github.com/goliatone/go-repository-bun"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// RepositoryConfig wires the Bun-backed card repository.
type RepositoryConfig struct {
	DB         *bun.DB
	Repository repository.Repository[*Record]
	Clock      types.Clock
	IDGen      types.IDGenerator
	Logger     types.Logger
}

type cardStore interface {
	repository.Repository[*Record]
}

// Repository persists cards and their original child collections. Lifecycle
// mutations run inside a single transaction; the embedded generic repository
// serves the read paths.
type Repository struct {
	cardStore
	db     *bun.DB
	clock  types.Clock
	idGen  types.IDGenerator
	logger types.Logger
}

// NewRepository constructs the default card repository.
func NewRepository(cfg RepositoryConfig, options ...RepositoryOption) (*Repository, error) {
	if cfg.DB == nil {
		return nil, errors.New("card: db required")
	}
	repo := cfg.Repository
	if repo == nil {
		repo = repository.NewRepository(cfg.DB, repository.ModelHandlers[*Record]{
			NewRecord: func() *Record { return &Record{} },
			GetID: func(rec *Record) uuid.UUID {
				if rec == nil {
					return uuid.Nil
				}
				return rec.ID
			},
			SetID: func(rec *Record, id uuid.UUID) {
				if rec != nil {
					rec.ID = id
				}
			},
		})
	}
	repo, err := applyCacheOptions(repo, applyRepositoryOptions(options))
	if err != nil {
		return nil, err
	}

	clock := cfg.Clock
	if clock == nil {
		clock = types.SystemClock{}
	}
	idGen := cfg.IDGen
	if idGen == nil {
		idGen = types.UUIDGenerator{}
	}
	logger := cfg.Logger
	if logger == nil {
		logger = types.NopLogger{}
	}

	return &Repository{
		cardStore: repo,
		db:        cfg.DB,
		clock:     clock,
		idGen:     idGen,
		logger:    logger,
	}, nil
}

var (
	_ repository.Repository[*Record] = (*Repository)(nil)
	_ types.CardRepository           = (*Repository)(nil)
)

// CreateCard ingests a card with its original metadata. A content hash that
// already exists yields a duplicate-hash conflict and inserts nothing.
func (r *Repository) CreateCard(ctx context.Context, input types.CardCreate) (*types.Card, error) {
	hash := strings.TrimSpace(input.Hash)
	if hash == "" {
		return nil, types.HashRequired()
	}

	rec := &Record{
		ID:               r.idGen.UUID(),
		Hash:             hash,
		Source:           defaultSource(input.Source),
		NamePrefix:       input.Fields.NamePrefix,
		GivenName:        input.Fields.GivenName,
		MiddleName:       input.Fields.MiddleName,
		FamilyName:       input.Fields.FamilyName,
		NameSuffix:       input.Fields.NameSuffix,
		JobTitle:         input.Fields.JobTitle,
		Department:       input.Fields.Department,
		OrganizationName: input.Fields.OrganizationName,
		CreatedAt:        r.clock.Now(),
	}

	err := r.db.RunInTx(ctx, &sql.TxOptions{}, func(ctx context.Context, tx bun.Tx) error {
		exists, err := tx.NewSelect().Model((*Record)(nil)).Where("hash = ?", hash).Exists(ctx)
		if err != nil {
			return types.DatabaseError(err, "checking card hash")
		}
		if exists {
			return types.DuplicateHash(hash)
		}
		if _, err := tx.NewInsert().Model(rec).Exec(ctx); err != nil {
			return types.DatabaseError(err, "inserting card")
		}
		return r.insertCollections(ctx, tx, rec.ID, input.Collections)
	})
	if err != nil {
		return nil, err
	}

	card := toDomain(rec)
	card.Collections = cloneCollections(input.Collections)
	return card, nil
}

// GetCard returns a card with its original child collections.
func (r *Repository) GetCard(ctx context.Context, id uuid.UUID) (*types.Card, error) {
	rec, err := r.GetByID(ctx, id.String())
	if err != nil {
		if repository.IsRecordNotFound(err) {
			return nil, types.CardNotFound(id)
		}
		return nil, types.DatabaseError(err, "loading card")
	}
	card := toDomain(rec)
	card.Collections, err = r.loadCollections(ctx, r.db, id)
	if err != nil {
		return nil, err
	}
	return card, nil
}

// ListCards returns a page of cards newest first, children included.
func (r *Repository) ListCards(ctx context.Context, pagination types.Pagination) (types.CardPage, error) {
	pagination = normalizePagination(pagination, 50, 200)
	criteria := []repository.SelectCriteria{
		func(q *bun.SelectQuery) *bun.SelectQuery {
			return q.OrderExpr("created_at DESC").
				Limit(pagination.Limit).
				Offset(pagination.Offset)
		},
	}
	rows, total, err := r.List(ctx, criteria...)
	if err != nil {
		return types.CardPage{}, types.DatabaseError(err, "listing cards")
	}
	cards := make([]types.Card, 0, len(rows))
	for _, row := range rows {
		card := toDomain(row)
		card.Collections, err = r.loadCollections(ctx, r.db, row.ID)
		if err != nil {
			return types.CardPage{}, err
		}
		cards = append(cards, *card)
	}
	return types.CardPage{
		Cards:      cards,
		Total:      total,
		NextOffset: pagination.Offset + pagination.Limit,
		HasMore:    pagination.Offset+pagination.Limit < total,
	}, nil
}

// CountCards returns the total number of ingested cards.
func (r *Repository) CountCards(ctx context.Context) (int, error) {
	count, err := r.db.NewSelect().Model((*Record)(nil)).Count(ctx)
	if err != nil {
		return 0, types.DatabaseError(err, "counting cards")
	}
	return count, nil
}

// UpdateCard applies a partial update to the card's base metadata. Provided
// collections are replaced wholesale; nil slices are left untouched.
func (r *Repository) UpdateCard(ctx context.Context, id uuid.UUID, update types.CardUpdate) error {
	if err := update.Validate(); err != nil {
		return err
	}
	return r.db.RunInTx(ctx, &sql.TxOptions{}, func(ctx context.Context, tx bun.Tx) error {
		exists, err := tx.NewSelect().Model((*Record)(nil)).Where("id = ?", id).Exists(ctx)
		if err != nil {
			return types.DatabaseError(err, "checking card")
		}
		if !exists {
			return types.CardNotFound(id)
		}

		if update.HasFieldChanges() {
			q := tx.NewUpdate().Model((*Record)(nil)).Where("id = ?", id)
			q = applyFieldSets(q, fieldSets{
				NamePrefix:       update.NamePrefix,
				GivenName:        update.GivenName,
				MiddleName:       update.MiddleName,
				FamilyName:       update.FamilyName,
				NameSuffix:       update.NameSuffix,
				JobTitle:         update.JobTitle,
				Department:       update.Department,
				OrganizationName: update.OrganizationName,
			})
			if _, err := q.Exec(ctx); err != nil {
				return types.DatabaseError(err, "updating card fields")
			}
		}

		return r.replaceCollections(ctx, tx, id, update)
	})
}

// DeleteCard removes the card, every version belonging to it, and all child
// rows on both levels as a single transaction.
func (r *Repository) DeleteCard(ctx context.Context, id uuid.UUID) error {
	return r.db.RunInTx(ctx, &sql.TxOptions{}, func(ctx context.Context, tx bun.Tx) error {
		exists, err := tx.NewSelect().Model((*Record)(nil)).Where("id = ?", id).Exists(ctx)
		if err != nil {
			return types.DatabaseError(err, "checking card")
		}
		if !exists {
			return types.CardNotFound(id)
		}

		versionChildren := []string{
			"version_phone_numbers",
			"version_email_addresses",
			"version_url_addresses",
			"version_postal_addresses",
			"version_social_profiles",
			"version_data",
			"version_provenance",
		}
		for _, table := range versionChildren {
			_, err := tx.NewDelete().
				Table(table).
				Where("version_id IN (SELECT id FROM card_versions WHERE card_id = ?)", id).
				Exec(ctx)
			if err != nil {
				return types.DatabaseError(err, "deleting version rows for card")
			}
		}
		if _, err := tx.NewDelete().Table("card_versions").Where("card_id = ?", id).Exec(ctx); err != nil {
			return types.DatabaseError(err, "deleting card versions")
		}

		cardChildren := []any{
			(*PhoneNumberRow)(nil),
			(*EmailAddressRow)(nil),
			(*URLAddressRow)(nil),
			(*PostalAddressRow)(nil),
			(*SocialProfileRow)(nil),
		}
		for _, model := range cardChildren {
			if _, err := tx.NewDelete().Model(model).Where("card_id = ?", id).Exec(ctx); err != nil {
				return types.DatabaseError(err, "deleting card children")
			}
		}
		if _, err := tx.NewDelete().Model((*Record)(nil)).Where("id = ?", id).Exec(ctx); err != nil {
			return types.DatabaseError(err, "deleting card")
		}
		return nil
	})
}

func (r *Repository) insertCollections(ctx context.Context, idb bun.IDB, cardID uuid.UUID, cols types.Collections) error {
	for _, phone := range cleanStrings(cols.PhoneNumbers) {
		row := &PhoneNumberRow{ID: r.idGen.UUID(), CardID: cardID, PhoneNumber: phone}
		if _, err := idb.NewInsert().Model(row).Exec(ctx); err != nil {
			return types.DatabaseError(err, "inserting phone number")
		}
	}
	for _, email := range cleanStrings(cols.EmailAddresses) {
		row := &EmailAddressRow{ID: r.idGen.UUID(), CardID: cardID, EmailAddress: email}
		if _, err := idb.NewInsert().Model(row).Exec(ctx); err != nil {
			return types.DatabaseError(err, "inserting email address")
		}
	}
	for _, url := range cleanStrings(cols.URLAddresses) {
		row := &URLAddressRow{ID: r.idGen.UUID(), CardID: cardID, URL: url}
		if _, err := idb.NewInsert().Model(row).Exec(ctx); err != nil {
			return types.DatabaseError(err, "inserting url")
		}
	}
	for _, addr := range cols.PostalAddresses {
		if addr.IsEmpty() {
			continue
		}
		row := &PostalAddressRow{
			ID:                    r.idGen.UUID(),
			CardID:                cardID,
			Street:                addr.Street,
			SubLocality:           addr.SubLocality,
			City:                  addr.City,
			SubAdministrativeArea: addr.SubAdministrativeArea,
			State:                 addr.State,
			PostalCode:            addr.PostalCode,
			Country:               addr.Country,
			ISOCountryCode:        addr.ISOCountryCode,
		}
		if _, err := idb.NewInsert().Model(row).Exec(ctx); err != nil {
			return types.DatabaseError(err, "inserting postal address")
		}
	}
	for _, profile := range cols.SocialProfiles {
		row := &SocialProfileRow{
			ID:       r.idGen.UUID(),
			CardID:   cardID,
			Service:  profile.Service,
			URL:      profile.URL,
			Username: profile.Username,
		}
		if _, err := idb.NewInsert().Model(row).Exec(ctx); err != nil {
			return types.DatabaseError(err, "inserting social profile")
		}
	}
	return nil
}

func (r *Repository) replaceCollections(ctx context.Context, tx bun.Tx, cardID uuid.UUID, update types.CardUpdate) error {
	replacement := types.Collections{}
	if update.PhoneNumbers != nil {
		if _, err := tx.NewDelete().Model((*PhoneNumberRow)(nil)).Where("card_id = ?", cardID).Exec(ctx); err != nil {
			return types.DatabaseError(err, "clearing phone numbers")
		}
		replacement.PhoneNumbers = update.PhoneNumbers
	}
	if update.EmailAddresses != nil {
		if _, err := tx.NewDelete().Model((*EmailAddressRow)(nil)).Where("card_id = ?", cardID).Exec(ctx); err != nil {
			return types.DatabaseError(err, "clearing email addresses")
		}
		replacement.EmailAddresses = update.EmailAddresses
	}
	if update.URLAddresses != nil {
		if _, err := tx.NewDelete().Model((*URLAddressRow)(nil)).Where("card_id = ?", cardID).Exec(ctx); err != nil {
			return types.DatabaseError(err, "clearing urls")
		}
		replacement.URLAddresses = update.URLAddresses
	}
	if update.PostalAddresses != nil {
		if _, err := tx.NewDelete().Model((*PostalAddressRow)(nil)).Where("card_id = ?", cardID).Exec(ctx); err != nil {
			return types.DatabaseError(err, "clearing postal addresses")
		}
		replacement.PostalAddresses = update.PostalAddresses
	}
	if update.SocialProfiles != nil {
		if _, err := tx.NewDelete().Model((*SocialProfileRow)(nil)).Where("card_id = ?", cardID).Exec(ctx); err != nil {
			return types.DatabaseError(err, "clearing social profiles")
		}
		replacement.SocialProfiles = update.SocialProfiles
	}
	return r.insertCollections(ctx, tx, cardID, replacement)
}

func (r *Repository) loadCollections(ctx context.Context, idb bun.IDB, cardID uuid.UUID) (types.Collections, error) {
	var cols types.Collections

	var phones []PhoneNumberRow
	if err := idb.NewSelect().Model(&phones).Where("card_id = ?", cardID).Scan(ctx); err != nil {
		return cols, types.DatabaseError(err, "loading phone numbers")
	}
	for _, row := range phones {
		cols.PhoneNumbers = append(cols.PhoneNumbers, row.PhoneNumber)
	}

	var emails []EmailAddressRow
	if err := idb.NewSelect().Model(&emails).Where("card_id = ?", cardID).Scan(ctx); err != nil {
		return cols, types.DatabaseError(err, "loading email addresses")
	}
	for _, row := range emails {
		cols.EmailAddresses = append(cols.EmailAddresses, row.EmailAddress)
	}

	var urls []URLAddressRow
	if err := idb.NewSelect().Model(&urls).Where("card_id = ?", cardID).Scan(ctx); err != nil {
		return cols, types.DatabaseError(err, "loading urls")
	}
	for _, row := range urls {
		cols.URLAddresses = append(cols.URLAddresses, row.URL)
	}

	var addresses []PostalAddressRow
	if err := idb.NewSelect().Model(&addresses).Where("card_id = ?", cardID).Scan(ctx); err != nil {
		return cols, types.DatabaseError(err, "loading postal addresses")
	}
	for _, row := range addresses {
		cols.PostalAddresses = append(cols.PostalAddresses, addressToDomain(row))
	}

	var profiles []SocialProfileRow
	if err := idb.NewSelect().Model(&profiles).Where("card_id = ?", cardID).Scan(ctx); err != nil {
		return cols, types.DatabaseError(err, "loading social profiles")
	}
	for _, row := range profiles {
		cols.SocialProfiles = append(cols.SocialProfiles, profileToDomain(row))
	}

	return cols, nil
}

// fieldSets maps optional flat-field pointers onto UPDATE set clauses so the
// card and version repositories share one spelling of the column list.
type fieldSets struct {
	NamePrefix       *string
	GivenName        *string
	MiddleName       *string
	FamilyName       *string
	NameSuffix       *string
	JobTitle         *string
	Department       *string
	OrganizationName *string
}

func applyFieldSets(q *bun.UpdateQuery, sets fieldSets) *bun.UpdateQuery {
	if sets.NamePrefix != nil {
		q = q.Set("name_prefix = ?", *sets.NamePrefix)
	}
	if sets.GivenName != nil {
		q = q.Set("given_name = ?", *sets.GivenName)
	}
	if sets.MiddleName != nil {
		q = q.Set("middle_name = ?", *sets.MiddleName)
	}
	if sets.FamilyName != nil {
		q = q.Set("family_name = ?", *sets.FamilyName)
	}
	if sets.NameSuffix != nil {
		q = q.Set("name_suffix = ?", *sets.NameSuffix)
	}
	if sets.JobTitle != nil {
		q = q.Set("job_title = ?", *sets.JobTitle)
	}
	if sets.Department != nil {
		q = q.Set("department = ?", *sets.Department)
	}
	if sets.OrganizationName != nil {
		q = q.Set("organization_name = ?", *sets.OrganizationName)
	}
	return q
}

func cleanStrings(values []string) []string {
	out := make([]string, 0, len(values))
	for _, value := range values {
		trimmed := strings.TrimSpace(value)
		if trimmed == "" {
			continue
		}
		out = append(out, trimmed)
	}
	return out
}

func cloneCollections(cols types.Collections) types.Collections {
	return types.Collections{
		PhoneNumbers:    append([]string(nil), cleanStrings(cols.PhoneNumbers)...),
		EmailAddresses:  append([]string(nil), cleanStrings(cols.EmailAddresses)...),
		URLAddresses:    append([]string(nil), cleanStrings(cols.URLAddresses)...),
		PostalAddresses: append([]types.PostalAddress(nil), cols.PostalAddresses...),
		SocialProfiles:  append([]types.SocialProfile(nil), cols.SocialProfiles...),
	}
}

func defaultSource(source string) string {
	if strings.TrimSpace(source) == "" {
		return "local"
	}
	return source
}

func normalizePagination(p types.Pagination, def, max int) types.Pagination {
	if p.Limit <= 0 {
		p.Limit = def
	}
	if p.Limit > max {
		p.Limit = max
	}
	if p.Offset < 0 {
		p.Offset = 0
	}
	return p
}
