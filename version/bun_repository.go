package version

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/cardfolio/go-cardfolio/card"
	"github.com/cardfolio/go-cardfolio/pkg/types"
	repository "github.com/goliatone/go-repository-bun"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// RepositoryConfig wires the Bun-backed version repository.
type RepositoryConfig struct {
	DB         *bun.DB
	Repository repository.Repository[*Record]
	Clock      types.Clock
	IDGen      types.IDGenerator
	Logger     types.Logger
}

type versionStore interface {
	repository.Repository[*Record]
}

// Repository manages the version lifecycle. Every mutation runs as one
// transaction so a concurrent reader never observes zero or two active
// versions for a card that has any.
type Repository struct {
	versionStore
	db     *bun.DB
	clock  types.Clock
	idGen  types.IDGenerator
	logger types.Logger
}

// NewRepository constructs the default version repository.
func NewRepository(cfg RepositoryConfig) (*Repository, error) {
	if cfg.DB == nil {
		return nil, errors.New("version: db required")
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
		versionStore: repo,
		db:           cfg.DB,
		clock:        clock,
		idGen:        idGen,
		logger:       logger,
	}, nil
}

var (
	_ repository.Repository[*Record] = (*Repository)(nil)
	_ types.VersionRepository        = (*Repository)(nil)
)

// CreateVersion inserts a new version as the card's active one and populates
// its data row and child collections: blank, copied from an explicit source
// version, or copied from the card's base metadata.
func (r *Repository) CreateVersion(ctx context.Context, input types.VersionCreate) (*types.Version, error) {
	if input.CardID == uuid.Nil {
		return nil, types.CardNotFound(input.CardID)
	}
	if strings.TrimSpace(input.Tag) == "" {
		return nil, types.TagRequired()
	}

	rec := &Record{
		ID:        r.idGen.UUID(),
		CardID:    input.CardID,
		Tag:       strings.TrimSpace(input.Tag),
		Notes:     input.Notes,
		IsActive:  true,
		CreatedAt: r.clock.Now(),
	}

	err := r.db.RunInTx(ctx, &sql.TxOptions{}, func(ctx context.Context, tx bun.Tx) error {
		exists, err := tx.NewSelect().Model((*card.Record)(nil)).Where("id = ?", input.CardID).Exists(ctx)
		if err != nil {
			return types.DatabaseError(err, "checking card")
		}
		if !exists {
			return types.CardNotFound(input.CardID)
		}
		if input.SourceVersionID != uuid.Nil {
			exists, err := tx.NewSelect().Model((*Record)(nil)).Where("id = ?", input.SourceVersionID).Exists(ctx)
			if err != nil {
				return types.DatabaseError(err, "checking source version")
			}
			if !exists {
				return types.VersionNotFound(input.SourceVersionID)
			}
		}

		if _, err := tx.NewInsert().Model(rec).Exec(ctx); err != nil {
			return types.DatabaseError(err, "inserting version")
		}
		if err := deactivateSiblings(ctx, tx, rec.CardID, rec.ID); err != nil {
			return err
		}

		if input.Blank {
			// Bare data row for manual entry; nothing is copied.
			if _, err := tx.NewInsert().Model(&DataRow{VersionID: rec.ID}).Exec(ctx); err != nil {
				return types.DatabaseError(err, "inserting blank version data")
			}
			return nil
		}
		return r.copyVersionData(ctx, tx, input.SourceVersionID, rec.ID)
	})
	if err != nil {
		return nil, err
	}

	return r.GetVersion(ctx, rec.ID)
}

// GetVersion returns one version with its data row, child collections, and
// provenance when present.
func (r *Repository) GetVersion(ctx context.Context, id uuid.UUID) (*types.Version, error) {
	rec, err := r.GetByID(ctx, id.String())
	if err != nil {
		if repository.IsRecordNotFound(err) {
			return nil, types.VersionNotFound(id)
		}
		return nil, types.DatabaseError(err, "loading version")
	}
	return r.hydrate(ctx, rec)
}

// ListVersions returns every version of a card, newest first.
func (r *Repository) ListVersions(ctx context.Context, cardID uuid.UUID) ([]types.Version, error) {
	exists, err := r.db.NewSelect().Model((*card.Record)(nil)).Where("id = ?", cardID).Exists(ctx)
	if err != nil {
		return nil, types.DatabaseError(err, "checking card")
	}
	if !exists {
		return nil, types.CardNotFound(cardID)
	}

	var recs []*Record
	err = r.db.NewSelect().Model(&recs).
		Where("card_id = ?", cardID).
		OrderExpr("created_at DESC").
		Scan(ctx)
	if err != nil {
		return nil, types.DatabaseError(err, "listing versions")
	}

	versions := make([]types.Version, 0, len(recs))
	for _, rec := range recs {
		v, err := r.hydrate(ctx, rec)
		if err != nil {
			return nil, err
		}
		versions = append(versions, *v)
	}
	return versions, nil
}

// UpdateVersion applies a partial update. Supplied collections are replaced
// wholesale, nil slices are left untouched, and activating the version
// deactivates its siblings within the same transaction.
func (r *Repository) UpdateVersion(ctx context.Context, id uuid.UUID, update types.VersionUpdate) error {
	if err := update.Validate(); err != nil {
		return err
	}
	return r.db.RunInTx(ctx, &sql.TxOptions{}, func(ctx context.Context, tx bun.Tx) error {
		rec := new(Record)
		err := tx.NewSelect().Model(rec).Where("id = ?", id).Scan(ctx)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return types.VersionNotFound(id)
			}
			return types.DatabaseError(err, "loading version")
		}

		if update.HasFieldChanges() {
			if err := r.upsertData(ctx, tx, id, update); err != nil {
				return err
			}
		}
		if err := r.replaceCollections(ctx, tx, id, update); err != nil {
			return err
		}

		if update.HasVersionRowChanges() {
			q := tx.NewUpdate().Model((*Record)(nil)).Where("id = ?", id)
			if update.Tag != nil {
				q = q.Set("tag = ?", strings.TrimSpace(*update.Tag))
			}
			if update.Notes != nil {
				q = q.Set("notes = ?", *update.Notes)
			}
			if update.IsActive != nil {
				q = q.Set("is_active = ?", *update.IsActive)
			}
			if _, err := q.Exec(ctx); err != nil {
				return types.DatabaseError(err, "updating version row")
			}
			if update.IsActive != nil && *update.IsActive {
				if err := deactivateSiblings(ctx, tx, rec.CardID, id); err != nil {
					return err
				}
			}
		}
		return nil
	})
}

// SetActiveVersion activates the version and deactivates all siblings that
// share its card.
func (r *Repository) SetActiveVersion(ctx context.Context, id uuid.UUID) error {
	return r.db.RunInTx(ctx, &sql.TxOptions{}, func(ctx context.Context, tx bun.Tx) error {
		rec := new(Record)
		err := tx.NewSelect().Model(rec).Where("id = ?", id).Scan(ctx)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return types.VersionNotFound(id)
			}
			return types.DatabaseError(err, "loading version")
		}
		_, err = tx.NewUpdate().Model((*Record)(nil)).
			Set("is_active = ?", true).
			Where("id = ?", id).
			Exec(ctx)
		if err != nil {
			return types.DatabaseError(err, "activating version")
		}
		return deactivateSiblings(ctx, tx, rec.CardID, id)
	})
}

// DeleteVersion removes the version and all its rows. Deleting a card's only
// version is refused; deleting the active version promotes the most recently
// created remaining sibling within the same transaction.
func (r *Repository) DeleteVersion(ctx context.Context, id uuid.UUID) error {
	return r.db.RunInTx(ctx, &sql.TxOptions{}, func(ctx context.Context, tx bun.Tx) error {
		rec := new(Record)
		err := tx.NewSelect().Model(rec).Where("id = ?", id).Scan(ctx)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return types.VersionNotFound(id)
			}
			return types.DatabaseError(err, "loading version")
		}

		count, err := tx.NewSelect().Model((*Record)(nil)).Where("card_id = ?", rec.CardID).Count(ctx)
		if err != nil {
			return types.DatabaseError(err, "counting versions")
		}
		if count <= 1 {
			return types.OnlyVersion(rec.CardID)
		}

		if err := deleteVersionRows(ctx, tx, id); err != nil {
			return err
		}

		if rec.IsActive {
			_, err := tx.NewUpdate().Model((*Record)(nil)).
				Set("is_active = ?", true).
				Where("id = (?)", tx.NewSelect().Model((*Record)(nil)).
					Column("id").
					Where("card_id = ?", rec.CardID).
					OrderExpr("created_at DESC").
					Limit(1)).
				Exec(ctx)
			if err != nil {
				return types.DatabaseError(err, "promoting replacement version")
			}
		}
		return nil
	})
}

// SaveProvenance records extraction bookkeeping for a version, replacing any
// previous row. Provenance never participates in lifecycle invariants.
func (r *Repository) SaveProvenance(ctx context.Context, versionID uuid.UUID, prov types.Provenance) error {
	exists, err := r.db.NewSelect().Model((*Record)(nil)).Where("id = ?", versionID).Exists(ctx)
	if err != nil {
		return types.DatabaseError(err, "checking version")
	}
	if !exists {
		return types.VersionNotFound(versionID)
	}
	row := &ProvenanceRow{
		VersionID:      versionID,
		ModelID:        prov.ModelID,
		ProgramID:      prov.ProgramID,
		ProgramName:    prov.ProgramName,
		ProgramVersion: prov.ProgramVersion,
		Provider:       prov.Provider,
		BaseModelName:  prov.BaseModel,
		ExecutionID:    prov.ExecutionID,
		ExtractedAt:    prov.ExtractedAt,
	}
	return r.db.RunInTx(ctx, &sql.TxOptions{}, func(ctx context.Context, tx bun.Tx) error {
		if _, err := tx.NewDelete().Model((*ProvenanceRow)(nil)).Where("version_id = ?", versionID).Exec(ctx); err != nil {
			return types.DatabaseError(err, "clearing provenance")
		}
		if _, err := tx.NewInsert().Model(row).Exec(ctx); err != nil {
			return types.DatabaseError(err, "inserting provenance")
		}
		return nil
	})
}

func (r *Repository) hydrate(ctx context.Context, rec *Record) (*types.Version, error) {
	v := toDomain(rec)

	data := new(DataRow)
	err := r.db.NewSelect().Model(data).Where("version_id = ?", rec.ID).Scan(ctx)
	switch {
	case err == nil:
		v.Data = dataToDomain(data)
	case errors.Is(err, sql.ErrNoRows):
		// No data row: flat fields stay unset.
	default:
		return nil, types.DatabaseError(err, "loading version data")
	}

	cols, err := r.loadCollections(ctx, r.db, rec.ID)
	if err != nil {
		return nil, err
	}
	v.Collections = cols

	prov := new(ProvenanceRow)
	err = r.db.NewSelect().Model(prov).Where("version_id = ?", rec.ID).Scan(ctx)
	switch {
	case err == nil:
		v.Provenance = provenanceToDomain(prov)
	case errors.Is(err, sql.ErrNoRows):
	default:
		return nil, types.DatabaseError(err, "loading provenance")
	}

	return v, nil
}

func (r *Repository) loadCollections(ctx context.Context, idb bun.IDB, versionID uuid.UUID) (types.Collections, error) {
	var cols types.Collections

	var phones []PhoneNumberRow
	if err := idb.NewSelect().Model(&phones).Where("version_id = ?", versionID).Scan(ctx); err != nil {
		return cols, types.DatabaseError(err, "loading phone numbers")
	}
	for _, row := range phones {
		cols.PhoneNumbers = append(cols.PhoneNumbers, row.PhoneNumber)
	}

	var emails []EmailAddressRow
	if err := idb.NewSelect().Model(&emails).Where("version_id = ?", versionID).Scan(ctx); err != nil {
		return cols, types.DatabaseError(err, "loading email addresses")
	}
	for _, row := range emails {
		cols.EmailAddresses = append(cols.EmailAddresses, row.EmailAddress)
	}

	var urls []URLAddressRow
	if err := idb.NewSelect().Model(&urls).Where("version_id = ?", versionID).Scan(ctx); err != nil {
		return cols, types.DatabaseError(err, "loading urls")
	}
	for _, row := range urls {
		cols.URLAddresses = append(cols.URLAddresses, row.URL)
	}

	var addresses []PostalAddressRow
	if err := idb.NewSelect().Model(&addresses).Where("version_id = ?", versionID).Scan(ctx); err != nil {
		return cols, types.DatabaseError(err, "loading postal addresses")
	}
	for _, row := range addresses {
		cols.PostalAddresses = append(cols.PostalAddresses, addressToDomain(row))
	}

	var profiles []SocialProfileRow
	if err := idb.NewSelect().Model(&profiles).Where("version_id = ?", versionID).Scan(ctx); err != nil {
		return cols, types.DatabaseError(err, "loading social profiles")
	}
	for _, row := range profiles {
		cols.SocialProfiles = append(cols.SocialProfiles, profileToDomain(row))
	}

	return cols, nil
}

func (r *Repository) upsertData(ctx context.Context, tx bun.Tx, versionID uuid.UUID, update types.VersionUpdate) error {
	exists, err := tx.NewSelect().Model((*DataRow)(nil)).Where("version_id = ?", versionID).Exists(ctx)
	if err != nil {
		return types.DatabaseError(err, "checking version data")
	}
	if exists {
		q := tx.NewUpdate().Model((*DataRow)(nil)).Where("version_id = ?", versionID)
		q = applyDataSets(q, update)
		if _, err := q.Exec(ctx); err != nil {
			return types.DatabaseError(err, "updating version data")
		}
		return nil
	}

	row := &DataRow{VersionID: versionID}
	assign := func(dst *string, src *string) {
		if src != nil {
			*dst = *src
		}
	}
	assign(&row.NamePrefix, update.NamePrefix)
	assign(&row.GivenName, update.GivenName)
	assign(&row.MiddleName, update.MiddleName)
	assign(&row.FamilyName, update.FamilyName)
	assign(&row.NameSuffix, update.NameSuffix)
	assign(&row.JobTitle, update.JobTitle)
	assign(&row.Department, update.Department)
	assign(&row.OrganizationName, update.OrganizationName)
	if _, err := tx.NewInsert().Model(row).Exec(ctx); err != nil {
		return types.DatabaseError(err, "inserting version data")
	}
	return nil
}

func (r *Repository) replaceCollections(ctx context.Context, tx bun.Tx, versionID uuid.UUID, update types.VersionUpdate) error {
	if update.PhoneNumbers != nil {
		if _, err := tx.NewDelete().Model((*PhoneNumberRow)(nil)).Where("version_id = ?", versionID).Exec(ctx); err != nil {
			return types.DatabaseError(err, "clearing phone numbers")
		}
		if err := r.insertPhones(ctx, tx, versionID, update.PhoneNumbers); err != nil {
			return err
		}
	}
	if update.EmailAddresses != nil {
		if _, err := tx.NewDelete().Model((*EmailAddressRow)(nil)).Where("version_id = ?", versionID).Exec(ctx); err != nil {
			return types.DatabaseError(err, "clearing email addresses")
		}
		if err := r.insertEmails(ctx, tx, versionID, update.EmailAddresses); err != nil {
			return err
		}
	}
	if update.URLAddresses != nil {
		if _, err := tx.NewDelete().Model((*URLAddressRow)(nil)).Where("version_id = ?", versionID).Exec(ctx); err != nil {
			return types.DatabaseError(err, "clearing urls")
		}
		if err := r.insertURLs(ctx, tx, versionID, update.URLAddresses); err != nil {
			return err
		}
	}
	if update.PostalAddresses != nil {
		if _, err := tx.NewDelete().Model((*PostalAddressRow)(nil)).Where("version_id = ?", versionID).Exec(ctx); err != nil {
			return types.DatabaseError(err, "clearing postal addresses")
		}
		if err := r.insertAddresses(ctx, tx, versionID, update.PostalAddresses); err != nil {
			return err
		}
	}
	if update.SocialProfiles != nil {
		if _, err := tx.NewDelete().Model((*SocialProfileRow)(nil)).Where("version_id = ?", versionID).Exec(ctx); err != nil {
			return types.DatabaseError(err, "clearing social profiles")
		}
		if err := r.insertProfiles(ctx, tx, versionID, update.SocialProfiles); err != nil {
			return err
		}
	}
	return nil
}

func (r *Repository) insertPhones(ctx context.Context, idb bun.IDB, versionID uuid.UUID, values []string) error {
	for _, phone := range cleanStrings(values) {
		row := &PhoneNumberRow{ID: r.idGen.UUID(), VersionID: versionID, PhoneNumber: phone}
		if _, err := idb.NewInsert().Model(row).Exec(ctx); err != nil {
			return types.DatabaseError(err, "inserting phone number")
		}
	}
	return nil
}

func (r *Repository) insertEmails(ctx context.Context, idb bun.IDB, versionID uuid.UUID, values []string) error {
	for _, email := range cleanStrings(values) {
		row := &EmailAddressRow{ID: r.idGen.UUID(), VersionID: versionID, EmailAddress: email}
		if _, err := idb.NewInsert().Model(row).Exec(ctx); err != nil {
			return types.DatabaseError(err, "inserting email address")
		}
	}
	return nil
}

func (r *Repository) insertURLs(ctx context.Context, idb bun.IDB, versionID uuid.UUID, values []string) error {
	for _, url := range cleanStrings(values) {
		row := &URLAddressRow{ID: r.idGen.UUID(), VersionID: versionID, URL: url}
		if _, err := idb.NewInsert().Model(row).Exec(ctx); err != nil {
			return types.DatabaseError(err, "inserting url")
		}
	}
	return nil
}

func (r *Repository) insertAddresses(ctx context.Context, idb bun.IDB, versionID uuid.UUID, addresses []types.PostalAddress) error {
	for _, addr := range addresses {
		if addr.IsEmpty() {
			continue
		}
		row := &PostalAddressRow{
			ID:                    r.idGen.UUID(),
			VersionID:             versionID,
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
	return nil
}

func (r *Repository) insertProfiles(ctx context.Context, idb bun.IDB, versionID uuid.UUID, profiles []types.SocialProfile) error {
	for _, profile := range profiles {
		row := &SocialProfileRow{
			ID:        r.idGen.UUID(),
			VersionID: versionID,
			Service:   profile.Service,
			URL:       profile.URL,
			Username:  profile.Username,
		}
		if _, err := idb.NewInsert().Model(row).Exec(ctx); err != nil {
			return types.DatabaseError(err, "inserting social profile")
		}
	}
	return nil
}

func deactivateSiblings(ctx context.Context, tx bun.Tx, cardID, keepID uuid.UUID) error {
	_, err := tx.NewUpdate().Model((*Record)(nil)).
		Set("is_active = ?", false).
		Where("card_id = ?", cardID).
		Where("id != ?", keepID).
		Exec(ctx)
	if err != nil {
		return types.DatabaseError(err, "deactivating sibling versions")
	}
	return nil
}

func deleteVersionRows(ctx context.Context, tx bun.Tx, versionID uuid.UUID) error {
	children := []any{
		(*PhoneNumberRow)(nil),
		(*EmailAddressRow)(nil),
		(*URLAddressRow)(nil),
		(*PostalAddressRow)(nil),
		(*SocialProfileRow)(nil),
		(*DataRow)(nil),
		(*ProvenanceRow)(nil),
	}
	for _, model := range children {
		if _, err := tx.NewDelete().Model(model).Where("version_id = ?", versionID).Exec(ctx); err != nil {
			return types.DatabaseError(err, "deleting version rows")
		}
	}
	if _, err := tx.NewDelete().Model((*Record)(nil)).Where("id = ?", versionID).Exec(ctx); err != nil {
		return types.DatabaseError(err, "deleting version")
	}
	return nil
}

func applyDataSets(q *bun.UpdateQuery, update types.VersionUpdate) *bun.UpdateQuery {
	if update.NamePrefix != nil {
		q = q.Set("name_prefix = ?", *update.NamePrefix)
	}
	if update.GivenName != nil {
		q = q.Set("given_name = ?", *update.GivenName)
	}
	if update.MiddleName != nil {
		q = q.Set("middle_name = ?", *update.MiddleName)
	}
	if update.FamilyName != nil {
		q = q.Set("family_name = ?", *update.FamilyName)
	}
	if update.NameSuffix != nil {
		q = q.Set("name_suffix = ?", *update.NameSuffix)
	}
	if update.JobTitle != nil {
		q = q.Set("job_title = ?", *update.JobTitle)
	}
	if update.Department != nil {
		q = q.Set("department = ?", *update.Department)
	}
	if update.OrganizationName != nil {
		q = q.Set("organization_name = ?", *update.OrganizationName)
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
