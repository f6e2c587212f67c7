package version

import (
	"context"
	"database/sql"
	"errors"

	"github.com/cardfolio/go-cardfolio/card"
	"github.com/cardfolio/go-cardfolio/pkg/types"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// copyVersionData populates targetID with flat fields and child collections.
// Each data group falls back independently: copy from the source version when
// it has rows for that group, otherwise copy from the card's base tables. A
// sourceID that does not resolve never fails the copy, every group just takes
// the base path. Existing target rows are replaced, so re-running the copy is
// idempotent.
func (r *Repository) copyVersionData(ctx context.Context, tx bun.Tx, sourceID, targetID uuid.UUID) error {
	target := new(Record)
	if err := tx.NewSelect().Model(target).Where("id = ?", targetID).Scan(ctx); err != nil {
		return types.DatabaseError(err, "loading copy target")
	}

	source := new(Record)
	sourceResolved := false
	if sourceID != uuid.Nil {
		err := tx.NewSelect().Model(source).Where("id = ?", sourceID).Scan(ctx)
		switch {
		case err == nil:
			sourceResolved = true
		case errors.Is(err, sql.ErrNoRows):
		default:
			return types.DatabaseError(err, "loading copy source")
		}
	}

	cardID := target.CardID
	if sourceResolved {
		cardID = source.CardID
	}

	if err := r.copyFlatFields(ctx, tx, sourceID, sourceResolved, cardID, targetID); err != nil {
		return err
	}
	if err := r.copyPhones(ctx, tx, sourceID, sourceResolved, cardID, targetID); err != nil {
		return err
	}
	if err := r.copyEmails(ctx, tx, sourceID, sourceResolved, cardID, targetID); err != nil {
		return err
	}
	if err := r.copyURLs(ctx, tx, sourceID, sourceResolved, cardID, targetID); err != nil {
		return err
	}
	if err := r.copyAddresses(ctx, tx, sourceID, sourceResolved, cardID, targetID); err != nil {
		return err
	}
	return r.copyProfiles(ctx, tx, sourceID, sourceResolved, cardID, targetID)
}

func (r *Repository) copyFlatFields(ctx context.Context, tx bun.Tx, sourceID uuid.UUID, sourceResolved bool, cardID, targetID uuid.UUID) error {
	row := &DataRow{VersionID: targetID}

	copied := false
	if sourceResolved {
		src := new(DataRow)
		err := tx.NewSelect().Model(src).Where("version_id = ?", sourceID).Scan(ctx)
		switch {
		case err == nil:
			row.NamePrefix = src.NamePrefix
			row.GivenName = src.GivenName
			row.MiddleName = src.MiddleName
			row.FamilyName = src.FamilyName
			row.NameSuffix = src.NameSuffix
			row.JobTitle = src.JobTitle
			row.Department = src.Department
			row.OrganizationName = src.OrganizationName
			copied = true
		case errors.Is(err, sql.ErrNoRows):
		default:
			return types.DatabaseError(err, "loading source version data")
		}
	}

	if !copied {
		base := new(card.Record)
		err := tx.NewSelect().Model(base).Where("id = ?", cardID).Scan(ctx)
		switch {
		case err == nil:
			row.NamePrefix = base.NamePrefix
			row.GivenName = base.GivenName
			row.MiddleName = base.MiddleName
			row.FamilyName = base.FamilyName
			row.NameSuffix = base.NameSuffix
			row.JobTitle = base.JobTitle
			row.Department = base.Department
			row.OrganizationName = base.OrganizationName
		case errors.Is(err, sql.ErrNoRows):
			// Card row vanished mid-copy; leave the data row blank.
		default:
			return types.DatabaseError(err, "loading base card fields")
		}
	}

	if _, err := tx.NewDelete().Model((*DataRow)(nil)).Where("version_id = ?", targetID).Exec(ctx); err != nil {
		return types.DatabaseError(err, "clearing target version data")
	}
	if _, err := tx.NewInsert().Model(row).Exec(ctx); err != nil {
		return types.DatabaseError(err, "copying version data")
	}
	return nil
}

func (r *Repository) copyPhones(ctx context.Context, tx bun.Tx, sourceID uuid.UUID, sourceResolved bool, cardID, targetID uuid.UUID) error {
	if _, err := tx.NewDelete().Model((*PhoneNumberRow)(nil)).Where("version_id = ?", targetID).Exec(ctx); err != nil {
		return types.DatabaseError(err, "clearing target phone numbers")
	}

	var values []string
	if sourceResolved {
		var rows []PhoneNumberRow
		if err := tx.NewSelect().Model(&rows).Where("version_id = ?", sourceID).Scan(ctx); err != nil {
			return types.DatabaseError(err, "loading source phone numbers")
		}
		for _, row := range rows {
			values = append(values, row.PhoneNumber)
		}
	}
	if len(values) == 0 {
		var rows []card.PhoneNumberRow
		if err := tx.NewSelect().Model(&rows).Where("card_id = ?", cardID).Scan(ctx); err != nil {
			return types.DatabaseError(err, "loading base phone numbers")
		}
		for _, row := range rows {
			values = append(values, row.PhoneNumber)
		}
	}
	return r.insertPhones(ctx, tx, targetID, values)
}

func (r *Repository) copyEmails(ctx context.Context, tx bun.Tx, sourceID uuid.UUID, sourceResolved bool, cardID, targetID uuid.UUID) error {
	if _, err := tx.NewDelete().Model((*EmailAddressRow)(nil)).Where("version_id = ?", targetID).Exec(ctx); err != nil {
		return types.DatabaseError(err, "clearing target email addresses")
	}

	var values []string
	if sourceResolved {
		var rows []EmailAddressRow
		if err := tx.NewSelect().Model(&rows).Where("version_id = ?", sourceID).Scan(ctx); err != nil {
			return types.DatabaseError(err, "loading source email addresses")
		}
		for _, row := range rows {
			values = append(values, row.EmailAddress)
		}
	}
	if len(values) == 0 {
		var rows []card.EmailAddressRow
		if err := tx.NewSelect().Model(&rows).Where("card_id = ?", cardID).Scan(ctx); err != nil {
			return types.DatabaseError(err, "loading base email addresses")
		}
		for _, row := range rows {
			values = append(values, row.EmailAddress)
		}
	}
	return r.insertEmails(ctx, tx, targetID, values)
}

func (r *Repository) copyURLs(ctx context.Context, tx bun.Tx, sourceID uuid.UUID, sourceResolved bool, cardID, targetID uuid.UUID) error {
	if _, err := tx.NewDelete().Model((*URLAddressRow)(nil)).Where("version_id = ?", targetID).Exec(ctx); err != nil {
		return types.DatabaseError(err, "clearing target urls")
	}

	var values []string
	if sourceResolved {
		var rows []URLAddressRow
		if err := tx.NewSelect().Model(&rows).Where("version_id = ?", sourceID).Scan(ctx); err != nil {
			return types.DatabaseError(err, "loading source urls")
		}
		for _, row := range rows {
			values = append(values, row.URL)
		}
	}
	if len(values) == 0 {
		var rows []card.URLAddressRow
		if err := tx.NewSelect().Model(&rows).Where("card_id = ?", cardID).Scan(ctx); err != nil {
			return types.DatabaseError(err, "loading base urls")
		}
		for _, row := range rows {
			values = append(values, row.URL)
		}
	}
	return r.insertURLs(ctx, tx, targetID, values)
}

func (r *Repository) copyAddresses(ctx context.Context, tx bun.Tx, sourceID uuid.UUID, sourceResolved bool, cardID, targetID uuid.UUID) error {
	if _, err := tx.NewDelete().Model((*PostalAddressRow)(nil)).Where("version_id = ?", targetID).Exec(ctx); err != nil {
		return types.DatabaseError(err, "clearing target postal addresses")
	}

	var values []types.PostalAddress
	if sourceResolved {
		var rows []PostalAddressRow
		if err := tx.NewSelect().Model(&rows).Where("version_id = ?", sourceID).Scan(ctx); err != nil {
			return types.DatabaseError(err, "loading source postal addresses")
		}
		for _, row := range rows {
			values = append(values, addressToDomain(row))
		}
	}
	if len(values) == 0 {
		var rows []card.PostalAddressRow
		if err := tx.NewSelect().Model(&rows).Where("card_id = ?", cardID).Scan(ctx); err != nil {
			return types.DatabaseError(err, "loading base postal addresses")
		}
		for _, row := range rows {
			values = append(values, types.PostalAddress{
				Street:                row.Street,
				SubLocality:           row.SubLocality,
				City:                  row.City,
				SubAdministrativeArea: row.SubAdministrativeArea,
				State:                 row.State,
				PostalCode:            row.PostalCode,
				Country:               row.Country,
				ISOCountryCode:        row.ISOCountryCode,
			})
		}
	}
	return r.insertAddresses(ctx, tx, targetID, values)
}

func (r *Repository) copyProfiles(ctx context.Context, tx bun.Tx, sourceID uuid.UUID, sourceResolved bool, cardID, targetID uuid.UUID) error {
	if _, err := tx.NewDelete().Model((*SocialProfileRow)(nil)).Where("version_id = ?", targetID).Exec(ctx); err != nil {
		return types.DatabaseError(err, "clearing target social profiles")
	}

	var values []types.SocialProfile
	if sourceResolved {
		var rows []SocialProfileRow
		if err := tx.NewSelect().Model(&rows).Where("version_id = ?", sourceID).Scan(ctx); err != nil {
			return types.DatabaseError(err, "loading source social profiles")
		}
		for _, row := range rows {
			values = append(values, profileToDomain(row))
		}
	}
	if len(values) == 0 {
		var rows []card.SocialProfileRow
		if err := tx.NewSelect().Model(&rows).Where("card_id = ?", cardID).Scan(ctx); err != nil {
			return types.DatabaseError(err, "loading base social profiles")
		}
		for _, row := range rows {
			values = append(values, types.SocialProfile{
				Service:  row.Service,
				URL:      row.URL,
				Username: row.Username,
			})
		}
	}
	return r.insertProfiles(ctx, tx, targetID, values)
}
