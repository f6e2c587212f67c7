package version

import (
	"time"

	"github.com/cardfolio/go-cardfolio/pkg/types"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// Record models the card_versions row.
type Record struct {
	bun.BaseModel `bun:"table:card_versions"`

	ID        uuid.UUID `bun:"id,pk,type:uuid"`
	CardID    uuid.UUID `bun:"card_id,type:uuid"`
	Tag       string    `bun:"tag"`
	Notes     string    `bun:"notes"`
	IsActive  bool      `bun:"is_active"`
	CreatedAt time.Time `bun:"created_at"`
}

// DataRow holds a version's flat contact fields. At most one row per version;
// a version without one has its flat fields unset.
type DataRow struct {
	bun.BaseModel `bun:"table:version_data"`

	VersionID        uuid.UUID `bun:"version_id,pk,type:uuid"`
	NamePrefix       string    `bun:"name_prefix"`
	GivenName        string    `bun:"given_name"`
	MiddleName       string    `bun:"middle_name"`
	FamilyName       string    `bun:"family_name"`
	NameSuffix       string    `bun:"name_suffix"`
	JobTitle         string    `bun:"job_title"`
	Department       string    `bun:"department"`
	OrganizationName string    `bun:"organization_name"`
}

// PhoneNumberRow is one phone number attached to a version.
type PhoneNumberRow struct {
	bun.BaseModel `bun:"table:version_phone_numbers"`

	ID          uuid.UUID `bun:"id,pk,type:uuid"`
	VersionID   uuid.UUID `bun:"version_id,type:uuid"`
	PhoneNumber string    `bun:"phone_number"`
}

// EmailAddressRow is one email address attached to a version.
type EmailAddressRow struct {
	bun.BaseModel `bun:"table:version_email_addresses"`

	ID           uuid.UUID `bun:"id,pk,type:uuid"`
	VersionID    uuid.UUID `bun:"version_id,type:uuid"`
	EmailAddress string    `bun:"email_address"`
}

// URLAddressRow is one URL attached to a version.
type URLAddressRow struct {
	bun.BaseModel `bun:"table:version_url_addresses"`

	ID        uuid.UUID `bun:"id,pk,type:uuid"`
	VersionID uuid.UUID `bun:"version_id,type:uuid"`
	URL       string    `bun:"url"`
}

// PostalAddressRow is one postal address attached to a version.
type PostalAddressRow struct {
	bun.BaseModel `bun:"table:version_postal_addresses"`

	ID                    uuid.UUID `bun:"id,pk,type:uuid"`
	VersionID             uuid.UUID `bun:"version_id,type:uuid"`
	Street                string    `bun:"street"`
	SubLocality           string    `bun:"sub_locality"`
	City                  string    `bun:"city"`
	SubAdministrativeArea string    `bun:"sub_administrative_area"`
	State                 string    `bun:"state"`
	PostalCode            string    `bun:"postal_code"`
	Country               string    `bun:"country"`
	ISOCountryCode        string    `bun:"iso_country_code"`
}

// SocialProfileRow is one social profile attached to a version.
type SocialProfileRow struct {
	bun.BaseModel `bun:"table:version_social_profiles"`

	ID        uuid.UUID `bun:"id,pk,type:uuid"`
	VersionID uuid.UUID `bun:"version_id,type:uuid"`
	Service   string    `bun:"service"`
	URL       string    `bun:"url"`
	Username  string    `bun:"username"`
}

// ProvenanceRow records which extraction run produced a version's data.
type ProvenanceRow struct {
	bun.BaseModel `bun:"table:version_provenance"`

	VersionID      uuid.UUID `bun:"version_id,pk,type:uuid"`
	ModelID        string    `bun:"model_id"`
	ProgramID      string    `bun:"program_id"`
	ProgramName    string    `bun:"program_name"`
	ProgramVersion string    `bun:"program_version"`
	Provider       string    `bun:"provider"`
	BaseModelName  string    `bun:"base_model"`
	ExecutionID    string    `bun:"execution_id"`
	ExtractedAt    time.Time `bun:"extracted_at,nullzero"`
}

func toDomain(rec *Record) *types.Version {
	if rec == nil {
		return nil
	}
	return &types.Version{
		ID:        rec.ID,
		CardID:    rec.CardID,
		Tag:       rec.Tag,
		Notes:     rec.Notes,
		IsActive:  rec.IsActive,
		CreatedAt: rec.CreatedAt,
	}
}

func dataToDomain(row *DataRow) *types.ContactFields {
	if row == nil {
		return nil
	}
	return &types.ContactFields{
		NamePrefix:       row.NamePrefix,
		GivenName:        row.GivenName,
		MiddleName:       row.MiddleName,
		FamilyName:       row.FamilyName,
		NameSuffix:       row.NameSuffix,
		JobTitle:         row.JobTitle,
		Department:       row.Department,
		OrganizationName: row.OrganizationName,
	}
}

func provenanceToDomain(row *ProvenanceRow) *types.Provenance {
	if row == nil {
		return nil
	}
	return &types.Provenance{
		ModelID:        row.ModelID,
		ProgramID:      row.ProgramID,
		ProgramName:    row.ProgramName,
		ProgramVersion: row.ProgramVersion,
		Provider:       row.Provider,
		BaseModel:      row.BaseModelName,
		ExecutionID:    row.ExecutionID,
		ExtractedAt:    row.ExtractedAt,
	}
}

func addressToDomain(row PostalAddressRow) types.PostalAddress {
	return types.PostalAddress{
		Street:                row.Street,
		SubLocality:           row.SubLocality,
		City:                  row.City,
		SubAdministrativeArea: row.SubAdministrativeArea,
		State:                 row.State,
		PostalCode:            row.PostalCode,
		Country:               row.Country,
		ISOCountryCode:        row.ISOCountryCode,
	}
}

func profileToDomain(row SocialProfileRow) types.SocialProfile {
	return types.SocialProfile{
		Service:  row.Service,
		URL:      row.URL,
		Username: row.Username,
	}
}
