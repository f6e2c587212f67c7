package card

import (
	"time"

	"github.com/cardfolio/go-cardfolio/pkg/types"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// Record models the cards row: one ingested card image plus its original
// flat contact fields.
type Record struct {
	bun.BaseModel `bun:"table:cards"`

	ID               uuid.UUID `bun:"id,pk,type:uuid"`
	Hash             string    `bun:"hash"`
	Source           string    `bun:"source"`
	NamePrefix       string    `bun:"name_prefix"`
	GivenName        string    `bun:"given_name"`
	MiddleName       string    `bun:"middle_name"`
	FamilyName       string    `bun:"family_name"`
	NameSuffix       string    `bun:"name_suffix"`
	JobTitle         string    `bun:"job_title"`
	Department       string    `bun:"department"`
	OrganizationName string    `bun:"organization_name"`
	CreatedAt        time.Time `bun:"created_at"`
}

// PhoneNumberRow is one original phone number owned by a card.
type PhoneNumberRow struct {
	bun.BaseModel `bun:"table:card_phone_numbers"`

	ID          uuid.UUID `bun:"id,pk,type:uuid"`
	CardID      uuid.UUID `bun:"card_id,type:uuid"`
	PhoneNumber string    `bun:"phone_number"`
}

// EmailAddressRow is one original email address owned by a card.
type EmailAddressRow struct {
	bun.BaseModel `bun:"table:card_email_addresses"`

	ID           uuid.UUID `bun:"id,pk,type:uuid"`
	CardID       uuid.UUID `bun:"card_id,type:uuid"`
	EmailAddress string    `bun:"email_address"`
}

// URLAddressRow is one original URL owned by a card.
type URLAddressRow struct {
	bun.BaseModel `bun:"table:card_url_addresses"`

	ID     uuid.UUID `bun:"id,pk,type:uuid"`
	CardID uuid.UUID `bun:"card_id,type:uuid"`
	URL    string    `bun:"url"`
}

// PostalAddressRow is one original postal address owned by a card.
type PostalAddressRow struct {
	bun.BaseModel `bun:"table:card_postal_addresses"`

	ID                    uuid.UUID `bun:"id,pk,type:uuid"`
	CardID                uuid.UUID `bun:"card_id,type:uuid"`
	Street                string    `bun:"street"`
	SubLocality           string    `bun:"sub_locality"`
	City                  string    `bun:"city"`
	SubAdministrativeArea string    `bun:"sub_administrative_area"`
	State                 string    `bun:"state"`
	PostalCode            string    `bun:"postal_code"`
	Country               string    `bun:"country"`
	ISOCountryCode        string    `bun:"iso_country_code"`
}

// SocialProfileRow is one original social profile owned by a card.
type SocialProfileRow struct {
	bun.BaseModel `bun:"table:card_social_profiles"`

	ID       uuid.UUID `bun:"id,pk,type:uuid"`
	CardID   uuid.UUID `bun:"card_id,type:uuid"`
	Service  string    `bun:"service"`
	URL      string    `bun:"url"`
	Username string    `bun:"username"`
}

func toDomain(rec *Record) *types.Card {
	if rec == nil {
		return nil
	}
	return &types.Card{
		ID:     rec.ID,
		Hash:   rec.Hash,
		Source: rec.Source,
		Fields: types.ContactFields{
			NamePrefix:       rec.NamePrefix,
			GivenName:        rec.GivenName,
			MiddleName:       rec.MiddleName,
			FamilyName:       rec.FamilyName,
			NameSuffix:       rec.NameSuffix,
			JobTitle:         rec.JobTitle,
			Department:       rec.Department,
			OrganizationName: rec.OrganizationName,
		},
		CreatedAt: rec.CreatedAt,
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
