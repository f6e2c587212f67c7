package types

import (
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
)

// ContactFields carries the flat name and work attributes stored on a card
// and on each version's data row.
type ContactFields struct {
	NamePrefix       string
	GivenName        string
	MiddleName       string
	FamilyName       string
	NameSuffix       string
	JobTitle         string
	Department       string
	OrganizationName string
}

// PostalAddress models a single mailing address. All fields are optional.
type PostalAddress struct {
	Street                string
	SubLocality           string
	City                  string
	SubAdministrativeArea string
	State                 string
	PostalCode            string
	Country               string
	ISOCountryCode        string
}

// IsEmpty reports whether every address field is blank. Empty addresses are
// skipped on write.
func (a PostalAddress) IsEmpty() bool {
	return strings.TrimSpace(a.Street) == "" &&
		strings.TrimSpace(a.SubLocality) == "" &&
		strings.TrimSpace(a.City) == "" &&
		strings.TrimSpace(a.SubAdministrativeArea) == "" &&
		strings.TrimSpace(a.State) == "" &&
		strings.TrimSpace(a.PostalCode) == "" &&
		strings.TrimSpace(a.Country) == "" &&
		strings.TrimSpace(a.ISOCountryCode) == ""
}

// SocialProfile models a social network handle attached to a contact.
type SocialProfile struct {
	Service  string
	URL      string
	Username string
}

// Collections groups the five one-to-many value sets a card or version owns.
type Collections struct {
	PhoneNumbers    []string
	EmailAddresses  []string
	URLAddresses    []string
	PostalAddresses []PostalAddress
	SocialProfiles  []SocialProfile
}

// Card is the base record for one ingested card image and its original
// metadata. Versions hang off the card and never mutate these rows.
type Card struct {
	ID     uuid.UUID
	Hash   string
	Source string
	Fields ContactFields
	Collections
	CreatedAt time.Time
}

// Version is a named snapshot of a card's contact metadata. Data is nil when
// the version has no data row; readers must treat its flat fields as unset
// rather than falling back to the card.
type Version struct {
	ID        uuid.UUID
	CardID    uuid.UUID
	Tag       string
	Notes     string
	IsActive  bool
	CreatedAt time.Time
	Data      *ContactFields
	Collections
	Provenance *Provenance
}

// Provenance records which extraction run produced a version's data. It is
// informational only and never participates in lifecycle invariants.
type Provenance struct {
	ModelID        string
	ProgramID      string
	ProgramName    string
	ProgramVersion string
	Provider       string
	BaseModel      string
	ExecutionID    string
	ExtractedAt    time.Time
}

// CardCreate carries the inputs for ingesting a new card.
type CardCreate struct {
	Hash   string
	Source string
	Fields ContactFields
	Collections
}

// CardUpdate is a partial update of a card's base metadata. Nil pointers and
// nil slices leave the target untouched; an empty (non-nil) slice clears the
// corresponding collection. Collections are replaced wholesale, never merged.
type CardUpdate struct {
	NamePrefix       *string
	GivenName        *string
	MiddleName       *string
	FamilyName       *string
	NameSuffix       *string
	JobTitle         *string
	Department       *string
	OrganizationName *string

	PhoneNumbers    []string
	EmailAddresses  []string
	URLAddresses    []string
	PostalAddresses []PostalAddress
	SocialProfiles  []SocialProfile
}

// HasFieldChanges reports whether any flat field pointer is set.
func (u CardUpdate) HasFieldChanges() bool {
	return u.NamePrefix != nil || u.GivenName != nil || u.MiddleName != nil ||
		u.FamilyName != nil || u.NameSuffix != nil || u.JobTitle != nil ||
		u.Department != nil || u.OrganizationName != nil
}

// Validate rejects malformed values before they reach the store.
func (u CardUpdate) Validate() error {
	return validateEmails(u.EmailAddresses)
}

// VersionCreate carries the inputs for creating a new version of a card.
// A zero SourceVersionID copies from the card's base metadata; Blank skips
// copying entirely and seeds an empty data row for manual entry.
type VersionCreate struct {
	CardID          uuid.UUID
	Tag             string
	SourceVersionID uuid.UUID
	Notes           string
	Blank           bool
}

// VersionUpdate is a partial update of one version. Field-group semantics
// match CardUpdate; Tag, Notes, and IsActive update the version row itself,
// and activating a version deactivates its siblings in the same operation.
type VersionUpdate struct {
	NamePrefix       *string
	GivenName        *string
	MiddleName       *string
	FamilyName       *string
	NameSuffix       *string
	JobTitle         *string
	Department       *string
	OrganizationName *string

	PhoneNumbers    []string
	EmailAddresses  []string
	URLAddresses    []string
	PostalAddresses []PostalAddress
	SocialProfiles  []SocialProfile

	Tag      *string
	Notes    *string
	IsActive *bool
}

// HasFieldChanges reports whether any flat field pointer is set.
func (u VersionUpdate) HasFieldChanges() bool {
	return u.NamePrefix != nil || u.GivenName != nil || u.MiddleName != nil ||
		u.FamilyName != nil || u.NameSuffix != nil || u.JobTitle != nil ||
		u.Department != nil || u.OrganizationName != nil
}

// HasVersionRowChanges reports whether the version row itself is touched.
func (u VersionUpdate) HasVersionRowChanges() bool {
	return u.Tag != nil || u.Notes != nil || u.IsActive != nil
}

// Validate rejects malformed values before they reach the store.
func (u VersionUpdate) Validate() error {
	return validateEmails(u.EmailAddresses)
}

var emailPattern = regexp.MustCompile(`^[^@]+@[^@]+\.[^@]+$`)

func validateEmails(emails []string) error {
	for _, email := range emails {
		trimmed := strings.TrimSpace(email)
		if trimmed == "" {
			continue
		}
		if !emailPattern.MatchString(trimmed) {
			return InvalidEmail(email)
		}
	}
	return nil
}

// Pagination bounds list queries.
type Pagination struct {
	Limit  int
	Offset int
}

// CardDetailFilter selects a single card.
type CardDetailFilter struct {
	CardID uuid.UUID
}

// Type implements gocommand.Message.
func (CardDetailFilter) Type() string {
	return "query.card.detail"
}

// Validate implements gocommand.Message.
func (f CardDetailFilter) Validate() error {
	if f.CardID == uuid.Nil {
		return ErrCardIDRequired
	}
	return nil
}

// CardListFilter pages through the card catalog.
type CardListFilter struct {
	Pagination Pagination
}

// Type implements gocommand.Message.
func (CardListFilter) Type() string {
	return "query.card.list"
}

// Validate implements gocommand.Message.
func (CardListFilter) Validate() error {
	return nil
}

// VersionDetailFilter selects a single version.
type VersionDetailFilter struct {
	VersionID uuid.UUID
}

// Type implements gocommand.Message.
func (VersionDetailFilter) Type() string {
	return "query.version.detail"
}

// Validate implements gocommand.Message.
func (f VersionDetailFilter) Validate() error {
	if f.VersionID == uuid.Nil {
		return ErrVersionIDRequired
	}
	return nil
}

// VersionListFilter selects every version of one card.
type VersionListFilter struct {
	CardID uuid.UUID
}

// Type implements gocommand.Message.
func (VersionListFilter) Type() string {
	return "query.version.list"
}

// Validate implements gocommand.Message.
func (f VersionListFilter) Validate() error {
	if f.CardID == uuid.Nil {
		return ErrCardIDRequired
	}
	return nil
}

// CardPage is one page of a card listing, newest first.
type CardPage struct {
	Cards      []Card
	Total      int
	NextOffset int
	HasMore    bool
}
