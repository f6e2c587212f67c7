package types

import (
	"errors"
	"fmt"

	goerrors "github.com/goliatone/go-errors"
	"github.com/google/uuid"
)

var (
	// ErrCardIDRequired indicates a command or query omitted the card ID.
	ErrCardIDRequired = errors.New("go-cardfolio: card id required")
	// ErrVersionIDRequired indicates a command or query omitted the version ID.
	ErrVersionIDRequired = errors.New("go-cardfolio: version id required")
)

// Text codes attached to rich errors so transports can map failures without
// string matching.
const (
	TextCodeCardNotFound    = "CARD_NOT_FOUND"
	TextCodeVersionNotFound = "VERSION_NOT_FOUND"
	TextCodeDuplicateHash   = "DUPLICATE_CARD_HASH"
	TextCodeOnlyVersion     = "ONLY_VERSION"
	TextCodeInvalidEmail    = "INVALID_EMAIL"
	TextCodeHashRequired    = "HASH_REQUIRED"
	TextCodeTagRequired     = "TAG_REQUIRED"
)

// TagRequired reports a version creation request missing the tag label.
func TagRequired() error {
	return goerrors.New("go-cardfolio: version tag required", goerrors.CategoryValidation).
		WithCode(goerrors.CodeBadRequest).
		WithTextCode(TextCodeTagRequired)
}

// HashRequired reports a card ingestion request missing the content hash.
func HashRequired() error {
	return goerrors.New("go-cardfolio: card hash required", goerrors.CategoryValidation).
		WithCode(goerrors.CodeBadRequest).
		WithTextCode(TextCodeHashRequired)
}

// CardNotFound reports a missing card.
func CardNotFound(id uuid.UUID) error {
	return goerrors.New(fmt.Sprintf("go-cardfolio: card %s not found", id), goerrors.CategoryNotFound).
		WithCode(goerrors.CodeNotFound).
		WithTextCode(TextCodeCardNotFound).
		WithMetadata(map[string]any{"card_id": id.String()})
}

// VersionNotFound reports a missing version.
func VersionNotFound(id uuid.UUID) error {
	return goerrors.New(fmt.Sprintf("go-cardfolio: version %s not found", id), goerrors.CategoryNotFound).
		WithCode(goerrors.CodeNotFound).
		WithTextCode(TextCodeVersionNotFound).
		WithMetadata(map[string]any{"version_id": id.String()})
}

// DuplicateHash reports a content-hash collision on card ingestion.
func DuplicateHash(hash string) error {
	return goerrors.New("go-cardfolio: card with identical hash already exists", goerrors.CategoryConflict).
		WithCode(goerrors.CodeConflict).
		WithTextCode(TextCodeDuplicateHash).
		WithMetadata(map[string]any{"hash": hash})
}

// OnlyVersion reports a refused deletion of a card's sole remaining version.
func OnlyVersion(cardID uuid.UUID) error {
	return goerrors.New(fmt.Sprintf("go-cardfolio: cannot delete the only version of card %s", cardID), goerrors.CategoryConflict).
		WithCode(goerrors.CodeConflict).
		WithTextCode(TextCodeOnlyVersion).
		WithMetadata(map[string]any{"card_id": cardID.String()})
}

// InvalidEmail reports a malformed email address in an update payload.
func InvalidEmail(email string) error {
	return goerrors.New(fmt.Sprintf("go-cardfolio: invalid email address %q", email), goerrors.CategoryValidation).
		WithCode(goerrors.CodeBadRequest).
		WithTextCode(TextCodeInvalidEmail)
}

// DatabaseError wraps an unclassified persistence failure.
func DatabaseError(err error, msg string) error {
	return goerrors.Wrap(err, goerrors.CategoryInternal, "go-cardfolio: "+msg).
		WithCode(goerrors.CodeInternal)
}

// IsNotFound reports whether err is a missing-card or missing-version error.
func IsNotFound(err error) bool {
	var rich *goerrors.Error
	if !goerrors.As(err, &rich) {
		return false
	}
	return rich.Category == goerrors.CategoryNotFound
}

// IsDuplicateHash reports whether err is a card hash collision.
func IsDuplicateHash(err error) bool {
	return hasTextCode(err, TextCodeDuplicateHash)
}

// IsOnlyVersion reports whether err is the last-version deletion guard.
func IsOnlyVersion(err error) bool {
	return hasTextCode(err, TextCodeOnlyVersion)
}

// IsValidation reports whether err was raised by payload validation.
func IsValidation(err error) bool {
	var rich *goerrors.Error
	if !goerrors.As(err, &rich) {
		return false
	}
	return rich.Category == goerrors.CategoryValidation
}

func hasTextCode(err error, code string) bool {
	var rich *goerrors.Error
	if !goerrors.As(err, &rich) {
		return false
	}
	return rich.TextCode == code
}
