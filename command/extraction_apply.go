package command

import (
	"context"
	"strings"

	"github.com/cardfolio/go-cardfolio/card"
	"github.com/cardfolio/go-cardfolio/pkg/types"
	gocommand "github.com/goliatone/go-command"
	featuregate "github.com/goliatone/go-featuregate/gate"
	"github.com/goliatone/go-masker"
	"github.com/google/uuid"
)

// ExtractionApplyInput carries the output of an automated extraction run:
// the fields read off the card image plus the provenance of the run.
type ExtractionApplyInput struct {
	CardID     uuid.UUID
	Extraction types.CardUpdate
	Provenance types.Provenance
	// BaseTag overrides the derived extraction tag. The stored tag may gain a
	// numeric suffix when the base label is already taken.
	BaseTag string
	Notes   string
	Result  *types.Version
}

// Type implements gocommand.Message.
func (ExtractionApplyInput) Type() string {
	return "command.extraction.apply"
}

// Validate implements gocommand.Message.
func (input ExtractionApplyInput) Validate() error {
	switch {
	case input.CardID == uuid.Nil:
		return ErrCardIDRequired
	case !input.Extraction.HasFieldChanges() && !hasCollectionChanges(input.Extraction):
		return ErrExtractionRequired
	case strings.TrimSpace(input.BaseTag) == "" && strings.TrimSpace(input.Provenance.ModelID) == "":
		return ErrExtractionModelRequired
	default:
		return input.Extraction.Validate()
	}
}

// ExtractionApplyCommand writes extraction output onto the base card and
// snapshots the result as a new tagged, active version.
type ExtractionApplyCommand struct {
	cards    types.CardRepository
	versions types.VersionRepository
	gate     featuregate.FeatureGate
	mask     *masker.Masker
	clock    types.Clock
	logger   types.Logger
}

// ExtractionApplyCommandConfig wires dependencies for the extraction command.
type ExtractionApplyCommandConfig struct {
	Cards       types.CardRepository
	Versions    types.VersionRepository
	FeatureGate featuregate.FeatureGate
	Masker      *masker.Masker
	Clock       types.Clock
	Logger      types.Logger
}

// NewExtractionApplyCommand constructs the extraction handler.
func NewExtractionApplyCommand(cfg ExtractionApplyCommandConfig) *ExtractionApplyCommand {
	return &ExtractionApplyCommand{
		cards:    cfg.Cards,
		versions: cfg.Versions,
		gate:     cfg.FeatureGate,
		mask:     cfg.Masker,
		clock:    safeClock(cfg.Clock),
		logger:   safeLogger(cfg.Logger),
	}
}

var _ gocommand.Commander[ExtractionApplyInput] = (*ExtractionApplyCommand)(nil)

// Execute updates the card with the extracted fields, creates a version
// copied from the refreshed base metadata, and records provenance. A failed
// provenance write is logged but never fails the extraction.
func (c *ExtractionApplyCommand) Execute(ctx context.Context, input ExtractionApplyInput) error {
	if c.cards == nil {
		return ErrMissingCardRepository
	}
	if c.versions == nil {
		return ErrMissingVersionRepository
	}
	if err := input.Validate(); err != nil {
		return err
	}

	enabled, err := featureEnabled(ctx, c.gate, featureCardsExtraction)
	if err != nil {
		return err
	}
	if !enabled {
		return ErrExtractionDisabled
	}

	if err := c.cards.UpdateCard(ctx, input.CardID, input.Extraction); err != nil {
		return err
	}

	tag, err := c.versions.NextExtractionTag(ctx, input.CardID, c.baseTag(input))
	if err != nil {
		return err
	}

	created, err := c.versions.CreateVersion(ctx, types.VersionCreate{
		CardID: input.CardID,
		Tag:    tag,
		Notes:  input.Notes,
	})
	if err != nil {
		return err
	}

	provenance := input.Provenance
	if provenance.ExtractedAt.IsZero() {
		provenance.ExtractedAt = now(c.clock)
	}
	if err := c.versions.SaveProvenance(ctx, created.ID, provenance); err != nil {
		c.logger.Error("extraction provenance not recorded", err,
			"version_id", created.ID.String(),
			"card_id", input.CardID.String())
	}

	c.logger.Info("extraction applied",
		"card_id", input.CardID.String(),
		"version_id", created.ID.String(),
		"tag", tag,
		"payload", card.SanitizePayload(c.mask, extractionLogPayload(input)))

	if input.Result != nil {
		*input.Result = *created
	}
	return nil
}

// baseTag derives the version label from the run's model identity when the
// caller does not supply one.
func (c *ExtractionApplyCommand) baseTag(input ExtractionApplyInput) string {
	if tag := strings.TrimSpace(input.BaseTag); tag != "" {
		return tag
	}
	tag := "extracted_" + slugify(input.Provenance.ModelID)
	if v := strings.TrimSpace(input.Provenance.ProgramVersion); v != "" {
		tag += "_v" + v
	}
	return tag
}

func slugify(value string) string {
	value = strings.TrimSpace(strings.ToLower(value))
	var b strings.Builder
	for _, r := range value {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
		default:
			b.WriteRune('_')
		}
	}
	return strings.Trim(b.String(), "_")
}

func hasCollectionChanges(update types.CardUpdate) bool {
	return update.PhoneNumbers != nil ||
		update.EmailAddresses != nil ||
		update.URLAddresses != nil ||
		update.PostalAddresses != nil ||
		update.SocialProfiles != nil
}

func extractionLogPayload(input ExtractionApplyInput) map[string]any {
	payload := map[string]any{
		"model_id": input.Provenance.ModelID,
	}
	if input.Extraction.PhoneNumbers != nil {
		payload["phone_numbers"] = input.Extraction.PhoneNumbers
	}
	if input.Extraction.EmailAddresses != nil {
		payload["email_addresses"] = input.Extraction.EmailAddresses
	}
	if input.Extraction.GivenName != nil {
		payload["given_name"] = *input.Extraction.GivenName
	}
	if input.Extraction.FamilyName != nil {
		payload["family_name"] = *input.Extraction.FamilyName
	}
	return payload
}
