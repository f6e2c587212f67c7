package command

import (
	"context"
	"strings"

	"github.com/cardfolio/go-cardfolio/pkg/types"
	gocommand "github.com/goliatone/go-command"
)

// InitialVersionTag labels the version seeded from a freshly ingested card.
const InitialVersionTag = "original"

// CardCreateInput captures the payload for card ingestion.
type CardCreateInput struct {
	Card   types.CardCreate
	Result *types.Card
}

// Type implements gocommand.Message.
func (CardCreateInput) Type() string {
	return "command.card.create"
}

// Validate implements gocommand.Message.
func (input CardCreateInput) Validate() error {
	if strings.TrimSpace(input.Card.Hash) == "" {
		return ErrHashRequired
	}
	return nil
}

// CardCreateCommand ingests a card and seeds its initial version.
type CardCreateCommand struct {
	cards    types.CardRepository
	versions types.VersionRepository
	logger   types.Logger
}

// CardCreateCommandConfig wires dependencies for the create command.
type CardCreateCommandConfig struct {
	Cards    types.CardRepository
	Versions types.VersionRepository
	Logger   types.Logger
}

// NewCardCreateCommand constructs the ingestion handler.
func NewCardCreateCommand(cfg CardCreateCommandConfig) *CardCreateCommand {
	return &CardCreateCommand{
		cards:    cfg.Cards,
		versions: cfg.Versions,
		logger:   safeLogger(cfg.Logger),
	}
}

var _ gocommand.Commander[CardCreateInput] = (*CardCreateCommand)(nil)

// Execute creates the card row and its child collections, then seeds an
// active version copied from the base metadata. A failed seed leaves the card
// in place; the version can be created again later.
func (c *CardCreateCommand) Execute(ctx context.Context, input CardCreateInput) error {
	if c.cards == nil {
		return ErrMissingCardRepository
	}
	if c.versions == nil {
		return ErrMissingVersionRepository
	}
	if err := input.Validate(); err != nil {
		return err
	}

	created, err := c.cards.CreateCard(ctx, input.Card)
	if err != nil {
		return err
	}

	if _, err := c.versions.CreateVersion(ctx, types.VersionCreate{
		CardID: created.ID,
		Tag:    InitialVersionTag,
	}); err != nil {
		c.logger.Error("card created without initial version", err, "card_id", created.ID.String())
	}

	c.logger.Info("card created", "card_id", created.ID.String(), "hash", created.Hash)
	if input.Result != nil {
		*input.Result = *created
	}
	return nil
}
