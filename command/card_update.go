package command

import (
	"context"

	"github.com/cardfolio/go-cardfolio/pkg/types"
	gocommand "github.com/goliatone/go-command"
	"github.com/google/uuid"
)

// CardUpdateInput captures a partial update of a card's base metadata.
type CardUpdateInput struct {
	CardID uuid.UUID
	Update types.CardUpdate
}

// Type implements gocommand.Message.
func (CardUpdateInput) Type() string {
	return "command.card.update"
}

// Validate implements gocommand.Message.
func (input CardUpdateInput) Validate() error {
	if input.CardID == uuid.Nil {
		return ErrCardIDRequired
	}
	return input.Update.Validate()
}

// CardUpdateCommand applies partial updates to a card's base record.
type CardUpdateCommand struct {
	cards  types.CardRepository
	logger types.Logger
}

// CardUpdateCommandConfig wires dependencies for the update command.
type CardUpdateCommandConfig struct {
	Cards  types.CardRepository
	Logger types.Logger
}

// NewCardUpdateCommand constructs the update handler.
func NewCardUpdateCommand(cfg CardUpdateCommandConfig) *CardUpdateCommand {
	return &CardUpdateCommand{
		cards:  cfg.Cards,
		logger: safeLogger(cfg.Logger),
	}
}

var _ gocommand.Commander[CardUpdateInput] = (*CardUpdateCommand)(nil)

// Execute applies the update.
func (c *CardUpdateCommand) Execute(ctx context.Context, input CardUpdateInput) error {
	if c.cards == nil {
		return ErrMissingCardRepository
	}
	if err := input.Validate(); err != nil {
		return err
	}
	if err := c.cards.UpdateCard(ctx, input.CardID, input.Update); err != nil {
		return err
	}
	c.logger.Debug("card updated", "card_id", input.CardID.String())
	return nil
}
