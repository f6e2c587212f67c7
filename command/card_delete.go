package command

import (
	"context"

	"github.com/cardfolio/go-cardfolio/pkg/types"
	gocommand "github.com/goliatone/go-command"
	"github.com/google/uuid"
)

// CardDeleteInput captures a cascade deletion request.
type CardDeleteInput struct {
	CardID uuid.UUID
}

// Type implements gocommand.Message.
func (CardDeleteInput) Type() string {
	return "command.card.delete"
}

// Validate implements gocommand.Message.
func (input CardDeleteInput) Validate() error {
	if input.CardID == uuid.Nil {
		return ErrCardIDRequired
	}
	return nil
}

// CardDeleteCommand removes a card and every version hanging off it.
type CardDeleteCommand struct {
	cards  types.CardRepository
	logger types.Logger
}

// CardDeleteCommandConfig wires dependencies for the delete command.
type CardDeleteCommandConfig struct {
	Cards  types.CardRepository
	Logger types.Logger
}

// NewCardDeleteCommand constructs the delete handler.
func NewCardDeleteCommand(cfg CardDeleteCommandConfig) *CardDeleteCommand {
	return &CardDeleteCommand{
		cards:  cfg.Cards,
		logger: safeLogger(cfg.Logger),
	}
}

var _ gocommand.Commander[CardDeleteInput] = (*CardDeleteCommand)(nil)

// Execute deletes the card, its collections, and all versions.
func (c *CardDeleteCommand) Execute(ctx context.Context, input CardDeleteInput) error {
	if c.cards == nil {
		return ErrMissingCardRepository
	}
	if err := input.Validate(); err != nil {
		return err
	}
	if err := c.cards.DeleteCard(ctx, input.CardID); err != nil {
		return err
	}
	c.logger.Info("card deleted", "card_id", input.CardID.String())
	return nil
}
