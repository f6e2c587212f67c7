package command

import (
	"context"
	"strings"

	"github.com/cardfolio/go-cardfolio/pkg/types"
	gocommand "github.com/goliatone/go-command"
	"github.com/google/uuid"
)

// VersionCreateInput captures the payload for creating a card version.
type VersionCreateInput struct {
	Version types.VersionCreate
	Result  *types.Version
}

// Type implements gocommand.Message.
func (VersionCreateInput) Type() string {
	return "command.version.create"
}

// Validate implements gocommand.Message.
func (input VersionCreateInput) Validate() error {
	switch {
	case input.Version.CardID == uuid.Nil:
		return ErrCardIDRequired
	case strings.TrimSpace(input.Version.Tag) == "":
		return ErrTagRequired
	default:
		return nil
	}
}

// VersionCreateCommand creates a new version as the card's active one.
type VersionCreateCommand struct {
	versions types.VersionRepository
	logger   types.Logger
}

// VersionCreateCommandConfig wires dependencies for the create command.
type VersionCreateCommandConfig struct {
	Versions types.VersionRepository
	Logger   types.Logger
}

// NewVersionCreateCommand constructs the create handler.
func NewVersionCreateCommand(cfg VersionCreateCommandConfig) *VersionCreateCommand {
	return &VersionCreateCommand{
		versions: cfg.Versions,
		logger:   safeLogger(cfg.Logger),
	}
}

var _ gocommand.Commander[VersionCreateInput] = (*VersionCreateCommand)(nil)

// Execute creates the version and populates it per the copy rules.
func (c *VersionCreateCommand) Execute(ctx context.Context, input VersionCreateInput) error {
	if c.versions == nil {
		return ErrMissingVersionRepository
	}
	if err := input.Validate(); err != nil {
		return err
	}
	created, err := c.versions.CreateVersion(ctx, input.Version)
	if err != nil {
		return err
	}
	c.logger.Info("version created",
		"version_id", created.ID.String(),
		"card_id", created.CardID.String(),
		"tag", created.Tag)
	if input.Result != nil {
		*input.Result = *created
	}
	return nil
}
