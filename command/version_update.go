package command

import (
	"context"

	"github.com/cardfolio/go-cardfolio/pkg/types"
	gocommand "github.com/goliatone/go-command"
	"github.com/google/uuid"
)

// VersionUpdateInput captures a partial update of one version.
type VersionUpdateInput struct {
	VersionID uuid.UUID
	Update    types.VersionUpdate
}

// Type implements gocommand.Message.
func (VersionUpdateInput) Type() string {
	return "command.version.update"
}

// Validate implements gocommand.Message.
func (input VersionUpdateInput) Validate() error {
	if input.VersionID == uuid.Nil {
		return ErrVersionIDRequired
	}
	return input.Update.Validate()
}

// VersionUpdateCommand applies partial updates to a version.
type VersionUpdateCommand struct {
	versions types.VersionRepository
	logger   types.Logger
}

// VersionUpdateCommandConfig wires dependencies for the update command.
type VersionUpdateCommandConfig struct {
	Versions types.VersionRepository
	Logger   types.Logger
}

// NewVersionUpdateCommand constructs the update handler.
func NewVersionUpdateCommand(cfg VersionUpdateCommandConfig) *VersionUpdateCommand {
	return &VersionUpdateCommand{
		versions: cfg.Versions,
		logger:   safeLogger(cfg.Logger),
	}
}

var _ gocommand.Commander[VersionUpdateInput] = (*VersionUpdateCommand)(nil)

// Execute applies the update.
func (c *VersionUpdateCommand) Execute(ctx context.Context, input VersionUpdateInput) error {
	if c.versions == nil {
		return ErrMissingVersionRepository
	}
	if err := input.Validate(); err != nil {
		return err
	}
	if err := c.versions.UpdateVersion(ctx, input.VersionID, input.Update); err != nil {
		return err
	}
	c.logger.Debug("version updated", "version_id", input.VersionID.String())
	return nil
}
