package command

import (
	"context"

	"github.com/cardfolio/go-cardfolio/pkg/types"
	gocommand "github.com/goliatone/go-command"
	"github.com/google/uuid"
)

// VersionDeleteInput captures a version deletion request.
type VersionDeleteInput struct {
	VersionID uuid.UUID
}

// Type implements gocommand.Message.
func (VersionDeleteInput) Type() string {
	return "command.version.delete"
}

// Validate implements gocommand.Message.
func (input VersionDeleteInput) Validate() error {
	if input.VersionID == uuid.Nil {
		return ErrVersionIDRequired
	}
	return nil
}

// VersionDeleteCommand removes a version, refusing to orphan its card.
type VersionDeleteCommand struct {
	versions types.VersionRepository
	logger   types.Logger
}

// VersionDeleteCommandConfig wires dependencies for the delete command.
type VersionDeleteCommandConfig struct {
	Versions types.VersionRepository
	Logger   types.Logger
}

// NewVersionDeleteCommand constructs the delete handler.
func NewVersionDeleteCommand(cfg VersionDeleteCommandConfig) *VersionDeleteCommand {
	return &VersionDeleteCommand{
		versions: cfg.Versions,
		logger:   safeLogger(cfg.Logger),
	}
}

var _ gocommand.Commander[VersionDeleteInput] = (*VersionDeleteCommand)(nil)

// Execute deletes the version. Deleting the active one promotes the most
// recently created remaining sibling.
func (c *VersionDeleteCommand) Execute(ctx context.Context, input VersionDeleteInput) error {
	if c.versions == nil {
		return ErrMissingVersionRepository
	}
	if err := input.Validate(); err != nil {
		return err
	}
	if err := c.versions.DeleteVersion(ctx, input.VersionID); err != nil {
		return err
	}
	c.logger.Info("version deleted", "version_id", input.VersionID.String())
	return nil
}
