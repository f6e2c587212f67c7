package command

import (
	"context"

	"github.com/cardfolio/go-cardfolio/pkg/types"
	gocommand "github.com/goliatone/go-command"
	"github.com/google/uuid"
)

// VersionActivateInput captures the request to make a version active.
type VersionActivateInput struct {
	VersionID uuid.UUID
}

// Type implements gocommand.Message.
func (VersionActivateInput) Type() string {
	return "command.version.activate"
}

// Validate implements gocommand.Message.
func (input VersionActivateInput) Validate() error {
	if input.VersionID == uuid.Nil {
		return ErrVersionIDRequired
	}
	return nil
}

// VersionActivateCommand flips the active flag to the requested version.
type VersionActivateCommand struct {
	versions types.VersionRepository
	logger   types.Logger
}

// VersionActivateCommandConfig wires dependencies for the activate command.
type VersionActivateCommandConfig struct {
	Versions types.VersionRepository
	Logger   types.Logger
}

// NewVersionActivateCommand constructs the activate handler.
func NewVersionActivateCommand(cfg VersionActivateCommandConfig) *VersionActivateCommand {
	return &VersionActivateCommand{
		versions: cfg.Versions,
		logger:   safeLogger(cfg.Logger),
	}
}

var _ gocommand.Commander[VersionActivateInput] = (*VersionActivateCommand)(nil)

// Execute activates the version and deactivates its siblings.
func (c *VersionActivateCommand) Execute(ctx context.Context, input VersionActivateInput) error {
	if c.versions == nil {
		return ErrMissingVersionRepository
	}
	if err := input.Validate(); err != nil {
		return err
	}
	if err := c.versions.SetActiveVersion(ctx, input.VersionID); err != nil {
		return err
	}
	c.logger.Info("version activated", "version_id", input.VersionID.String())
	return nil
}
