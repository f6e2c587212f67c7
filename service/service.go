package service

import (
	"context"
	"errors"

	"github.com/cardfolio/go-cardfolio/command"
	"github.com/cardfolio/go-cardfolio/pkg/types"
	"github.com/cardfolio/go-cardfolio/query"
	featuregate "github.com/goliatone/go-featuregate/gate"
	"github.com/goliatone/go-masker"
)

// ErrServiceNotReady indicates the service is missing required repositories.
var ErrServiceNotReady = errors.New("go-cardfolio: service not ready")

// Service is the entry point for go-cardfolio. It wires repositories and the
// command/query facades supplied by the host application.
type Service struct {
	cfg      Config
	commands Commands
	queries  Queries
}

// Commands exposes the service command handlers.
type Commands struct {
	CardCreate      *command.CardCreateCommand
	CardUpdate      *command.CardUpdateCommand
	CardDelete      *command.CardDeleteCommand
	VersionCreate   *command.VersionCreateCommand
	VersionUpdate   *command.VersionUpdateCommand
	VersionActivate *command.VersionActivateCommand
	VersionDelete   *command.VersionDeleteCommand
	ExtractionApply *command.ExtractionApplyCommand
}

// Queries exposes read-model helpers.
type Queries struct {
	CardDetail    *query.CardDetailQuery
	CardList      *query.CardListQuery
	VersionDetail *query.VersionDetailQuery
	VersionList   *query.VersionListQuery
}

// Config captures all required dependencies so callers can provide their own
// instances (bun.DB backed repositories, cached decorators, etc.).
type Config struct {
	Cards       types.CardRepository
	Versions    types.VersionRepository
	FeatureGate featuregate.FeatureGate
	Masker      *masker.Masker
	Clock       types.Clock
	IDGenerator types.IDGenerator
	Logger      types.Logger
}

// New constructs a Service from the supplied configuration.
func New(cfg Config) *Service {
	norm := normalizeConfig(cfg)
	s := &Service{cfg: norm}
	s.commands = s.buildCommands()
	s.queries = s.buildQueries()
	return s
}

func normalizeConfig(cfg Config) Config {
	if cfg.Clock == nil {
		cfg.Clock = types.SystemClock{}
	}
	if cfg.IDGenerator == nil {
		cfg.IDGenerator = types.UUIDGenerator{}
	}
	if cfg.Logger == nil {
		cfg.Logger = types.NopLogger{}
	}
	return cfg
}

// Commands returns the command facade.
func (s *Service) Commands() Commands {
	return s.commands
}

// Queries returns the query facade.
func (s *Service) Queries() Queries {
	return s.queries
}

// Ready reports whether the service has the required dependencies wired in.
func (s *Service) Ready() bool {
	return s != nil && s.cfg.Cards != nil && s.cfg.Versions != nil
}

// HealthCheck surfaces missing configuration to upstream transports.
func (s *Service) HealthCheck(ctx context.Context) error {
	if !s.Ready() {
		return ErrServiceNotReady
	}
	return nil
}

func (s *Service) buildCommands() Commands {
	return Commands{
		CardCreate: command.NewCardCreateCommand(command.CardCreateCommandConfig{
			Cards:    s.cfg.Cards,
			Versions: s.cfg.Versions,
			Logger:   s.cfg.Logger,
		}),
		CardUpdate: command.NewCardUpdateCommand(command.CardUpdateCommandConfig{
			Cards:  s.cfg.Cards,
			Logger: s.cfg.Logger,
		}),
		CardDelete: command.NewCardDeleteCommand(command.CardDeleteCommandConfig{
			Cards:  s.cfg.Cards,
			Logger: s.cfg.Logger,
		}),
		VersionCreate: command.NewVersionCreateCommand(command.VersionCreateCommandConfig{
			Versions: s.cfg.Versions,
			Logger:   s.cfg.Logger,
		}),
		VersionUpdate: command.NewVersionUpdateCommand(command.VersionUpdateCommandConfig{
			Versions: s.cfg.Versions,
			Logger:   s.cfg.Logger,
		}),
		VersionActivate: command.NewVersionActivateCommand(command.VersionActivateCommandConfig{
			Versions: s.cfg.Versions,
			Logger:   s.cfg.Logger,
		}),
		VersionDelete: command.NewVersionDeleteCommand(command.VersionDeleteCommandConfig{
			Versions: s.cfg.Versions,
			Logger:   s.cfg.Logger,
		}),
		ExtractionApply: command.NewExtractionApplyCommand(command.ExtractionApplyCommandConfig{
			Cards:       s.cfg.Cards,
			Versions:    s.cfg.Versions,
			FeatureGate: s.cfg.FeatureGate,
			Masker:      s.cfg.Masker,
			Clock:       s.cfg.Clock,
			Logger:      s.cfg.Logger,
		}),
	}
}

func (s *Service) buildQueries() Queries {
	return Queries{
		CardDetail:    query.NewCardDetailQuery(s.cfg.Cards, s.cfg.Logger),
		CardList:      query.NewCardListQuery(s.cfg.Cards, s.cfg.Logger),
		VersionDetail: query.NewVersionDetailQuery(s.cfg.Versions, s.cfg.Logger),
		VersionList:   query.NewVersionListQuery(s.cfg.Versions, s.cfg.Logger),
	}
}
