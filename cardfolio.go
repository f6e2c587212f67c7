package cardfolio

import "github.com/cardfolio/go-cardfolio/service"

// Re-export the service package entry point so consumers can do
// `cardfolio.New(...)` without importing internal wiring helpers.
type (
	Service  = service.Service
	Config   = service.Config
	Commands = service.Commands
	Queries  = service.Queries
)

// New constructs the go-cardfolio runtime using the provided configuration.
func New(cfg Config) *Service {
	return service.New(cfg)
}
