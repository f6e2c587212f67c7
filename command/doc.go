// Package command exposes go-command compatible handlers implementing
// go-cardfolio business logic (card ingestion, version lifecycle, extraction
// application). Commands are wired by the service layer and can be invoked by
// any transport.
package command
