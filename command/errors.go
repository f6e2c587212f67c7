package command

import (
	"errors"

	"github.com/cardfolio/go-cardfolio/pkg/types"
)

var (
	// ErrCardIDRequired indicates a command was invoked without a card ID.
	ErrCardIDRequired = types.ErrCardIDRequired
	// ErrVersionIDRequired indicates a command was invoked without a version ID.
	ErrVersionIDRequired = types.ErrVersionIDRequired
	// ErrHashRequired indicates card ingestion lacks the content hash.
	ErrHashRequired = errors.New("go-cardfolio: card hash required")
	// ErrTagRequired indicates version creation lacks a tag label.
	ErrTagRequired = errors.New("go-cardfolio: version tag required")
	// ErrExtractionRequired indicates the extraction command has no payload.
	ErrExtractionRequired = errors.New("go-cardfolio: extraction payload required")
	// ErrExtractionModelRequired indicates the extraction omits its model identifier.
	ErrExtractionModelRequired = errors.New("go-cardfolio: extraction model id required")
	// ErrExtractionDisabled indicates extraction ingestion is disabled via feature gate.
	ErrExtractionDisabled = errors.New("go-cardfolio: extraction ingestion disabled")
	// ErrMissingCardRepository indicates the command has no card repository wired.
	ErrMissingCardRepository = errors.New("go-cardfolio: card repository required")
	// ErrMissingVersionRepository indicates the command has no version repository wired.
	ErrMissingVersionRepository = errors.New("go-cardfolio: version repository required")
)
