package command

import (
	"context"

	featuregate "github.com/goliatone/go-featuregate/gate"
)

const featureCardsExtraction = "cards.extraction"

func featureEnabled(ctx context.Context, gate featuregate.FeatureGate, key string) (bool, error) {
	if gate == nil {
		return true, nil
	}
	return gate.Enabled(ctx, key)
}
