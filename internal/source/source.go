package source

import (
	"context"

	"github.com/rickgao/prediction-data/internal/model"
)

// Adapter fetches and normalizes market data from one provider.
type Adapter interface {
	// Source identifies the provider this adapter reads from.
	Source() model.Source

	// Fetch performs one poll of the provider. A not-found resource
	// yields an empty slice and nil error; exhausted retries yield an
	// error that fails this fetch only. Malformed items within an
	// otherwise valid response are skipped, never fatal.
	Fetch(ctx context.Context) ([]model.MarketSnapshot, error)
}
