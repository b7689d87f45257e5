// Package mrf looks up negotiated commercial rates ingested from
// hospital machine-readable files and payer in-network-rate files, for
// side-by-side comparison against the Medicare benchmark amount a
// pricing engine computes.
package mrf

import (
	"context"

	"github.com/gyeh/cms-pricing/internal/money"
)

// NegotiatedRate is one payer/plan rate for a HCPCS code in a setting.
type NegotiatedRate struct {
	HCPCS           string
	Payer           string
	Plan            string
	Setting         string
	NegotiatedCents money.Cents
	BillingClass    string
}

// Store is the narrow read interface the lookup needs.
type Store interface {
	LatestNegotiatedRate(ctx context.Context, hcpcs, payer, plan, setting string) (*NegotiatedRate, error)
}

// Lookup resolves a commercial comparison rate. A miss is not an
// error: it means no negotiated rate was ingested for this
// combination, and the caller omits the comparison field rather than
// failing the pricing line.
type Lookup struct {
	store Store
}

// NewLookup constructs a Lookup.
func NewLookup(store Store) *Lookup {
	return &Lookup{store: store}
}

// NegotiatedRate resolves the negotiated rate for a HCPCS/payer/plan
// combination in the given setting, or nil if none has been ingested.
func (l *Lookup) NegotiatedRate(ctx context.Context, hcpcs, payer, plan, setting string) (*NegotiatedRate, error) {
	if payer == "" || plan == "" {
		return nil, nil
	}
	return l.store.LatestNegotiatedRate(ctx, hcpcs, payer, plan, setting)
}
