package pg

import (
	"context"

	"github.com/gyeh/cms-pricing/internal/mrf"
)

// LatestNegotiatedRate implements mrf.Store.
func (s *Store) LatestNegotiatedRate(ctx context.Context, hcpcs, payer, plan, setting string) (*mrf.NegotiatedRate, error) {
	const q = `
		SELECT hcpcs, payer, plan, setting, negotiated_cents, billing_class
		FROM negotiated_rates
		WHERE hcpcs = $1 AND payer = $2 AND plan = $3 AND setting = $4
		ORDER BY effective_from DESC
		LIMIT 1
	`
	row := s.pool.QueryRow(ctx, q, hcpcs, payer, plan, setting)

	var rate mrf.NegotiatedRate
	var billingClass *string
	if err := row.Scan(&rate.HCPCS, &rate.Payer, &rate.Plan, &rate.Setting, &rate.NegotiatedCents, &billingClass); err != nil {
		if isNoRows(err) {
			return nil, nil
		}
		return nil, err
	}
	if billingClass != nil {
		rate.BillingClass = *billingClass
	}
	return &rate, nil
}
