package pg

import (
	"context"

	"github.com/gyeh/cms-pricing/internal/geo"
)

// WriteResolutionTrace implements geo.Tracer.
func (s *Store) WriteResolutionTrace(ctx context.Context, t geo.ResolutionTrace) error {
	const q = `
		INSERT INTO resolution_traces
			(zip5, plus4, match_level, locality_id, state, rural_flag, nearest_zip,
			 distance_miles, dataset_digest, latency_ms, service_version, error_code, resolved_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13)`
	_, err := s.pool.Exec(ctx, q,
		t.Inputs.Zip5, t.Inputs.Plus4, string(t.MatchLevel), t.LocalityID, t.State, string(t.RuralFlag),
		t.NearestZip, t.DistanceMiles, t.DatasetDigest, t.LatencyMS, t.ServiceVersion, t.ErrorCode, t.ResolvedAt)
	return err
}
