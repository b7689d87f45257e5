// Package geo implements the Geographic Resolver:
// ZIP/ZIP+4 to locality resolution under a strict precedence hierarchy,
// effective-date windowing, and a geodesic nearest-neighbor fallback.
package geo

import (
	"context"
	"sort"
	"time"

	"go.uber.org/zap"

	"github.com/gyeh/cms-pricing/internal/apperr"
	"github.com/gyeh/cms-pricing/internal/domain"
)

// MatchLevel records which step of the resolution hierarchy produced
// the result, or "error" if resolution failed.
type MatchLevel string

const (
	MatchZipPlus4 MatchLevel = "zip+4"
	MatchZip5     MatchLevel = "zip5"
	MatchNearest  MatchLevel = "nearest"
	MatchDefault  MatchLevel = "default"
	MatchError    MatchLevel = "error"
)

const benchmarkLocalityID = "01"

const (
	defaultInitialRadiusMiles = 25.0
	defaultExpandStepMiles    = 10.0
	defaultMaxRadiusMiles     = 100.0
)

// Store is the read-side dependency the Resolver needs from the
// Snapshot-backed reference store. It is implemented by pg.Store in
// internal/store/pg (pgx-backed) and by in-package fakes in tests.
type Store interface {
	GeographyByZipPlus4(ctx context.Context, zip5, plus4 string, at time.Time) (*domain.GeographyRow, error)
	GeographyByZip5(ctx context.Context, zip5 string, at time.Time) (*domain.GeographyRow, error)
	GeographyByZipState(ctx context.Context, zip5, state string, at time.Time) (*domain.GeographyRow, error)
	ZipGeometry(ctx context.Context, zip5 string, at time.Time) (*domain.ZipGeometryRow, error)
	ZipGeometriesInState(ctx context.Context, state, excludeZip5 string, at time.Time) ([]domain.ZipGeometryRow, error)
}

// Tracer persists a ResolutionTrace row. A trace write must not fail
// the call — the Resolver swallows and logs Tracer errors rather than
// propagating them.
type Tracer interface {
	WriteResolutionTrace(ctx context.Context, t ResolutionTrace) error
}

// ResolutionTrace is the structured record emitted for every resolver
// call, success or failure.
type ResolutionTrace struct {
	Inputs        Params
	MatchLevel    MatchLevel
	LocalityID    string
	State         string
	RuralFlag     domain.RuralFlag
	NearestZip    string
	DistanceMiles *float64
	DatasetDigest string
	LatencyMS     int64
	ServiceVersion string
	ErrorCode     string
	ResolvedAt    time.Time
}

// Params is a resolver call's normalized input.
type Params struct {
	Zip5                string
	Plus4               string
	ValuationDate       *time.Time
	Year                *int
	Quarter             *int
	Strict              bool
	ExposeCarrier       bool
	InitialRadiusMiles  float64
	ExpandStepMiles     float64
	MaxRadiusMiles      float64
}

func (p Params) withDefaults() Params {
	if p.InitialRadiusMiles <= 0 {
		p.InitialRadiusMiles = defaultInitialRadiusMiles
	}
	if p.ExpandStepMiles <= 0 {
		p.ExpandStepMiles = defaultExpandStepMiles
	}
	if p.MaxRadiusMiles <= 0 {
		p.MaxRadiusMiles = defaultMaxRadiusMiles
	}
	return p
}

// Resolution is the successful result of a resolve call.
type Resolution struct {
	LocalityID    string
	State         string
	RuralFlag     domain.RuralFlag
	CarrierID     string // only set when Params.ExposeCarrier
	CBSACode      string
	MatchLevel    MatchLevel
	DatasetDigest string
	NearestZip    string
	DistanceMiles *float64
}

// Resolver resolves ZIP/ZIP+4 to a locality.
type Resolver struct {
	store           Store
	tracer          Tracer
	log             *zap.Logger
	serviceVersion  string
	defaultLocality string
	now             func() time.Time
}

// NewResolver constructs a Resolver. defaultLocality is the benchmark
// locality used by step 7 of the hierarchy; it is configurable rather
// than hard-coded.
func NewResolver(store Store, tracer Tracer, log *zap.Logger, serviceVersion, defaultLocality string) *Resolver {
	if defaultLocality == "" {
		defaultLocality = benchmarkLocalityID
	}
	return &Resolver{
		store:          store,
		tracer:         tracer,
		log:            log,
		serviceVersion: serviceVersion,
		defaultLocality: defaultLocality,
		now:            time.Now,
	}
}

// Resolve runs the full resolution hierarchy.
func (r *Resolver) Resolve(ctx context.Context, p Params) (Resolution, error) {
	start := r.now()
	p = p.withDefaults()

	zip5, plus4, err := NormalizeZip(p.Zip5, p.Plus4)
	if err != nil {
		r.emitTrace(ctx, p, Resolution{MatchLevel: MatchError}, start, string(apperr.CodeInvalidInput))
		return Resolution{}, err
	}
	p.Zip5, p.Plus4 = zip5, plus4

	eff := DeriveEffectiveParams(p.ValuationDate, p.Year, p.Quarter, r.now())

	// Step 1: ZIP+4 exact.
	if p.Plus4 != "" {
		row, err := r.store.GeographyByZipPlus4(ctx, p.Zip5, p.Plus4, eff.Date)
		if err != nil {
			res := Resolution{MatchLevel: MatchError}
			r.emitTrace(ctx, p, res, start, string(apperr.CodeInternal))
			return Resolution{}, apperr.Wrap(apperr.CodeInternal, "geography lookup failed", err)
		}
		if row != nil {
			res := fromGeography(*row, MatchZipPlus4, p.ExposeCarrier)
			r.emitTrace(ctx, p, res, start, "")
			return res, nil
		}

		// Step 2: strict-mode gate.
		if p.Strict {
			res := Resolution{MatchLevel: MatchError}
			r.emitTrace(ctx, p, res, start, string(apperr.CodeNeedsPlus4))
			return Resolution{}, apperr.New(apperr.CodeNeedsPlus4,
				"a ZIP+4 for "+p.Zip5+"-"+p.Plus4+" is required in strict mode and was not found")
		}
	}

	// Step 3: ZIP5 exact.
	row, err := r.store.GeographyByZip5(ctx, p.Zip5, eff.Date)
	if err != nil {
		res := Resolution{MatchLevel: MatchError}
		r.emitTrace(ctx, p, res, start, string(apperr.CodeInternal))
		return Resolution{}, apperr.Wrap(apperr.CodeInternal, "geography lookup failed", err)
	}
	if row != nil {
		res := fromGeography(*row, MatchZip5, p.ExposeCarrier)
		r.emitTrace(ctx, p, res, start, "")
		return res, nil
	}

	// Step 4: strict-mode gate.
	if p.Strict {
		res := Resolution{MatchLevel: MatchError}
		r.emitTrace(ctx, p, res, start, string(apperr.CodeNoCoverage))
		return Resolution{}, apperr.New(apperr.CodeNoCoverage,
			"no ZIP5 coverage for "+p.Zip5+" and strict mode disallows fallback")
	}

	// Steps 5-6: geodesic nearest within state, expanding radius.
	res, found, err := r.resolveNearest(ctx, p, eff)
	if err != nil {
		errRes := Resolution{MatchLevel: MatchError}
		r.emitTrace(ctx, p, errRes, start, string(apperr.CodeInternal))
		return Resolution{}, apperr.Wrap(apperr.CodeInternal, "nearest-zip lookup failed", err)
	}
	if found {
		r.emitTrace(ctx, p, res, start, "")
		return res, nil
	}

	// Step 7: benchmark locality.
	res = Resolution{
		LocalityID:    r.defaultLocality,
		MatchLevel:    MatchDefault,
		DatasetDigest: "benchmark",
	}
	r.emitTrace(ctx, p, res, start, "")
	return res, nil
}

func fromGeography(row domain.GeographyRow, level MatchLevel, exposeCarrier bool) Resolution {
	res := Resolution{
		LocalityID:    row.LocalityID,
		State:         row.State,
		RuralFlag:     row.RuralFlag,
		CBSACode:      row.CBSACode,
		MatchLevel:    level,
		DatasetDigest: row.DatasetDigest,
	}
	if exposeCarrier {
		res.CarrierID = row.CarrierID
	}
	return res
}

// candidate pairs a ZIP geometry with its computed distance for sorting.
type candidate struct {
	geom     domain.ZipGeometryRow
	distance float64
}

func (r *Resolver) resolveNearest(ctx context.Context, p Params, eff EffectiveParams) (Resolution, bool, error) {
	sourceGeom, err := r.store.ZipGeometry(ctx, p.Zip5, eff.Date)
	if err != nil {
		return Resolution{}, false, err
	}
	if sourceGeom == nil {
		r.log.Warn("no geometry found for source ZIP", zap.String("zip5", p.Zip5))
		return Resolution{}, false, nil
	}

	radius := p.InitialRadiusMiles
	for radius <= p.MaxRadiusMiles {
		geoms, err := r.store.ZipGeometriesInState(ctx, sourceGeom.State, p.Zip5, eff.Date)
		if err != nil {
			return Resolution{}, false, err
		}

		var candidates []candidate
		for _, g := range geoms {
			d := HaversineMiles(sourceGeom.Lat, sourceGeom.Lon, g.Lat, g.Lon)
			if d <= radius {
				candidates = append(candidates, candidate{geom: g, distance: d})
			}
		}

		if best, ok := pickBestCandidate(candidates); ok {
			geoRow, err := r.store.GeographyByZipState(ctx, best.geom.Zip5, sourceGeom.State, eff.Date)
			if err != nil {
				return Resolution{}, false, err
			}
			if geoRow != nil {
				res := fromGeography(*geoRow, MatchNearest, p.ExposeCarrier)
				res.NearestZip = best.geom.Zip5
				dist := best.distance
				res.DistanceMiles = &dist
				return res, true, nil
			}
		}

		radius += p.ExpandStepMiles
	}

	return Resolution{}, false, nil
}

// pickBestCandidate applies the nearest-neighbor tie-break rules:
// prefer non-PO-Box candidates; among those (or, failing that, among
// PO-Box candidates), pick minimum distance, breaking ties by ascending
// ZIP5 lexicographically.
func pickBestCandidate(candidates []candidate) (candidate, bool) {
	if len(candidates) == 0 {
		return candidate{}, false
	}

	var nonPOBox []candidate
	for _, c := range candidates {
		if !c.geom.IsPOBox {
			nonPOBox = append(nonPOBox, c)
		}
	}

	pool := nonPOBox
	if len(pool) == 0 {
		pool = candidates
	}

	sort.Slice(pool, func(i, j int) bool {
		if pool[i].distance != pool[j].distance {
			return pool[i].distance < pool[j].distance
		}
		return pool[i].geom.Zip5 < pool[j].geom.Zip5
	})

	return pool[0], true
}

func (r *Resolver) emitTrace(ctx context.Context, p Params, res Resolution, start time.Time, errorCode string) {
	t := ResolutionTrace{
		Inputs:         p,
		MatchLevel:     res.MatchLevel,
		LocalityID:     res.LocalityID,
		State:          res.State,
		RuralFlag:      res.RuralFlag,
		NearestZip:     res.NearestZip,
		DistanceMiles:  res.DistanceMiles,
		DatasetDigest:  res.DatasetDigest,
		LatencyMS:      r.now().Sub(start).Milliseconds(),
		ServiceVersion: r.serviceVersion,
		ErrorCode:      errorCode,
		ResolvedAt:     r.now(),
	}
	if err := r.tracer.WriteResolutionTrace(ctx, t); err != nil {
		r.log.Warn("failed to persist resolution trace", zap.Error(err))
	}
}
