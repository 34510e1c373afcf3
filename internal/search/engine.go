// Package search finds weather stations around a point by querying NCEI
// with a bounding box that doubles until the requested attributes are
// covered or the configured ceiling is reached.
package search

import (
	"context"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/station-search/internal/geodesy"
	"github.com/sells-group/station-search/internal/model"
	"github.com/sells-group/station-search/pkg/ncei"
)

// ErrSearchExhausted means the box grew past the ceiling without the
// provider returning a single station.
var ErrSearchExhausted = eris.New("search: exceeded maximum box length")

// ErrInvalidCriteria means the criteria failed validation before any query.
var ErrInvalidCriteria = eris.New("search: invalid criteria")

// DefaultInitialHalfLengthKM is where every search starts.
const DefaultInitialHalfLengthKM = 1.0

// Searcher is the part of the NCEI client the engine needs.
type Searcher interface {
	SearchStations(ctx context.Context, req ncei.SearchRequest) (*ncei.SearchResult, error)
}

// State is the engine state recorded for each iteration.
type State int

const (
	StateSearching State = iota
	StateExpanding
	StateFound
	StateExceededLimit
)

func (s State) String() string {
	switch s {
	case StateSearching:
		return "searching"
	case StateExpanding:
		return "expanding"
	case StateFound:
		return "found"
	case StateExceededLimit:
		return "exceeded_limit"
	default:
		return "unknown"
	}
}

// Iteration is one query against the provider.
type Iteration struct {
	HalfLengthKM float64
	BBox         geodesy.BoundingBox
	Candidates   int
	OutsideBox   int // returned stations located outside BBox
	State        State
}

// Result is the outcome of a completed search.
type Result struct {
	Stations     []model.RankedStation
	Satisfied    map[string]bool
	Unsatisfied  []string
	HalfLengthKM float64
	Iterations   []Iteration
	// Raw is the body of the last search that returned stations.
	Raw      []byte
	Metadata model.Metadata
}

// StationsFile returns the result in its persisted form.
func (r *Result) StationsFile() model.StationsFile {
	return model.StationsFile{Stations: r.Stations, Metadata: r.Metadata}
}

// Option configures an Engine.
type Option func(*Engine)

// WithInitialHalfLength overrides the starting half-length.
func WithInitialHalfLength(km float64) Option {
	return func(e *Engine) {
		if km > 0 {
			e.initialKM = km
		}
	}
}

// WithProvenance records the invoking command in the result metadata.
func WithProvenance(command string) Option {
	return func(e *Engine) {
		e.provenance = command
	}
}

// WithClock overrides time.Now for metadata timestamps.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) {
		e.now = now
	}
}

// Engine runs one station search. It is not safe for concurrent use; each
// query depends on the state left by the previous one.
type Engine struct {
	client     Searcher
	criteria   model.SearchCriteria
	validator  *Validator
	initialKM  float64
	provenance string
	now        func() time.Time

	iterations []Iteration
	raw        []byte
}

// NewEngine creates an Engine for criteria.
func NewEngine(client Searcher, criteria model.SearchCriteria, opts ...Option) *Engine {
	e := &Engine{
		client:    client,
		criteria:  criteria,
		validator: NewValidator(criteria),
		initialKM: DefaultInitialHalfLengthKM,
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Run executes the search. Provider errors and ErrSearchExhausted abort the
// run; failing to satisfy every attribute within the ceiling does not.
func (e *Engine) Run(ctx context.Context) (*Result, error) {
	if err := e.criteria.Validate(); err != nil {
		return nil, eris.Wrap(ErrInvalidCriteria, err.Error())
	}
	e.iterations = nil
	e.raw = nil

	var tracked []string
	if !e.criteria.AnyStation {
		tracked = e.criteria.Attributes
	}
	sat := model.NewAttributeSatisfaction(tracked)

	found, length, err := e.findStations(ctx, e.initialKM)
	if err != nil {
		return nil, err
	}

	var accepted []model.StationCandidate
	if e.criteria.AnyStation {
		accepted = found
	} else {
		seen := make(map[string]bool)
		accepted = appendNew(accepted, seen, e.validator.Check(found, sat))

		for !sat.Complete() && length*2 <= e.criteria.MaxHalfLengthKM {
			length *= 2
			zap.L().Info("search: expanding for missing attributes",
				zap.Strings("missing", sat.Unsatisfied()),
				zap.Float64("half_length_km", length),
			)

			found, length, err = e.findStations(ctx, length)
			if err != nil {
				return nil, err
			}
			accepted = appendNew(accepted, seen, e.validator.Check(found, sat))
		}

		if missing := sat.Unsatisfied(); len(missing) > 0 {
			zap.L().Warn("search: attributes not found within maximum box",
				zap.Strings("missing", missing),
				zap.Float64("max_half_length_km", e.criteria.MaxHalfLengthKM),
			)
		} else {
			zap.L().Info("search: all attributes found", zap.Strings("attributes", e.criteria.Attributes))
		}
	}

	ranked := Rank(e.criteria.Center, accepted)
	zap.L().Info("search: complete",
		zap.Int("stations", len(ranked)),
		zap.Int("iterations", len(e.iterations)),
		zap.Float64("half_length_km", length),
	)

	return &Result{
		Stations:     ranked,
		Satisfied:    sat.Snapshot(),
		Unsatisfied:  sat.Unsatisfied(),
		HalfLengthKM: length,
		Iterations:   e.iterations,
		Raw:          e.raw,
		Metadata: model.Metadata{
			Command:      e.provenance,
			Dataset:      e.criteria.Dataset,
			Attributes:   e.criteria.Attributes,
			StartDate:    e.criteria.Start(),
			EndDate:      e.criteria.End(),
			HalfLengthKM: length,
			Unsatisfied:  sat.Unsatisfied(),
			GeneratedAt:  e.now().UTC(),
		},
	}, nil
}

// Iterations returns the queries made by the last Run, including a run that
// ended in an error.
func (e *Engine) Iterations() []Iteration {
	return e.iterations
}

// findStations queries at length, doubling on empty results, until the
// provider returns stations. It returns them with the length that found them.
func (e *Engine) findStations(ctx context.Context, length float64) ([]model.StationCandidate, float64, error) {
	for {
		if err := ctx.Err(); err != nil {
			return nil, length, eris.Wrap(err, "search: cancelled")
		}

		box := geodesy.ComputeBoundingBox(e.criteria.Center, length)
		zap.L().Info("search: requesting stations",
			zap.String("dataset", e.criteria.Dataset),
			zap.String("date_range", e.criteria.Start()+" - "+e.criteria.End()),
			zap.Float64("half_length_km", length),
			zap.String("bbox", box.String()),
		)

		res, err := e.client.SearchStations(ctx, ncei.SearchRequest{
			Dataset:   e.criteria.Dataset,
			BBox:      box.String(),
			StartDate: e.criteria.Start(),
			EndDate:   e.criteria.End(),
		})
		if err != nil {
			return nil, length, eris.Wrapf(err, "search: query at %g km", length)
		}

		it := Iteration{HalfLengthKM: length, BBox: box, Candidates: len(res.Stations)}
		if outside := outsideBox(box, res.Stations); len(outside) > 0 {
			it.OutsideBox = len(outside)
			zap.L().Warn("search: provider returned stations outside the queried box",
				zap.String("bbox", box.String()),
				zap.Strings("stations", outside),
			)
		}
		if len(res.Stations) > 0 {
			it.State = StateFound
			e.iterations = append(e.iterations, it)
			e.raw = res.Raw
			zap.L().Info("search: stations found",
				zap.Int("count", len(res.Stations)),
				zap.String("stations", joinIDs(res.Stations)),
			)
			return res.Stations, length, nil
		}

		zap.L().Info("search: no stations in current box", zap.Float64("half_length_km", length))
		if length*2 > e.criteria.MaxHalfLengthKM {
			it.State = StateExceededLimit
			e.iterations = append(e.iterations, it)
			zap.L().Warn("search: exceeded maximum box length, adjust search criteria",
				zap.Float64("max_half_length_km", e.criteria.MaxHalfLengthKM),
			)
			return nil, length, eris.Wrapf(ErrSearchExhausted, "search: nothing within %g km", e.criteria.MaxHalfLengthKM)
		}

		it.State = StateExpanding
		e.iterations = append(e.iterations, it)
		length *= 2
	}
}

// outsideBox returns the ids of stations whose location is not inside box.
// They are kept; ranking uses their real distance.
func outsideBox(box geodesy.BoundingBox, stations []model.StationCandidate) []string {
	var ids []string
	for _, st := range stations {
		if !box.Contains(st.Location()) {
			ids = append(ids, st.ID)
		}
	}
	return ids
}

func appendNew(dst []model.StationCandidate, seen map[string]bool, add []model.StationCandidate) []model.StationCandidate {
	for _, st := range add {
		if seen[st.ID] {
			continue
		}
		seen[st.ID] = true
		dst = append(dst, st)
	}
	return dst
}

func joinIDs(stations []model.StationCandidate) string {
	ids := make([]string, len(stations))
	for i, st := range stations {
		ids[i] = st.ID
	}
	return strings.Join(ids, ",")
}
