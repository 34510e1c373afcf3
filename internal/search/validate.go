package search

import (
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/station-search/internal/model"
)

// Validator decides which candidates cover the requested attributes for the
// requested date window.
type Validator struct {
	start        time.Time
	end          time.Time
	allowPartial bool
}

// NewValidator creates a Validator for the criteria's window and mode.
func NewValidator(c model.SearchCriteria) *Validator {
	return &Validator{start: c.StartDate, end: c.EndDate, allowPartial: c.AllowPartial}
}

// Check accepts candidates that cover at least one attribute that was still
// unsatisfied when the call began, marking those attributes in sat. With
// partial acceptance any reported presence counts. Entries with malformed
// dates are logged and skipped.
func (v *Validator) Check(candidates []model.StationCandidate, sat *model.AttributeSatisfaction) []model.StationCandidate {
	pending := make(map[string]bool)
	for _, id := range sat.Unsatisfied() {
		pending[id] = true
	}

	var accepted []model.StationCandidate
	for _, st := range candidates {
		accept := false
		for _, dt := range st.DataTypes {
			if !pending[dt.ID] {
				continue
			}

			start, end, err := parseRange(dt.DateRange)
			if err != nil {
				zap.L().Error("search: skipping data type with malformed date range",
					zap.String("station", st.ID),
					zap.String("data_type", dt.ID),
					zap.Error(err),
				)
				continue
			}

			if !start.After(v.start) && !end.Before(v.end) {
				sat.Mark(dt.ID)
				accept = true
				continue
			}

			zap.L().Warn("search: data type only partially covers requested range",
				zap.String("station", st.ID),
				zap.String("data_type", dt.ID),
				zap.String("available_start", start.Format(model.DateLayout)),
				zap.String("available_end", end.Format(model.DateLayout)),
			)
			if v.allowPartial {
				zap.L().Warn("search: partial acceptance enabled, keeping station",
					zap.String("station", st.ID),
					zap.String("data_type", dt.ID),
				)
				sat.Mark(dt.ID)
				accept = true
			}
		}
		if accept {
			accepted = append(accepted, st)
		}
	}
	return accepted
}

// parseRange extracts the calendar dates from a provider window such as
// "1994-07-20T00:00:00".
func parseRange(r model.DateRange) (time.Time, time.Time, error) {
	start, err := parseProviderDate(r.Start)
	if err != nil {
		return time.Time{}, time.Time{}, eris.Wrap(err, "start")
	}
	end, err := parseProviderDate(r.End)
	if err != nil {
		return time.Time{}, time.Time{}, eris.Wrap(err, "end")
	}
	return start, end, nil
}

func parseProviderDate(s string) (time.Time, error) {
	datePart, _, _ := strings.Cut(s, "T")
	return model.ParseDate(datePart)
}
