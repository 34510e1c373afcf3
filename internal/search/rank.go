package search

import (
	"cmp"
	"slices"

	"github.com/sells-group/station-search/internal/geodesy"
	"github.com/sells-group/station-search/internal/model"
)

// Rank annotates stations with their distance from center and sorts them
// nearest first. Equal distances keep discovery order.
func Rank(center model.Point, stations []model.StationCandidate) []model.RankedStation {
	ranked := make([]model.RankedStation, 0, len(stations))
	for _, st := range stations {
		ranked = append(ranked, model.RankedStation{
			StationCandidate: st,
			DistanceKM:       geodesy.HaversineKM(center, st.Location()),
		})
	}
	slices.SortStableFunc(ranked, func(a, b model.RankedStation) int {
		return cmp.Compare(a.DistanceKM, b.DistanceKM)
	})
	return ranked
}
