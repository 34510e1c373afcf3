package artifact

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/jonas-p/go-shp"
	"github.com/rotisserie/eris"
	"github.com/twpayne/go-geom"

	"github.com/sells-group/station-search/internal/model"
)

// Shapefile attribute columns.
const (
	shpStationWidth = 20
	shpDistWidth    = 12
	shpDistPrec     = 3
	shpTypesWidth   = 6
)

// WriteShapefile writes ranked stations as a point shapefile (plus .shx and
// .dbf siblings) with STATION, DIST_KM and NTYPES attributes. A missing .shp
// extension is appended.
func WriteShapefile(path string, stations []model.RankedStation) error {
	if !strings.EqualFold(filepath.Ext(path), ".shp") {
		path += ".shp"
	}
	if err := EnsureDir(filepath.Dir(path)); err != nil {
		return err
	}
	base := path[:len(path)-len(".shp")]

	w, err := shp.Create(path, shp.POINT)
	if err != nil {
		return eris.Wrapf(err, "artifact: create shapefile %s", path)
	}

	if err := writeStationShapes(w, stations); err != nil {
		w.Close()
		return err
	}
	w.Close()

	// go-shp v0.1.1 names the attribute table "<base>dbf".
	if err := os.Rename(base+"dbf", base+".dbf"); err != nil {
		return eris.Wrapf(err, "artifact: place dbf for %s", path)
	}
	return nil
}

func writeStationShapes(w *shp.Writer, stations []model.RankedStation) error {
	fields := []shp.Field{
		shp.StringField("STATION", shpStationWidth),
		shp.FloatField("DIST_KM", shpDistWidth, shpDistPrec),
		shp.NumberField("NTYPES", shpTypesWidth),
	}
	if err := w.SetFields(fields); err != nil {
		return eris.Wrap(err, "artifact: shapefile fields")
	}

	for _, st := range stations {
		pt := stationPoint(st)
		row := int(w.Write(&shp.Point{X: pt.X(), Y: pt.Y()}))

		// Cells are zero-filled until written, so pad to the full width.
		values := []string{
			fmt.Sprintf("%-*s", shpStationWidth, st.ID),
			fmt.Sprintf("%*.*f", shpDistWidth, shpDistPrec, st.DistanceKM),
			fmt.Sprintf("%*d", shpTypesWidth, len(st.DataTypes)),
		}
		for i, v := range values {
			if err := w.WriteAttribute(row, i, v); err != nil {
				return eris.Wrapf(err, "artifact: shapefile attribute %s for %s", fields[i], st.ID)
			}
		}
	}
	return nil
}

// stationPoint returns the station location as a WGS84 point.
func stationPoint(st model.RankedStation) *geom.Point {
	return geom.NewPointFlat(geom.XY, []float64{st.Longitude, st.Latitude}).SetSRID(4326)
}
