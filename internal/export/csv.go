package export

import (
	"encoding/csv"
	"io"
	"os"
	"path/filepath"
	"strconv"

	"github.com/contextmap/contextmap-go/internal/scene"
	"github.com/rotisserie/eris"
)

var csvHeader = []string{
	"index",
	"kind",
	"tier",
	"lon",
	"lat",
	"lon2",
	"lat2",
	"x",
	"y",
	"x2",
	"y2",
	"radius",
	"label",
	"color",
}

// WriteCSV writes one row per point or line primitive. Boundaries carry no
// single position and are left out.
func WriteCSV(w io.Writer, store *scene.Store) error {
	writer := csv.NewWriter(w)

	if err := writer.Write(csvHeader); err != nil {
		return eris.Wrap(err, "failed to write header")
	}

	for _, p := range store.All() {
		if p.Kind == scene.KindBoundary {
			continue
		}
		row := make([]string, len(csvHeader))
		row[0] = strconv.Itoa(p.Index)
		row[1] = p.Kind.String()
		if p.Tier > 0 {
			row[2] = strconv.Itoa(p.Tier)
		}
		switch {
		case p.Context != nil:
			row[3], row[4] = coord(p.Context.Point.Lon), coord(p.Context.Point.Lat)
			row[12], row[13] = p.Context.Area, p.Context.Color
		case p.Marker != nil:
			row[3], row[4] = coord(p.Marker.Point.Lon), coord(p.Marker.Point.Lat)
			row[12], row[13] = p.Marker.Name, p.Marker.Color
		case p.Connection != nil:
			row[3], row[4] = coord(p.Connection.Start.Lon), coord(p.Connection.Start.Lat)
			row[5], row[6] = coord(p.Connection.End.Lon), coord(p.Connection.End.Lat)
		}
		if p.Visible() {
			row[7], row[8] = num(p.X), num(p.Y)
			if p.Kind == scene.KindConnector {
				row[9], row[10] = num(p.X2), num(p.Y2)
			} else {
				row[11] = num(p.Radius)
			}
		}
		if err := writer.Write(row); err != nil {
			return eris.Wrap(err, "failed to write row")
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return eris.Wrap(err, "failed to flush csv")
	}
	return nil
}

func coord(v float64) string {
	return strconv.FormatFloat(v, 'f', 6, 64)
}

// ExportCSV writes the store to a timestamped .csv file in directory
func ExportCSV(store *scene.Store, directory string) (string, error) {
	filename := GenerateFilename("contextmap", "csv", directory)

	if dir := filepath.Dir(filename); dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return "", eris.Wrap(err, "failed to create directory")
		}
	}
	file, err := os.Create(filename)
	if err != nil {
		return "", eris.Wrap(err, "failed to create file")
	}
	defer file.Close()

	if err := WriteCSV(file, store); err != nil {
		return "", err
	}
	return filename, nil
}
