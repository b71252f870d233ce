package report

import (
	"fmt"
	"io"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/dmitrijs2005/manholepro/internal/client/models"
)

// Placeholder is shown for any field without a value.
const Placeholder = "—"

func orDash(s string) string {
	if strings.TrimSpace(s) == "" {
		return Placeholder
	}
	return s
}

// Number formats v with the fewest digits that round-trip, or the placeholder
// when v is nil.
func Number(v *float64) string {
	if v == nil {
		return Placeholder
	}
	return strconv.FormatFloat(*v, 'f', -1, 64)
}

func textOrDash(v *string) string {
	if v == nil {
		return Placeholder
	}
	return orDash(*v)
}

// FeaturesText joins the present features, or returns "None".
func FeaturesText(f models.Features) string {
	labels := f.Labels()
	if len(labels) == 0 {
		return "None"
	}
	return strings.Join(labels, ", ")
}

func present(v *string, missing string) string {
	if v == nil || *v == "" {
		return missing
	}
	return "attached"
}

// WriteText renders rec as a human readable report.
func WriteText(w io.Writer, rec models.Inspection) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)

	fmt.Fprintln(tw, "Inspection Report")
	fmt.Fprintln(tw)

	date := orDash(rec.Date)
	if rec.Time != "" {
		date += " " + rec.Time
	}
	rows := [][2]string{
		{"Date", date},
		{"Inspector", orDash(rec.Inspector)},
		{"Site/Job", orDash(rec.SiteCode)},
		{"Manhole ID", orDash(rec.ManholeID)},
		{"System", orDash(rec.SystemType)},
		{"Location", rec.Location.String()},
		{"Access Cover Size", orDash(rec.AccessCoverSize)},
		{"Access Type", orDash(string(rec.AccessType))},
		{"Depth to Chamber Invert (m)", Number(rec.DepthChamberInvertM)},
		{"Features", FeaturesText(rec.Features)},
	}
	for _, r := range rows {
		fmt.Fprintf(tw, "%s:\t%s\n", r[0], r[1])
	}

	fmt.Fprintln(tw)
	fmt.Fprintln(tw, "Pipe Connections")
	if len(rec.Connections) == 0 {
		fmt.Fprintln(tw, "No pipe connections recorded.")
	} else {
		fmt.Fprintln(tw, "#\tPosition (°)\tDepth to Invert (m)\tDiameter (mm)\tNotes")
		for i, p := range rec.Connections {
			fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\n", i+1,
				Number(p.PositionDeg), Number(p.DepthInvertM), Number(p.PipeDiameterMM), textOrDash(p.Notes))
		}
	}

	fmt.Fprintln(tw)
	fmt.Fprintln(tw, "Photos")
	fmt.Fprintf(tw, "Cover:\t%s\n", present(rec.Photos.Cover, "No photo"))
	fmt.Fprintf(tw, "Label:\t%s\n", present(rec.Photos.Label, "No photo"))
	fmt.Fprintf(tw, "Inside:\t%s\n", present(rec.Photos.Inside, "No photo"))
	fmt.Fprintf(tw, "Plan Sketch:\t%s\n", present(rec.SketchDataURL, "No sketch"))

	fmt.Fprintln(tw)
	fmt.Fprintln(tw, "Observations")
	fmt.Fprintln(tw, orDash(rec.Observations))

	return tw.Flush()
}
