package cli

import (
	"fmt"
	"strings"

	"github.com/dmitrijs2005/manholepro/internal/client/models"
	"github.com/dmitrijs2005/manholepro/internal/client/report"
)

// fillInspection walks the user through every field of rec in form order.
// Any read error, including EOF, abandons the edit and leaves rec unsaved.
func (a *App) fillInspection(rec *models.Inspection) error {
	p := prompter{r: a.reader, w: a.out}
	var err error

	text := func(label string, field *string) {
		if err == nil {
			*field, err = p.Text(label, *field)
		}
	}
	number := func(label string, field **float64) {
		if err == nil {
			*field, err = p.Number(label, *field)
		}
	}
	yesNo := func(label string, field *bool) {
		if err == nil {
			*field, err = p.YesNo(label, *field)
		}
	}
	image := func(label string, field **string) {
		if err == nil {
			*field, err = p.Image(label, *field)
		}
	}

	text("Date (YYYY-MM-DD)", &rec.Date)
	text("Time (HH:MM)", &rec.Time)
	text("Inspector", &rec.Inspector)
	text("Site Code / Job", &rec.SiteCode)
	text("Manhole ID", &rec.ManholeID)
	text("System Type", &rec.SystemType)

	loc := models.Location{}
	if rec.Location != nil {
		loc = *rec.Location
	}
	number("Latitude", &loc.Lat)
	number("Longitude", &loc.Lon)
	number("Accuracy (m)", &loc.Acc)
	if err != nil {
		return err
	}
	rec.Location = nil
	if !loc.IsZero() {
		rec.Location = &loc
	}

	text("Access Cover Size", &rec.AccessCoverSize)
	if err == nil {
		rec.AccessType, err = a.askAccessType(p, rec.AccessType)
	}
	number("Depth to Chamber Invert (m)", &rec.DepthChamberInvertM)
	if err != nil {
		return err
	}

	if err := a.fillConnections(p, rec); err != nil {
		return err
	}

	yesNo("Penstock", &rec.Features.Penstock)
	yesNo("Flap-valve", &rec.Features.FlapValve)
	yesNo("Hawk-eye", &rec.Features.Hawkeye)
	text("Other feature", &rec.Features.Other)

	image("Cover photo", &rec.Photos.Cover)
	image("Label photo", &rec.Photos.Label)
	image("Inside photo", &rec.Photos.Inside)
	image("Plan sketch", &rec.SketchDataURL)
	if err != nil {
		return err
	}

	if rec.Observations != "" {
		fmt.Fprintf(a.out, "Observations:\n%s\n", rec.Observations)
	}
	keep := rec.Observations != ""
	if keep {
		if keep, err = p.YesNo("Keep observations", true); err != nil {
			return err
		}
	}
	if !keep {
		if rec.Observations, err = GetMultiline(a.reader, "Observations", a.out); err != nil {
			return err
		}
	}
	return nil
}

func (a *App) askAccessType(p prompter, current models.AccessType) (models.AccessType, error) {
	for {
		answer, err := p.Text("Access Type (None, Ladder, Step-irons)", string(current))
		if err != nil {
			return current, err
		}
		for _, t := range []models.AccessType{models.AccessNone, models.AccessLadder, models.AccessStepIrons} {
			if strings.EqualFold(answer, string(t)) {
				return t, nil
			}
		}
		if answer == "" {
			return "", nil
		}
		fmt.Fprintf(a.out, "unknown access type %q\n", answer)
	}
}

// fillConnections keeps or drops the existing pipe connections as a whole
// and then appends new ones in entry order.
func (a *App) fillConnections(p prompter, rec *models.Inspection) error {
	if len(rec.Connections) > 0 {
		for i, c := range rec.Connections {
			notes := report.Placeholder
			if c.Notes != nil && *c.Notes != "" {
				notes = *c.Notes
			}
			fmt.Fprintf(a.out, "  %d. %s° depth %s m dia %s mm %s\n", i+1,
				report.Number(c.PositionDeg), report.Number(c.DepthInvertM), report.Number(c.PipeDiameterMM), notes)
		}
		keep, err := p.YesNo(fmt.Sprintf("Keep %d pipe connection(s)", len(rec.Connections)), true)
		if err != nil {
			return err
		}
		if !keep {
			rec.Connections = nil
		}
	}

	for {
		more, err := p.YesNo("Add pipe connection", false)
		if err != nil {
			return err
		}
		if !more {
			return nil
		}
		var c models.PipeConnection
		if c.PositionDeg, err = p.Number("  Position (deg from N)", nil); err != nil {
			return err
		}
		if c.DepthInvertM, err = p.Number("  Depth to Invert (m)", nil); err != nil {
			return err
		}
		if c.PipeDiameterMM, err = p.Number("  Pipe Diameter (mm)", nil); err != nil {
			return err
		}
		if c.Notes, err = p.OptionalText("  Notes", nil); err != nil {
			return err
		}
		rec.Connections = append(rec.Connections, c)
	}
}
