// Package models defines the inspection record persisted by the local store
// and exchanged with the application shell.
package models

import (
	"fmt"
	"time"

	"github.com/dmitrijs2005/manholepro/internal/common"
)

// AccessType describes how the chamber is entered.
type AccessType string

const (
	AccessNone      AccessType = "None"
	AccessLadder    AccessType = "Ladder"
	AccessStepIrons AccessType = "Step-irons"
)

// Valid reports whether t is one of the known access types. The empty value
// is accepted and means "not recorded".
func (t AccessType) Valid() bool {
	switch t {
	case "", AccessNone, AccessLadder, AccessStepIrons:
		return true
	}
	return false
}

// Inspection is a single manhole inspection. It is stored as one document
// keyed by ID.
//
// Text fields use the empty string for "no value". Numeric fields and image
// payloads are pointers so that nil (no value) differs from zero.
type Inspection struct {
	// ID is generated once when the draft is created and never changes.
	ID string `json:"id"`
	// CreatedAt is set on first save and preserved by every later save.
	CreatedAt time.Time `json:"createdAt"`

	Date       string `json:"date,omitempty"` // YYYY-MM-DD
	Time       string `json:"time,omitempty"` // HH:MM
	Inspector  string `json:"inspector,omitempty"`
	SiteCode   string `json:"siteCode,omitempty"`
	ManholeID  string `json:"manholeId,omitempty"`
	SystemType string `json:"systemType,omitempty"`

	Location *Location `json:"location,omitempty"`

	AccessCoverSize     string     `json:"accessCoverSize,omitempty"`
	AccessType          AccessType `json:"accessType,omitempty"`
	DepthChamberInvertM *float64   `json:"depthChamberInvert_m,omitempty"`

	// Connections keeps display order; it is never sorted.
	Connections []PipeConnection `json:"connections"`

	Features     Features `json:"features"`
	Observations string   `json:"observations,omitempty"`

	Photos        Photos  `json:"photos"`
	SketchDataURL *string `json:"sketchDataUrl,omitempty"`
}

// Location is a GPS fix; each component may be missing on its own.
type Location struct {
	Lat *float64 `json:"lat"`
	Lon *float64 `json:"lon"`
	Acc *float64 `json:"acc"`
}

// IsZero reports whether no component is set.
func (l *Location) IsZero() bool {
	return l == nil || (l.Lat == nil && l.Lon == nil && l.Acc == nil)
}

// String formats the fix as "lat, lon (±acc m)" with "—" for missing parts.
func (l *Location) String() string {
	if l.IsZero() {
		return "—"
	}
	coord := func(v *float64) string {
		if v == nil {
			return "—"
		}
		return fmt.Sprintf("%.6f", *v)
	}
	acc := "—"
	if l.Acc != nil {
		acc = fmt.Sprintf("%.0f", *l.Acc)
	}
	return fmt.Sprintf("%s, %s (±%s m)", coord(l.Lat), coord(l.Lon), acc)
}

// PipeConnection is one pipe entering or leaving the chamber. It has no
// identity of its own; its position in Inspection.Connections is its identity.
type PipeConnection struct {
	PositionDeg    *float64 `json:"positionDeg"`     // degrees from north
	DepthInvertM   *float64 `json:"depthInvert_m"`   // metres
	PipeDiameterMM *float64 `json:"pipeDiameter_mm"` // millimetres
	Notes          *string  `json:"notes"`
}

// Features flags equipment found inside the chamber.
type Features struct {
	Penstock  bool   `json:"penstock"`
	FlapValve bool   `json:"flapValve"`
	Hawkeye   bool   `json:"hawkeye"`
	Other     string `json:"other,omitempty"`
}

// Labels lists the present features in display order.
func (f Features) Labels() []string {
	var out []string
	if f.Penstock {
		out = append(out, "Penstock")
	}
	if f.FlapValve {
		out = append(out, "Flap-valve")
	}
	if f.Hawkeye {
		out = append(out, "Hawk-eye")
	}
	if f.Other != "" {
		out = append(out, f.Other)
	}
	return out
}

// Photos holds up to three encoded images (data URLs).
type Photos struct {
	Cover  *string `json:"cover"`
	Label  *string `json:"label"`
	Inside *string `json:"inside"`
}

// NewInspection returns an unsaved draft with the date and time prefilled
// from now, the way a new inspection form starts out.
func NewInspection(id string, now time.Time) Inspection {
	return Inspection{
		ID:         id,
		CreatedAt:  now.UTC().Truncate(time.Millisecond),
		Date:       now.Format(time.DateOnly),
		Time:       now.Format("15:04"),
		AccessType: AccessNone,
	}
}

// Validate checks the fields the store relies on.
func (i *Inspection) Validate() error {
	if i.ID == "" {
		return fmt.Errorf("%w: empty id", common.ErrInvalidInspection)
	}
	if !i.AccessType.Valid() {
		return fmt.Errorf("%w: unknown access type %q", common.ErrInvalidInspection, i.AccessType)
	}
	return nil
}
