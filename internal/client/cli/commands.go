package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/dmitrijs2005/manholepro/internal/client/models"
	"github.com/dmitrijs2005/manholepro/internal/client/report"
	"github.com/dmitrijs2005/manholepro/internal/common"
	"github.com/dmitrijs2005/manholepro/internal/filex"
)

// New drafts an inspection, collects its fields and saves it.
func (a *App) New(ctx context.Context) error {
	rec := a.service.New()
	if err := a.fillInspection(&rec); err != nil {
		return err
	}
	return a.save(ctx, rec)
}

// Edit loads id, collects changed fields and saves it back.
func (a *App) Edit(ctx context.Context, id string) error {
	rec, err := a.load(ctx, id)
	if err != nil {
		return err
	}
	if err := a.fillInspection(&rec); err != nil {
		return err
	}
	return a.save(ctx, rec)
}

func (a *App) save(ctx context.Context, rec models.Inspection) error {
	saved, err := a.service.Save(ctx, rec)
	if err != nil {
		a.logger.Error(ctx, "save failed", "id", rec.ID, "error", err)
		return err
	}
	printlnFn("Saved.", saved.ID)
	return nil
}

func (a *App) load(ctx context.Context, id string) (models.Inspection, error) {
	rec, ok, err := a.service.Get(ctx, id)
	if err != nil {
		return models.Inspection{}, err
	}
	if !ok {
		return models.Inspection{}, fmt.Errorf("inspection %s: %w", id, common.ErrorNotFound)
	}
	return rec, nil
}

// List prints one line per saved inspection, newest first.
func (a *App) List(ctx context.Context) error {
	items, err := a.service.List(ctx)
	if err != nil {
		return err
	}
	if len(items) == 0 {
		printlnFn("No inspections yet. Type 'new' to begin.")
		return nil
	}
	for _, rec := range items {
		printlnFn(listLine(rec))
	}
	return nil
}

func listLine(rec models.Inspection) string {
	site := rec.SiteCode
	if site == "" {
		site = report.Placeholder
	}
	manhole := rec.ManholeID
	if manhole == "" {
		manhole = "No ID"
	}
	inspector := rec.Inspector
	if inspector == "" {
		inspector = report.Placeholder
	}
	when := strings.TrimSpace(strings.ReplaceAll(rec.Date, "-", "/") + " " + rec.Time)
	return fmt.Sprintf("%s  %s • %s  %s  Inspector: %s  Location: %s",
		rec.ID, site, manhole, when, inspector, rec.Location.String())
}

// Show prints the stored document. Image payloads are replaced by their size.
func (a *App) Show(ctx context.Context, id string) error {
	rec, err := a.load(ctx, id)
	if err != nil {
		return err
	}

	elide := func(s *string) *string {
		if s == nil {
			return nil
		}
		v := fmt.Sprintf("<image, %d bytes>", len(*s))
		return &v
	}
	rec.Photos = models.Photos{Cover: elide(rec.Photos.Cover), Label: elide(rec.Photos.Label), Inside: elide(rec.Photos.Inside)}
	rec.SketchDataURL = elide(rec.SketchDataURL)

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(rec); err != nil {
		return err
	}
	printlnFn(strings.TrimRight(buf.String(), "\n"))
	return nil
}

// Report prints the inspection report for id.
func (a *App) Report(ctx context.Context, id string) error {
	rec, err := a.load(ctx, id)
	if err != nil {
		return err
	}
	return report.WriteText(a.out, rec)
}

func (a *App) Delete(ctx context.Context, id string) error {
	if err := a.service.Delete(ctx, id); err != nil {
		return err
	}
	printlnFn("Deleted.", id)
	return nil
}

// Export writes every inspection to an XLSX workbook at path.
func (a *App) Export(ctx context.Context, path string) (err error) {
	items, err := a.service.List(ctx)
	if err != nil {
		return err
	}
	if err := filex.EnsureParentDir(path); err != nil {
		return err
	}

	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := f.Close(); err == nil {
			err = cerr
		}
	}()

	if err := report.WriteXLSX(f, items); err != nil {
		return err
	}
	printlnFn(fmt.Sprintf("Exported %d inspection(s) to %s", len(items), path))
	return nil
}
