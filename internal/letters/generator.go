package letters

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"time"

	"trainee-backend/internal/docxtemplate"
	"trainee-backend/internal/extract"
	"trainee-backend/internal/shared/metrics"
	"trainee-backend/internal/shared/storage/object"
	"trainee-backend/internal/shared/telemetry"
)

// Converter turns an office document into a PDF stream.
type Converter interface {
	Convert(ctx context.Context, doc io.Reader, filename string) (io.ReadCloser, error)
}

// Generator renders letters from stored templates.
type Generator struct {
	Store     object.ObjectStore
	Converter Converter
}

// Generate fetches the template for t, fills it with data and converts it
// to PDF. Nothing is persisted along the way.
func (g *Generator) Generate(ctx context.Context, t Type, data Data) (io.ReadCloser, error) {
	if _, ok := knownTypes[t]; !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownType, t)
	}
	if err := data.validate(); err != nil {
		return nil, err
	}

	template, err := g.fetch(ctx, t)
	if err != nil {
		g.fail(t, "fetch", err)
		return nil, err
	}

	start := time.Now()
	populated, err := docxtemplate.Populate(template, data)
	metrics.ObserveStage("letters", "populate", time.Since(start))
	if err != nil {
		err = &TemplatePopulationError{Type: t, Err: err}
		g.fail(t, "populate", err)
		return nil, err
	}

	start = time.Now()
	pdf, err := g.Converter.Convert(ctx, bytes.NewReader(populated), string(t)+".docx")
	metrics.ObserveStage("letters", "convert", time.Since(start))
	if err != nil {
		g.fail(t, "convert", err)
		return nil, err
	}

	metrics.IncLetter(string(t), "ok")
	telemetry.Info("letters.generated", map[string]any{
		"letter_type":    string(t),
		"template_bytes": len(template),
	})
	return pdf, nil
}

// Placeholders lists the placeholder names of the stored template for t.
func (g *Generator) Placeholders(ctx context.Context, t Type) ([]string, error) {
	template, err := g.fetch(ctx, t)
	if err != nil {
		return nil, err
	}
	names, err := docxtemplate.Placeholders(template)
	if err != nil {
		return nil, &TemplatePopulationError{Type: t, Err: err}
	}
	return names, nil
}

// PutTemplate validates r as a docx and stores it privately as the template
// for t.
func (g *Generator) PutTemplate(ctx context.Context, t Type, fileName, mimeType string, r io.Reader) error {
	if _, ok := knownTypes[t]; !ok {
		return fmt.Errorf("%w: %q", ErrUnknownType, t)
	}
	payload, err := io.ReadAll(r)
	if err != nil {
		return fmt.Errorf("read template: %w", err)
	}
	if extract.DetectMime(mimeType, fileName, payload) != extract.MimeDOCX {
		return fmt.Errorf("%w: template must be a .docx document", ErrInvalidInput)
	}
	if _, err := docxtemplate.Placeholders(payload); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}

	if err := g.Store.Upload(ctx, TemplateKey(t), bytes.NewReader(payload), object.ACLPrivate); err != nil {
		return err
	}
	telemetry.Info("letters.template_stored", map[string]any{
		"letter_type": string(t),
		"bytes":       len(payload),
	})
	return nil
}

// fetch buffers the whole template; letter templates are small.
func (g *Generator) fetch(ctx context.Context, t Type) ([]byte, error) {
	if _, ok := knownTypes[t]; !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownType, t)
	}
	start := time.Now()
	defer func() { metrics.ObserveStage("letters", "fetch", time.Since(start)) }()

	rc, err := g.Store.Download(ctx, TemplateKey(t))
	if err != nil {
		return nil, &TemplateFetchError{Type: t, Err: err}
	}
	defer rc.Close()

	template, err := io.ReadAll(rc)
	if err != nil {
		return nil, &TemplateFetchError{Type: t, Err: err}
	}
	return template, nil
}

func (g *Generator) fail(t Type, stage string, err error) {
	metrics.IncLetter(string(t), "error")
	telemetry.Error("letters.generate_failed", map[string]any{
		"letter_type": string(t),
		"stage":       stage,
		"error":       err,
	})
}
