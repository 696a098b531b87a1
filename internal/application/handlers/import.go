package handlers

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/ersonp/roots-core/internal/domain/services"
	"github.com/ersonp/roots-core/internal/infrastructure/parsers"
)

// ImportHandler handles importing family trees from files.
type ImportHandler struct {
	service *services.ImportService
}

// NewImportHandler creates a new import handler.
func NewImportHandler(service *services.ImportService) *ImportHandler {
	return &ImportHandler{
		service: service,
	}
}

// ImportOptions controls import behavior.
type ImportOptions struct {
	Format     string                    // "json", "csv", or "auto"
	DryRun     bool                      // Validate without saving
	OnConflict services.ConflictStrategy // How to handle existing records
}

// ImportResult contains the result of an import operation.
type ImportResult struct {
	Imported int
	Skipped  int
	Errors   []services.ImportError
}

// Handle imports a family tree from a file.
func (h *ImportHandler) Handle(ctx context.Context, filePath string, opts ImportOptions) (*ImportResult, error) {
	var parser parsers.Parser
	if opts.Format == "" || opts.Format == "auto" {
		parser = parsers.ForFile(filePath)
	} else {
		parser = parsers.ForFormat(opts.Format)
	}

	if parser == nil {
		return nil, fmt.Errorf("%w: unsupported format for file: %s", services.ErrInvalidData, filePath)
	}

	file, err := os.Open(filePath)
	if err != nil {
		return nil, fmt.Errorf("opening file: %w", err)
	}
	defer file.Close()

	return h.handle(ctx, parser, file, opts)
}

// HandleReader imports a family tree read from r in the given format.
func (h *ImportHandler) HandleReader(ctx context.Context, r io.Reader, opts ImportOptions) (*ImportResult, error) {
	parser := parsers.ForFormat(opts.Format)
	if parser == nil {
		return nil, fmt.Errorf("%w: unsupported format: %q", services.ErrInvalidData, opts.Format)
	}
	return h.handle(ctx, parser, r, opts)
}

func (h *ImportHandler) handle(ctx context.Context, parser parsers.Parser, r io.Reader, opts ImportOptions) (*ImportResult, error) {
	doc, err := parser.Parse(r)
	if err != nil {
		return nil, fmt.Errorf("%w: parsing file: %v", services.ErrInvalidData, err)
	}

	if doc.Len() == 0 {
		return &ImportResult{}, nil
	}

	onConflict := opts.OnConflict
	switch onConflict {
	case "":
		onConflict = services.ConflictSkip
	case services.ConflictSkip, services.ConflictOverwrite:
	default:
		return nil, fmt.Errorf("%w: unknown conflict strategy %q (use skip or overwrite)", services.ErrInvalidData, onConflict)
	}

	serviceResult, err := h.service.Import(ctx, doc, services.ImportOptions{
		DryRun:     opts.DryRun,
		OnConflict: onConflict,
	})
	if err != nil {
		return nil, err
	}

	return toImportResult(serviceResult), nil
}

// HandleSeed loads the sample family.
func (h *ImportHandler) HandleSeed(ctx context.Context) (*ImportResult, error) {
	serviceResult, err := h.service.Seed(ctx)
	if err != nil {
		return nil, err
	}
	return toImportResult(serviceResult), nil
}

func toImportResult(r *services.ImportResult) *ImportResult {
	return &ImportResult{
		Imported: r.Imported,
		Skipped:  r.Skipped,
		Errors:   r.Errors,
	}
}
