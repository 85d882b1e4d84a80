package app

import (
	"context"
	"fmt"
	"io"

	"github.com/emmett/blacknox/internal/models"
)

// ModelManager prints and changes the installed speech models
type ModelManager struct {
	models *models.Manager
	out    io.Writer
}

// NewModelManager creates a ModelManager that prints to out
func NewModelManager(mgr *models.Manager, out io.Writer) *ModelManager {
	return &ModelManager{models: mgr, out: out}
}

// ListModels prints the catalog with download status
func (m *ModelManager) ListModels() error {
	defaultName, _ := m.models.Default()

	fmt.Fprintln(m.out, "Available models for download:")
	fmt.Fprintln(m.out)

	for i, model := range m.models.Catalog() {
		marker := ""
		if model.Name == defaultName {
			marker = " [DEFAULT]"
		}
		fmt.Fprintf(m.out, "%d. %s%s\n", i+1, model.Name, marker)
		fmt.Fprintf(m.out, "   Language: %s\n", model.Language)
		fmt.Fprintf(m.out, "   Size:     %s\n", model.Size)
		fmt.Fprintf(m.out, "   Info:     %s\n", model.Description)

		status := "Not downloaded"
		if downloaded, _ := m.models.IsDownloaded(model.Name); downloaded {
			status = "Downloaded"
		}
		fmt.Fprintf(m.out, "   Status:   %s\n", status)
		fmt.Fprintln(m.out)
	}

	fmt.Fprintln(m.out, "To download a model, use:")
	fmt.Fprintln(m.out, "  blacknox models download <model-name>")
	return nil
}

// ListDownloaded prints the models found in the models directory
func (m *ModelManager) ListDownloaded() error {
	downloaded, err := m.models.ListDownloaded()
	if err != nil {
		return fmt.Errorf("error listing models: %w", err)
	}

	if len(downloaded) == 0 {
		fmt.Fprintf(m.out, "No models downloaded yet in %s.\n", m.models.Dir())
		fmt.Fprintln(m.out)
		fmt.Fprintln(m.out, "Use 'blacknox models list' to see available models")
		fmt.Fprintln(m.out, "Use 'blacknox models download <name>' to download a model")
		return nil
	}

	defaultName, _ := m.models.Default()
	fmt.Fprintf(m.out, "Downloaded models (%d) in %s:\n", len(downloaded), m.models.Dir())
	for i, name := range downloaded {
		marker := ""
		if name == defaultName {
			marker = " [DEFAULT]"
		}
		fmt.Fprintf(m.out, "%d. %s%s\n", i+1, name, marker)
	}
	return nil
}

// Download fetches a model unless it is already present
func (m *ModelManager) Download(ctx context.Context, name string) error {
	model, ok := m.models.Find(name)
	if !ok {
		return fmt.Errorf("%w: %s (see 'blacknox models list')", models.ErrUnknownModel, name)
	}

	downloaded, err := m.models.IsDownloaded(name)
	if err != nil {
		return fmt.Errorf("error checking model: %w", err)
	}
	if downloaded {
		fmt.Fprintf(m.out, "Model '%s' is already downloaded.\n", name)
		return nil
	}

	fmt.Fprintf(m.out, "Downloading model: %s (%s)\n", model.Name, model.Size)
	err = m.models.Download(ctx, name, func(downloaded, total int64) {
		if total > 0 {
			percent := float64(downloaded) / float64(total) * 100
			fmt.Fprintf(m.out, "\rProgress: %.1f%% (%d/%d bytes)", percent, downloaded, total)
		}
	})
	fmt.Fprintln(m.out)
	if err != nil {
		return fmt.Errorf("error downloading model: %w", err)
	}

	fmt.Fprintf(m.out, "Model '%s' downloaded to %s\n", name, m.models.Dir())
	return nil
}

// SetDefault records the model used when none is configured
func (m *ModelManager) SetDefault(name string) error {
	if err := m.models.SetDefault(name); err != nil {
		return fmt.Errorf("error setting default model: %w", err)
	}

	fmt.Fprintf(m.out, "Default model set to: %s\n", name)
	if downloaded, _ := m.models.IsDownloaded(name); !downloaded {
		fmt.Fprintln(m.out, "Note: This model is not yet downloaded.")
		fmt.Fprintf(m.out, "Run 'blacknox models download %s' to download it.\n", name)
	}
	return nil
}
