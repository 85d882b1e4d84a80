// Package models manages the offline Vosk speech models: the catalog of
// downloadable models, where they live on disk and which one is the default.
package models

import (
	"archive/zip"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/emmett/blacknox/internal/log"
)

// ErrModelMissing means the selected model has not been downloaded
var ErrModelMissing = errors.New("speech model not found")

// ErrUnknownModel means the name is not in the catalog
var ErrUnknownModel = errors.New("unknown model")

// Model represents a Vosk model
type Model struct {
	Name        string
	Language    string
	Size        string
	URL         string
	Description string
}

// AvailableModels is the catalog of downloadable models
var AvailableModels = []Model{
	{
		Name:        "vosk-model-small-en-us-0.15",
		Language:    "en-US",
		Size:        "40M",
		URL:         "https://alphacephei.com/vosk/models/vosk-model-small-en-us-0.15.zip",
		Description: "Lightweight English model, fast but less accurate",
	},
	{
		Name:        "vosk-model-en-us-0.22-lgraph",
		Language:    "en-US",
		Size:        "128M",
		URL:         "https://alphacephei.com/vosk/models/vosk-model-en-us-0.22-lgraph.zip",
		Description: "Medium English model, balanced speed and accuracy",
	},
	{
		Name:        "vosk-model-en-us-0.22",
		Language:    "en-US",
		Size:        "1.8G",
		URL:         "https://alphacephei.com/vosk/models/vosk-model-en-us-0.22.zip",
		Description: "Large English model, slower but more accurate",
	},
}

// DefaultModelName is used until another default is set
const DefaultModelName = "vosk-model-small-en-us-0.15"

const defaultMarker = ".default_model"

// ProgressFunc reports download progress. total is -1 when unknown.
type ProgressFunc func(downloaded, total int64)

// Manager resolves and downloads models under one directory
type Manager struct {
	dir     string
	catalog []Model
	client  *http.Client
	logger  *slog.Logger
}

// Option configures a Manager
type Option func(*Manager)

// WithHTTPClient sets the client used for downloads
func WithHTTPClient(c *http.Client) Option {
	return func(m *Manager) { m.client = c }
}

// WithCatalog replaces AvailableModels
func WithCatalog(catalog []Model) Option {
	return func(m *Manager) { m.catalog = catalog }
}

// DefaultDir is ./models in the working directory
func DefaultDir() (string, error) {
	cwd, err := os.Getwd()
	if err != nil {
		return "", fmt.Errorf("failed to get working directory: %w", err)
	}
	return filepath.Join(cwd, "models"), nil
}

// NewManager creates a manager for dir. An empty dir uses DefaultDir.
func NewManager(dir string, opts ...Option) (*Manager, error) {
	if dir == "" {
		var err error
		if dir, err = DefaultDir(); err != nil {
			return nil, err
		}
	}

	m := &Manager{
		dir:     dir,
		catalog: AvailableModels,
		client:  http.DefaultClient,
		logger:  log.Component("models"),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m, nil
}

// Dir returns the models directory
func (m *Manager) Dir() string {
	return m.dir
}

// Catalog returns the downloadable models
func (m *Manager) Catalog() []Model {
	return m.catalog
}

// Find looks a model up in the catalog
func (m *Manager) Find(name string) (Model, bool) {
	for _, model := range m.catalog {
		if model.Name == name {
			return model, true
		}
	}
	return Model{}, false
}

// Default returns the default model name
func (m *Manager) Default() (string, error) {
	data, err := os.ReadFile(filepath.Join(m.dir, defaultMarker))
	if err != nil {
		if os.IsNotExist(err) {
			return DefaultModelName, nil
		}
		return DefaultModelName, err
	}

	name := strings.TrimSpace(string(data))
	if name == "" {
		return DefaultModelName, nil
	}
	return name, nil
}

// SetDefault records name as the default model
func (m *Manager) SetDefault(name string) error {
	if _, ok := m.Find(name); !ok {
		return fmt.Errorf("%w: %s", ErrUnknownModel, name)
	}

	if err := os.MkdirAll(m.dir, 0755); err != nil {
		return fmt.Errorf("failed to create models directory: %w", err)
	}

	if err := os.WriteFile(filepath.Join(m.dir, defaultMarker), []byte(name), 0644); err != nil {
		return fmt.Errorf("failed to save default model: %w", err)
	}
	return nil
}

// IsDownloaded reports whether the model directory exists
func (m *Manager) IsDownloaded(name string) (bool, error) {
	info, err := os.Stat(filepath.Join(m.dir, name))
	if os.IsNotExist(err) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return info.IsDir(), nil
}

// Resolve returns the directory of name, or of the default model when name
// is empty. A model that is not on disk yields an error wrapping
// ErrModelMissing that tells the user how to fetch it.
func (m *Manager) Resolve(name string) (string, error) {
	if name == "" {
		var err error
		if name, err = m.Default(); err != nil {
			return "", err
		}
	}

	// An explicit path to a model directory is used as is
	if filepath.IsAbs(name) || strings.ContainsRune(name, os.PathSeparator) {
		if info, err := os.Stat(name); err == nil && info.IsDir() {
			return name, nil
		}
		return "", fmt.Errorf("%w: %s", ErrModelMissing, name)
	}

	downloaded, err := m.IsDownloaded(name)
	if err != nil {
		return "", fmt.Errorf("failed to check for model: %w", err)
	}
	if !downloaded {
		return "", fmt.Errorf("%w: %s is not in %s (run `blacknox models download %s`)", ErrModelMissing, name, m.dir, name)
	}
	return filepath.Join(m.dir, name), nil
}

// ListDownloaded lists the models present in the directory
func (m *Manager) ListDownloaded() ([]string, error) {
	entries, err := os.ReadDir(m.dir)
	if os.IsNotExist(err) {
		return []string{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read models directory: %w", err)
	}

	models := []string{}
	for _, entry := range entries {
		if entry.IsDir() && strings.HasPrefix(entry.Name(), "vosk-model-") {
			models = append(models, entry.Name())
		}
	}
	return models, nil
}

// Download fetches and unpacks a catalog model
func (m *Manager) Download(ctx context.Context, name string, progress ProgressFunc) error {
	model, ok := m.Find(name)
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownModel, name)
	}

	if err := os.MkdirAll(m.dir, 0755); err != nil {
		return fmt.Errorf("failed to create models directory: %w", err)
	}

	zipPath := filepath.Join(m.dir, name+".zip")
	defer os.Remove(zipPath)

	m.logger.Info("downloading model", "model", name, "size", model.Size, "url", model.URL)
	if err := m.fetch(ctx, model.URL, zipPath, progress); err != nil {
		return err
	}

	m.logger.Info("extracting model", "model", name)
	if err := extractZip(zipPath, m.dir); err != nil {
		return fmt.Errorf("failed to extract model: %w", err)
	}

	if ok, err := m.IsDownloaded(name); err != nil || !ok {
		return fmt.Errorf("archive for %s did not contain a %s directory", name, name)
	}
	return nil
}

func (m *Manager) fetch(ctx context.Context, url, dest string, progress ProgressFunc) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := m.client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to download model: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("download failed with status: %s", resp.Status)
	}

	out, err := os.Create(dest)
	if err != nil {
		return fmt.Errorf("failed to create file: %w", err)
	}
	defer out.Close()

	var src io.Reader = resp.Body
	if progress != nil {
		src = &progressReader{r: resp.Body, total: resp.ContentLength, report: progress}
	}
	if _, err := io.Copy(out, src); err != nil {
		return fmt.Errorf("download error: %w", err)
	}
	return out.Close()
}

type progressReader struct {
	r      io.Reader
	read   int64
	total  int64
	report ProgressFunc
}

func (p *progressReader) Read(b []byte) (int, error) {
	n, err := p.r.Read(b)
	if n > 0 {
		p.read += int64(n)
		p.report(p.read, p.total)
	}
	return n, err
}

// extractZip extracts a zip file to the specified directory
func extractZip(zipPath, destDir string) error {
	r, err := zip.OpenReader(zipPath)
	if err != nil {
		return err
	}
	defer r.Close()

	for _, f := range r.File {
		fpath := filepath.Join(destDir, f.Name)

		// ZipSlip
		if !strings.HasPrefix(fpath, filepath.Clean(destDir)+string(os.PathSeparator)) {
			return fmt.Errorf("illegal file path: %s", fpath)
		}

		if f.FileInfo().IsDir() {
			if err := os.MkdirAll(fpath, 0755); err != nil {
				return err
			}
			continue
		}

		if err := extractFile(f, fpath); err != nil {
			return err
		}
	}
	return nil
}

func extractFile(f *zip.File, dest string) error {
	if err := os.MkdirAll(filepath.Dir(dest), 0755); err != nil {
		return err
	}

	out, err := os.OpenFile(dest, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, f.Mode())
	if err != nil {
		return err
	}
	defer out.Close()

	rc, err := f.Open()
	if err != nil {
		return err
	}
	defer rc.Close()

	if _, err := io.Copy(out, rc); err != nil {
		return err
	}
	return out.Close()
}
