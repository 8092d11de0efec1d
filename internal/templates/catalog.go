package templates

import (
	"errors"
	"fmt"
	"image"
	_ "image/png"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/pelletier/go-toml/v2"

	"github.com/milam/VodParser/internal/logging"
	"github.com/milam/VodParser/internal/services"
)

const (
	// CatalogFile lists template names and their acceptance thresholds.
	CatalogFile = "catalog.toml"
	// PrepareFile is the banner shown while teams are still preparing.
	PrepareFile = "prepare.png"
	// AssembleFile is the banner shown while teams are assembling.
	AssembleFile = "assemble.png"
)

// ErrCatalog marks failures to read the template catalogue or its images.
var ErrCatalog = errors.New("template catalog error")

// Entry is one marker template with its acceptance threshold.
type Entry struct {
	Name      string
	Image     image.Image
	Threshold float64
}

// Catalog is the fixed set of assets used for one scan run.
type Catalog struct {
	Dir      string
	Entries  []Entry
	Prepare  image.Image
	Assemble image.Image
	// Missing lists catalogue names whose PNG could not be found.
	Missing []string
}

type catalogFile struct {
	Templates map[string]float64 `toml:"templates"`
}

// ReadThresholds parses <dir>/catalog.toml and returns the name→threshold map.
func ReadThresholds(dir string) (map[string]float64, error) {
	path := filepath.Join(dir, CatalogFile)
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, services.Wrap(ErrCatalog, "templates", "read catalog", path, err)
	}
	var file catalogFile
	if err := toml.Unmarshal(data, &file); err != nil {
		return nil, services.Wrap(ErrCatalog, "templates", "parse catalog", path, err)
	}
	for name, threshold := range file.Templates {
		if strings.TrimSpace(name) == "" {
			return nil, services.Wrap(ErrCatalog, "templates", "parse catalog", "empty template name", nil)
		}
		if threshold <= 0 || threshold > 1 {
			return nil, services.Wrap(ErrCatalog, "templates", "parse catalog",
				fmt.Sprintf("threshold for %q must be in (0, 1], got %v", name, threshold), nil)
		}
	}
	return file.Templates, nil
}

// Load reads the catalogue, every listed template PNG and both phase banners.
// Templates whose image is missing are skipped with a warning; a catalogue
// that yields no templates is an error.
func Load(dir string, logger *slog.Logger) (*Catalog, error) {
	logger = logging.NewComponentLogger(logger, "templates")
	thresholds, err := ReadThresholds(dir)
	if err != nil {
		return nil, err
	}

	names := make([]string, 0, len(thresholds))
	for name := range thresholds {
		names = append(names, name)
	}
	sort.Strings(names)

	cat := &Catalog{Dir: dir}
	for _, name := range names {
		img, err := readPNG(filepath.Join(dir, name+".png"))
		if errors.Is(err, fs.ErrNotExist) {
			cat.Missing = append(cat.Missing, name)
			logging.WarnWithContext(logger, "template image missing", "template_missing",
				logging.String("template", name),
				logging.String(logging.FieldErrorHint, "add the PNG or remove the name from catalog.toml"),
				logging.String(logging.FieldImpact, "template will not be detected"),
			)
			continue
		}
		if err != nil {
			return nil, services.Wrap(ErrCatalog, "templates", "read template", name, err)
		}
		cat.Entries = append(cat.Entries, Entry{Name: name, Image: img, Threshold: thresholds[name]})
	}
	if len(cat.Entries) == 0 {
		return nil, services.Wrap(ErrCatalog, "templates", "load", "catalog has no usable templates", nil)
	}

	if cat.Prepare, err = readPNG(filepath.Join(dir, PrepareFile)); err != nil {
		return nil, services.Wrap(ErrCatalog, "templates", "read banner", PrepareFile, err)
	}
	if cat.Assemble, err = readPNG(filepath.Join(dir, AssembleFile)); err != nil {
		return nil, services.Wrap(ErrCatalog, "templates", "read banner", AssembleFile, err)
	}

	logger.Debug("template catalog loaded",
		logging.String("dir", dir),
		logging.Int("templates", len(cat.Entries)),
		logging.Int("missing", len(cat.Missing)),
	)
	return cat, nil
}

func readPNG(path string) (image.Image, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	img, _, err := image.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", filepath.Base(path), err)
	}
	return img, nil
}
