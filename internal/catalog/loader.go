// Package catalog joins the vehicle-specs database with the rendered icon
// directory into icon catalog entries.
package catalog

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/couchcryptid/vehicle-icon-xref/internal/domain"
)

// Loader reads the icon catalog. It implements pipeline.IconSource.
type Loader struct {
	specsPath  string
	iconDir    string
	iconExt    string
	pathPrefix string
	logger     *slog.Logger
}

// NewLoader creates a Loader. pathPrefix is prepended (slash-joined) to icon
// file names to form IconEntry.IconPath.
func NewLoader(specsPath, iconDir, iconExt, pathPrefix string, logger *slog.Logger) *Loader {
	return &Loader{
		specsPath:  specsPath,
		iconDir:    iconDir,
		iconExt:    strings.ToLower(iconExt),
		pathPrefix: strings.TrimSuffix(pathPrefix, "/"),
		logger:     logger,
	}
}

// specRecord is one value of the vehicle-specs database.
type specRecord struct {
	Specs json.RawMessage `json:"specs"`
	Label json.RawMessage `json:"label"`
}

// LoadIcons returns one entry per specs key that has an icon file, in specs
// file order.
func (l *Loader) LoadIcons(ctx context.Context) ([]domain.IconEntry, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	iconFiles, err := l.iconFiles()
	if err != nil {
		return nil, err
	}

	f, err := os.Open(l.specsPath)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: vehicle specs %s", domain.ErrMissingInput, l.specsPath)
		}
		return nil, fmt.Errorf("open vehicle specs: %w", err)
	}
	defer f.Close()

	var entries []domain.IconEntry
	missingIcon := 0
	err = decodeOrderedObject(bufio.NewReader(f), func(key string, raw json.RawMessage) {
		name, ok := iconFiles[key]
		if !ok {
			missingIcon++
			return
		}
		entries = append(entries, l.newEntry(key, name, raw))
	})
	if err != nil {
		return nil, fmt.Errorf("decode vehicle specs %s: %w", l.specsPath, err)
	}

	l.logger.Info("icon catalog loaded",
		"entries", len(entries),
		"icon_files", len(iconFiles),
		"specs_without_icon", missingIcon,
	)
	return entries, nil
}

// iconFiles maps file stem to file name for every icon in the directory.
func (l *Loader) iconFiles() (map[string]string, error) {
	dirEntries, err := os.ReadDir(l.iconDir)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: icon directory %s", domain.ErrMissingInput, l.iconDir)
		}
		return nil, fmt.Errorf("read icon directory: %w", err)
	}

	files := make(map[string]string, len(dirEntries))
	for _, de := range dirEntries {
		if de.IsDir() {
			continue
		}
		name := de.Name()
		ext := filepath.Ext(name)
		if strings.ToLower(ext) != l.iconExt {
			continue
		}
		files[strings.TrimSuffix(name, ext)] = name
	}
	return files, nil
}

func (l *Loader) newEntry(key, iconName string, raw json.RawMessage) domain.IconEntry {
	var rec specRecord
	if err := json.Unmarshal(raw, &rec); err != nil {
		l.logger.Debug("specs record is not an object", "key", key, "error", err)
	}

	var specs map[string]any
	if len(rec.Specs) > 0 {
		_ = json.Unmarshal(rec.Specs, &specs) //nolint:errcheck // non-object specs are treated as empty
	}

	manufacturer := domain.NormalizeSpace(textField(specs["manufacturer"]))
	model := domain.NormalizeSpace(textField(specs["model"]))
	label := key
	if len(rec.Label) > 0 {
		var v any
		if err := json.Unmarshal(rec.Label, &v); err == nil {
			label = textField(v)
		}
	}
	label = domain.NormalizeSpace(label)

	makeText := manufacturer
	if makeText == "" {
		makeText, _, _ = strings.Cut(label, " ")
	}
	makeCanonical := domain.CanonicalMake(makeText)
	modelText := model
	if modelText == "" {
		modelText = label
	}

	year := domain.ParseIntLike(textField(specs["year"]))
	if year == 0 {
		year = domain.YearFromKey(key)
	}

	iconPath := iconName
	if l.pathPrefix != "" {
		iconPath = l.pathPrefix + "/" + iconName
	}

	return domain.IconEntry{
		IconFile:      iconName,
		IconPath:      iconPath,
		Key:           key,
		Label:         label,
		MakeCanonical: makeCanonical,
		MakeTokens:    domain.Tokenize(makeCanonical),
		ModelTokens:   domain.Tokenize(modelText + " " + label + " " + key),
		FamilyTokens:  domain.ExtractFamilyTokens(makeText, model, label),
		Year:          year,
		RaceLike:      domain.LooksRaceOrSpecial(domain.Tokenize(key + " " + label + " " + modelText)),
	}
}

// textField renders a free-text specs value the way it appears in the
// source data. Numbers keep their integer form.
func textField(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	default:
		return fmt.Sprint(t)
	}
}
