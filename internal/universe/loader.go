package universe

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
	"github.com/goccy/go-json"
	"github.com/tidwall/jsonc"
	"gopkg.in/yaml.v3"

	"curator/internal/faults"
	"curator/internal/media"
	"curator/internal/textutil"
)

// Format is a universe file encoding.
type Format string

const (
	FormatJSON  Format = "json"
	FormatJSONC Format = "jsonc"
	FormatYAML  Format = "yaml"
)

type document struct {
	Universes []media.Universe `json:"universes" yaml:"universes"`
}

var (
	validateOnce sync.Once
	validate     *validator.Validate
)

func getValidator() *validator.Validate {
	validateOnce.Do(func() {
		validate = validator.New(validator.WithRequiredStructEnabled())
		_ = validate.RegisterValidation("nowhitespace", func(fl validator.FieldLevel) bool {
			return !textutil.ContainsWhitespace(fl.Field().String())
		})
	})
	return validate
}

// FormatFromPath picks the format from the file extension. Unknown
// extensions are read as JSONC, which also accepts plain JSON.
func FormatFromPath(path string) Format {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return FormatYAML
	case ".json":
		return FormatJSON
	default:
		return FormatJSONC
	}
}

// Load reads and validates the universe file at path.
func Load(path string) ([]media.Universe, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, faults.Wrap(faults.ErrNotFound, path, "read universes", "file does not exist", err)
		}
		return nil, fmt.Errorf("read universes %s: %w", path, err)
	}
	universes, err := Parse(data, FormatFromPath(path))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return universes, nil
}

// Parse decodes and validates universe definitions.
func Parse(data []byte, format Format) ([]media.Universe, error) {
	var doc document
	switch format {
	case FormatYAML:
		if err := yaml.Unmarshal(data, &doc); err != nil {
			return nil, faults.Wrap(faults.ErrInvalidInput, "universes", "parse yaml", "", err)
		}
	case FormatJSON, FormatJSONC:
		// jsonc output is valid JSON, so plain JSON files go through the same path.
		if err := json.Unmarshal(jsonc.ToJSON(data), &doc); err != nil {
			return nil, faults.Wrap(faults.ErrInvalidInput, "universes", "parse json", "", err)
		}
	default:
		return nil, faults.Wrap(faults.ErrUnsupported, "universes", "parse", fmt.Sprintf("format %q", format), nil)
	}
	if err := Validate(doc.Universes); err != nil {
		return nil, err
	}
	return doc.Universes, nil
}

// Validate enforces the key rules across a universe collection.
func Validate(universes []media.Universe) error {
	v := getValidator()
	var problems []string
	seen := make(map[string]int, len(universes))
	for i, u := range universes {
		pos := i + 1
		if err := v.Struct(u); err != nil {
			var fieldErrs validator.ValidationErrors
			if !errors.As(err, &fieldErrs) {
				return err
			}
			for _, fe := range fieldErrs {
				problems = append(problems, fmt.Sprintf("universe %d: %s", pos, describe(fe)))
			}
			continue
		}
		if first, ok := seen[u.Key]; ok {
			problems = append(problems, fmt.Sprintf("universe %d: key %q already used by universe %d", pos, u.Key, first))
			continue
		}
		seen[u.Key] = pos
	}
	if len(problems) > 0 {
		return faults.Wrap(faults.ErrInvalidInput, "universes", "validate", strings.Join(problems, "; "), nil)
	}
	return nil
}

func describe(fe validator.FieldError) string {
	field := strings.ToLower(fe.Field())
	switch fe.Tag() {
	case "required":
		return field + " is required"
	case "nowhitespace":
		return fmt.Sprintf("%s %q must not contain whitespace", field, fe.Value())
	default:
		return fmt.Sprintf("%s failed %s validation", field, fe.Tag())
	}
}

// Select returns the universes whose keys are listed, in file order. An empty
// key list selects everything. Unknown keys are an error.
func Select(universes []media.Universe, keys []string) ([]media.Universe, error) {
	if len(keys) == 0 {
		return universes, nil
	}
	wanted := make(map[string]bool, len(keys))
	for _, key := range keys {
		wanted[strings.TrimSpace(key)] = false
	}
	out := make([]media.Universe, 0, len(keys))
	for _, u := range universes {
		if _, ok := wanted[u.Key]; ok {
			wanted[u.Key] = true
			out = append(out, u)
		}
	}
	var unknown []string
	for _, key := range keys {
		if found := wanted[strings.TrimSpace(key)]; !found {
			unknown = append(unknown, key)
		}
	}
	if len(unknown) > 0 {
		return nil, faults.Wrap(faults.ErrNotFound, "universes", "select", "unknown universe keys: "+strings.Join(unknown, ", "), nil)
	}
	return out, nil
}
