package render

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"

	"github.com/lepinkainen/feed-pager/templates"
)

var (
	// templateOverrideFS points at the developer-provided filesystem (usually the local templates directory).
	templateOverrideFS fs.FS = os.DirFS("templates")
	// templateFallbackFS is the embedded filesystem baked into the binary.
	templateFallbackFS fs.FS = templates.EmbeddedTemplates
)

// SetTemplateOverrideFS switches the primary filesystem used when loading templates.
func SetTemplateOverrideFS(f fs.FS) {
	templateOverrideFS = f
}

// readTemplate returns the override copy of name when there is one, else the embedded copy.
func readTemplate(name string) ([]byte, error) {
	if templateOverrideFS != nil {
		data, err := fs.ReadFile(templateOverrideFS, name)
		if err == nil {
			slog.Debug("Using template override", "name", name)
			return data, nil
		}
		if !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("failed to read template override %s: %w", name, err)
		}
	}

	data, err := fs.ReadFile(templateFallbackFS, name)
	if err != nil {
		return nil, fmt.Errorf("failed to read embedded template %s: %w", name, err)
	}
	return data, nil
}
