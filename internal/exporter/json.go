package exporter

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/dastanaron/bookmark-transfer/internal/models"
)

// WriteJSON writes forest as an indented JSON array of node objects.
func WriteJSON(w io.Writer, forest []models.ExportNode) error {
	if forest == nil {
		forest = []models.ExportNode{}
	}

	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	encoder.SetEscapeHTML(false)
	if err := encoder.Encode(forest); err != nil {
		return fmt.Errorf("failed to encode JSON: %w", err)
	}
	return nil
}
