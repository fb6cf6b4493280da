package commands

import (
	"fmt"
	"io"

	"github.com/dastanaron/bookmark-transfer/internal/format"
)

// DetectCommand prints the format of a bookmark file
type DetectCommand struct {
	out io.Writer
}

// NewDetectCommand creates a new detect command
func NewDetectCommand(out io.Writer) *DetectCommand {
	return &DetectCommand{out: out}
}

// Execute prints json, html or unknown for filePath.
func (c *DetectCommand) Execute(filePath, mimeType string) (format.Format, error) {
	content, mimeType, err := readInput(filePath, mimeType)
	if err != nil {
		return format.Unknown, err
	}
	f := format.Detect(content, mimeType)
	fmt.Fprintln(c.out, f)
	return f, nil
}
