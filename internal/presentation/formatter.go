package presentation

import (
	"encoding/json"
	"io"
)

// Formatter handles output formatting
type Formatter struct {
	writer io.Writer
}

// NewFormatter creates a new formatter
func NewFormatter(writer io.Writer) *Formatter {
	return &Formatter{
		writer: writer,
	}
}

// FormatSnapshots formats a snapshot listing as JSON
func (f *Formatter) FormatSnapshots(snaps []SnapshotSummaryDTO) error {
	return f.encode(snaps)
}

// FormatSnapshot formats one snapshot as JSON
func (f *Formatter) FormatSnapshot(snap SnapshotDTO) error {
	return f.encode(snap)
}

// FormatDispatches formats applied deep links as JSON
func (f *Formatter) FormatDispatches(results []DispatchDTO) error {
	return f.encode(results)
}

func (f *Formatter) encode(v any) error {
	encoder := json.NewEncoder(f.writer)
	encoder.SetIndent("", "  ")
	return encoder.Encode(v)
}
