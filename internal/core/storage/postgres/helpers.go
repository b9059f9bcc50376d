package postgres

import (
	"encoding/json"
	"fmt"

	v1 "github.com/sift-lab/project-sift/internal/api/v1"
)

type scanner interface {
	Scan(dest ...interface{}) error
}

// scanSignalRow scans a database row into a Signal struct.
// Compatible with both sql.Row (single) and sql.Rows (multiple).
func scanSignalRow(row scanner) (*v1.Signal, error) {
	var sig v1.Signal
	var attributesJSON []byte

	err := row.Scan(
		&sig.ID,
		&sig.SchemaID,
		&sig.UserID,
		&sig.SessionID,
		&sig.Version,
		&sig.Timestamp,
		&sig.IngestedAt,
		&attributesJSON,
		&sig.IngestSeq,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to scan signal row: %w", err)
	}

	if len(attributesJSON) > 0 {
		if err := json.Unmarshal(attributesJSON, &sig.Attributes); err != nil {
			return nil, fmt.Errorf("failed to unmarshal attributes: %w", err)
		}
	}

	return &sig, nil
}

// marshalAttributes marshals a signal's attribute map to JSON.
// Nil attributes produce nil (SQL NULL) rather than the JSON "null" string.
func marshalAttributes(sig *v1.Signal) ([]byte, error) {
	if len(sig.Attributes) == 0 {
		return nil, nil
	}
	data, err := json.Marshal(sig.Attributes)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal attributes: %w", err)
	}
	return data, nil
}
