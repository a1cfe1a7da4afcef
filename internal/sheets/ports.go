// Package sheets defines the inbound port for spreadsheet statement rows.
package sheets

import "context"

// RowSource reads statement rows, header row first, for the tabular
// pipeline.
type RowSource interface {
	ReadRows(ctx context.Context) ([][]string, error)
}
