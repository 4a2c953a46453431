// Package inventory renders discovery responses for the terminal or for
// scripts.
//
// Three formats are available:
//   - table: fixed-width columns, one row per reply as it arrives
//   - json: one JSON object per line, also streamed
//   - yaml: a single YAML sequence written when the session ends
//
// The table layout is
//
//	Name(15) MAC ID(18) Address(25) In Use Address(25) Status(10)
//
// with every cell truncated or padded to its column width.
package inventory
