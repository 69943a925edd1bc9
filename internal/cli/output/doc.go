// Package output renders snapwatch-cli results.
//
//   - formatter.go: Formatter interface, format parsing and terminal detection
//   - table.go: tabwriter tables built from structs, slices and maps
//   - json.go: indented JSON
//   - yaml.go: YAML through gopkg.in/yaml.v3
//
// Maps are rendered with sorted keys so snapshot listings are stable.
package output
