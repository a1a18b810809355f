// =============================================================================
// DIMOB Converter - Main Entry Point
// =============================================================================
//
// This is the main entry point for the DIMOB Converter CLI. It delegates to
// the Cobra commands in the cmd package.
//
// USAGE:
//   dimob convert <file>   - Convert one CSV or XLSX file
//   dimob process          - Convert every file in the input directory
//   dimob validate <file>  - Report findings without converting
//   dimob version          - Display the application version
//
// ARCHITECTURE:
//   - cmd/       : CLI command definitions (Cobra)
//   - internal/  : Extraction, encoding, validation and file decoding
//   - pkg/       : File management utilities
//
// =============================================================================

package main

import (
	"github.com/ginjaninja78/CSV-to-DIMOB-conversion/cmd"
)

func main() {
	cmd.Execute()
}
