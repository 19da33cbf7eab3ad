// Package serialization reads and writes the parameter file of the digit
// classifier.
//
// The file is a strict sequence of four fields with no header, version or
// checksum:
//
//	Format Structure:
//	  [W1: int32 rows, int32 cols, rows*cols float64 (row-major)]
//	  [b1: int32 rows, rows float64]
//	  [W2: int32 rows, int32 cols, rows*cols float64 (row-major)]
//	  [b2: int32 rows, rows float64]
//
// Every field is little-endian and floats are IEEE-754 binary64, so files
// are portable between machines. Field order and widths must not change or
// previously saved models become unreadable.
//
// Example usage:
//
//	// Save
//	if err := serialization.WriteFile("model_params.bin", params); err != nil {
//	    log.Fatal(err)
//	}
//
//	// Load
//	params, err := serialization.ReadFile("model_params.bin")
//	if err != nil {
//	    log.Fatal(err)
//	}
package serialization
