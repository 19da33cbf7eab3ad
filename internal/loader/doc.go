// Package loader reads handwritten-digit corpora stored in the IDX format
// and turns them into in-memory datasets of normalized input vectors and
// one-hot label vectors.
//
// IDX file layout (all integers are big-endian uint32):
//
//	images: magic 2051, count, rows, cols, then count*rows*cols pixel bytes
//	labels: magic 2049, count, then count label bytes
//
// Files whose name ends in ".gz" are decompressed on the fly, so the
// archives distributed with the MNIST dataset can be used as-is.
//
// Example:
//
//	ds, err := loader.Load("train-images-idx3-ubyte", "train-labels-idx1-ubyte", 10)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	fmt.Println(ds.Len(), ds.InputSize()) // 60000 784
//
// The whole dataset is materialized in memory. That is fine for corpora of
// tens of thousands of small images but grows linearly with corpus size.
package loader
