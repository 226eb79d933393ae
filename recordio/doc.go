// Package recordio reads and writes the line oriented record format shared by
// the input, every intermediate run and the sorted output: one record per
// line in decimal form, separated by '\n'.
//
// A Reader is lazy and forward only. It never holds more than one line in
// memory, which keeps the resident set independent of the source size:
//
//	rd := recordio.NewReader(file)
//	for v := range rd.All() {
//	    // use v
//	}
//	if err := rd.Err(); err != nil {
//	    // the source failed
//	}
//	fmt.Println("skipped", rd.Discarded())
//
// Empty lines, lines that are not integers and lines longer than the buffer
// are skipped and counted rather than treated as failures. A Reader created
// with Strict fails on such lines instead, which is how runs are read back.
//
// A Writer buffers records and must be flushed:
//
//	w := recordio.NewWriter(file)
//	for _, v := range sorted {
//	    if err := w.Write(v); err != nil {
//	        return err
//	    }
//	}
//	return w.Flush()
package recordio
