// Package lazy gives windowed access to binary raw containers without
// decoding their bodies. Open parses only the header and layout rules; a
// window request computes the byte range of the wanted elements from the
// offset algebra and issues a single ReadAt. Row-major containers read
// whole records per window, column-major ones read exactly the window
// bytes, and a step partition touches nothing but the axis column.
//
// A File is a read-only view over one handle: windows are restartable and
// safe for concurrent use. Close releases the handle once; windows taken
// after Close fail with an I/O error.
//
// Text ("Values:") bodies have no fixed-width records to seek into; those
// decode eagerly with codec.Decode or stream forward with the stream
// package.
package lazy
