// Package sidewing embeds a secret text payload into a discussion-thread
// carrier. The payload is compressed against a dictionary built from the
// carrier's own texts, and the resulting bitstream drives two positional
// selectors: one picks a comment (or the post itself) from the flattened
// reply tree, the other picks an ordered subset of editorial angles.
// The receiver rereads the same indices in the same canonical order to
// recover the bits, then decodes them back to the payload.
//
// The encoder is pure with respect to its inputs: dictionary order,
// flatten order, compressor tie-breaks and selector arithmetic are all
// deterministic, so independent carriers may be processed in parallel.
package sidewing

import (
	"github.com/npillmayer/schuko/tracing"
)

// tracer writes to trace with key 'sidewing'
func tracer() tracing.Trace {
	return tracing.Select("sidewing")
}
