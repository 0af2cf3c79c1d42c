// Package alignment turns a script and an audio track into timed subtitle
// segments.
//
// Script text is split into fixed-size word chunks which are handed to an
// external forced aligner. When the aligner is missing, fails, or produces
// output that cannot be parsed, timings are estimated instead by spreading
// the audio duration across chunks in proportion to their character length.
// Either way the segments are normalized for display before being returned.
package alignment
