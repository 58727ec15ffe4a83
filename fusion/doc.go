// Package fusion merges ranked evidence lists from heterogeneous sources into a
// single trustworthy ordering.
//
// The main entry point is Fuser, a weighted reciprocal rank fusion engine. Each
// source list is first passed through a Calibrator that maps native scores onto
// a common band, then through a BoostPolicy that rewards authoritative or
// locale-matching origins. Documents are merged across sources by canonical
// key, scored by weighted reciprocal rank, and the final scores are squashed
// through a numerically stable softmax so callers always see values in [0,1].
//
// BordaFuse provides a simpler positional fusion used by retrieval strategies
// that have comparable lists but no meaningful native scores.
package fusion
