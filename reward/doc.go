// Package reward scores evidence memories and feeds the scores back into a
// streaming per-item average.
//
// An Engine combines pluggable scoring policies (similarity, hit count,
// recency, optional source entropy) into a weighted composite in [0,1].
// Reinforce folds a fresh reward into a MemoryItem's running mean in O(1)
// without retaining reward history. Tuner adjusts policy weights against
// labeled samples using numerical gradient descent.
package reward
