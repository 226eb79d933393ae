// Package merge implements the second phase of an external sort: a set of
// sorted runs is merged into a single ascending stream.
//
// Every run is opened once and read forward exactly once. Only the current
// head of each run is held in memory, so a merge of N runs costs O(N) memory
// and O(R log N) comparisons for R records. Two strategies select the
// smallest head:
//
//   - Heap keeps one entry per run in a priority.Queue keyed by run and
//     replaces the head in place as a run advances.
//   - Tournament plays the heads off against each other in a loser.Tree.
//
// Both produce the same output. Ties between equal records of different runs
// are broken arbitrarily.
package merge
