// Package loser merges sorted sequences with a tournament tree, also known as
// a loser tree. It follows github.com/bboreham/go-loser.
//
// New takes the sequences and a less function; NewOrdered uses < for ordered
// types. All pulls every sequence and yields the merged values, stopping the
// sequences once it returns.
//
//	tree := loser.NewOrdered(a, b, c)
//	for v := range tree.All() {
//	    fmt.Println(v)
//	}
//
// The tree is an array. Node 0 holds the leaf position of the winner, nodes 1
// to M-1 the loser of their game and nodes M to 2M-1 the leaves, one per
// sequence. An exhausted leaf loses every game, so inputs may contain the
// largest value of their type.
package loser
