/*
Package tree combines sorted sequences held by different workers into a
single sorted sequence on rank 0, using a binary-tree reduction over
message passing.

The reduction runs for Steps(size) steps. At each step the group size,
which starts at 1 and doubles every step, pairs a merger with a sender
that is group size ranks above it. The sender transmits its sequence to
the merger and is absorbed: it takes no part in any later step. After the
last step only rank 0 holds data.

RoleOf computes the role of a rank at one step without any messaging, so
the shape of the tree can be checked independently of a transport.
*/
package tree

import (
	"fmt"
	"math/bits"
)

// A Role is what a rank does at one step of the reduction.
type Role int

// The roles of a rank.
const (
	// Idle ranks neither send nor receive.
	Idle Role = iota
	// A Sender transmits its sequence to its partner and is absorbed.
	Sender
	// A Merger receives the sequence of its partner, if it has one, and
	// merges it into its own.
	Merger
)

func (r Role) String() string {
	switch r {
	case Idle:
		return "idle"
	case Sender:
		return "sender"
	case Merger:
		return "merger"
	default:
		return fmt.Sprintf("Role(%d)", int(r))
	}
}

// An Assignment is the role of a rank at one step, and its partner. Partner
// is -1 when HasPartner is false.
type Assignment struct {
	Role       Role
	Partner    int
	HasPartner bool
}

// RoleOf returns the assignment of rank at the step with the given group
// size, among size ranks. Ranks whose remainder modulo twice the group size
// is 0 merge with rank+groupSize if that rank exists; ranks whose remainder
// is groupSize send to rank-groupSize; all other ranks are idle.
//
// RoleOf panics if groupSize < 1 or rank is not in [0, size).
func RoleOf(rank, groupSize, size int) Assignment {
	if groupSize < 1 {
		panic(fmt.Sprintf("invalid group size: %v", groupSize))
	}
	if rank < 0 || rank >= size {
		panic(fmt.Sprintf("invalid rank %v of %v", rank, size))
	}
	switch rank % (2 * groupSize) {
	case 0:
		if partner := rank + groupSize; partner < size {
			return Assignment{Role: Merger, Partner: partner, HasPartner: true}
		}
		return Assignment{Role: Merger, Partner: -1}
	case groupSize:
		return Assignment{Role: Sender, Partner: rank - groupSize, HasPartner: true}
	default:
		return Assignment{Role: Idle, Partner: -1}
	}
}

// Steps returns the number of reduction steps for size ranks, which is the
// ceiling of log2(size).
//
// Steps panics if size < 1.
func Steps(size int) int {
	if size < 1 {
		panic(fmt.Sprintf("invalid number of ranks: %v", size))
	}
	return bits.Len(uint(size - 1))
}
