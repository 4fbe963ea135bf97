// Package dsort sorts a sequence of float64 values across a fixed set of
// workers that share no memory and communicate by message passing.
//
// Sort is a collective operation: every worker calls it with its own
// comm.Endpoint. The coordinator, rank 0, holds the input. It validates the
// input and broadcasts the outcome, so that a rejected run fails on every
// worker instead of blocking any of them. It then broadcasts a partition
// plan and scatters one contiguous chunk to every worker. Each worker sorts
// its chunk with the radix sort of package radix, and package tree merges
// the sorted chunks back into one sequence on the coordinator.
//
// Values are ordered by their radix keys: -0 sorts before +0, and NaNs are
// placed by their bit patterns, negative NaNs before -Inf and positive NaNs
// after +Inf.
//
// The subpackages can be used on their own:
//
// dsort/radix sorts float64 values in place by an order-preserving mapping
// to unsigned integer keys and a byte-wise LSD radix sort.
//
// dsort/sort merges sorted sequences in parallel and checks sortedness.
//
// dsort/partition computes the chunks of the workers.
//
// dsort/tree reduces sorted sequences of all workers with a binary tree.
//
// dsort/comm provides endpoints within one process and over TCP.
//
// dsort/parallel and dsort/speculative provide the fork/join helpers that
// the local phases use to spread work over the CPUs of one worker.
package dsort
