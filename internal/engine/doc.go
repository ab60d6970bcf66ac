// Package engine implements inventory reconciliation and the approval state
// machines for site supplies and warehouse-to-site transfers.
//
// Everything in this package is a pure computation over in-memory inputs.
// Decoding uploaded files, fetching inventory snapshots and persisting
// mutations belong to other packages; the engine only validates, merges,
// diffs and transitions.
//
// # Import Flow
//
// An import moves through four stages:
//
//  1. [MapRecords] resolves heterogeneous spreadsheet headers onto the
//     canonical {name, quantity, unit, price} record. A file missing a
//     required column family fails with [*ValidationError]; unusable rows
//     are skipped and reported as [RowError] values.
//  2. [Deduplicate] merges rows that share a [Normalize]d identity, summing
//     quantities and keeping the first-seen display name.
//  3. [Reconcile] diffs the batch against an inventory snapshot, producing a
//     create/update [PlanItem] per batch item.
//  4. [BuildBulkPayload] flattens an accepted plan for the storage layer,
//     whose per-item outcomes are aggregated into a [CommitResult].
//
// # Approval Workflows
//
// Site supplies follow pending_pricing -> priced, where only administrators
// may price ([SetPrice]) and only site supervisors may edit descriptive
// fields ([EditDetails]). Supply requests follow pending -> approved|rejected
// and are resolved by warehouse managers ([ApproveTransfer], [RejectTransfer]).
// Authorization is checked inside each transition, not by callers.
package engine
