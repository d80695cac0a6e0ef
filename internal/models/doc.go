// Package models defines the ledger data model shared by every client.
//
// # Entities
//
//   - User: the profile of the person operating a client
//   - Group: a set of members sharing expenses in one currency
//   - Expense: money advanced by a payer and split among participants
//   - Settlement: a proposed transfer produced by the optimizer
//
// # Advisory records
//
// AiInsight, BudgetAlert and AutoReport come from external collaborators.
// The state machine only stores and replaces them.
//
// # Design Principles
//
//  1. Plain data: models carry no behavior beyond small read-only helpers
//  2. Relationships are ID strings; unknown IDs are tolerated everywhere
//  3. JSON tags match the snapshot format persisted by every client
package models
