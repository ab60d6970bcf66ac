// Package core orchestrates inventory imports, pricing and supply transfers.
//
// The engine package decides; core fetches the inputs the engine needs from
// a store, applies the engine's result and writes it back. It has no
// transport dependencies and can be driven by HTTP handlers, tools or tests.
//
// # Import Flow
//
// An import is two calls. [Service.PreviewImport] decodes the uploaded
// spreadsheet, maps and merges its rows, reconciles them against the current
// inventory and returns a plan without writing anything. The client reviews
// the plan and sends its bulk payload to [Service.CommitImport], which
// re-validates the lines and upserts them item by item. Both calls hold a slot
// of the [ImportLimiter] so that large files cannot exhaust the process.
//
// # Approval Workflows
//
// Site supplies move from pending_pricing to priced when an administrator
// sets a price. Supply requests move from pending to approved or rejected
// when a warehouse manager resolves them; approval moves stock between the
// warehouse and the site in one store transaction. Resolving a request a
// second time with the same action returns the request unchanged.
//
// # Error Handling
//
// Technical errors are mapped to user-facing messages with [MapError]. See
// error_messages.go for the code reference.
package core
