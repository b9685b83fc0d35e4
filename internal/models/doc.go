// Package models defines the core domain models for rentmate.
//
// # Models
//
//   - Tenant: an occupant with fixed charges and a payment history
//   - PaymentRecord: frozen snapshot of a recorded bill
//   - BillingDraft: per-tenant uncommitted billing inputs (units, extras, date)
//   - OwnerInfo: landlord details appended to outgoing messages
//   - Account: local sign-in identity whose ID scopes the remote document
//
// # Lifecycle
//
// Tenants are soft-deleted (Status = deleted, DeletedAt set) and can be
// restored. Permanent deletion removes the record entirely. Payment records
// are hard-deleted individually.
//
// Models carry JSON tags because the same shapes are written to the local
// store and, through the remote codec, to the remote document.
package models
