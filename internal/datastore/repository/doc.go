// Package repository provides the set-based store primitives used by the importer.
//
// # Identity Resolution
//
// ResolveUUIDs maps external UUIDs to surrogate keys with one bulk lookup per
// chunk of maxParams values. LookupBy and ResolveKeys do the same for natural
// keys spanning one or more columns; composite keys match a disjunction of
// column equalities:
//
//	WHERE (`recording_id` = 1 AND `tag_id` = 2) OR (`recording_id` = 1 AND `tag_id` = 3)
//
// # Deduplicating Inserts
//
// CreateMissing inserts only the rows whose natural key is not yet stored,
// collapsing in-batch duplicates (first wins), and returns exactly the rows
// it inserted with their assigned IDs. It is the sole duplicate prevention
// for association tables, which have no UUID.
//
// # Transactions
//
// Every function takes the caller's *gorm.DB, normally a transaction handle.
// Nothing here opens or commits a transaction. A unique-constraint violation
// caused by a concurrent writer surfaces as ErrDuplicateKey and must abort
// the caller's transaction.
package repository
