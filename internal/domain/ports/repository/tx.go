package repository

// Tx is the opaque handle repositories accept for transaction-bound calls.
// The concrete type is infra-defined (pgx.Tx for Postgres). Repositories
// MUST gracefully accept nil (the non-transactional path); use cases never
// see the underlying type.
type Tx interface{}

var NoTX Tx
