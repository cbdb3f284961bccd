package db

import "errors"

// Sentinel errors for database operations.
var (
	ErrCollectionNotFound = errors.New("db: collection not found")
	ErrCollectionExists   = errors.New("db: collection already exists")
	ErrKeyNotFound        = errors.New("db: key not found")
)

// Op names used for error context. Valkey ops are command names.
const (
	OpCreateIndex = "FT.CREATE"
	OpDropIndex   = "FT.DROPINDEX"
	OpIndexInfo   = "FT.INFO"
	OpSearch      = "FT.SEARCH"
	OpInfo        = "INFO"
	OpDel         = "DEL"
	OpHGetAll     = "HGETALL"
	OpHSet        = "HSET"
	OpScan        = "SCAN"
	OpGet         = "GET"
	OpSet         = "SET"

	OpHealthCheck      = "qdrant.HealthCheck"
	OpCollectionExists = "qdrant.CollectionExists"
	OpCreateCollection = "qdrant.CreateCollection"
	OpCollectionInfo   = "qdrant.GetCollectionInfo"
	OpDeleteCollection = "qdrant.DeleteCollection"
	OpUpsert           = "qdrant.Upsert"
	OpQuery            = "qdrant.Query"
)

// Error wraps an underlying error with the operation name for diagnostics.
type Error struct {
	Op  string
	Err error
}

func (e *Error) Error() string { return e.Op + ": " + e.Err.Error() }
func (e *Error) Unwrap() error { return e.Err }
