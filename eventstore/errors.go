package eventstore

import (
	"errors"
)

var ErrEmptyEventsTableName = errors.New("empty events table name supplied")
var ErrNilDatabaseConnection = errors.New("database connection must not be nil")
var ErrConcurrencyConflict = errors.New("concurrency conflict, events matching the filter changed since they were queried")
var ErrNoEventsToAppend = errors.New("no events to append")
var ErrBuildingQueryFailed = errors.New("building the sql query failed")
var ErrQueryingEventsFailed = errors.New("querying events failed")
var ErrScanningDBRowFailed = errors.New("scanning a db row failed")
var ErrAppendingEventFailed = errors.New("appending events failed")

// MaxSequenceNumberUint is a type alias for uint, representing the maximum sequence number for a "dynamic event stream".
type MaxSequenceNumberUint = uint
