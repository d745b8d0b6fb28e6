package engine

import "github.com/emberql/ember/table"

// ResultKind tags the shape of a QueryResult's payload.
type ResultKind int

const (
	SelectResult ResultKind = iota
	InsertResult
	UpdateResult
	DeleteResult
	CreateTableResult
	DropTableResult
)

func (k ResultKind) String() string {
	switch k {
	case SelectResult:
		return "Select"
	case InsertResult:
		return "Insert"
	case UpdateResult:
		return "Update"
	case DeleteResult:
		return "Delete"
	case CreateTableResult:
		return "CreateTable"
	case DropTableResult:
		return "DropTable"
	default:
		return "Unknown"
	}
}

// QueryResult is the tagged outcome of one executed statement.
type QueryResult struct {
	Kind         ResultKind
	Records      []*table.Record // Select
	AffectedRows int             // Insert, Update, Delete
	Message      string          // DDL status text
	SQL          string          // the parsed statement's String() form
}
