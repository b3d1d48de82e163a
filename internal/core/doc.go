// Package core implements the student result import pipeline.
//
// An import is triggered once per uploaded file. The pipeline downloads the
// object, decodes it as CSV or a spreadsheet, and walks the rows in file
// order. Each row is normalized, its student is resolved or created by roll
// number, its semester is resolved or created by (student, semester number),
// and one subject record is appended.
//
// # Failure semantics
//
// Validation problems are row-scoped: the row is skipped, logged and counted,
// and the batch continues. Download, parse and store failures are fatal for
// the whole run. Nothing spans the batch in a transaction, so rows applied
// before a store failure remain applied.
//
// # Write policy
//
// Students and semesters are first-write-wins. A student's name and course,
// and a semester's gpa and credits, are written once when the record is
// created and are never updated by later rows or later uploads. Subjects have
// no natural key and are always inserted, so importing the same file twice
// doubles its subject rows.
//
// # Collaborators
//
// The package depends only on the [Store], [Downloader] and [RunRecorder]
// interfaces. The PostgreSQL store lives in internal/database and the blob
// stores in internal/blob.
package core
