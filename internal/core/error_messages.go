package core

// error_messages.go defines the import error taxonomy and maps errors to
// user-facing messages with codes for support reference.
//
// # Import Errors (IMP001-IMP099)
//
//	IMP001 - Download failed: The uploaded file could not be read from storage
//	IMP002 - File missing: The uploaded file no longer exists in storage
//	IMP003 - File too large: The uploaded file exceeds the import size limit
//
// # Parse Errors (PARSE001-PARSE099)
//
//	PARSE001 - Unreadable file: The file is not a valid CSV or Excel workbook
//
// # Database Errors (DB001-DB099)
//
//	DB001 - Duplicate key: A concurrent import created the same student or semester
//	DB002 - Foreign key: A referenced student or semester does not exist
//	DB003 - Connection: The database could not be reached
//	DB004 - Store failure: The database rejected the write
//
// # Upload Errors (UPL001-UPL099)
//
//	UPL001 - System busy: Too many imports in progress
//	UPL002 - Request cancelled: The import was cancelled
//	UPL003 - Request timeout: The import ran past its deadline
//
// # Default Error (ERR000)
//
// Matching runs sentinel checks first (errors.Is), then falls back to
// case-insensitive substring patterns on the error text. The first match wins.

import (
	"context"
	"errors"
	"strings"
)

var (
	// ErrDownload wraps any failure to fetch the uploaded object.
	ErrDownload = errors.New("download failed")

	// ErrObjectNotFound is returned by blob stores for a missing object.
	ErrObjectNotFound = errors.New("object not found")

	// ErrFileTooLarge is returned when an object exceeds the configured size limit.
	ErrFileTooLarge = errors.New("file too large")

	// ErrParse wraps any failure to decode the uploaded file.
	ErrParse = errors.New("parse failed")

	// ErrStore wraps any lookup or insert failure during row processing.
	ErrStore = errors.New("store operation failed")

	// ErrDuplicate is reported by stores when a uniqueness constraint rejects a create.
	ErrDuplicate = errors.New("duplicate key")
)

// UserMessage is a user-facing description of an error.
type UserMessage struct {
	Code    string
	Message string
	Action  string
}

type sentinelMessage struct {
	target error
	msg    UserMessage
}

// Order matters: the most specific sentinel must come first.
var sentinelMessages = []sentinelMessage{
	{ErrTooManyImports, UserMessage{"UPL001", "Too many imports in progress", "Please wait a moment and try again"}},
	{ErrObjectNotFound, UserMessage{"IMP002", "The uploaded file no longer exists in storage", "Upload the file again"}},
	{ErrFileTooLarge, UserMessage{"IMP003", "The uploaded file exceeds the import size limit", "Split the file into smaller files"}},
	{ErrDownload, UserMessage{"IMP001", "The uploaded file could not be read from storage", "Please try again in a few moments"}},
	{ErrParse, UserMessage{"PARSE001", "The file is not a valid CSV or Excel workbook", "Check the file format and that every row has the same columns as the header"}},
	{ErrDuplicate, UserMessage{"DB001", "Another import created the same student or semester at the same time", "Upload the file again; existing records will be reused"}},
	{context.DeadlineExceeded, UserMessage{"UPL003", "The import ran past its deadline", "Split the file into smaller files or try again later"}},
	{context.Canceled, UserMessage{"UPL002", "The import was cancelled", "Please try again"}},
}

type patternMessage struct {
	pattern string
	msg     UserMessage
}

var patternMessages = []patternMessage{
	{"foreign key", UserMessage{"DB002", "A referenced student or semester does not exist", "Please try again"}},
	{"connection refused", UserMessage{"DB003", "The database could not be reached", "Please try again in a few moments"}},
	{"connection reset", UserMessage{"DB003", "The database could not be reached", "Please try again in a few moments"}},
}

var storeMessage = UserMessage{"DB004", "The database rejected the write", "Please try again or contact support"}

var defaultMessage = UserMessage{"ERR000", "An unexpected error occurred", "Please try again or contact support"}

// MapError converts an error into a user-facing message.
func MapError(err error) UserMessage {
	if err == nil {
		return defaultMessage
	}

	for _, s := range sentinelMessages {
		if errors.Is(err, s.target) {
			return s.msg
		}
	}

	lower := strings.ToLower(err.Error())
	for _, p := range patternMessages {
		if strings.Contains(lower, p.pattern) {
			return p.msg
		}
	}

	if errors.Is(err, ErrStore) {
		return storeMessage
	}
	return defaultMessage
}
