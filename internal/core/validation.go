package core

// validation.go normalizes parsed rows into ResultRecords.
//
// A row is rejected, never fatal, when a required text column is blank, the
// semester number has a fractional part, or it coerces to 0. Zero is treated
// as "missing" rather than as a semester index. Rejections carry every offending column so the skip
// log tells the uploader everything wrong with the row at once.

import (
	"fmt"
	"math"
	"strings"
)

// ValidationError describes one invalid field.
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// RowRejection is returned by NormalizeRow for a row that must be skipped.
type RowRejection struct {
	Errors []ValidationError
}

func (r *RowRejection) Error() string {
	parts := make([]string, len(r.Errors))
	for i, e := range r.Errors {
		parts[i] = e.Error()
	}
	return "invalid row: " + strings.Join(parts, "; ")
}

// Fields returns the names of the rejected fields in column order.
func (r *RowRejection) Fields() []string {
	fields := make([]string, len(r.Errors))
	for i, e := range r.Errors {
		fields[i] = e.Field
	}
	return fields
}

// NormalizeRow validates a raw row and converts it to a ResultRecord.
// Returns a *RowRejection when the row must be skipped.
func NormalizeRow(row Row) (ResultRecord, error) {
	rec := ResultRecord{
		RollNo:         CleanCell(row["roll_no"]),
		Name:           CleanCell(row["name"]),
		Course:         CleanCell(row["course"]),
		SemesterNumber: ToSemesterNumber(row["semester_number"]),
		GPA:            ToNumber(row["gpa"]),
		CreditsEarned:  ToNumber(row["credits_earned"]),
		SubjectCode:    CleanCell(row["subject_code"]),
		SubjectName:    CleanCell(row["subject_name"]),
		Grade:          CleanCell(row["grade"]),
	}

	semester := ToNumber(row["semester_number"])

	values := map[string]string{
		"roll_no":      rec.RollNo,
		"name":         rec.Name,
		"course":       rec.Course,
		"subject_code": rec.SubjectCode,
		"subject_name": rec.SubjectName,
		"grade":        rec.Grade,
	}

	var rejection RowRejection
	for _, col := range Columns {
		if col == "semester_number" {
			switch {
			case semester != math.Trunc(semester):
				rejection.Errors = append(rejection.Errors, ValidationError{
					Field:   col,
					Message: "must be a whole number",
				})
			case rec.SemesterNumber == 0:
				rejection.Errors = append(rejection.Errors, ValidationError{
					Field:   col,
					Message: "missing or zero",
				})
			}
			continue
		}
		if v, ok := values[col]; ok && v == "" {
			rejection.Errors = append(rejection.Errors, ValidationError{
				Field:   col,
				Message: "required field is empty",
			})
		}
	}

	if len(rejection.Errors) > 0 {
		return ResultRecord{}, &rejection
	}
	return rec, nil
}

// MissingColumns reports which expected columns are absent from a header.
// A missing column does not fail the parse; every row will simply be rejected
// for it, so this is used to warn once instead of once per row.
func MissingColumns(header []string) []string {
	present := make(map[string]bool, len(header))
	for _, h := range header {
		present[h] = true
	}
	var missing []string
	for _, col := range Columns {
		if !present[col] {
			missing = append(missing, col)
		}
	}
	return missing
}
