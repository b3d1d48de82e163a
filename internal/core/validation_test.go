package core

import (
	"errors"
	"reflect"
	"strings"
	"testing"
)

func validRow() Row {
	return Row{
		"roll_no":         "S100",
		"name":            "Jane Doe",
		"course":          "CS",
		"semester_number": "3",
		"gpa":             "3.8",
		"credits_earned":  "15",
		"subject_code":    "CS301",
		"subject_name":    "Algorithms",
		"grade":           "A",
	}
}

func TestNormalizeRow_Valid(t *testing.T) {
	got, err := NormalizeRow(validRow())
	if err != nil {
		t.Fatalf("NormalizeRow() error = %v", err)
	}
	want := ResultRecord{
		RollNo:         "S100",
		Name:           "Jane Doe",
		Course:         "CS",
		SemesterNumber: 3,
		GPA:            3.8,
		CreditsEarned:  15,
		SubjectCode:    "CS301",
		SubjectName:    "Algorithms",
		Grade:          "A",
	}
	if got != want {
		t.Errorf("NormalizeRow() = %+v, want %+v", got, want)
	}
}

func TestNormalizeRow_LenientNumbers(t *testing.T) {
	row := validRow()
	row["gpa"] = "n/a"
	row["credits_earned"] = ""
	row["roll_no"] = `="00042"`

	got, err := NormalizeRow(row)
	if err != nil {
		t.Fatalf("NormalizeRow() error = %v", err)
	}
	if got.GPA != 0 || got.CreditsEarned != 0 {
		t.Errorf("gpa/credits = %v/%v, want 0/0", got.GPA, got.CreditsEarned)
	}
	if got.RollNo != "00042" {
		t.Errorf("roll_no = %q, want 00042", got.RollNo)
	}
}

func TestNormalizeRow_Rejections(t *testing.T) {
	tests := []struct {
		name       string
		mutate     func(Row)
		wantFields []string
	}{
		{"empty grade", func(r Row) { r["grade"] = "" }, []string{"grade"}},
		{"whitespace name", func(r Row) { r["name"] = "   " }, []string{"name"}},
		{"missing column", func(r Row) { delete(r, "course") }, []string{"course"}},
		{"zero semester", func(r Row) { r["semester_number"] = "0" }, []string{"semester_number"}},
		{"fractional semester below one", func(r Row) { r["semester_number"] = "0.9" }, []string{"semester_number"}},
		{"fractional semester", func(r Row) { r["semester_number"] = "2.7" }, []string{"semester_number"}},
		{"text semester", func(r Row) { r["semester_number"] = "III" }, []string{"semester_number"}},
		{
			"several fields in column order",
			func(r Row) { r["grade"] = ""; r["roll_no"] = ""; r["semester_number"] = "" },
			[]string{"roll_no", "semester_number", "grade"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			row := validRow()
			tt.mutate(row)

			_, err := NormalizeRow(row)
			var rej *RowRejection
			if !errors.As(err, &rej) {
				t.Fatalf("error = %v, want *RowRejection", err)
			}
			if got := rej.Fields(); !reflect.DeepEqual(got, tt.wantFields) {
				t.Errorf("Fields() = %v, want %v", got, tt.wantFields)
			}
			if !strings.HasPrefix(rej.Error(), "invalid row: ") {
				t.Errorf("Error() = %q", rej.Error())
			}
		})
	}
}

func TestNormalizeRow_SemesterMessages(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"0.5", "invalid row: semester_number: must be a whole number"},
		{"2.7", "invalid row: semester_number: must be a whole number"},
		{"0", "invalid row: semester_number: missing or zero"},
		{"", "invalid row: semester_number: missing or zero"},
		{"n/a", "invalid row: semester_number: missing or zero"},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			row := validRow()
			row["semester_number"] = tt.input
			_, err := NormalizeRow(row)
			if err == nil || err.Error() != tt.want {
				t.Errorf("error = %v, want %q", err, tt.want)
			}
		})
	}

	row := validRow()
	row["semester_number"] = " 4.0 "
	got, err := NormalizeRow(row)
	if err != nil || got.SemesterNumber != 4 {
		t.Errorf("4.0 = %d, %v; want 4", got.SemesterNumber, err)
	}
}

func TestNormalizeRow_NegativeSemesterAccepted(t *testing.T) {
	row := validRow()
	row["semester_number"] = "-1"
	got, err := NormalizeRow(row)
	if err != nil {
		t.Fatalf("NormalizeRow() error = %v", err)
	}
	if got.SemesterNumber != -1 {
		t.Errorf("semester = %d, want -1", got.SemesterNumber)
	}
}
