package model

import (
	"encoding/json"
	"testing"
)

// --- Score のJSON表現 ---

func TestScore_MarshalJSON_ValidScore(t *testing.T) {
	data, err := json.Marshal(NewScore(87.5))
	if err != nil {
		t.Fatalf("Marshal がエラーを返した: %v", err)
	}
	if string(data) != "87.5" {
		t.Errorf("JSON = %s, want 87.5", data)
	}
}

func TestScore_MarshalJSON_ZeroIsValid(t *testing.T) {
	// 0点は有効なスコアであり、センチネル値と混同してはならない
	data, err := json.Marshal(NewScore(0))
	if err != nil {
		t.Fatalf("Marshal がエラーを返した: %v", err)
	}
	if string(data) != "0" {
		t.Errorf("JSON = %s, want 0", data)
	}
}

func TestScore_MarshalJSON_Invalid(t *testing.T) {
	data, err := json.Marshal(Score{})
	if err != nil {
		t.Fatalf("Marshal がエラーを返した: %v", err)
	}
	if string(data) != `"N/A"` {
		t.Errorf(`JSON = %s, want "N/A"`, data)
	}
}

func TestScore_UnmarshalJSON_Number(t *testing.T) {
	var s Score
	if err := json.Unmarshal([]byte("92.3"), &s); err != nil {
		t.Fatalf("Unmarshal がエラーを返した: %v", err)
	}
	if !s.Valid || s.Value != 92.3 {
		t.Errorf("Score = %+v, want {Value:92.3 Valid:true}", s)
	}
}

func TestScore_UnmarshalJSON_NA(t *testing.T) {
	var s Score
	if err := json.Unmarshal([]byte(`"N/A"`), &s); err != nil {
		t.Fatalf("Unmarshal がエラーを返した: %v", err)
	}
	if s.Valid {
		t.Errorf("Score.Valid = true, want false")
	}
}

func TestScore_UnmarshalJSON_UnknownString(t *testing.T) {
	var s Score
	if err := json.Unmarshal([]byte(`"unknown"`), &s); err == nil {
		t.Fatal("N/A以外の文字列はエラーとなるべき")
	}
}

// --- CourseGradeRecord のJSON表現 ---

func TestCourseGradeRecord_MarshalJSON_Sentinel(t *testing.T) {
	// 全ソース失敗時のレコード: grade="N/A"、score="N/A"、assignmentsは省略
	record := CourseGradeRecord{
		CourseID:   42,
		CourseName: "線形代数",
		Grade:      GradeNA,
	}

	data, err := json.Marshal(record)
	if err != nil {
		t.Fatalf("Marshal がエラーを返した: %v", err)
	}

	want := `{"course_id":42,"course":"線形代数","grade":"N/A","score":"N/A"}`
	if string(data) != want {
		t.Errorf("JSON = %s, want %s", data, want)
	}
}

func TestCourseGradeRecord_MarshalJSON_WithAssignments(t *testing.T) {
	score := 8.0
	possible := 10.0
	record := CourseGradeRecord{
		CourseID:   7,
		CourseName: "Physics",
		Grade:      "B+",
		Score:      NewScore(88),
		Assignments: []AssignmentLine{
			{Name: "HW1", Score: &score, Possible: &possible, Status: "graded"},
			{Name: "HW2", Status: SubmissionStatusNotSubmitted},
		},
	}

	data, err := json.Marshal(record)
	if err != nil {
		t.Fatalf("Marshal がエラーを返した: %v", err)
	}

	var decoded map[string]any
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("Unmarshal がエラーを返した: %v", err)
	}

	if decoded["score"] != 88.0 {
		t.Errorf("score = %v, want 88", decoded["score"])
	}
	assignments, ok := decoded["assignments"].([]any)
	if !ok || len(assignments) != 2 {
		t.Fatalf("assignments = %v, want 2件の配列", decoded["assignments"])
	}
	second := assignments[1].(map[string]any)
	if second["status"] != SubmissionStatusNotSubmitted {
		t.Errorf("status = %v, want %s", second["status"], SubmissionStatusNotSubmitted)
	}
	if second["score"] != nil {
		t.Errorf("未提出課題のscore = %v, want null", second["score"])
	}
}
