package report

import "github.com/hitoshi/gradeport/internal/model"

// findStudentID はコース列の履修レコードを線形走査し、
// 最初に見つかった受講者レコードのユーザーIDを返す。
// コース順、コース内では履修レコード順に走査する。
func findStudentID(courses []model.Course) (int64, bool) {
	for _, c := range courses {
		for _, e := range c.Enrollments {
			if e.Type == model.EnrollmentTypeStudent {
				return e.UserID, true
			}
		}
	}
	return 0, false
}

// ResolveStudentID はトークン所有者の受講者IDを2段階の線形走査で解決する。
// まず先頭コースの履修レコードのみを走査し、見つからない場合のみ全コースを
// 走査する。どのコースにも受講者レコードが存在しない場合はエラーを返す。
//
// 解決されたIDは1リクエストの間イミュータブルであり、
// 全コースの履歴問い合わせに同一の値が使用される。
func ResolveStudentID(courses []model.Course) (int64, error) {
	if len(courses) > 0 {
		if id, ok := findStudentID(courses[:1]); ok {
			return id, nil
		}
	}
	if id, ok := findStudentID(courses); ok {
		return id, nil
	}
	return 0, model.NewStudentNotFoundError()
}
