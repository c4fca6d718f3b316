package grade

import (
	"context"
	"sort"

	"github.com/hitoshi/gradeport/internal/model"
)

// HistoryLister は成績簿履歴フィード取得のインターフェース。
type HistoryLister interface {
	ListGradebookHistory(ctx context.Context, token string, courseID, studentID int64, page, perPage int) ([]model.HistoryEntry, error)
}

// HistorySource は成績簿履歴フィードから確定成績を再構成する成績ソース。
// ページ分割されたフィードを全件取得し、指定カラムのエントリのうち
// 最も新しいものを成績として採用する。
type HistorySource struct {
	client      HistoryLister
	columnTitle string
	pageSize    int
}

// NewHistorySource はHistorySourceの新しいインスタンスを生成する。
// columnTitleは確定成績として扱うカラム名（通常 "Final Score"）。
// pageSizeが0以下の場合はデフォルト値100を使用する。
func NewHistorySource(client HistoryLister, columnTitle string, pageSize int) *HistorySource {
	if pageSize <= 0 {
		pageSize = 100
	}
	return &HistorySource{
		client:      client,
		columnTitle: columnTitle,
		pageSize:    pageSize,
	}
}

// Name はSourceインターフェースを実装する。
func (s *HistorySource) Name() string {
	return "history"
}

// Resolve は履歴フィードの全ページを取得し、最新の確定成績エントリを選択する。
//
// ページング方針: 1ページ目からpageSize件ずつ取得し、満杯のページが返った場合のみ
// 次ページを要求する。pageSize未満（0件を含む）のページで打ち切る。
// 上流はページ総数を保証しないため、これは「満杯のページは続きがある」という
// ヒューリスティックな近似であり、保証ではない。
//
// ページ内・ページ間の順序は信頼せず、選択前に必ずRecordedAtで明示的にソートする。
// 指定カラムのエントリが存在しない場合は空のResultを返す（他カラムへの
// フォールバックは行わない。合成時の回復経路はチェーンの優先リストが担う）。
//
// studentIDが未解決（0）の場合、履歴フィードは問い合わせできないため
// 空のResultを返す。
func (s *HistorySource) Resolve(ctx context.Context, token string, course model.Course, studentID int64) (Result, error) {
	if studentID == 0 {
		return Result{}, nil
	}

	// 履歴のページングは本質的に逐次的である（次ページの要否は前ページの
	// 件数を見るまで分からない）。並列化してはならない。
	var entries []model.HistoryEntry
	for page := 1; ; page++ {
		batch, err := s.client.ListGradebookHistory(ctx, token, course.ID, studentID, page, s.pageSize)
		if err != nil {
			return Result{}, err
		}
		entries = append(entries, batch...)
		if len(batch) < s.pageSize {
			break
		}
	}

	// 確定成績カラムのエントリのみを抽出
	finals := make([]model.HistoryEntry, 0, len(entries))
	for _, e := range entries {
		if e.ColumnTitle == s.columnTitle {
			finals = append(finals, e)
		}
	}

	if len(finals) == 0 {
		return Result{}, nil
	}

	// RecordedAt降順でソートし、最新エントリを採用する。
	// 同時刻エントリの順序を入力順で安定させ、同一入力に対する出力を一定に保つ。
	sort.SliceStable(finals, func(i, j int) bool {
		return finals[i].RecordedAt.After(finals[j].RecordedAt)
	})

	latest := finals[0]
	return Result{
		Grade: extractHistoryGrade(latest),
		Score: latest.PublishedScore,
	}, nil
}
