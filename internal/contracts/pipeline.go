package contracts

import "time"

// Pipeline Stage 정의 (SSOT)
// 모든 로그와 진단 리포트에서 이 상수를 사용해야 함
//
// 파이프라인 흐름:
//   Load → Validate → Score → Rank → Alternate → Persist

// Stage represents a step of one grouping run
type Stage string

const (
	// StageLoad: 카탈로그에서 아이템/브랜드 조회
	// 위치: internal/catalog/, internal/external/pim/
	StageLoad Stage = "LOAD"

	// StageValidate: 입력 검증 (음수 가격/재고, 중복 id)
	// 위치: internal/engine/
	StageValidate Stage = "VALIDATE"

	// StageScore: 아이템별 RankKey 계산
	// 위치: internal/scoring/
	StageScore Stage = "SCORE"

	// StageRank: (재고 없음, RankKey) 오름차순 정렬
	// 위치: internal/engine/
	StageRank Stage = "RANK"

	// StageAlternate: 브랜드 교차 배치
	// 위치: internal/alternation/
	StageAlternate Stage = "ALTERNATE"

	// StagePersist: 위치 저장 및 이전 순서 보관
	// 위치: internal/ordering/
	StagePersist Stage = "PERSIST"
)

// String returns the stage name
func (s Stage) String() string {
	return string(s)
}

// Description returns a short human description of the stage
func (s Stage) Description() string {
	switch s {
	case StageLoad:
		return "catalog load"
	case StageValidate:
		return "input validation"
	case StageScore:
		return "multi-factor scoring"
	case StageRank:
		return "rank sort"
	case StageAlternate:
		return "brand alternation"
	case StagePersist:
		return "persist positions"
	default:
		return "unknown"
	}
}

// AllStages returns all stages in order
func AllStages() []Stage {
	return []Stage{
		StageLoad,
		StageValidate,
		StageScore,
		StageRank,
		StageAlternate,
		StagePersist,
	}
}

// Outcome classifies a finished engine run
type Outcome string

const (
	OutcomeSorted        Outcome = "sorted"
	OutcomeNotApplicable Outcome = "not_applicable" // 브랜드 2개 미만
	OutcomeEmpty         Outcome = "empty"          // 아이템 없음
)

// StageResult records one executed stage
type StageResult struct {
	Stage       Stage         `json:"stage"`
	InputCount  int           `json:"input_count"`
	OutputCount int           `json:"output_count"`
	Duration    time.Duration `json:"duration"`
}

// RunResult is what one engine run produced.
// Assignment is nil unless Outcome is OutcomeSorted.
type RunResult struct {
	GroupingID  string         `json:"grouping_id"`
	Outcome     Outcome        `json:"outcome"`
	Strategy    string         `json:"strategy"`
	ProfileHash string         `json:"profile_hash"`
	Ranked      []ScoredItem   `json:"ranked"`          // alternator input
	Final       []ScoredItem   `json:"final,omitempty"` // alternator output
	Assignment  SortAssignment `json:"assignment,omitempty"`
	Stages      []StageResult  `json:"stages"`
}

// Moved counts items whose final position differs from rank position
func (r *RunResult) Moved() int {
	if r.Assignment == nil {
		return 0
	}
	moved := 0
	for pos := range r.Ranked {
		if r.Assignment[r.Ranked[pos].ID] != pos {
			moved++
		}
	}
	return moved
}
