package models

import "time"

type Question struct {
	ID          int64     `json:"q_id"`
	Name        string    `json:"name"`
	Link        string    `json:"link"`
	PostedBy    string    `json:"posted_by"`
	PostedByID  int64     `json:"posted_by_id"`
	PostedTime  time.Time `json:"posted_time"`
	IsCompleted bool      `json:"is_completed"`
	GroupID     *int64    `json:"group_id,omitempty"`
}

type NewQuestion struct {
	Name    string `json:"name"`
	Link    string `json:"link"`
	GroupID *int64 `json:"group_id,omitempty"`
}

// Mark sets the viewer's completion flag on a question.
type Mark struct {
	QuestionID int64 `json:"q_id"`
	Done       bool  `json:"done"`
	Difficulty int   `json:"difficulty"`
}

type Solution struct {
	ID              int64     `json:"s_id"`
	QuestionID      int64     `json:"q_id"`
	Title           string    `json:"title"`
	Language        string    `json:"language"`
	TimeComplexity  string    `json:"tc"`
	SpaceComplexity string    `json:"sc"`
	Notes           string    `json:"notes"`
	Code            string    `json:"code"`
	PostedBy        string    `json:"posted_by"`
	PostedByID      int64     `json:"posted_by_id"`
	PostedTime      time.Time `json:"posted_time"`
}

type NewSolution struct {
	QuestionID      int64  `json:"q_id"`
	Title           string `json:"title"`
	Language        string `json:"language"`
	TimeComplexity  string `json:"tc"`
	SpaceComplexity string `json:"sc"`
	Notes           string `json:"notes"`
	Code            string `json:"code"`
}

type User struct {
	ID       int64  `json:"id"`
	Username string `json:"username"`
}

type Language struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

// UserProgress is one bar of the group completion chart.
type UserProgress struct {
	Username  string `json:"username"`
	Completed int    `json:"completed"`
}

type GroupStats struct {
	QuestionCount  int            `json:"question_count"`
	CompletedCount int            `json:"completed_count"`
	StackGraphData []UserProgress `json:"stack_graph_data"`
	StillNeed      []Question     `json:"still_need"`
}
