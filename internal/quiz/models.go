package quiz

// Option is one answer choice. Options live inside their question row.
type Option struct {
	Text      string `json:"text"`
	IsCorrect bool   `json:"is_correct"`
}

type Question struct {
	ID         string   `json:"id"`
	QuizID     string   `json:"quiz_id"`
	Question   string   `json:"question"`
	Options    []Option `json:"options"`
	OrderIndex int      `json:"order_index"` // creation-time position, gaps allowed
	CreatedAt  int64    `json:"created_at,omitempty"`
	UpdatedAt  int64    `json:"updated_at,omitempty"`
}

type Quiz struct {
	ID        string     `json:"id"`
	LessonID  string     `json:"lesson_id"`
	Title     string     `json:"title"`
	Questions []Question `json:"questions"`
	CreatedAt int64      `json:"created_at,omitempty"`
	UpdatedAt int64      `json:"updated_at,omitempty"`
}

// PublicOption is an option as shown to a learner before results.
type PublicOption struct {
	Text string `json:"text"`
}

type PublicQuestion struct {
	ID       string         `json:"id"`
	Question string         `json:"question"`
	Options  []PublicOption `json:"options"`
}

type PublicQuiz struct {
	ID        string           `json:"id"`
	LessonID  string           `json:"lesson_id"`
	Title     string           `json:"title"`
	Questions []PublicQuestion `json:"questions"`
}

// Public strips the answer key.
func (q Quiz) Public() PublicQuiz {
	out := PublicQuiz{ID: q.ID, LessonID: q.LessonID, Title: q.Title, Questions: make([]PublicQuestion, 0, len(q.Questions))}
	for _, qq := range q.Questions {
		out.Questions = append(out.Questions, qq.public())
	}
	return out
}

func (q Question) public() PublicQuestion {
	opts := make([]PublicOption, 0, len(q.Options))
	for _, o := range q.Options {
		opts = append(opts, PublicOption{Text: o.Text})
	}
	return PublicQuestion{ID: q.ID, Question: q.Question, Options: opts}
}
