package quiz

import "math"

type Score struct {
	Correct int `json:"correct"`
	Total   int `json:"total"`
}

// Percentage is Correct/Total rounded to the nearest whole percent.
func (s Score) Percentage() int {
	if s.Total == 0 {
		return 0
	}
	return int(math.Round(float64(s.Correct) * 100 / float64(s.Total)))
}

// Tally counts answers that point at an option marked correct. A missing
// answer, or one past the end of the option list, simply does not count.
func Tally(questions []Question, answers map[int]int) (Score, error) {
	if len(questions) == 0 {
		return Score{}, ErrNoQuestions
	}
	sc := Score{Total: len(questions)}
	for i, q := range questions {
		oi, ok := answers[i]
		if !ok || oi < 0 || oi >= len(q.Options) {
			continue
		}
		if q.Options[oi].IsCorrect {
			sc.Correct++
		}
	}
	return sc, nil
}

type Outcome string

const (
	OutcomeCorrectChosen      Outcome = "correct_chosen"
	OutcomeCorrectNotChosen   Outcome = "correct_not_chosen"
	OutcomeIncorrectChosen    Outcome = "incorrect_chosen"
	OutcomeIncorrectNotChosen Outcome = "incorrect_not_chosen"
)

func classify(isCorrect, chosen bool) Outcome {
	switch {
	case isCorrect && chosen:
		return OutcomeCorrectChosen
	case isCorrect:
		return OutcomeCorrectNotChosen
	case chosen:
		return OutcomeIncorrectChosen
	default:
		return OutcomeIncorrectNotChosen
	}
}

type OptionReview struct {
	Text      string  `json:"text"`
	IsCorrect bool    `json:"is_correct"`
	Chosen    bool    `json:"chosen"`
	Outcome   Outcome `json:"outcome"`
}

type QuestionReview struct {
	Index    int            `json:"index"`
	Question string         `json:"question"`
	Answered bool           `json:"answered"`
	Options  []OptionReview `json:"options"`
}

func Review(questions []Question, answers map[int]int) []QuestionReview {
	out := make([]QuestionReview, 0, len(questions))
	for i, q := range questions {
		chosen, answered := answers[i]
		qr := QuestionReview{Index: i, Question: q.Question, Answered: answered, Options: make([]OptionReview, 0, len(q.Options))}
		for oi, o := range q.Options {
			picked := answered && chosen == oi
			qr.Options = append(qr.Options, OptionReview{
				Text:      o.Text,
				IsCorrect: o.IsCorrect,
				Chosen:    picked,
				Outcome:   classify(o.IsCorrect, picked),
			})
		}
		out = append(out, qr)
	}
	return out
}
