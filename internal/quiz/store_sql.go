package quiz

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

type SQLStore struct {
	db *sql.DB
}

func NewSQLStore(db *sql.DB) *SQLStore {
	return &SQLStore{db: db}
}

func (s *SQLStore) FetchQuizForLesson(ctx context.Context, lessonID string) (*Quiz, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id,lesson_id,title,created_at,updated_at FROM quizzes
		  WHERE lesson_id=$1 ORDER BY created_at ASC LIMIT 1`, lessonID)
	var q Quiz
	if err := row.Scan(&q.ID, &q.LessonID, &q.Title, &q.CreatedAt, &q.UpdatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	questions, err := s.questions(ctx, q.ID)
	if err != nil {
		return nil, err
	}
	q.Questions = questions
	return &q, nil
}

func (s *SQLStore) LessonExists(ctx context.Context, lessonID string) (bool, error) {
	var n int
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(1) FROM lessons WHERE id=$1`, lessonID).Scan(&n)
	return n > 0, err
}

func (s *SQLStore) GetQuiz(ctx context.Context, id string) (Quiz, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id,lesson_id,title,created_at,updated_at FROM quizzes WHERE id=$1`, id)
	var q Quiz
	if err := row.Scan(&q.ID, &q.LessonID, &q.Title, &q.CreatedAt, &q.UpdatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Quiz{}, ErrNotFound
		}
		return Quiz{}, err
	}
	questions, err := s.questions(ctx, q.ID)
	if err != nil {
		return Quiz{}, err
	}
	q.Questions = questions
	return q, nil
}

func (s *SQLStore) questions(ctx context.Context, quizID string) ([]Question, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id,quiz_id,question,options_json,order_index,created_at,updated_at
		   FROM quiz_questions WHERE quiz_id=$1
		  ORDER BY order_index ASC, created_at ASC`, quizID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []Question{}
	for rows.Next() {
		var q Question
		var ojson string
		if err := rows.Scan(&q.ID, &q.QuizID, &q.Question, &ojson, &q.OrderIndex, &q.CreatedAt, &q.UpdatedAt); err != nil {
			return nil, err
		}
		if err := json.Unmarshal([]byte(ojson), &q.Options); err != nil {
			return nil, fmt.Errorf("question %s options: %w", q.ID, err)
		}
		out = append(out, q)
	}
	return out, rows.Err()
}

func (s *SQLStore) CreateQuiz(ctx context.Context, lessonID, title string) (Quiz, error) {
	now := time.Now().Unix()
	q := Quiz{ID: uuid.NewString(), LessonID: lessonID, Title: title, Questions: []Question{}, CreatedAt: now, UpdatedAt: now}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO quizzes (id,lesson_id,title,created_at,updated_at) VALUES ($1,$2,$3,$4,$5)`,
		q.ID, q.LessonID, q.Title, q.CreatedAt, q.UpdatedAt)
	if err != nil {
		return Quiz{}, err
	}
	return q, nil
}

func (s *SQLStore) DeleteQuiz(ctx context.Context, id string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, `DELETE FROM quiz_questions WHERE quiz_id=$1`, id); err != nil {
		return err
	}
	res, err := tx.ExecContext(ctx, `DELETE FROM quizzes WHERE id=$1`, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return tx.Commit()
}

func (s *SQLStore) CountQuestions(ctx context.Context, quizID string) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM quiz_questions WHERE quiz_id=$1`, quizID).Scan(&n)
	return n, err
}

func (s *SQLStore) CreateQuestion(ctx context.Context, q Question) (Question, error) {
	var exist int
	if err := s.db.QueryRowContext(ctx, `SELECT 1 FROM quizzes WHERE id=$1`, q.QuizID).Scan(&exist); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Question{}, ErrNotFound
		}
		return Question{}, err
	}
	oj, err := json.Marshal(q.Options)
	if err != nil {
		return Question{}, err
	}
	now := time.Now().Unix()
	q.ID = uuid.NewString()
	q.CreatedAt, q.UpdatedAt = now, now
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO quiz_questions (id,quiz_id,question,options_json,order_index,created_at,updated_at)
		 VALUES ($1,$2,$3,$4,$5,$6,$7)`,
		q.ID, q.QuizID, q.Question, string(oj), q.OrderIndex, q.CreatedAt, q.UpdatedAt)
	if err != nil {
		return Question{}, err
	}
	return q, nil
}

func (s *SQLStore) UpdateQuestion(ctx context.Context, id, text string, options []Option) (Question, error) {
	oj, err := json.Marshal(options)
	if err != nil {
		return Question{}, err
	}
	res, err := s.db.ExecContext(ctx,
		`UPDATE quiz_questions SET question=$1, options_json=$2, updated_at=$3 WHERE id=$4`,
		text, string(oj), time.Now().Unix(), id)
	if err != nil {
		return Question{}, err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return Question{}, ErrQuestionNotFound
	}
	return s.getQuestion(ctx, id)
}

func (s *SQLStore) getQuestion(ctx context.Context, id string) (Question, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id,quiz_id,question,options_json,order_index,created_at,updated_at
		   FROM quiz_questions WHERE id=$1`, id)
	var q Question
	var ojson string
	if err := row.Scan(&q.ID, &q.QuizID, &q.Question, &ojson, &q.OrderIndex, &q.CreatedAt, &q.UpdatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Question{}, ErrQuestionNotFound
		}
		return Question{}, err
	}
	if err := json.Unmarshal([]byte(ojson), &q.Options); err != nil {
		return Question{}, err
	}
	return q, nil
}

func (s *SQLStore) DeleteQuestion(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM quiz_questions WHERE id=$1`, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrQuestionNotFound
	}
	return nil
}
