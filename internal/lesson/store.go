package lesson

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
)

var ErrNotFound = errors.New("lesson not found")

type Store interface {
	List(ctx context.Context) ([]Lesson, error)
	Get(ctx context.Context, id string) (Lesson, error)
	Create(ctx context.Context, in Input) (Lesson, error)
	Update(ctx context.Context, id string, in Input) (Lesson, error)
	Delete(ctx context.Context, id string) error
}

type SQLStore struct {
	db *sql.DB
}

func NewSQLStore(db *sql.DB) *SQLStore {
	return &SQLStore{db: db}
}

const lessonCols = `id,title,description,video_url,image_url,content,created_at,updated_at`

type scanner interface {
	Scan(dest ...any) error
}

func scanLesson(row scanner) (Lesson, error) {
	var l Lesson
	var desc, video, image, content sql.NullString
	if err := row.Scan(&l.ID, &l.Title, &desc, &video, &image, &content, &l.CreatedAt, &l.UpdatedAt); err != nil {
		return Lesson{}, err
	}
	l.Description = fromNull(desc)
	l.VideoURL = fromNull(video)
	l.ImageURL = fromNull(image)
	l.Content = fromNull(content)
	return l, nil
}

func (s *SQLStore) List(ctx context.Context) ([]Lesson, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+lessonCols+` FROM lessons ORDER BY created_at DESC, id ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []Lesson{}
	for rows.Next() {
		l, err := scanLesson(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, l)
	}
	return out, rows.Err()
}

func (s *SQLStore) Get(ctx context.Context, id string) (Lesson, error) {
	l, err := scanLesson(s.db.QueryRowContext(ctx, `SELECT `+lessonCols+` FROM lessons WHERE id=$1`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return Lesson{}, ErrNotFound
	}
	return l, err
}

func (s *SQLStore) Create(ctx context.Context, in Input) (Lesson, error) {
	now := time.Now().Unix()
	id := uuid.NewString()
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO lessons (`+lessonCols+`) VALUES ($1,$2,$3,$4,$5,$6,$7,$8)`,
		id, in.Title, toNull(in.Description), toNull(in.VideoURL), toNull(in.ImageURL), toNull(in.Content), now, now)
	if err != nil {
		return Lesson{}, err
	}
	return s.Get(ctx, id)
}

func (s *SQLStore) Update(ctx context.Context, id string, in Input) (Lesson, error) {
	res, err := s.db.ExecContext(ctx,
		`UPDATE lessons SET title=$1, description=$2, video_url=$3, image_url=$4, content=$5, updated_at=$6 WHERE id=$7`,
		in.Title, toNull(in.Description), toNull(in.VideoURL), toNull(in.ImageURL), toNull(in.Content), time.Now().Unix(), id)
	if err != nil {
		return Lesson{}, err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return Lesson{}, ErrNotFound
	}
	return s.Get(ctx, id)
}

// Delete removes the lesson together with its quiz and questions.
func (s *SQLStore) Delete(ctx context.Context, id string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx,
		`DELETE FROM quiz_questions WHERE quiz_id IN (SELECT id FROM quizzes WHERE lesson_id=$1)`, id); err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM quizzes WHERE lesson_id=$1`, id); err != nil {
		return err
	}
	res, err := tx.ExecContext(ctx, `DELETE FROM lessons WHERE id=$1`, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return tx.Commit()
}

func toNull(s string) sql.NullString {
	s = strings.TrimSpace(s)
	return sql.NullString{String: s, Valid: s != ""}
}

func fromNull(ns sql.NullString) *string {
	if !ns.Valid {
		return nil
	}
	v := ns.String
	return &v
}
