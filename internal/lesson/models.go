package lesson

type Lesson struct {
	ID          string  `json:"id"`
	Title       string  `json:"title"`
	Description *string `json:"description"`
	VideoURL    *string `json:"video_url"`
	ImageURL    *string `json:"image_url"`
	Content     *string `json:"content"` // authored rich-text HTML
	CreatedAt   int64   `json:"created_at"`
	UpdatedAt   int64   `json:"updated_at"`
}

// Input is the authoring payload for create and update. Empty optional
// fields are stored as NULL.
type Input struct {
	Title       string `json:"title" validate:"required,max=200"`
	Description string `json:"description"`
	VideoURL    string `json:"video_url" validate:"omitempty,http_url"`
	ImageURL    string `json:"image_url" validate:"omitempty,http_url"`
	Content     string `json:"content"`
}

// View is a lesson prepared for the learner page.
type View struct {
	Lesson
	EmbedURL    string `json:"embed_url,omitempty"`
	ContentHTML string `json:"content_html"`
	HasQuiz     bool   `json:"has_quiz"`
}
