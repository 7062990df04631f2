package api

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"strings"
)

func formatID(id int64) string {
	return strconv.FormatInt(id, 10)
}

func (c *Client) Categories(ctx context.Context) ([]Category, error) {
	return getJSON[[]Category](ctx, c, false, "categories")
}

func (c *Client) Difficulties(ctx context.Context) ([]Difficulty, error) {
	return getJSON[[]Difficulty](ctx, c, false, "difficulties")
}

// Quizzes lists the quizzes available to the caller. Logged-in users get the per-user
// listing.
func (c *Client) Quizzes(ctx context.Context) ([]RatedQuiz, error) {
	if sess, ok := c.manager.Session(); ok {
		return getJSON[[]RatedQuiz](ctx, c, true, "quizzesbyuser", sess.UserID)
	}
	return getJSON[[]RatedQuiz](ctx, c, false, "quizzes")
}

func (c *Client) Quiz(ctx context.Context, quizID int64) (RatedQuiz, error) {
	return getJSON[RatedQuiz](ctx, c, false, "quizzes", formatID(quizID))
}

func (c *Client) Questions(ctx context.Context, quizID int64) ([]Question, error) {
	return getJSON[[]Question](ctx, c, false, "questions", formatID(quizID))
}

// SendAttempt submits an attempt and returns the score the backend awarded.
func (c *Client) SendAttempt(ctx context.Context, quizID int64, attempt Attempt) (float64, error) {
	if attempt.Rating < 1 {
		return 0, fmt.Errorf("%w: the quiz must be rated", ErrInvalidArgument)
	}
	if attempt.Answers == nil {
		attempt.Answers = []AttemptAnswer{}
	}
	header, err := c.exec(ctx, http.MethodPost, true, attempt, "sendattempt", formatID(quizID))
	if err != nil {
		return 0, err
	}
	raw := strings.TrimSpace(header.Get(headerHost))
	if raw == "" {
		return 0, fmt.Errorf("%w: %s", ErrMissingHeader, headerHost)
	}
	score, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid score %q: %w", raw, err)
	}
	return score, nil
}

// PersonalQuizzes lists the quizzes authored by the logged-in user, drafts included.
func (c *Client) PersonalQuizzes(ctx context.Context) ([]RatedQuiz, error) {
	userID, err := requireSession(c.manager)
	if err != nil {
		return nil, err
	}
	return getJSON[[]RatedQuiz](ctx, c, true, "personalquizzes", userID)
}

// CreateQuiz creates an empty draft and returns its id.
func (c *Client) CreateQuiz(ctx context.Context) (int64, error) {
	header, err := c.exec(ctx, http.MethodGet, true, nil, "createquiz")
	if err != nil {
		return 0, err
	}
	raw := strings.TrimSpace(header.Get(headerHost))
	if raw == "" {
		return 0, fmt.Errorf("%w: %s", ErrMissingHeader, headerHost)
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid quiz id %q: %w", raw, err)
	}
	return id, nil
}

// UpdateQuiz saves the quiz settings.
func (c *Client) UpdateQuiz(ctx context.Context, quiz QuizUpdate) error {
	switch {
	case strings.TrimSpace(quiz.Title) == "":
		return fmt.Errorf("%w: title is required", ErrInvalidArgument)
	case strings.TrimSpace(quiz.Description) == "":
		return fmt.Errorf("%w: description is required", ErrInvalidArgument)
	case quiz.Category == 0:
		return fmt.Errorf("%w: category is required", ErrInvalidArgument)
	case quiz.Difficulty == 0:
		return fmt.Errorf("%w: difficulty is required", ErrInvalidArgument)
	case quiz.Minutes <= 0:
		return fmt.Errorf("%w: minutes must be positive", ErrInvalidArgument)
	}
	_, err := c.exec(ctx, http.MethodPost, true, quiz, "updatequiz")
	return err
}

func (c *Client) DeleteQuiz(ctx context.Context, quizID int64) error {
	_, err := c.exec(ctx, http.MethodDelete, true, nil, "deletequiz", formatID(quizID))
	return err
}

func (c *Client) DeleteQuestion(ctx context.Context, questionID int64) error {
	_, err := c.exec(ctx, http.MethodDelete, true, nil, "deletequestion", formatID(questionID))
	return err
}

// SaveQuestions replaces the questions of a draft quiz.
func (c *Client) SaveQuestions(ctx context.Context, quizID int64, questions []Question) error {
	if len(questions) == 0 {
		return fmt.Errorf("%w: at least one question is required", ErrInvalidArgument)
	}
	_, err := c.exec(ctx, http.MethodPost, true, questions, "savequestions", formatID(quizID))
	return err
}

// PublishQuiz makes a draft available to other users.
func (c *Client) PublishQuiz(ctx context.Context, quizID int64) error {
	_, err := c.exec(ctx, http.MethodPost, true, nil, "publishquiz", formatID(quizID))
	return err
}
