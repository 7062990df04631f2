package api

// LoginOutcome is the result of a successful Login call.
type LoginOutcome int

const (
	// LoginAuthenticated means a session was established.
	LoginAuthenticated LoginOutcome = iota + 1
	// LoginVerificationRequired means a code was sent and Verify must be called next.
	LoginVerificationRequired
)

func (o LoginOutcome) String() string {
	switch o {
	case LoginAuthenticated:
		return "authenticated"
	case LoginVerificationRequired:
		return "verification_required"
	default:
		return "unknown"
	}
}

// SignupOutcome is the result of a successful Signup call.
type SignupOutcome int

const (
	// SignupRegistered means the account is usable and the user can log in.
	SignupRegistered SignupOutcome = iota + 1
	// SignupVerificationRequired means a code was sent and Verify must be called next.
	SignupVerificationRequired
)

func (o SignupOutcome) String() string {
	switch o {
	case SignupRegistered:
		return "registered"
	case SignupVerificationRequired:
		return "verification_required"
	default:
		return "unknown"
	}
}

// Credentials is the login request body.
type Credentials struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// SignupRequest is the registration request body.
type SignupRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// LeaderboardEntry is one ranked user.
type LeaderboardEntry struct {
	Username string  `json:"username"`
	Rating   float64 `json:"rating"`
}

// Leaderboard is the ranking. Position is the caller's rank when authenticated.
type Leaderboard struct {
	Users    []LeaderboardEntry `json:"users"`
	Position int                `json:"position"`
}

// Profile holds the statistics of one user. Position is -1 when the user is unranked.
type Profile struct {
	Username string  `json:"username"`
	Score    float64 `json:"score"`
	Attempts int     `json:"attempts"`
	Position int     `json:"position"`
}

// Average returns the mean score per attempt.
func (p Profile) Average() float64 {
	if p.Attempts == 0 {
		return 0
	}
	return p.Score / float64(p.Attempts)
}

type Category struct {
	CategoryID int64  `json:"categoryId"`
	Name       string `json:"name"`
}

type Difficulty struct {
	DifficultyID int64  `json:"difficultyId"`
	Name         string `json:"name"`
}

// QuizOwner identifies the author of a quiz.
type QuizOwner struct {
	ID int64 `json:"id"`
}

// QuizStatusPublished marks a quiz that can be attempted.
const QuizStatusPublished = "Published"

type Quiz struct {
	QuizID      int64       `json:"quizId"`
	Title       string      `json:"title"`
	Description string      `json:"description"`
	Status      string      `json:"status"`
	Minutes     int         `json:"minutes,omitempty"`
	Category    *Category   `json:"category,omitempty"`
	Difficulty  *Difficulty `json:"difficulty,omitempty"`
	User        *QuizOwner  `json:"user,omitempty"`
}

// Published reports whether the quiz can be attempted.
func (q Quiz) Published() bool {
	return q.Status == QuizStatusPublished
}

// RatedQuiz is a quiz with its average rating, as returned by the listings.
type RatedQuiz struct {
	Quiz   Quiz    `json:"quiz"`
	Rating float64 `json:"rating"`
}

// QuizUpdate is the editable form of a quiz. Category, difficulty and owner are ids.
type QuizUpdate struct {
	QuizID      int64   `json:"quizId"`
	Title       string  `json:"title"`
	Description string  `json:"description"`
	Status      string  `json:"status,omitempty"`
	Minutes     int     `json:"minutes"`
	Rating      float64 `json:"rating"`
	User        int64   `json:"user"`
	Category    int64   `json:"category"`
	Difficulty  int64   `json:"difficulty"`
}

// Update returns the editable form of r.
func (r RatedQuiz) Update() QuizUpdate {
	u := QuizUpdate{
		QuizID:      r.Quiz.QuizID,
		Title:       r.Quiz.Title,
		Description: r.Quiz.Description,
		Status:      r.Quiz.Status,
		Minutes:     r.Quiz.Minutes,
		Rating:      r.Rating,
	}
	if r.Quiz.User != nil {
		u.User = r.Quiz.User.ID
	}
	if r.Quiz.Category != nil {
		u.Category = r.Quiz.Category.CategoryID
	}
	if r.Quiz.Difficulty != nil {
		u.Difficulty = r.Quiz.Difficulty.DifficultyID
	}
	return u
}

// QuizRef is the short quiz reference embedded in a question.
type QuizRef struct {
	QuizID int64  `json:"quizId"`
	Title  string `json:"title"`
}

// Answer is one choice of a question. New answers carry negative ids until saved.
type Answer struct {
	AnswerID int64  `json:"answerId"`
	Text     string `json:"text"`
	Correct  bool   `json:"correct"`
}

// Question is one question of a quiz. New questions carry non-positive ids until saved.
type Question struct {
	QuestionID int64    `json:"questionId"`
	Text       string   `json:"text"`
	Quiz       QuizRef  `json:"quiz"`
	Answers    []Answer `json:"answers"`
}

// AttemptAnswer is the answer chosen for one question.
type AttemptAnswer struct {
	QuestionID int64 `json:"questionId"`
	AnswerID   int64 `json:"answerId"`
}

// Attempt is a submitted run through a quiz together with the user's rating of it.
type Attempt struct {
	Answers []AttemptAnswer `json:"attemptAnswers"`
	Rating  int             `json:"rating"`
}
