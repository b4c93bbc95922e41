package service

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/noah-isme/gema-assessment-api/internal/database"
	"github.com/noah-isme/gema-assessment-api/internal/events"
	"github.com/noah-isme/gema-assessment-api/internal/models"
	"github.com/noah-isme/gema-assessment-api/internal/repository"
)

var baseTime = time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)

const (
	teacherID      uint = 10
	otherTeacherID uint = 11
	studentID      uint = 21
	otherStudentID uint = 22
)

var (
	teacher      = ActivityActor{ID: teacherID, Role: "teacher"}
	otherTeacher = ActivityActor{ID: otherTeacherID, Role: "teacher"}
	admin        = ActivityActor{ID: 1, Role: "admin"}
	student      = ActivityActor{ID: studentID, Role: "student"}
	otherStudent = ActivityActor{ID: otherStudentID, Role: "student"}
)

func testLogger() zerolog.Logger {
	return zerolog.Nop()
}

type testClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *testClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *testClock) Set(t time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = t
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []events.Event
}

func (r *recordingPublisher) Publish(_ context.Context, event events.Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, event)
	return nil
}

func (r *recordingPublisher) types() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	types := make([]string, 0, len(r.events))
	for _, event := range r.events {
		types = append(types, event.Type)
	}
	return types
}

type fixture struct {
	db          *gorm.DB
	assignments repository.AssignmentRepository
	submissions repository.SubmissionRepository
	quizzes     repository.QuizRepository
	attempts    repository.QuizAttemptRepository
	activityLog repository.ActivityLogRepository
	activity    ActivityService
	publisher   *recordingPublisher
	clock       *testClock
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{TranslateError: true})
	require.NoError(t, err)
	require.NoError(t, database.Migrate(db))

	activityLog := repository.NewActivityLogRepository(db)
	return &fixture{
		db:          db,
		assignments: repository.NewAssignmentRepository(db),
		submissions: repository.NewSubmissionRepository(db),
		quizzes:     repository.NewQuizRepository(db),
		attempts:    repository.NewQuizAttemptRepository(db),
		activityLog: activityLog,
		activity:    NewActivityService(activityLog, NewValidator(), testLogger()),
		publisher:   &recordingPublisher{},
		clock:       &testClock{now: baseTime},
	}
}

func (f *fixture) submissionService(cfg LifecycleConfig) SubmissionService {
	return NewSubmissionService(f.assignments, f.submissions, NewValidator(), f.activity, f.publisher, f.clock, cfg, testLogger())
}

func (f *fixture) attemptService(cfg LifecycleConfig) AttemptService {
	return NewAttemptService(f.quizzes, f.attempts, NewValidator(), f.activity, f.publisher, f.clock, cfg, testLogger())
}

func (f *fixture) statsService() StatsService {
	return NewStatsService(f.assignments, f.submissions, f.quizzes, f.attempts, f.clock, testLogger())
}

func (f *fixture) createAssignment(t *testing.T, mutate func(*models.Assignment)) models.Assignment {
	t.Helper()
	assignment := models.Assignment{
		OwnerID:               teacherID,
		Title:                 "Essay",
		TotalMarks:            100,
		DueDate:               baseTime.Add(24 * time.Hour),
		SubmissionType:        models.SubmissionTypeBoth,
		LateSubmissionAllowed: true,
		LatePenaltyPercentage: 10,
		IsPublished:           true,
	}
	if mutate != nil {
		mutate(&assignment)
	}
	require.NoError(t, f.assignments.Create(context.Background(), &assignment))
	return assignment
}

func (f *fixture) createQuiz(t *testing.T, withShortAnswer bool, mutate func(*models.Quiz)) models.Quiz {
	t.Helper()
	questions := []models.Question{
		{ID: "q1", Type: models.QuestionTypeMultipleChoice, Text: "Pick primes", Points: 10, Options: []models.QuestionOption{
			{Text: "2", IsCorrect: true}, {Text: "3", IsCorrect: true}, {Text: "4"},
		}},
		{ID: "q2", Type: models.QuestionTypeTrueFalse, Text: "Go has generics", Points: 10, Options: []models.QuestionOption{
			{Text: "true", IsCorrect: true}, {Text: "false"},
		}},
	}
	if withShortAnswer {
		questions = append(questions, models.Question{ID: "q3", Type: models.QuestionTypeShortAnswer, Text: "Explain channels", Points: 20})
	}

	quiz := models.Quiz{
		OwnerID:           teacherID,
		Title:             "Basics",
		PassingPercentage: 60,
		AttemptsAllowed:   2,
		IsPublished:       true,
		Questions:         questions,
	}
	for _, question := range questions {
		quiz.TotalPoints += question.Points
	}
	if mutate != nil {
		mutate(&quiz)
	}
	require.NoError(t, f.quizzes.Create(context.Background(), &quiz))
	return quiz
}

func floatPtr(v float64) *float64 {
	return &v
}

func intPtr(v int) *int {
	return &v
}
