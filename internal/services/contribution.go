package services

import (
	"github.com/arnold/kpitrack-api/internal/models"
	"github.com/google/uuid"
)

// Contribution is one user's goal and achieved units on one task.
type Contribution struct {
	Goal   int `json:"goal"`
	Actual int `json:"actual"`
}

func (c Contribution) IsZero() bool {
	return c.Goal == 0 && c.Actual == 0
}

func (c Contribution) Add(o Contribution) Contribution {
	return Contribution{Goal: c.Goal + o.Goal, Actual: c.Actual + o.Actual}
}

// ContributionSource says how a user relates to a task: through a delegated
// assignment, as the owner, or not at all.
type ContributionSource interface {
	task() *models.Task
}

type AssigneeSource struct {
	Task       *models.Task
	Assignment *models.TaskAssignment
}

type OwnerSource struct {
	Task *models.Task
}

type UnrelatedSource struct {
	Task *models.Task
}

func (s AssigneeSource) task() *models.Task  { return s.Task }
func (s OwnerSource) task() *models.Task     { return s.Task }
func (s UnrelatedSource) task() *models.Task { return s.Task }

// SourceFor picks the source for userID. An assignment row wins over
// ownership.
func SourceFor(task *models.Task, userID uuid.UUID) ContributionSource {
	if a := task.AssignmentFor(userID); a != nil {
		return AssigneeSource{Task: task, Assignment: a}
	}
	if task.UserID == userID {
		return OwnerSource{Task: task}
	}
	return UnrelatedSource{Task: task}
}

// Resolve computes the (goal, actual) pair for a source. It is the only
// place that decides how much a user achieved on a task.
func Resolve(src ContributionSource) Contribution {
	goal := src.task().Progress
	if goal < 0 {
		goal = 0
	}

	actual := 0
	switch s := src.(type) {
	case AssigneeSource:
		switch {
		case s.Assignment.Progress > 0:
			actual = s.Assignment.Progress
		case s.Assignment.Status == models.StatusCompleted:
			actual = completedUnits(goal)
		}
	case OwnerSource:
		if s.Task.IsCompleted() {
			actual = completedUnits(goal)
		}
	}

	if goal > 0 && actual > goal {
		actual = goal
	}
	return Contribution{Goal: goal, Actual: actual}
}

// ResolveFor is Resolve(SourceFor(task, userID)).
func ResolveFor(task *models.Task, userID uuid.UUID) Contribution {
	return Resolve(SourceFor(task, userID))
}

// A completed task without a declared goal still counts as one unit.
func completedUnits(goal int) int {
	if goal > 0 {
		return goal
	}
	return 1
}
