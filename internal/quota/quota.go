// Package quota derives hourly action quotas from event logs. Nothing is
// counted in memory; the window is recomputed from the database on every ask.
package quota

import (
	"context"
	"math"
	"time"

	"github.com/AndrewSerulneck/Trivia-Predictions/internal/repository"
)

const Window = time.Hour

const (
	KindPredictions = "predictions"
	KindTrivia      = "trivia"
)

// Quota is one user's remaining allowance for an action kind.
type Quota struct {
	Limit     int `json:"limit"`
	Used      int `json:"used"`
	Remaining int `json:"remaining"`
	// WindowSecondsRemaining is how long until the oldest counted event ages
	// out. Zero unless the quota is exhausted.
	WindowSecondsRemaining int  `json:"windowSecondsRemaining"`
	IsAdminBypass          bool `json:"isAdminBypass,omitempty"`
}

type Tracker struct {
	Repo        repository.Repository
	PickLimit   int
	TriviaLimit int
}

func NewTracker(repo repository.Repository, pickLimit, triviaLimit int) *Tracker {
	if pickLimit <= 0 {
		pickLimit = 10
	}
	if triviaLimit <= 0 {
		triviaLimit = 10
	}
	return &Tracker{Repo: repo, PickLimit: pickLimit, TriviaLimit: triviaLimit}
}

func (t *Tracker) limitFor(kind string) int {
	if kind == KindTrivia {
		return t.TriviaLimit
	}
	return t.PickLimit
}

// Get computes the sliding-window quota for one user and kind. Admins bypass
// the limit; unknown users get a full, empty quota rather than an error.
func (t *Tracker) Get(ctx context.Context, userID, kind string) (Quota, error) {
	limit := t.limitFor(kind)
	q := Quota{Limit: limit, Remaining: limit}

	user, err := t.Repo.GetUserByID(ctx, userID)
	if err != nil {
		return Quota{}, err
	}
	if user == nil {
		return q, nil
	}
	if user.IsAdmin {
		q.IsAdminBypass = true
		return q, nil
	}

	now := time.Now().UTC()
	since := now.Add(-Window)

	// limit+1 tolerates a historical overshoot without hiding it.
	var times []time.Time
	switch kind {
	case KindTrivia:
		times, err = t.Repo.ListTriviaAnswerTimesSince(ctx, userID, since, limit+1)
	default:
		times, err = t.Repo.ListPickTimesSince(ctx, userID, since, limit+1)
	}
	if err != nil {
		return Quota{}, err
	}

	q.Used = len(times)
	q.Remaining = limit - q.Used
	if q.Remaining < 0 {
		q.Remaining = 0
	}
	if q.Remaining == 0 && len(times) > 0 {
		oldest := times[0]
		secs := Window.Seconds() - now.Sub(oldest).Seconds()
		if secs < 0 {
			secs = 0
		}
		q.WindowSecondsRemaining = int(math.Ceil(secs))
	}
	return q, nil
}

// Allow reports whether one more action of kind fits inside the window.
func (t *Tracker) Allow(ctx context.Context, userID, kind string) (Quota, bool, error) {
	q, err := t.Get(ctx, userID, kind)
	if err != nil {
		return Quota{}, false, err
	}
	return q, q.IsAdminBypass || q.Remaining > 0, nil
}
