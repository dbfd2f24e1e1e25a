package derive

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sandeepkv93/flowd/internal/model"
	"github.com/sandeepkv93/flowd/internal/repository"
)

func TestHabitStreakScenario(t *testing.T) {
	engine, repo, clock := setupEngine(t, PolicyAdditive)
	ctx := context.Background()

	goal, err := repo.CreateGoal(ctx, model.Goal{Title: "Read", IsHabit: true})
	require.NoError(t, err)

	day1 := time.Date(2025, 1, 6, 8, 0, 0, 0, time.UTC)
	clock.now = day1
	goal, err = engine.IncrementProgress(ctx, goal.ID, 1)
	require.NoError(t, err)
	assert.Equal(t, 1, goal.StreakCount)
	require.NotNil(t, goal.LastCompletedDate)
	assert.True(t, goal.LastCompletedDate.Equal(day1))

	clock.now = day1.Add(26 * time.Hour)
	goal, err = engine.IncrementProgress(ctx, goal.ID, 1)
	require.NoError(t, err)
	assert.Equal(t, 2, goal.StreakCount)

	clock.now = clock.now.Add(3 * time.Hour)
	goal, err = engine.IncrementProgress(ctx, goal.ID, 1)
	require.NoError(t, err)
	assert.Equal(t, 2, goal.StreakCount, "same-day increments leave the streak alone")
	assert.Equal(t, 3.0, goal.CurrentValue)

	stored, err := repo.GetGoal(ctx, goal.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, stored.StreakCount)
}

func TestApplyProgressRules(t *testing.T) {
	loc := time.UTC
	dayN := time.Date(2025, 1, 6, 22, 0, 0, 0, loc)

	tests := []struct {
		name       string
		goal       model.Goal
		value      float64
		now        time.Time
		wantStreak int
		wantLast   *time.Time
	}{
		{
			name:       "first completion starts at one",
			goal:       model.Goal{IsHabit: true},
			value:      1,
			now:        dayN,
			wantStreak: 1,
			wantLast:   &dayN,
		},
		{
			name:       "next day increments",
			goal:       model.Goal{IsHabit: true, CurrentValue: 1, StreakCount: 4, LastCompletedDate: &dayN},
			value:      2,
			now:        dayN.Add(4 * time.Hour),
			wantStreak: 5,
		},
		{
			name:       "gap resets",
			goal:       model.Goal{IsHabit: true, CurrentValue: 1, StreakCount: 4, LastCompletedDate: &dayN},
			value:      2,
			now:        dayN.AddDate(0, 0, 2),
			wantStreak: 1,
		},
		{
			name:       "same day is idempotent",
			goal:       model.Goal{IsHabit: true, CurrentValue: 1, StreakCount: 4, LastCompletedDate: &dayN},
			value:      2,
			now:        dayN.Add(time.Hour),
			wantStreak: 4,
			wantLast:   &dayN,
		},
		{
			name:       "decrease never touches streak",
			goal:       model.Goal{IsHabit: true, CurrentValue: 3, StreakCount: 4, LastCompletedDate: &dayN},
			value:      1,
			now:        dayN.AddDate(0, 0, 1),
			wantStreak: 4,
			wantLast:   &dayN,
		},
		{
			name:       "equal value never touches streak",
			goal:       model.Goal{IsHabit: true, CurrentValue: 3, StreakCount: 4, LastCompletedDate: &dayN},
			value:      3,
			now:        dayN.AddDate(0, 0, 1),
			wantStreak: 4,
			wantLast:   &dayN,
		},
		{
			name:       "non-habit goals have no streak",
			goal:       model.Goal{CurrentValue: 1},
			value:      5,
			now:        dayN,
			wantStreak: 0,
		},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			g := tc.goal
			require.NoError(t, ApplyProgress(&g, tc.value, tc.now, loc))
			assert.Equal(t, tc.wantStreak, g.StreakCount)
			assert.Equal(t, tc.value, g.CurrentValue)
			if tc.wantLast != nil {
				require.NotNil(t, g.LastCompletedDate)
				assert.True(t, g.LastCompletedDate.Equal(*tc.wantLast))
			}
		})
	}
}

func TestApplyProgressUsesLocationDays(t *testing.T) {
	loc := time.FixedZone("UTC+9", 9*3600)
	last := time.Date(2025, 1, 6, 14, 0, 0, 0, time.UTC) // Jan 6 23:00 in loc
	g := model.Goal{IsHabit: true, CurrentValue: 1, StreakCount: 1, LastCompletedDate: &last}

	// two hours later is already Jan 7 in loc, even though UTC still says Jan 6
	require.NoError(t, ApplyProgress(&g, 2, last.Add(2*time.Hour), loc))
	assert.Equal(t, 2, g.StreakCount)
}

func TestApplyProgressRejectsNegative(t *testing.T) {
	g := model.Goal{IsHabit: true}
	err := ApplyProgress(&g, -1, time.Now(), time.UTC)
	require.ErrorIs(t, err, model.ErrValidation)
	assert.Zero(t, g.CurrentValue)
}

func TestRecordProgressCompletesMilestones(t *testing.T) {
	engine, repo, _ := setupEngine(t, PolicyAdditive)
	ctx := context.Background()

	goal, err := repo.CreateGoal(ctx, model.Goal{
		Title:       "Save",
		TargetValue: ptr(100.0),
		Milestones:  []model.Milestone{{Title: "first 50", TargetValue: 50}},
	})
	require.NoError(t, err)

	goal, err = engine.RecordProgress(ctx, goal.ID, 60)
	require.NoError(t, err)
	assert.True(t, goal.Milestones[0].Completed)
	assert.Zero(t, goal.StreakCount)

	_, err = engine.RecordProgress(ctx, "missing", 1)
	require.ErrorIs(t, err, repository.ErrNotFound)
}
