package service

import (
	"context"
	"errors"
	"math"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"finlearn/internal/database"
	"finlearn/internal/models"
	"finlearn/internal/progression"
	"finlearn/internal/repository"
	"finlearn/internal/validation"
)

type recordedEvent struct {
	userID    string
	eventType string
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []recordedEvent
}

func (p *recordingPublisher) Publish(userID, eventType string, _ interface{}) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, recordedEvent{userID: userID, eventType: eventType})
}

func (p *recordingPublisher) count(eventType string) int {
	p.mu.Lock()
	defer p.mu.Unlock()
	n := 0
	for _, e := range p.events {
		if e.eventType == eventType {
			n++
		}
	}
	return n
}

func newTestDB(t *testing.T) *database.DB {
	t.Helper()
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	db, err := database.Initialize(filepath.Join(t.TempDir(), "service.db"))
	if err != nil {
		t.Fatalf("Failed to initialize database: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	if _, err := db.RunMigrations(context.Background(), "../../migrations"); err != nil {
		t.Fatalf("Failed to run migrations: %v", err)
	}
	return db
}

func newTestProgression(t *testing.T) (*ProgressionService, *database.DB, *recordingPublisher) {
	t.Helper()
	db := newTestDB(t)
	events := &recordingPublisher{}
	svc := NewProgressionService(db, ProgressionOptions{LevelXPStep: 1000, StreakGrace: 48 * time.Hour}, events, nil)
	return svc, db, events
}

func createTestUser(t *testing.T, db *database.DB, email string) *models.User {
	t.Helper()
	u := &models.User{Username: "learner", Email: email, PasswordHash: "hash", EmailVerified: true}
	if err := repository.NewUserRepository(db).Create(context.Background(), u); err != nil {
		t.Fatalf("create user: %v", err)
	}
	return u
}

func createTestLesson(t *testing.T, db *database.DB, id string) {
	t.Helper()
	if err := repository.NewLessonRepository(db).Create(context.Background(), &models.Lesson{ID: id, Title: "Budgeting 101", XPReward: 50}); err != nil {
		t.Fatalf("create lesson: %v", err)
	}
}

func intPtr(v int) *int { return &v }

func TestAddXPLevelsUp(t *testing.T) {
	svc, db, events := newTestProgression(t)
	ctx := context.Background()
	u := createTestUser(t, db, "xp@example.com")

	if _, err := svc.UpdateStats(ctx, u.ID, StatsUpdate{XP: intPtr(950)}); err != nil {
		t.Fatalf("UpdateStats() error = %v", err)
	}

	res, err := svc.AddXP(ctx, u.ID, 100, "")
	if err != nil {
		t.Fatalf("AddXP() error = %v", err)
	}
	if res.NewXP != 1050 || res.NewLevel != 2 || !res.LeveledUp || res.XPAdded != 100 {
		t.Errorf("AddXP() = %+v, want newXp=1050 newLevel=2 leveledUp=true", res)
	}
	if res.CurrentRank != string(progression.TierSaver) {
		t.Errorf("CurrentRank = %q, want %q", res.CurrentRank, progression.TierSaver)
	}
	if events.count(EventLevelUp) != 1 {
		t.Errorf("level_up events = %d, want 1", events.count(EventLevelUp))
	}

	stored, _ := repository.NewUserRepository(db).GetByID(ctx, u.ID)
	if stored.XP != 1050 || stored.Level != 2 || stored.LastActiveDate == nil {
		t.Errorf("stored user = %+v", stored)
	}

	res, err = svc.AddXP(ctx, u.ID, 10, "")
	if err != nil {
		t.Fatalf("AddXP() error = %v", err)
	}
	if res.LeveledUp {
		t.Error("second grant within the same level reported leveledUp")
	}
}

func TestAddXPRejectsNonPositiveAmounts(t *testing.T) {
	svc, db, _ := newTestProgression(t)
	ctx := context.Background()
	u := createTestUser(t, db, "bad@example.com")

	for _, amount := range []int{0, -5} {
		_, err := svc.AddXP(ctx, u.ID, amount, "")
		if _, ok := validation.AsErrors(err); !ok {
			t.Errorf("AddXP(%d) error = %v, want validation error", amount, err)
		}
	}

	stored, _ := repository.NewUserRepository(db).GetByID(ctx, u.ID)
	if stored.XP != 0 {
		t.Errorf("xp = %d, want 0", stored.XP)
	}
}

func TestAddXPRejectsAmountsPastMaxXP(t *testing.T) {
	svc, db, _ := newTestProgression(t)
	ctx := context.Background()
	u := createTestUser(t, db, "max@example.com")
	users := repository.NewUserRepository(db)

	_, err := svc.AddXP(ctx, u.ID, math.MaxInt, "")
	if ve, ok := validation.AsErrors(err); !ok || len(ve["xpAmount"]) == 0 {
		t.Errorf("AddXP(MaxInt) error = %v, want xpAmount validation error", err)
	}

	if _, err := svc.UpdateStats(ctx, u.ID, StatsUpdate{XP: intPtr(progression.MaxXP - 5)}); err != nil {
		t.Fatalf("UpdateStats() error = %v", err)
	}
	_, err = svc.AddXP(ctx, u.ID, 10, "")
	if ve, ok := validation.AsErrors(err); !ok || len(ve["xpAmount"]) == 0 {
		t.Errorf("AddXP(past max) error = %v, want xpAmount validation error", err)
	}
	stored, _ := users.GetByID(ctx, u.ID)
	if stored.XP != progression.MaxXP-5 {
		t.Errorf("xp = %d, want %d", stored.XP, progression.MaxXP-5)
	}

	res, err := svc.AddXP(ctx, u.ID, 5, "")
	if err != nil || res.NewXP != progression.MaxXP {
		t.Errorf("AddXP(to max) = %+v, %v", res, err)
	}
}

func TestAddXPUnknownUser(t *testing.T) {
	svc, _, _ := newTestProgression(t)
	_, err := svc.AddXP(context.Background(), "missing", 10, "")
	if !errors.Is(err, ErrUserNotFound) || !errors.Is(err, ErrNotFound) {
		t.Errorf("AddXP() error = %v, want ErrUserNotFound", err)
	}
}

func TestAddXPIdempotencyKey(t *testing.T) {
	svc, db, events := newTestProgression(t)
	ctx := context.Background()
	u := createTestUser(t, db, "idem@example.com")

	first, err := svc.AddXP(ctx, u.ID, 1200, "quiz-42")
	if err != nil {
		t.Fatalf("AddXP() error = %v", err)
	}
	second, err := svc.AddXP(ctx, u.ID, 1200, "quiz-42")
	if err != nil {
		t.Fatalf("AddXP() replay error = %v", err)
	}
	if !second.Replayed || second.NewXP != first.NewXP || second.NewLevel != first.NewLevel {
		t.Errorf("replay = %+v, first = %+v", second, first)
	}

	stored, _ := repository.NewUserRepository(db).GetByID(ctx, u.ID)
	if stored.XP != 1200 {
		t.Errorf("xp = %d, want 1200 after replay", stored.XP)
	}
	if events.count(EventLevelUp) != 1 {
		t.Errorf("level_up events = %d, want 1", events.count(EventLevelUp))
	}
}

func TestAddXPConcurrentGrantsAreNotLost(t *testing.T) {
	svc, db, _ := newTestProgression(t)
	ctx := context.Background()
	u := createTestUser(t, db, "race@example.com")

	const workers = 8
	var wg sync.WaitGroup
	errs := make(chan error, workers)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := svc.AddXP(ctx, u.ID, 25, ""); err != nil {
				errs <- err
			}
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		t.Fatalf("AddXP() error = %v", err)
	}

	stored, _ := repository.NewUserRepository(db).GetByID(ctx, u.ID)
	if stored.XP != workers*25 {
		t.Errorf("xp = %d, want %d", stored.XP, workers*25)
	}
}

func TestAddXPGrantsCatalogAchievements(t *testing.T) {
	svc, db, events := newTestProgression(t)
	ctx := context.Background()
	u := createTestUser(t, db, "advisor@example.com")

	res, err := svc.AddXP(ctx, u.ID, 4000, "")
	if err != nil {
		t.Fatalf("AddXP() error = %v", err)
	}
	if res.NewLevel != 5 {
		t.Fatalf("NewLevel = %d, want 5", res.NewLevel)
	}
	if len(res.Achievements) != 1 || res.Achievements[0].Type != "financial-advisor" {
		t.Fatalf("unlocked = %+v, want financial-advisor", res.Achievements)
	}
	if events.count(EventAchievementUnlocked) != 1 {
		t.Errorf("achievement events = %d, want 1", events.count(EventAchievementUnlocked))
	}

	res, err = svc.AddXP(ctx, u.ID, 10, "")
	if err != nil {
		t.Fatalf("AddXP() error = %v", err)
	}
	if len(res.Achievements) != 0 {
		t.Errorf("achievement granted twice: %+v", res.Achievements)
	}
}

func TestCheckStreak(t *testing.T) {
	svc, db, events := newTestProgression(t)
	ctx := context.Background()
	users := repository.NewUserRepository(db)
	now := time.Date(2024, 3, 10, 12, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return now }

	tests := []struct {
		name       string
		lastActive *time.Time
		wantStreak int
		wantReset  bool
	}{
		{name: "away longer than grace", lastActive: timePtr(now.Add(-50 * time.Hour)), wantStreak: 0, wantReset: true},
		{name: "within grace", lastActive: timePtr(now.Add(-10 * time.Hour)), wantStreak: 7},
		{name: "never active", lastActive: nil, wantStreak: 7},
	}

	for i, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			u := createTestUser(t, db, string(rune('a'+i))+"@streak.example.com")
			if err := users.UpdateStreak(ctx, u.ID, 7, 7, tt.lastActive, ""); err != nil {
				t.Fatalf("UpdateStreak() error = %v", err)
			}

			res, err := svc.CheckStreak(ctx, u.ID)
			if err != nil {
				t.Fatalf("CheckStreak() error = %v", err)
			}
			if res.CurrentStreak != tt.wantStreak || res.StreakReset != tt.wantReset {
				t.Errorf("CheckStreak() = %+v, want streak=%d reset=%v", res, tt.wantStreak, tt.wantReset)
			}
			if !res.LastActive.Equal(now) {
				t.Errorf("LastActive = %v, want %v", res.LastActive, now)
			}

			stored, _ := users.GetByID(ctx, u.ID)
			if stored.DailyStreak != tt.wantStreak || stored.LongestStreak != 7 {
				t.Errorf("stored streak = %d longest = %d", stored.DailyStreak, stored.LongestStreak)
			}
		})
	}

	if events.count(EventStreakReset) != 1 {
		t.Errorf("streak_reset events = %d, want 1", events.count(EventStreakReset))
	}
}

func timePtr(t time.Time) *time.Time { return &t }

func TestCheckStreakUnknownUser(t *testing.T) {
	svc, _, _ := newTestProgression(t)
	if _, err := svc.CheckStreak(context.Background(), "missing"); !errors.Is(err, ErrUserNotFound) {
		t.Errorf("CheckStreak() error = %v, want ErrUserNotFound", err)
	}
}

func TestCompleteModule(t *testing.T) {
	svc, db, _ := newTestProgression(t)
	ctx := context.Background()
	u := createTestUser(t, db, "lessons@example.com")
	createTestLesson(t, db, "budgeting-101")

	first, err := svc.CompleteModule(ctx, u.ID, "budgeting-101", 50)
	if err != nil {
		t.Fatalf("CompleteModule() error = %v", err)
	}
	if first.Streak != 1 || !first.Progress.Completed || first.Progress.XPEarned != 50 {
		t.Errorf("CompleteModule() = %+v", first)
	}

	retake, err := svc.CompleteModule(ctx, u.ID, "budgeting-101", 80)
	if err != nil {
		t.Fatalf("CompleteModule() retake error = %v", err)
	}
	if retake.Progress.ID != first.Progress.ID || retake.Progress.XPEarned != 80 {
		t.Errorf("retake = %+v, want same row updated", retake.Progress)
	}
	if retake.Streak != 1 {
		t.Errorf("same-day retake streak = %d, want 1", retake.Streak)
	}

	rows, err := repository.NewProgressRepository(db).ListByUser(ctx, u.ID)
	if err != nil || len(rows) != 1 {
		t.Fatalf("progress rows = %d, %v; want 1", len(rows), err)
	}

	stored, _ := repository.NewUserRepository(db).GetByID(ctx, u.ID)
	if stored.XP != 0 {
		t.Errorf("completing a module credited xp = %d", stored.XP)
	}
}

func TestCompleteModuleExtendsStreakOnConsecutiveDays(t *testing.T) {
	svc, db, _ := newTestProgression(t)
	ctx := context.Background()
	u := createTestUser(t, db, "daily@example.com")
	createTestLesson(t, db, "saving-101")

	day := time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)
	var last *CompletionResult
	for i := 0; i < 3; i++ {
		now := day.AddDate(0, 0, i)
		svc.now = func() time.Time { return now }
		res, err := svc.CompleteModule(ctx, u.ID, "saving-101", 10)
		if err != nil {
			t.Fatalf("CompleteModule() day %d error = %v", i, err)
		}
		last = res
	}
	if last.Streak != 3 || last.LongestStreak != 3 {
		t.Errorf("streak = %d longest = %d, want 3/3", last.Streak, last.LongestStreak)
	}
	if len(last.Achievements) != 1 || last.Achievements[0].Type != "streak-starter" {
		t.Errorf("unlocked = %+v, want streak-starter", last.Achievements)
	}
}

func TestCompleteModuleErrors(t *testing.T) {
	svc, db, _ := newTestProgression(t)
	ctx := context.Background()
	u := createTestUser(t, db, "errs@example.com")
	createTestLesson(t, db, "credit-101")

	if _, err := svc.CompleteModule(ctx, u.ID, "credit-101", -1); err == nil {
		t.Error("negative xpEarned accepted")
	} else if _, ok := validation.AsErrors(err); !ok {
		t.Errorf("negative xpEarned error = %v, want validation error", err)
	}
	_, err := svc.CompleteModule(ctx, u.ID, "  ", -3)
	if ve, ok := validation.AsErrors(err); !ok || len(ve["lessonId"]) == 0 || len(ve["xpEarned"]) == 0 {
		t.Errorf("blank lesson error = %v, want lessonId and xpEarned errors", err)
	}
	if _, err := svc.CompleteModule(ctx, u.ID, "missing", 10); !errors.Is(err, ErrLessonNotFound) {
		t.Errorf("missing lesson error = %v, want ErrLessonNotFound", err)
	}
	if _, err := svc.CompleteModule(ctx, "nobody", "credit-101", 10); !errors.Is(err, ErrUserNotFound) {
		t.Errorf("missing user error = %v, want ErrUserNotFound", err)
	}
}

func TestUnlockAchievement(t *testing.T) {
	svc, db, events := newTestProgression(t)
	ctx := context.Background()
	u := createTestUser(t, db, "badges@example.com")
	req := UnlockRequest{Type: "budget-master", Title: "Budget Master", Color: "#3B82F6"}

	first, err := svc.UnlockAchievement(ctx, u.ID, req)
	if err != nil {
		t.Fatalf("UnlockAchievement() error = %v", err)
	}
	if first.AlreadyEarned {
		t.Error("first unlock reported alreadyEarned")
	}

	req.Title = "Renamed"
	second, err := svc.UnlockAchievement(ctx, u.ID, req)
	if err != nil {
		t.Fatalf("UnlockAchievement() repeat error = %v", err)
	}
	if !second.AlreadyEarned || second.Achievement.ID != first.Achievement.ID || second.Achievement.Title != "Budget Master" {
		t.Errorf("repeat unlock = %+v", second.Achievement)
	}
	if events.count(EventAchievementUnlocked) != 1 {
		t.Errorf("achievement events = %d, want 1", events.count(EventAchievementUnlocked))
	}

	list, err := svc.Achievements(ctx, u.ID)
	if err != nil || len(list) != 1 {
		t.Errorf("Achievements() = %d, %v; want 1", len(list), err)
	}

	if _, err := svc.UnlockAchievement(ctx, u.ID, UnlockRequest{Type: " ", Title: "x"}); err == nil {
		t.Error("blank type accepted")
	}
}

func TestAchievementCatalogMarksEarned(t *testing.T) {
	svc, db, _ := newTestProgression(t)
	ctx := context.Background()
	u := createTestUser(t, db, "catalog@example.com")

	if _, err := svc.UnlockAchievement(ctx, u.ID, UnlockRequest{Type: "savings-scholar", Title: "Savings Scholar"}); err != nil {
		t.Fatalf("UnlockAchievement() error = %v", err)
	}

	entries, err := svc.AchievementCatalog(ctx, u.ID)
	if err != nil {
		t.Fatalf("AchievementCatalog() error = %v", err)
	}
	if len(entries) != len(svc.Catalog().All()) {
		t.Fatalf("entries = %d, want %d", len(entries), len(svc.Catalog().All()))
	}
	for _, e := range entries {
		if e.Earned != (e.Type == "savings-scholar") {
			t.Errorf("%s earned = %v", e.Type, e.Earned)
		}
		if e.Type == "financial-advisor" && !e.ServerGranted {
			t.Error("financial-advisor should be server granted")
		}
	}
}

func TestUpdateStats(t *testing.T) {
	svc, db, _ := newTestProgression(t)
	ctx := context.Background()
	u := createTestUser(t, db, "stats@example.com")
	rank := "PLANNER"

	t.Run("empty update rejected", func(t *testing.T) {
		if _, err := svc.UpdateStats(ctx, u.ID, StatsUpdate{}); err == nil {
			t.Error("empty update accepted")
		}
	})

	t.Run("invalid values rejected", func(t *testing.T) {
		_, err := svc.UpdateStats(ctx, u.ID, StatsUpdate{XP: intPtr(-1), Level: intPtr(0)})
		ve, ok := validation.AsErrors(err)
		if !ok || len(ve["xp"]) == 0 || len(ve["level"]) == 0 {
			t.Errorf("UpdateStats() error = %v", err)
		}
	})

	t.Run("xp re-derives level", func(t *testing.T) {
		got, err := svc.UpdateStats(ctx, u.ID, StatsUpdate{XP: intPtr(2500), CurrentRank: &rank})
		if err != nil {
			t.Fatalf("UpdateStats() error = %v", err)
		}
		if got.XP != 2500 || got.Level != 3 || got.CurrentRank != rank || got.LastActiveDate == nil {
			t.Errorf("UpdateStats() = %+v", got)
		}
	})

	t.Run("blank rank rejected", func(t *testing.T) {
		blank := "  "
		_, err := svc.UpdateStats(ctx, u.ID, StatsUpdate{CurrentRank: &blank})
		if ve, ok := validation.AsErrors(err); !ok || len(ve["currentRank"]) == 0 {
			t.Errorf("UpdateStats() error = %v, want currentRank validation error", err)
		}
	})

	t.Run("level must match xp", func(t *testing.T) {
		_, err := svc.UpdateStats(ctx, u.ID, StatsUpdate{XP: intPtr(2500), Level: intPtr(7)})
		if ve, ok := validation.AsErrors(err); !ok || len(ve["level"]) == 0 {
			t.Errorf("UpdateStats() error = %v, want level validation error", err)
		}
		if _, err := svc.UpdateStats(ctx, u.ID, StatsUpdate{Level: intPtr(3)}); err != nil {
			t.Errorf("UpdateStats(matching level) error = %v", err)
		}
	})

	t.Run("xp refreshes rank and grants achievements", func(t *testing.T) {
		v := createTestUser(t, db, "guru@example.com")
		got, err := svc.UpdateStats(ctx, v.ID, StatsUpdate{XP: intPtr(9000)})
		if err != nil {
			t.Fatalf("UpdateStats() error = %v", err)
		}
		if got.CurrentRank != string(progression.TierGuru) || got.Level != 10 {
			t.Errorf("UpdateStats() = %+v", got)
		}

		stats, err := svc.Stats(ctx, v.ID)
		if err != nil {
			t.Fatalf("Stats() error = %v", err)
		}
		sum, err := svc.Summary(ctx, v.ID)
		if err != nil {
			t.Fatalf("Summary() error = %v", err)
		}
		if stats.CurrentRank != string(sum.Tier) || stats.Level != sum.Level {
			t.Errorf("Stats() rank=%s level=%d, Summary() tier=%s level=%d", stats.CurrentRank, stats.Level, sum.Tier, sum.Level)
		}

		found := false
		for _, a := range sum.Achievements {
			if a.Type == "financial-advisor" {
				found = true
			}
		}
		if !found {
			t.Errorf("achievements = %+v, want financial-advisor", sum.Achievements)
		}
	})

	t.Run("unknown user", func(t *testing.T) {
		if _, err := svc.UpdateStats(ctx, "missing", StatsUpdate{Level: intPtr(2)}); !errors.Is(err, ErrUserNotFound) {
			t.Errorf("UpdateStats() error = %v, want ErrUserNotFound", err)
		}
	})
}

func TestSummaryAndStats(t *testing.T) {
	svc, db, _ := newTestProgression(t)
	ctx := context.Background()
	u := createTestUser(t, db, "summary@example.com")
	createTestLesson(t, db, "invest-101")

	if _, err := svc.AddXP(ctx, u.ID, 1300, ""); err != nil {
		t.Fatalf("AddXP() error = %v", err)
	}
	if _, err := svc.CompleteModule(ctx, u.ID, "invest-101", 75); err != nil {
		t.Fatalf("CompleteModule() error = %v", err)
	}
	if _, err := svc.UpdateSkillTree(ctx, u.ID, "investing", 40); err != nil {
		t.Fatalf("UpdateSkillTree() error = %v", err)
	}

	sum, err := svc.Summary(ctx, u.ID)
	if err != nil {
		t.Fatalf("Summary() error = %v", err)
	}
	if sum.XP != 1300 || sum.Tier != progression.TierPlanner || sum.Level != 2 || sum.LessonXP != 75 {
		t.Errorf("Summary() = %+v", sum)
	}
	if sum.NextTier == nil || *sum.NextTier != progression.TierInvestor || sum.XPToNextTier != 1200 {
		t.Errorf("next tier = %v, xpToNextTier = %d", sum.NextTier, sum.XPToNextTier)
	}
	if len(sum.Progress) != 1 || len(sum.SkillTrees) != 1 || sum.Streak != 1 {
		t.Errorf("Summary() collections = %+v", sum)
	}

	stats, err := svc.Stats(ctx, u.ID)
	if err != nil {
		t.Fatalf("Stats() error = %v", err)
	}
	if stats.Level != 2 || stats.XPRequired != 2000 || stats.Lessons != 1 || stats.CurrentRank != string(progression.TierPlanner) {
		t.Errorf("Stats() = %+v", stats)
	}

	if _, err := svc.Summary(ctx, "missing"); !errors.Is(err, ErrUserNotFound) {
		t.Errorf("Summary(missing) error = %v", err)
	}
}

func TestUpdateSkillTree(t *testing.T) {
	svc, db, _ := newTestProgression(t)
	ctx := context.Background()
	u := createTestUser(t, db, "trees@example.com")

	got, err := svc.UpdateSkillTree(ctx, u.ID, "budgeting", 140)
	if err != nil {
		t.Fatalf("UpdateSkillTree() error = %v", err)
	}
	if got.Progress != 100 {
		t.Errorf("progress = %d, want capped at 100", got.Progress)
	}

	got, err = svc.UpdateSkillTree(ctx, u.ID, "budgeting", 30)
	if err != nil || got.Progress != 30 {
		t.Errorf("UpdateSkillTree() = %+v, %v", got, err)
	}

	_, err = svc.UpdateSkillTree(ctx, u.ID, "budgeting", -1)
	if ve, ok := validation.AsErrors(err); !ok || len(ve["progress"]) == 0 {
		t.Errorf("negative progress error = %v, want progress validation error", err)
	}
	_, err = svc.UpdateSkillTree(ctx, u.ID, " ", 10)
	if ve, ok := validation.AsErrors(err); !ok || len(ve["skillTreeId"]) == 0 {
		t.Errorf("blank skill tree error = %v, want skillTreeId validation error", err)
	}

	trees, err := svc.SkillTrees(ctx, u.ID)
	if err != nil || len(trees) != 1 {
		t.Errorf("SkillTrees() = %d, %v; want 1", len(trees), err)
	}
}
