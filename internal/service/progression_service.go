package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"finlearn/internal/database"
	"finlearn/internal/logger"
	"finlearn/internal/models"
	"finlearn/internal/progression"
	"finlearn/internal/repository"
	"finlearn/internal/validation"
)

// ProgressionOptions tunes the progression rules
type ProgressionOptions struct {
	LevelXPStep int
	StreakGrace time.Duration
	Catalog     *progression.Catalog
}

// ProgressionService owns every write to a user's progression state. The store
// holds the authoritative values; nothing is cached between calls.
type ProgressionService struct {
	db           *database.DB
	users        *repository.UserRepository
	lessons      *repository.LessonRepository
	progress     *repository.ProgressRepository
	achievements *repository.AchievementRepository
	skillTrees   *repository.SkillTreeRepository
	grants       *repository.XPGrantRepository

	levels  progression.LevelCalculator
	grace   time.Duration
	catalog *progression.Catalog
	events  EventPublisher
	log     *logger.Logger
	now     func() time.Time
}

// NewProgressionService creates the progression facade
func NewProgressionService(db *database.DB, opts ProgressionOptions, events EventPublisher, log *logger.Logger) *ProgressionService {
	if opts.Catalog == nil {
		opts.Catalog = progression.DefaultCatalog()
	}
	if opts.StreakGrace <= 0 {
		opts.StreakGrace = progression.DefaultStreakGrace
	}
	if events == nil {
		events = noopPublisher{}
	}
	if log == nil {
		log = logger.Nop()
	}
	return &ProgressionService{
		db:           db,
		users:        repository.NewUserRepository(db),
		lessons:      repository.NewLessonRepository(db),
		progress:     repository.NewProgressRepository(db),
		achievements: repository.NewAchievementRepository(db),
		skillTrees:   repository.NewSkillTreeRepository(db),
		grants:       repository.NewXPGrantRepository(db),
		levels:       progression.NewLevelCalculator(opts.LevelXPStep),
		grace:        opts.StreakGrace,
		catalog:      opts.Catalog,
		events:       events,
		log:          log.With("service", "ProgressionService"),
		now:          func() time.Time { return time.Now().UTC() },
	}
}

// Catalog returns the achievement catalog in use
func (s *ProgressionService) Catalog() *progression.Catalog {
	return s.catalog
}

// XPResult is the outcome of an XP grant
type XPResult struct {
	NewXP        int                  `json:"newXp"`
	NewLevel     int                  `json:"newLevel"`
	LeveledUp    bool                 `json:"leveledUp"`
	XPAdded      int                  `json:"xpAdded"`
	CurrentRank  string               `json:"currentRank"`
	Replayed     bool                 `json:"replayed,omitempty"`
	Achievements []models.Achievement `json:"unlockedAchievements,omitempty"`
}

// AddXP credits amount to the user. The increment is a single atomic update so
// concurrent grants are never lost. A non-empty idempotencyKey that was already
// used returns the stored result without crediting again.
func (s *ProgressionService) AddXP(ctx context.Context, userID string, amount int, idempotencyKey string) (*XPResult, error) {
	idempotencyKey = strings.TrimSpace(idempotencyKey)
	if err := validation.Struct(xpGrantInput{Amount: amount, IdempotencyKey: idempotencyKey}); err != nil {
		return nil, err
	}

	var (
		result  *XPResult
		updated *models.User
	)
	err := s.db.WithTx(ctx, func(tx *database.Tx) error {
		users := s.users.WithTx(tx)
		grants := s.grants.WithTx(tx)

		if idempotencyKey != "" {
			prior, err := grants.GetByKey(ctx, userID, idempotencyKey)
			if err != nil {
				return err
			}
			if prior != nil {
				result = replayedResult(prior)
				return nil
			}
		}

		ok, err := users.IncrementXP(ctx, userID, amount, progression.MaxXP)
		if err != nil {
			return err
		}
		if !ok {
			existing, err := users.GetByID(ctx, userID)
			if err != nil {
				return err
			}
			if existing == nil {
				return ErrUserNotFound
			}
			return validation.New("xpAmount", fmt.Sprintf("would raise xp above %d", progression.MaxXP))
		}

		user, err := users.GetByID(ctx, userID)
		if err != nil {
			return err
		}
		if user == nil {
			return ErrUserNotFound
		}

		oldXP := user.XP - amount
		newLevel := s.levels.Level(user.XP)
		rank := string(progression.MustTierFor(user.XP))
		now := s.now()
		if err := users.UpdateProgression(ctx, userID, newLevel, rank, now); err != nil {
			return err
		}

		grant := &models.XPGrant{
			UserID:    userID,
			Amount:    amount,
			NewXP:     user.XP,
			NewLevel:  newLevel,
			LeveledUp: s.levels.LeveledUp(oldXP, user.XP),
		}
		if idempotencyKey != "" {
			grant.IdempotencyKey = &idempotencyKey
		}
		if err := grants.Create(ctx, grant); err != nil {
			return err
		}

		user.Level = newLevel
		user.CurrentRank = rank
		user.LastActiveDate = &now
		updated = user
		result = &XPResult{
			NewXP:       user.XP,
			NewLevel:    newLevel,
			LeveledUp:   grant.LeveledUp,
			XPAdded:     amount,
			CurrentRank: rank,
		}
		return nil
	})
	if err != nil {
		if ve, ok := validation.AsErrors(err); ok {
			return nil, ve
		}
		// A concurrent request with the same key may have committed first
		if idempotencyKey != "" && !errors.Is(err, ErrUserNotFound) {
			if prior, lookupErr := s.grants.GetByKey(ctx, userID, idempotencyKey); lookupErr == nil && prior != nil {
				return replayedResult(prior), nil
			}
		}
		return nil, fmt.Errorf("failed to add xp: %w", err)
	}
	if result.Replayed {
		return result, nil
	}

	s.log.Info("xp added", "user_id", userID, "amount", amount, "new_xp", result.NewXP, "new_level", result.NewLevel)
	if result.LeveledUp {
		s.events.Publish(userID, EventLevelUp, map[string]interface{}{
			"level": result.NewLevel,
			"xp":    result.NewXP,
			"title": progression.LevelTitle(result.NewLevel),
		})
	}
	result.Achievements = s.grantEligible(ctx, updated)
	return result, nil
}

type xpGrantInput struct {
	Amount         int    `json:"xpAmount" validate:"gt=0,lte=2147483647"`
	IdempotencyKey string `json:"Idempotency-Key" validate:"max=128"`
}

func replayedResult(g *models.XPGrant) *XPResult {
	return &XPResult{
		NewXP:       g.NewXP,
		NewLevel:    g.NewLevel,
		LeveledUp:   g.LeveledUp,
		XPAdded:     g.Amount,
		CurrentRank: string(progression.MustTierFor(g.NewXP)),
		Replayed:    true,
	}
}

// CompletionResult is the outcome of completing a lesson
type CompletionResult struct {
	Progress      *models.EducationProgress `json:"progress"`
	Streak        int                       `json:"streak"`
	LongestStreak int                       `json:"longestStreak"`
	Achievements  []models.Achievement      `json:"unlockedAchievements,omitempty"`
}

type completionInput struct {
	LessonID string `json:"lessonId" validate:"notblank,max=64"`
	XPEarned int    `json:"xpEarned" validate:"gte=0,lte=2147483647"`
}

// CompleteModule records a lesson completion and credits the daily streak. The
// progress upsert and the streak update commit together or not at all. XP is not
// credited here; clients grant it through AddXP.
func (s *ProgressionService) CompleteModule(ctx context.Context, userID, lessonID string, xpEarned int) (*CompletionResult, error) {
	if err := validation.Struct(completionInput{LessonID: lessonID, XPEarned: xpEarned}); err != nil {
		return nil, err
	}

	lesson, err := s.lessons.GetByID(ctx, lessonID)
	if err != nil {
		return nil, fmt.Errorf("failed to complete module: %w", err)
	}
	if lesson == nil {
		return nil, ErrLessonNotFound
	}

	var (
		result  *CompletionResult
		updated *models.User
	)
	err = s.db.WithTx(ctx, func(tx *database.Tx) error {
		users := s.users.WithTx(tx)

		user, err := users.GetByIDForUpdate(ctx, userID)
		if err != nil {
			return err
		}
		if user == nil {
			return ErrUserNotFound
		}

		now := s.now()
		p, err := s.progress.WithTx(tx).Upsert(ctx, &models.EducationProgress{
			UserID:      userID,
			LessonID:    lessonID,
			Completed:   true,
			XPEarned:    xpEarned,
			CompletedAt: &now,
		})
		if err != nil {
			return err
		}

		state := progression.RecordActivity(streakState(user), now)
		if err := users.UpdateStreak(ctx, userID, state.Streak, state.LongestStreak, state.LastActive, state.LastStreakDay); err != nil {
			return err
		}

		user.DailyStreak = state.Streak
		user.LongestStreak = state.LongestStreak
		user.LastActiveDate = state.LastActive
		updated = user
		result = &CompletionResult{Progress: p, Streak: state.Streak, LongestStreak: state.LongestStreak}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to complete module: %w", err)
	}

	s.log.Info("module completed", "user_id", userID, "lesson_id", lessonID, "streak", result.Streak)
	result.Achievements = s.grantEligible(ctx, updated)
	return result, nil
}

// StreakResult is the outcome of a streak continuity check
type StreakResult struct {
	CurrentStreak int       `json:"currentStreak"`
	StreakReset   bool      `json:"streakReset"`
	LastActive    time.Time `json:"lastActive"`
}

// CheckStreak resets the streak when the user has been away longer than the
// grace window and stamps the visit. It never increments the streak.
func (s *ProgressionService) CheckStreak(ctx context.Context, userID string) (*StreakResult, error) {
	var (
		result  *StreakResult
		updated *models.User
	)
	err := s.db.WithTx(ctx, func(tx *database.Tx) error {
		users := s.users.WithTx(tx)

		user, err := users.GetByIDForUpdate(ctx, userID)
		if err != nil {
			return err
		}
		if user == nil {
			return ErrUserNotFound
		}

		touched := progression.Touch(streakState(user), s.now(), s.grace)
		st := touched.State
		if err := users.UpdateStreak(ctx, userID, st.Streak, st.LongestStreak, st.LastActive, st.LastStreakDay); err != nil {
			return err
		}

		user.DailyStreak = st.Streak
		user.LastActiveDate = st.LastActive
		updated = user
		result = &StreakResult{CurrentStreak: st.Streak, StreakReset: touched.WasReset, LastActive: *st.LastActive}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to check streak: %w", err)
	}

	if result.StreakReset {
		s.log.Info("streak reset", "user_id", userID)
		s.events.Publish(userID, EventStreakReset, result)
	}
	s.grantEligible(ctx, updated)
	return result, nil
}

func streakState(u *models.User) progression.StreakState {
	st := progression.StreakState{
		Streak:        u.DailyStreak,
		LongestStreak: u.LongestStreak,
		LastActive:    u.LastActiveDate,
	}
	if u.LastStreakDate != nil {
		st.LastStreakDay = *u.LastStreakDate
	}
	return st
}

// UnlockRequest describes an achievement to record
type UnlockRequest struct {
	Type        string `json:"type" validate:"notblank,max=64"`
	Title       string `json:"title" validate:"notblank,max=255"`
	Description string `json:"description" validate:"max=1000"`
	Color       string `json:"color" validate:"max=16"`
	Requirement string `json:"requirement" validate:"max=255"`
}

// UnlockResult reports the stored achievement and whether it already existed
type UnlockResult struct {
	Achievement   *models.Achievement `json:"achievement"`
	AlreadyEarned bool                `json:"alreadyEarned"`
}

// UnlockAchievement records an achievement once per (user, type). A repeated
// unlock returns the existing row unchanged. Eligibility is the caller's call.
func (s *ProgressionService) UnlockAchievement(ctx context.Context, userID string, req UnlockRequest) (*UnlockResult, error) {
	if err := validation.Struct(req); err != nil {
		return nil, err
	}
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to unlock achievement: %w", err)
	}
	if user == nil {
		return nil, ErrUserNotFound
	}

	res, err := s.unlock(ctx, userID, req)
	if err != nil {
		return nil, fmt.Errorf("failed to unlock achievement: %w", err)
	}
	return res, nil
}

func (s *ProgressionService) unlock(ctx context.Context, userID string, req UnlockRequest) (*UnlockResult, error) {
	existing, err := s.achievements.Get(ctx, userID, req.Type)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return &UnlockResult{Achievement: existing, AlreadyEarned: true}, nil
	}

	stored, created, err := s.achievements.InsertIfAbsent(ctx, &models.Achievement{
		UserID:      userID,
		Type:        req.Type,
		Title:       req.Title,
		Description: req.Description,
		Color:       req.Color,
		Requirement: req.Requirement,
	})
	if err != nil {
		return nil, err
	}
	if created {
		s.log.Info("achievement unlocked", "user_id", userID, "type", req.Type)
		s.events.Publish(userID, EventAchievementUnlocked, stored)
	}
	return &UnlockResult{Achievement: stored, AlreadyEarned: !created}, nil
}

// grantEligible unlocks every catalog achievement whose rule now holds. Failures
// are logged; the write that triggered the evaluation has already committed.
func (s *ProgressionService) grantEligible(ctx context.Context, user *models.User) []models.Achievement {
	if user == nil {
		return nil
	}
	earned, err := s.achievements.ListByUser(ctx, user.ID)
	if err != nil {
		s.log.Warn("failed to load achievements for evaluation", "user_id", user.ID, "error", err)
		return nil
	}
	have := make(map[string]bool, len(earned))
	for _, a := range earned {
		have[a.Type] = true
	}
	lessons, err := s.progress.CountCompleted(ctx, user.ID)
	if err != nil {
		s.log.Warn("failed to count lessons for evaluation", "user_id", user.ID, "error", err)
		return nil
	}

	stats := progression.Stats{XP: user.XP, Level: user.Level, Streak: user.DailyStreak, Lessons: lessons}
	var unlocked []models.Achievement
	for _, def := range s.catalog.Eligible(stats, have) {
		res, err := s.unlock(ctx, user.ID, UnlockRequest{
			Type:        def.Type,
			Title:       def.Title,
			Description: def.Description,
			Color:       def.Color,
			Requirement: def.Requirement,
		})
		if err != nil {
			s.log.Warn("failed to grant achievement", "user_id", user.ID, "type", def.Type, "error", err)
			continue
		}
		if !res.AlreadyEarned {
			unlocked = append(unlocked, *res.Achievement)
		}
	}
	return unlocked
}

// Achievements lists a user's earned achievements
func (s *ProgressionService) Achievements(ctx context.Context, userID string) ([]models.Achievement, error) {
	if err := s.requireUser(ctx, userID); err != nil {
		return nil, err
	}
	out, err := s.achievements.ListByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list achievements: %w", err)
	}
	return out, nil
}

// CatalogEntry is a catalog definition merged with the user's unlock, if any
type CatalogEntry struct {
	progression.Definition
	ServerGranted bool       `json:"serverGranted"`
	Earned        bool       `json:"earned"`
	EarnedAt      *time.Time `json:"earnedAt,omitempty"`
}

// AchievementCatalog returns every known achievement with the user's unlock state
func (s *ProgressionService) AchievementCatalog(ctx context.Context, userID string) ([]CatalogEntry, error) {
	earned, err := s.Achievements(ctx, userID)
	if err != nil {
		return nil, err
	}
	byType := make(map[string]models.Achievement, len(earned))
	for _, a := range earned {
		byType[a.Type] = a
	}

	defs := s.catalog.All()
	out := make([]CatalogEntry, 0, len(defs))
	for _, d := range defs {
		entry := CatalogEntry{Definition: d, ServerGranted: d.ServerGranted()}
		if a, ok := byType[d.Type]; ok {
			at := a.EarnedAt
			entry.Earned = true
			entry.EarnedAt = &at
		}
		out = append(out, entry)
	}
	return out, nil
}

// SkillTrees lists a user's skill tree progress
func (s *ProgressionService) SkillTrees(ctx context.Context, userID string) ([]models.UserSkillTree, error) {
	if err := s.requireUser(ctx, userID); err != nil {
		return nil, err
	}
	out, err := s.skillTrees.ListByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list skill trees: %w", err)
	}
	return out, nil
}

type skillTreeInput struct {
	SkillTreeID string `json:"skillTreeId" validate:"notblank,max=64"`
	Progress    int    `json:"progress" validate:"gte=0"`
}

// UpdateSkillTree upserts progress for a skill tree, capped at 100
func (s *ProgressionService) UpdateSkillTree(ctx context.Context, userID, skillTreeID string, progress int) (*models.UserSkillTree, error) {
	if err := validation.Struct(skillTreeInput{SkillTreeID: skillTreeID, Progress: progress}); err != nil {
		return nil, err
	}
	if progress > 100 {
		progress = 100
	}
	if err := s.requireUser(ctx, userID); err != nil {
		return nil, err
	}

	st, err := s.skillTrees.Upsert(ctx, userID, skillTreeID, progress)
	if err != nil {
		return nil, fmt.Errorf("failed to update skill tree: %w", err)
	}
	return st, nil
}

// Summary is the read model of a user's progression
type Summary struct {
	XP            int                        `json:"xp"`
	Tier          progression.Tier           `json:"tier"`
	TierName      string                     `json:"tierName"`
	TierColor     string                     `json:"tierColor"`
	NextTier      *progression.Tier          `json:"nextTier"`
	XPToNextTier  int                        `json:"xpToNextTier"`
	Level         int                        `json:"level"`
	LevelTitle    string                     `json:"levelTitle"`
	XPRequired    int                        `json:"xpRequired"`
	Streak        int                        `json:"streak"`
	LongestStreak int                        `json:"longestStreak"`
	LessonXP      int                        `json:"lessonXp"`
	Achievements  []models.Achievement       `json:"achievements"`
	SkillTrees    []models.UserSkillTree     `json:"skillTrees"`
	Progress      []models.EducationProgress `json:"progress"`
}

// Summary builds the progression read model. XP and tier come from the user's
// ledger total; the per-lesson sum is reported separately as lessonXp.
func (s *ProgressionService) Summary(ctx context.Context, userID string) (*Summary, error) {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to load summary: %w", err)
	}
	if user == nil {
		return nil, ErrUserNotFound
	}

	progress, err := s.progress.ListByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to load summary: %w", err)
	}
	achievements, err := s.achievements.ListByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to load summary: %w", err)
	}
	skillTrees, err := s.skillTrees.ListByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to load summary: %w", err)
	}

	lessonXP, err := s.progress.SumXPEarned(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to load summary: %w", err)
	}

	tier := progression.MustTierFor(user.XP)
	level := s.levels.Level(user.XP)
	sum := &Summary{
		XP:            user.XP,
		Tier:          tier,
		TierName:      tier.DisplayName(),
		TierColor:     tier.Color(),
		XPToNextTier:  progression.XPToNextTier(user.XP),
		Level:         level,
		LevelTitle:    progression.LevelTitle(level),
		XPRequired:    s.levels.XPRequired(level),
		Streak:        user.DailyStreak,
		LongestStreak: user.LongestStreak,
		LessonXP:      lessonXP,
		Achievements:  achievements,
		SkillTrees:    skillTrees,
		Progress:      progress,
	}
	if next, ok := progression.NextTier(tier); ok {
		sum.NextTier = &next
	}
	return sum, nil
}

// Stats is the compact stats view of a user
type Stats struct {
	Level          int        `json:"level"`
	XP             int        `json:"xp"`
	XPRequired     int        `json:"xpRequired"`
	Streak         int        `json:"streak"`
	Lessons        int        `json:"lessons"`
	Achievements   int        `json:"achievements"`
	CurrentRank    string     `json:"currentRank"`
	Title          string     `json:"title"`
	LastActiveDate *time.Time `json:"lastActiveDate"`
}

// Stats returns the user's headline numbers
func (s *ProgressionService) Stats(ctx context.Context, userID string) (*Stats, error) {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to load stats: %w", err)
	}
	if user == nil {
		return nil, ErrUserNotFound
	}
	lessons, err := s.progress.CountCompleted(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to load stats: %w", err)
	}
	achievements, err := s.achievements.ListByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to load stats: %w", err)
	}

	level := s.levels.Level(user.XP)
	rank := user.CurrentRank
	if rank == "" {
		rank = string(progression.MustTierFor(user.XP))
	}
	return &Stats{
		Level:          level,
		XP:             user.XP,
		XPRequired:     s.levels.XPRequired(level),
		Streak:         user.DailyStreak,
		Lessons:        lessons,
		Achievements:   len(achievements),
		CurrentRank:    rank,
		Title:          progression.LevelTitle(level),
		LastActiveDate: user.LastActiveDate,
	}, nil
}

// StatsUpdate is a manual partial update of a user's stats
type StatsUpdate struct {
	XP          *int    `json:"xp" validate:"omitnil,gte=0,lte=2147483647"`
	Level       *int    `json:"level" validate:"omitnil,gte=1"`
	DailyStreak *int    `json:"dailyStreak" validate:"omitnil,gte=0"`
	CurrentRank *string `json:"currentRank" validate:"omitnil,notblank,max=32"`
}

// UpdateStats applies a partial stats update. At least one field is required.
// Level is always derived from the resulting xp: an explicit level must agree
// with it. Setting xp without currentRank refreshes the rank to the new tier.
// Achievements the new numbers qualify for are granted afterwards.
func (s *ProgressionService) UpdateStats(ctx context.Context, userID string, upd StatsUpdate) (*models.User, error) {
	if upd.XP == nil && upd.Level == nil && upd.DailyStreak == nil && upd.CurrentRank == nil {
		return nil, validation.New("body", "at least one of xp, level, dailyStreak, currentRank is required")
	}
	if err := validation.Struct(upd); err != nil {
		return nil, err
	}

	var updated *models.User
	err := s.db.WithTx(ctx, func(tx *database.Tx) error {
		users := s.users.WithTx(tx)

		user, err := users.GetByIDForUpdate(ctx, userID)
		if err != nil {
			return err
		}
		if user == nil {
			return ErrUserNotFound
		}

		xp := user.XP
		if upd.XP != nil {
			xp = *upd.XP
		}
		level := s.levels.Level(xp)
		if upd.Level != nil && *upd.Level != level {
			return validation.New("level", fmt.Sprintf("must match xp (level %d)", level))
		}

		patch := repository.StatsPatch{XP: upd.XP, Level: &level, DailyStreak: upd.DailyStreak, CurrentRank: upd.CurrentRank}
		if upd.XP != nil && upd.CurrentRank == nil {
			rank := string(progression.MustTierFor(xp))
			patch.CurrentRank = &rank
		}

		ok, err := users.ApplyStats(ctx, userID, patch, s.now())
		if err != nil {
			return err
		}
		if !ok {
			return ErrUserNotFound
		}

		updated, err = users.GetByID(ctx, userID)
		if err != nil {
			return err
		}
		if updated == nil {
			return ErrUserNotFound
		}
		return nil
	})
	if err != nil {
		if ve, ok := validation.AsErrors(err); ok {
			return nil, ve
		}
		if errors.Is(err, ErrUserNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to update stats: %w", err)
	}

	s.log.Info("stats updated", "user_id", userID)
	s.grantEligible(ctx, updated)
	return updated, nil
}

func (s *ProgressionService) requireUser(ctx context.Context, userID string) error {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return fmt.Errorf("failed to load user: %w", err)
	}
	if user == nil {
		return ErrUserNotFound
	}
	return nil
}
