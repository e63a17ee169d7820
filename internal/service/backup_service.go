package service

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"time"

	"finlearn/internal/database"
	"finlearn/internal/models"
	"finlearn/internal/repository"
)

const backupVersion = "1"

// BackupData is the progression export written by the backup tool
type BackupData struct {
	Version      string          `json:"version"`
	ExportedAt   time.Time       `json:"exportedAt"`
	DatabaseType string          `json:"databaseType"`
	Lessons      []models.Lesson `json:"lessons"`
	Users        []UserBackup    `json:"users"`
}

// UserBackup is one user's progression snapshot. Credentials are never exported.
type UserBackup struct {
	User         models.User                `json:"user"`
	Progress     []models.EducationProgress `json:"progress"`
	Achievements []models.Achievement       `json:"achievements"`
	SkillTrees   []models.UserSkillTree     `json:"skillTrees"`
	XPGrants     []models.XPGrant           `json:"xpGrants"`
}

// BackupService exports progression data
type BackupService struct {
	databaseType string
	users        *repository.UserRepository
	lessons      *repository.LessonRepository
	progress     *repository.ProgressRepository
	achievements *repository.AchievementRepository
	skillTrees   *repository.SkillTreeRepository
	grants       *repository.XPGrantRepository
}

// NewBackupService creates a new backup service
func NewBackupService(db *database.DB, databaseType string) *BackupService {
	return &BackupService{
		databaseType: databaseType,
		users:        repository.NewUserRepository(db),
		lessons:      repository.NewLessonRepository(db),
		progress:     repository.NewProgressRepository(db),
		achievements: repository.NewAchievementRepository(db),
		skillTrees:   repository.NewSkillTreeRepository(db),
		grants:       repository.NewXPGrantRepository(db),
	}
}

// Snapshot collects every user's progression
func (s *BackupService) Snapshot(ctx context.Context) (*BackupData, error) {
	lessons, err := s.lessons.List(ctx, "")
	if err != nil {
		return nil, err
	}
	users, err := s.users.List(ctx)
	if err != nil {
		return nil, err
	}

	backup := &BackupData{
		Version:      backupVersion,
		ExportedAt:   time.Now().UTC(),
		DatabaseType: s.databaseType,
		Lessons:      lessons,
		Users:        make([]UserBackup, 0, len(users)),
	}
	for _, u := range users {
		ub := UserBackup{User: u}
		if ub.Progress, err = s.progress.ListByUser(ctx, u.ID); err != nil {
			return nil, err
		}
		if ub.Achievements, err = s.achievements.ListByUser(ctx, u.ID); err != nil {
			return nil, err
		}
		if ub.SkillTrees, err = s.skillTrees.ListByUser(ctx, u.ID); err != nil {
			return nil, err
		}
		if ub.XPGrants, err = s.grants.ListByUser(ctx, u.ID); err != nil {
			return nil, err
		}
		backup.Users = append(backup.Users, ub)
	}
	return backup, nil
}

// ExportToWriter writes the snapshot as indented JSON
func (s *BackupService) ExportToWriter(ctx context.Context, w io.Writer) error {
	backup, err := s.Snapshot(ctx)
	if err != nil {
		return fmt.Errorf("failed to build snapshot: %w", err)
	}
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(backup); err != nil {
		return fmt.Errorf("failed to encode backup: %w", err)
	}
	return nil
}

// Export writes the snapshot to outputPath
func (s *BackupService) Export(ctx context.Context, outputPath string) error {
	file, err := os.Create(outputPath)
	if err != nil {
		return fmt.Errorf("failed to create output file: %w", err)
	}
	if err := s.ExportToWriter(ctx, file); err != nil {
		file.Close()
		return err
	}
	return file.Close()
}
