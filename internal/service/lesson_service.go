package service

import (
	"context"
	"fmt"
	"strings"

	"finlearn/internal/models"
	"finlearn/internal/repository"
	"finlearn/internal/validation"
)

// LessonService manages the lesson catalog
type LessonService struct {
	lessons *repository.LessonRepository
}

// NewLessonService creates a new lesson service
func NewLessonService(lessons *repository.LessonRepository) *LessonService {
	return &LessonService{lessons: lessons}
}

// CreateLessonRequest is the payload for adding a lesson
type CreateLessonRequest struct {
	Title       string `json:"title" validate:"notblank,max=255"`
	Description string `json:"description" validate:"max=2000"`
	Category    string `json:"category" validate:"max=64"`
	Duration    string `json:"duration" validate:"max=32"`
	XPReward    int    `json:"xpReward" validate:"gte=0"`
}

// List returns lessons, optionally filtered by category
func (s *LessonService) List(ctx context.Context, category string) ([]models.Lesson, error) {
	lessons, err := s.lessons.List(ctx, strings.TrimSpace(category))
	if err != nil {
		return nil, fmt.Errorf("failed to list lessons: %w", err)
	}
	return lessons, nil
}

// Get returns a single lesson
func (s *LessonService) Get(ctx context.Context, id string) (*models.Lesson, error) {
	lesson, err := s.lessons.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get lesson: %w", err)
	}
	if lesson == nil {
		return nil, ErrLessonNotFound
	}
	return lesson, nil
}

// Create validates and stores a new lesson
func (s *LessonService) Create(ctx context.Context, req CreateLessonRequest) (*models.Lesson, error) {
	if err := validation.Struct(req); err != nil {
		return nil, err
	}
	lesson := &models.Lesson{
		Title:       strings.TrimSpace(req.Title),
		Description: req.Description,
		Category:    strings.TrimSpace(req.Category),
		Duration:    req.Duration,
		XPReward:    req.XPReward,
	}
	if err := s.lessons.Create(ctx, lesson); err != nil {
		return nil, err
	}
	return lesson, nil
}
