package service

import (
	"context"
	"fmt"
	"time"

	"github.com/ironloft/gymapp/internal/events"
	"github.com/ironloft/gymapp/internal/logging"
	"github.com/ironloft/gymapp/internal/models"
	"github.com/ironloft/gymapp/internal/repo"
	"github.com/ironloft/gymapp/internal/transport"
)

type ClassService struct {
	Repo     *repo.GormRepo
	Producer *events.Producer
}

func validateClass(req *transport.ClassRequest) error {
	if req.Date == "" || req.Time == "" || req.TrainerName == "" || req.Type == "" || req.Location == "" {
		return fmt.Errorf("%w: date, time, trainer_name, type and location are required", ErrValidation)
	}
	if req.Capacity == 0 {
		return fmt.Errorf("%w: capacity must be a positive integer", ErrValidation)
	}
	return nil
}

func (s *ClassService) List(ctx context.Context, offset, limit int) (int64, []models.Class, error) {
	return s.Repo.Classes(ctx, offset, limit)
}

func (s *ClassService) Get(ctx context.Context, id uint) (*models.Class, error) {
	return s.Repo.ClassByID(ctx, id)
}

func (s *ClassService) Create(ctx context.Context, req transport.ClassRequest) (*models.Class, error) {
	if err := validateClass(&req); err != nil {
		return nil, err
	}
	class := models.Class{
		Date:        req.Date,
		Time:        req.Time,
		TrainerName: req.TrainerName,
		Capacity:    req.Capacity,
		Type:        req.Type,
		Location:    req.Location,
	}
	if err := s.Repo.CreateClass(ctx, &class); err != nil {
		return nil, err
	}

	s.publish(ctx, "class_events", fmt.Sprint(class.ID), map[string]interface{}{
		"type":    "class_created",
		"classID": class.ID,
		"class":   class.Type,
	})
	return &class, nil
}

func (s *ClassService) Update(ctx context.Context, id uint, req transport.ClassRequest) (*models.Class, error) {
	if err := validateClass(&req); err != nil {
		return nil, err
	}
	class, err := s.Repo.UpdateClass(ctx, id, &models.Class{
		Date:        req.Date,
		Time:        req.Time,
		TrainerName: req.TrainerName,
		Capacity:    req.Capacity,
		Type:        req.Type,
		Location:    req.Location,
	})
	if err != nil {
		return nil, err
	}

	s.publish(ctx, "class_events", fmt.Sprint(class.ID), map[string]interface{}{
		"type":    "class_updated",
		"classID": class.ID,
	})
	return class, nil
}

func (s *ClassService) Delete(ctx context.Context, id uint) error {
	if err := s.Repo.DeleteClass(ctx, id); err != nil {
		return err
	}
	s.publish(ctx, "class_events", fmt.Sprint(id), map[string]interface{}{
		"type":    "class_deleted",
		"classID": id,
	})
	return nil
}

func (s *ClassService) RegisterAttendance(ctx context.Context, userID, classID uint) (*models.Attendance, error) {
	att, err := s.Repo.RegisterAttendance(ctx, userID, classID)
	if err != nil {
		return nil, err
	}
	s.publish(ctx, "class_events", fmt.Sprint(classID), map[string]interface{}{
		"type":    "class_attendance_registered",
		"classID": classID,
		"userID":  userID,
	})
	return att, nil
}

func (s *ClassService) CheckIn(ctx context.Context, userID, classID uint) error {
	return s.Repo.CheckIn(ctx, userID, classID)
}

func (s *ClassService) Users(ctx context.Context, classID uint) ([]models.User, error) {
	return s.Repo.UsersForClass(ctx, classID)
}

func (s *ClassService) publish(ctx context.Context, topic, key string, event map[string]interface{}) {
	pubCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := s.Producer.PublishEvent(pubCtx, topic, key, event); err != nil {
		logging.FromContext(ctx).Error("kafka publish error", "topic", topic, "error", err)
	}
}
