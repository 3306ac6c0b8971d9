package stylist

import (
	"context"
	"time"
)

type CreateBlockRequest struct {
	StylistID string
	Start     time.Time
	End       time.Time
	Reason    string
}

type CreateServiceRequest struct {
	StylistID       string
	Name            string
	DurationMinutes int
	PriceCents      int64
}

type ScheduleService interface {
	GetSchedule(ctx context.Context, stylistID string) (WeeklySchedule, error)
	PutSchedule(ctx context.Context, callerID, stylistID string, schedule WeeklySchedule) error

	ListBlocks(ctx context.Context, stylistID string, from, to time.Time) ([]*Block, error)
	CreateBlock(ctx context.Context, callerID string, req CreateBlockRequest) (*Block, error)
	DeleteBlock(ctx context.Context, callerID, stylistID, blockID string) error

	GetService(ctx context.Context, serviceID string) (*Service, error)
	ListServices(ctx context.Context, stylistID string) ([]*Service, error)
	CreateService(ctx context.Context, callerID string, req CreateServiceRequest) (*Service, error)
}

type service struct {
	repo Repository
}

func NewService(repo Repository) ScheduleService {
	return &service{repo: repo}
}

func (s *service) GetSchedule(ctx context.Context, stylistID string) (WeeklySchedule, error) {
	return s.repo.GetSchedule(ctx, stylistID)
}

func (s *service) PutSchedule(ctx context.Context, callerID, stylistID string, schedule WeeklySchedule) error {
	// Stylists manage their own template; role gate happens in middleware.
	if callerID != stylistID {
		return ErrNotOwner
	}
	if err := schedule.Validate(); err != nil {
		return err
	}
	return s.repo.UpsertSchedule(ctx, stylistID, schedule)
}

func (s *service) ListBlocks(ctx context.Context, stylistID string, from, to time.Time) ([]*Block, error) {
	return s.repo.ListBlocks(ctx, stylistID, from, to)
}

func (s *service) CreateBlock(ctx context.Context, callerID string, req CreateBlockRequest) (*Block, error) {
	if callerID != req.StylistID {
		return nil, ErrNotOwner
	}
	if !req.Start.Before(req.End) {
		return nil, ErrInvalidBlock
	}

	block := &Block{
		StylistID: req.StylistID,
		Start:     req.Start.UTC(),
		End:       req.End.UTC(),
		Reason:    req.Reason,
	}
	if err := s.repo.CreateBlock(ctx, block); err != nil {
		return nil, err
	}
	return block, nil
}

func (s *service) DeleteBlock(ctx context.Context, callerID, stylistID, blockID string) error {
	if callerID != stylistID {
		return ErrNotOwner
	}
	return s.repo.DeleteBlock(ctx, stylistID, blockID)
}

func (s *service) GetService(ctx context.Context, serviceID string) (*Service, error) {
	return s.repo.GetService(ctx, serviceID)
}

func (s *service) ListServices(ctx context.Context, stylistID string) ([]*Service, error) {
	return s.repo.ListServices(ctx, stylistID)
}

func (s *service) CreateService(ctx context.Context, callerID string, req CreateServiceRequest) (*Service, error) {
	if callerID != req.StylistID {
		return nil, ErrNotOwner
	}
	if req.Name == "" || req.DurationMinutes <= 0 || req.PriceCents < 0 {
		return nil, ErrInvalidService
	}

	svc := &Service{
		StylistID:       req.StylistID,
		Name:            req.Name,
		DurationMinutes: req.DurationMinutes,
		PriceCents:      req.PriceCents,
		Active:          true,
	}
	if err := s.repo.CreateService(ctx, svc); err != nil {
		return nil, err
	}
	return svc, nil
}
