package service

import (
	"context"
	"time"

	"github.com/google/uuid"

	"carpool/internal/domain"
	"carpool/internal/repository"
)

// UserService handles user accounts, rewards and in-app messages.
type UserService struct {
	userRepo    repository.UserRepository
	rewardRepo  repository.RewardRepository
	messageRepo repository.MessageRepository
}

// NewUserService creates a new UserService.
func NewUserService(
	userRepo repository.UserRepository,
	rewardRepo repository.RewardRepository,
	messageRepo repository.MessageRepository,
) *UserService {
	return &UserService{
		userRepo:    userRepo,
		rewardRepo:  rewardRepo,
		messageRepo: messageRepo,
	}
}

// CreateUserRequest contains the parameters for registering a user.
type CreateUserRequest struct {
	Username string
	Email    string
	FullName string
	Phone    string
}

// CreateUser registers a new user.
func (s *UserService) CreateUser(ctx context.Context, req CreateUserRequest) (*domain.User, error) {
	if req.Username == "" {
		return nil, ErrInvalidUsername
	}
	if req.Email == "" {
		return nil, ErrInvalidEmail
	}

	user := &domain.User{
		ID:        uuid.New().String(),
		Username:  req.Username,
		Email:     req.Email,
		FullName:  req.FullName,
		Phone:     req.Phone,
		CreatedAt: time.Now(),
	}

	if err := s.userRepo.Create(ctx, user); err != nil {
		return nil, err
	}

	return user, nil
}

// GetUser retrieves a user by ID.
func (s *UserService) GetUser(ctx context.Context, userID string) (*domain.User, error) {
	if userID == "" {
		return nil, ErrInvalidUserID
	}
	return s.userRepo.GetByID(ctx, userID)
}

// ListUsers retrieves all users.
func (s *UserService) ListUsers(ctx context.Context) ([]*domain.User, error) {
	return s.userRepo.GetAll(ctx)
}

// ListRewards retrieves a user's reward grants, newest first.
func (s *UserService) ListRewards(ctx context.Context, userID string) ([]*domain.Reward, error) {
	if userID == "" {
		return nil, ErrInvalidUserID
	}
	return s.rewardRepo.ListByUser(ctx, userID)
}

// ListMessages retrieves a user's messages, newest first.
func (s *UserService) ListMessages(ctx context.Context, userID string) ([]*domain.Message, error) {
	if userID == "" {
		return nil, ErrInvalidUserID
	}
	return s.messageRepo.ListByUser(ctx, userID)
}

// MarkMessageRead flags a message as read. Receiver only.
func (s *UserService) MarkMessageRead(ctx context.Context, messageID, userID string) (*domain.Message, error) {
	if messageID == "" {
		return nil, ErrInvalidBookingID
	}
	if userID == "" {
		return nil, ErrInvalidUserID
	}

	return s.messageRepo.MarkRead(ctx, messageID, userID)
}

// CountUnreadMessages returns how many unread messages the user has.
func (s *UserService) CountUnreadMessages(ctx context.Context, userID string) (int, error) {
	if userID == "" {
		return 0, ErrInvalidUserID
	}
	return s.messageRepo.CountUnread(ctx, userID)
}
