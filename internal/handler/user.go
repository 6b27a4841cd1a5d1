package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"carpool/internal/domain"
	"carpool/internal/service"
)

// UserHandler handles HTTP requests for users, rewards and messages.
type UserHandler struct {
	userService *service.UserService
	rideService *service.RideService
}

// NewUserHandler creates a new UserHandler.
func NewUserHandler(userService *service.UserService, rideService *service.RideService) *UserHandler {
	return &UserHandler{
		userService: userService,
		rideService: rideService,
	}
}

// CreateUserRequest is the HTTP request body for registering a user.
type CreateUserRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	FullName string `json:"full_name,omitempty"`
	Phone    string `json:"phone,omitempty"`
}

// UserResponse is the HTTP representation of a user.
type UserResponse struct {
	ID         string `json:"id"`
	Username   string `json:"username"`
	Email      string `json:"email"`
	FullName   string `json:"full_name,omitempty"`
	Phone      string `json:"phone,omitempty"`
	Points     int    `json:"points"`
	TotalRides int    `json:"total_rides"`
	CreatedAt  string `json:"created_at"`
}

func toUserResponse(u *domain.User) UserResponse {
	return UserResponse{
		ID:         u.ID,
		Username:   u.Username,
		Email:      u.Email,
		FullName:   u.FullName,
		Phone:      u.Phone,
		Points:     u.Points,
		TotalRides: u.TotalRides,
		CreatedAt:  u.CreatedAt.Format(time.RFC3339),
	}
}

// CreateUser handles POST /v1/users
func (h *UserHandler) CreateUser(c *gin.Context) {
	var req CreateUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid request body"})
		return
	}

	user, err := h.userService.CreateUser(c.Request.Context(), service.CreateUserRequest{
		Username: req.Username,
		Email:    req.Email,
		FullName: req.FullName,
		Phone:    req.Phone,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusCreated, toUserResponse(user))
}

// GetUser handles GET /v1/users/:id
func (h *UserHandler) GetUser(c *gin.Context) {
	user, err := h.userService.GetUser(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusOK, toUserResponse(user))
}

// ListUsers handles GET /v1/users
func (h *UserHandler) ListUsers(c *gin.Context) {
	users, err := h.userService.ListUsers(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}

	out := make([]UserResponse, 0, len(users))
	for _, u := range users {
		out = append(out, toUserResponse(u))
	}
	respondJSON(c, http.StatusOK, out)
}

// ListUserRides handles GET /v1/users/:id/rides
func (h *UserHandler) ListUserRides(c *gin.Context) {
	rides, err := h.rideService.ListActiveRides(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}

	out := make([]RideResponse, 0, len(rides))
	for _, ride := range rides {
		out = append(out, toRideResponse(ride))
	}
	respondJSON(c, http.StatusOK, out)
}

// RewardResponse is the HTTP representation of a reward grant.
type RewardResponse struct {
	ID          string `json:"id"`
	UserID      string `json:"user_id"`
	Type        string `json:"type"`
	Points      int    `json:"points"`
	Description string `json:"description"`
	ExpiryDate  string `json:"expiry_date"`
	CreatedAt   string `json:"created_at"`
}

// ListUserRewards handles GET /v1/users/:id/rewards
func (h *UserHandler) ListUserRewards(c *gin.Context) {
	rewards, err := h.userService.ListRewards(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}

	out := make([]RewardResponse, 0, len(rewards))
	for _, r := range rewards {
		out = append(out, RewardResponse{
			ID:          r.ID,
			UserID:      r.UserID,
			Type:        string(r.Type),
			Points:      r.Points,
			Description: r.Description,
			ExpiryDate:  r.ExpiryDate.Format(time.RFC3339),
			CreatedAt:   r.CreatedAt.Format(time.RFC3339),
		})
	}
	respondJSON(c, http.StatusOK, out)
}

// MessageResponse is the HTTP representation of a message.
type MessageResponse struct {
	ID         string `json:"id"`
	SenderID   string `json:"sender_id"`
	ReceiverID string `json:"receiver_id"`
	Content    string `json:"content"`
	RideID     string `json:"ride_id,omitempty"`
	IsRead     bool   `json:"is_read"`
	CreatedAt  string `json:"created_at"`
}

func toMessageResponse(m *domain.Message) MessageResponse {
	return MessageResponse{
		ID:         m.ID,
		SenderID:   m.SenderID,
		ReceiverID: m.ReceiverID,
		Content:    m.Content,
		RideID:     m.RideID,
		IsRead:     m.IsRead,
		CreatedAt:  m.CreatedAt.Format(time.RFC3339),
	}
}

// ListUserMessages handles GET /v1/users/:id/messages
func (h *UserHandler) ListUserMessages(c *gin.Context) {
	messages, err := h.userService.ListMessages(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}

	unread, err := h.userService.CountUnreadMessages(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}

	out := make([]MessageResponse, 0, len(messages))
	for _, m := range messages {
		out = append(out, toMessageResponse(m))
	}
	respondJSON(c, http.StatusOK, gin.H{
		"messages": out,
		"unread":   unread,
	})
}

// MarkMessageReadRequest identifies the reader.
type MarkMessageReadRequest struct {
	UserID string `json:"user_id"`
}

// MarkMessageRead handles POST /v1/messages/:id/read
func (h *UserHandler) MarkMessageRead(c *gin.Context) {
	var req MarkMessageReadRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid request body"})
		return
	}

	message, err := h.userService.MarkMessageRead(c.Request.Context(), c.Param("id"), req.UserID)
	if err != nil {
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusOK, toMessageResponse(message))
}
