package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"carpool/internal/domain"
	"carpool/internal/service"
)

// SafetyHandler handles HTTP requests for safety alerts, trusted contacts
// and pickup verification.
type SafetyHandler struct {
	safetyService *service.SafetyService
}

// NewSafetyHandler creates a new SafetyHandler.
func NewSafetyHandler(safetyService *service.SafetyService) *SafetyHandler {
	return &SafetyHandler{safetyService: safetyService}
}

// CreateAlertRequest is the HTTP request body for raising an alert.
type CreateAlertRequest struct {
	UserID    string   `json:"user_id"`
	RideID    string   `json:"ride_id"`
	AlertType string   `json:"alert_type"`
	Details   string   `json:"details,omitempty"`
	Latitude  *float64 `json:"latitude,omitempty"`
	Longitude *float64 `json:"longitude,omitempty"`
}

// AlertResponse is the HTTP representation of a safety alert.
type AlertResponse struct {
	ID         string   `json:"id"`
	UserID     string   `json:"user_id"`
	RideID     string   `json:"ride_id"`
	AlertType  string   `json:"alert_type"`
	Details    string   `json:"details,omitempty"`
	Latitude   *float64 `json:"latitude,omitempty"`
	Longitude  *float64 `json:"longitude,omitempty"`
	Status     string   `json:"status"`
	ResolvedBy string   `json:"resolved_by,omitempty"`
	ResolvedAt string   `json:"resolved_at,omitempty"`
	CreatedAt  string   `json:"created_at"`
}

func toAlertResponse(a *domain.SafetyAlert) AlertResponse {
	resp := AlertResponse{
		ID:         a.ID,
		UserID:     a.UserID,
		RideID:     a.RideID,
		AlertType:  string(a.AlertType),
		Details:    a.Details,
		Status:     string(a.Status),
		ResolvedBy: a.ResolvedBy,
		CreatedAt:  a.CreatedAt.Format(time.RFC3339),
	}
	if a.HasLocation {
		lat, lng := a.Latitude, a.Longitude
		resp.Latitude = &lat
		resp.Longitude = &lng
	}
	if !a.ResolvedAt.IsZero() {
		resp.ResolvedAt = a.ResolvedAt.Format(time.RFC3339)
	}
	return resp
}

// CreateAlert handles POST /v1/safety/alerts
func (h *SafetyHandler) CreateAlert(c *gin.Context) {
	var req CreateAlertRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid request body"})
		return
	}

	svcReq := service.CreateAlertRequest{
		UserID:    req.UserID,
		RideID:    req.RideID,
		AlertType: domain.AlertType(req.AlertType),
		Details:   req.Details,
	}
	if req.Latitude != nil && req.Longitude != nil {
		svcReq.Latitude = *req.Latitude
		svcReq.Longitude = *req.Longitude
		svcReq.HasLocation = true
	}

	alert, err := h.safetyService.CreateAlert(c.Request.Context(), svcReq)
	if err != nil {
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusCreated, toAlertResponse(alert))
}

// ResolveAlertRequest is the HTTP request body for resolving an alert.
type ResolveAlertRequest struct {
	ResolvedBy string `json:"resolved_by"`
	Status     string `json:"status"` // resolved or false_alarm
}

// ResolveAlert handles POST /v1/safety/alerts/:id/resolve
func (h *SafetyHandler) ResolveAlert(c *gin.Context) {
	var req ResolveAlertRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid request body"})
		return
	}

	status := domain.AlertStatus(req.Status)
	if req.Status == "" {
		status = domain.AlertStatusResolved
	}

	alert, err := h.safetyService.ResolveAlert(c.Request.Context(), c.Param("id"), req.ResolvedBy, status)
	if err != nil {
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusOK, toAlertResponse(alert))
}

// ListUserAlerts handles GET /v1/users/:id/alerts
func (h *SafetyHandler) ListUserAlerts(c *gin.Context) {
	alerts, err := h.safetyService.ListUserAlerts(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}

	out := make([]AlertResponse, 0, len(alerts))
	for _, a := range alerts {
		out = append(out, toAlertResponse(a))
	}
	respondJSON(c, http.StatusOK, out)
}

// AddContactRequest is the HTTP request body for adding a trusted contact.
type AddContactRequest struct {
	UserID             string `json:"user_id"`
	Name               string `json:"name"`
	Phone              string `json:"phone"`
	Email              string `json:"email,omitempty"`
	Relationship       string `json:"relationship,omitempty"`
	IsEmergencyContact bool   `json:"is_emergency_contact"`
}

// ContactResponse is the HTTP representation of a trusted contact.
type ContactResponse struct {
	ID                 string `json:"id"`
	UserID             string `json:"user_id"`
	Name               string `json:"name"`
	Phone              string `json:"phone"`
	Email              string `json:"email,omitempty"`
	Relationship       string `json:"relationship,omitempty"`
	IsEmergencyContact bool   `json:"is_emergency_contact"`
	CreatedAt          string `json:"created_at"`
}

func toContactResponse(contact *domain.TrustedContact) ContactResponse {
	return ContactResponse{
		ID:                 contact.ID,
		UserID:             contact.UserID,
		Name:               contact.Name,
		Phone:              contact.Phone,
		Email:              contact.Email,
		Relationship:       contact.Relationship,
		IsEmergencyContact: contact.IsEmergencyContact,
		CreatedAt:          contact.CreatedAt.Format(time.RFC3339),
	}
}

// AddTrustedContact handles POST /v1/safety/contacts
func (h *SafetyHandler) AddTrustedContact(c *gin.Context) {
	var req AddContactRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid request body"})
		return
	}

	contact, err := h.safetyService.AddTrustedContact(c.Request.Context(), service.AddContactRequest{
		UserID:             req.UserID,
		Name:               req.Name,
		Phone:              req.Phone,
		Email:              req.Email,
		Relationship:       req.Relationship,
		IsEmergencyContact: req.IsEmergencyContact,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusCreated, toContactResponse(contact))
}

// ListTrustedContacts handles GET /v1/users/:id/contacts
func (h *SafetyHandler) ListTrustedContacts(c *gin.Context) {
	contacts, err := h.safetyService.ListTrustedContacts(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}

	out := make([]ContactResponse, 0, len(contacts))
	for _, contact := range contacts {
		out = append(out, toContactResponse(contact))
	}
	respondJSON(c, http.StatusOK, out)
}

// GenerateCodeRequest is the HTTP request body for issuing a pickup code.
type GenerateCodeRequest struct {
	PassengerID string `json:"passenger_id"`
}

// VerificationResponse is the HTTP representation of a pickup code.
type VerificationResponse struct {
	ID          string `json:"id"`
	RideID      string `json:"ride_id"`
	PassengerID string `json:"passenger_id"`
	Code        string `json:"code"`
	Verified    bool   `json:"verified"`
	GeneratedAt string `json:"generated_at"`
	VerifiedAt  string `json:"verified_at,omitempty"`
}

func toVerificationResponse(v *domain.RideVerification) VerificationResponse {
	resp := VerificationResponse{
		ID:          v.ID,
		RideID:      v.RideID,
		PassengerID: v.PassengerID,
		Code:        v.Code,
		Verified:    v.Verified,
		GeneratedAt: v.GeneratedAt.Format(time.RFC3339),
	}
	if !v.VerifiedAt.IsZero() {
		resp.VerifiedAt = v.VerifiedAt.Format(time.RFC3339)
	}
	return resp
}

// GenerateVerificationCode handles POST /v1/rides/:id/verification
func (h *SafetyHandler) GenerateVerificationCode(c *gin.Context) {
	var req GenerateCodeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid request body"})
		return
	}

	verification, err := h.safetyService.GenerateVerificationCode(c.Request.Context(), c.Param("id"), req.PassengerID)
	if err != nil {
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusCreated, toVerificationResponse(verification))
}

// ConfirmCodeRequest is the HTTP request body for confirming a pickup code.
type ConfirmCodeRequest struct {
	Code string `json:"code"`
}

// ConfirmVerificationCode handles POST /v1/rides/:id/verification/confirm
func (h *SafetyHandler) ConfirmVerificationCode(c *gin.Context) {
	var req ConfirmCodeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid request body"})
		return
	}

	verification, err := h.safetyService.ConfirmVerificationCode(c.Request.Context(), c.Param("id"), req.Code)
	if err != nil {
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusOK, toVerificationResponse(verification))
}
