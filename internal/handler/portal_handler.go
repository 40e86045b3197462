package handler

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/graceworks/shelterops/internal/middleware"
	"github.com/graceworks/shelterops/internal/model"
)

// PortalService is the slice of the resident service the portal handler
// needs.
type PortalService interface {
	AuthenticateByCode(ctx context.Context, shelter, code string) (*model.Resident, *model.ResidentSession, error)
	Logout(ctx context.Context, resident model.ResidentIdentity) error
	SetSMSConsent(ctx context.Context, resident model.ResidentIdentity, consent bool) error
}

// PortalHandler exposes the resident portal's session endpoints. The
// consent flag lives on the session, so Me reads it back through the
// same finder the session middleware uses.
type PortalHandler struct {
	service  PortalService
	sessions middleware.ResidentSessionFinder
	cookies  CookieConfig
	// recordCodeFailure feeds the failed-code counter; never nil.
	recordCodeFailure func()
}

// NewPortalHandler creates a PortalHandler.
func NewPortalHandler(service PortalService, sessions middleware.ResidentSessionFinder, cookies CookieConfig, recordCodeFailure func()) *PortalHandler {
	if recordCodeFailure == nil {
		recordCodeFailure = func() {}
	}
	return &PortalHandler{
		service:           service,
		sessions:          sessions,
		cookies:           cookies,
		recordCodeFailure: recordCodeFailure,
	}
}

type portalLoginRequest struct {
	Shelter string `json:"shelter"`
	Code    string `json:"code"`
}

type portalMeResponse struct {
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Shelter   string `json:"shelter"`
	Phone     string `json:"phone,omitempty"`
	// NeedsSMSConsent is true until the resident has answered the one-time
	// consent prompt.
	NeedsSMSConsent bool  `json:"needs_sms_consent"`
	SMSConsent      *bool `json:"sms_consent,omitempty"`
}

// Login handles POST /api/resident/login.
func (h *PortalHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req portalLoginRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	res, session, err := h.service.AuthenticateByCode(r.Context(), req.Shelter, req.Code)
	if err != nil {
		var apiErr *model.APIError
		if errors.As(err, &apiErr) && apiErr.Code == model.ErrCodeInvalidResidentCode {
			h.recordCodeFailure()
		}
		handleServiceError(w, err)
		return
	}

	h.cookies.setSessionCookie(w, middleware.ResidentSessionCookie, session.ID, h.cookies.ResidentMaxAge)
	writeJSON(w, http.StatusOK, portalMeResponse{
		FirstName:       res.FirstName,
		LastName:        res.LastName,
		Shelter:         session.Shelter,
		Phone:           res.Phone,
		NeedsSMSConsent: session.SMSConsent == nil,
	})
}

// Logout handles POST /api/resident/logout.
func (h *PortalHandler) Logout(w http.ResponseWriter, r *http.Request) {
	resident, err := middleware.ResidentFromContext(r.Context())
	if err != nil {
		middleware.WriteErrorResponse(w, http.StatusUnauthorized, model.NewUnauthorizedError())
		return
	}

	if err := h.service.Logout(r.Context(), resident); err != nil {
		handleServiceError(w, err)
		return
	}

	h.cookies.clearSessionCookie(w, middleware.ResidentSessionCookie)
	writeJSON(w, http.StatusOK, map[string]string{"status": "logged_out"})
}

// Me handles GET /api/resident/me.
func (h *PortalHandler) Me(w http.ResponseWriter, r *http.Request) {
	resident, err := middleware.ResidentFromContext(r.Context())
	if err != nil {
		middleware.WriteErrorResponse(w, http.StatusUnauthorized, model.NewUnauthorizedError())
		return
	}

	out := portalMeResponse{
		FirstName:       resident.FirstName,
		LastName:        resident.LastName,
		Shelter:         resident.Shelter,
		Phone:           resident.Phone,
		NeedsSMSConsent: true,
	}

	// The identity snapshot doesn't carry the consent flag; read it off
	// the session. A lookup failure only degrades to re-prompting.
	session, err := h.sessions.FindByID(r.Context(), resident.SessionID)
	if err != nil {
		slog.Warn("failed to load resident session for consent flag", slog.String("error", err.Error()))
	} else if session != nil {
		out.NeedsSMSConsent = session.SMSConsent == nil
		out.SMSConsent = session.SMSConsent
	}

	writeJSON(w, http.StatusOK, out)
}

type smsConsentRequest struct {
	Consent bool `json:"consent"`
}

// SetSMSConsent handles POST /api/resident/sms-consent.
func (h *PortalHandler) SetSMSConsent(w http.ResponseWriter, r *http.Request) {
	resident, err := middleware.ResidentFromContext(r.Context())
	if err != nil {
		middleware.WriteErrorResponse(w, http.StatusUnauthorized, model.NewUnauthorizedError())
		return
	}

	var req smsConsentRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	if err := h.service.SetSMSConsent(r.Context(), resident, req.Consent); err != nil {
		handleServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "updated"})
}
