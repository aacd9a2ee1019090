package inbound

import (
	"github.com/shandysiswandi/mailotp/internal/otp/usecase"
	"github.com/shandysiswandi/mailotp/internal/pkg/router"
)

// HTTPEndpoint exposes HTTP handlers for OTP issuance.
type HTTPEndpoint struct {
	uc         uc
	exposeCode bool
}

// Send issues a new OTP for an email and mails it.
// @Summary Send OTP
// @Description Replaces any pending code for the email with a new 6-digit code valid for 5 minutes and emails it.
// @Tags OTP
// @Accept json
// @Produce json
// @Param request body SendRequest true "Send OTP payload"
// @Success 200 {object} router.successResponse{data=SendResponse} "OTP sent"
// @Failure 400 {object} router.errorResponse "Invalid request body"
// @Failure 422 {object} router.errorResponse "Validation error"
// @Failure 500 {object} router.errorResponse "Failed to store data"
// @Failure 502 {object} router.errorResponse "Failed to deliver message"
// @Failure 503 {object} router.errorResponse "Service is not configured"
// @Router /api/v1/otp/send [post]
func (h *HTTPEndpoint) Send(r *router.Request) (any, error) {
	var req SendRequest
	if err := r.DecodeBody(&req); err != nil {
		return nil, err
	}

	resp, err := h.uc.Issue(r.Context(), usecase.IssueInput{Email: req.Email})
	if err != nil {
		return nil, err
	}

	out := SendResponse{Expiry: resp.ExpiresAt}
	if h.exposeCode {
		out.OTP = resp.Code
	}

	return out, nil
}
