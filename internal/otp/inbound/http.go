package inbound

import (
	"context"

	"github.com/shandysiswandi/mailotp/internal/otp/usecase"
	"github.com/shandysiswandi/mailotp/internal/pkg/router"
)

type uc interface {
	Issue(ctx context.Context, in usecase.IssueInput) (*usecase.IssueOutput, error)
}

// RegisterHTTPEndpoint mounts the OTP routes. exposeCode puts the issued code
// in the response body, which is only meant for non-production setups.
func RegisterHTTPEndpoint(r *router.Router, uc uc, exposeCode bool) {
	end := &HTTPEndpoint{uc: uc, exposeCode: exposeCode}

	r.POST("/api/v1/otp/send", end.Send)
}
