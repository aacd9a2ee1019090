package router

import (
	"net/http"

	"github.com/samber/lo"
	"github.com/shandysiswandi/mailotp/internal/pkg/config"
)

// maintenanceAll blocks every route registered through the middleware chain.
const maintenanceAll = "*"

func middlewareMaintenance(cfg config.Config) Middleware {
	var routes []string
	if cfg != nil {
		routes = cfg.GetArray("app.maintenance.endpoints")
	}
	blocked := lo.SliceToMap(routes, func(route string) (string, struct{}) {
		return route, struct{}{}
	})
	_, all := blocked[maintenanceAll]

	return func(next http.Handler) http.Handler {
		if len(blocked) == 0 {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if _, hit := blocked[matchedRoutePath(r)]; hit || all {
				writeJSON(w, errorResponse{Message: "service is under maintenance"}, http.StatusServiceUnavailable)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
