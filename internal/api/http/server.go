// Package http serves the JSON API used by the student portal and the admin
// dashboard.
package http

import (
	"net/http"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"ecodefill-backend/internal/config"
	"ecodefill-backend/internal/metrics"
	"ecodefill-backend/internal/security"
	"ecodefill-backend/internal/service"
)

type Server struct {
	auth     service.AuthService
	students service.StudentService
	admin    service.AdminService
	sessions *security.SessionManager
	metrics  *metrics.Registry
	limiter  *ipLimiter
}

func NewServer(
	auth service.AuthService,
	students service.StudentService,
	admin service.AdminService,
	sessions *security.SessionManager,
	m *metrics.Registry,
	cfg config.ServerConfig,
) *Server {
	return &Server{
		auth:     auth,
		students: students,
		admin:    admin,
		sessions: sessions,
		metrics:  m,
		limiter:  newIPLimiter(cfg.AuthRatePerSecond, cfg.AuthRateBurst, limiterIdleTTL),
	}
}

// Router builds the route table. Every route is named so the security level
// and the metrics label come from config.EndpointSecurityConfig.
func (s *Server) Router() *mux.Router {
	r := mux.NewRouter()
	r.Use(s.observe, s.authenticate)

	r.HandleFunc("/healthz", s.handleHealth).Methods(http.MethodGet).Name(config.RouteHealth)
	r.Handle("/metrics", promhttp.HandlerFor(s.metrics.Gatherer(), promhttp.HandlerOpts{})).Methods(http.MethodGet).Name(config.RouteMetrics)

	api := r.PathPrefix("/api/v1").Subrouter()

	api.HandleFunc("/auth/register", s.limiter.wrap(s.handleRegister)).Methods(http.MethodPost).Name(config.RouteRegister)
	api.HandleFunc("/auth/login", s.limiter.wrap(s.handleStudentLogin)).Methods(http.MethodPost).Name(config.RouteStudentLogin)
	api.HandleFunc("/auth/logout", s.handleLogout).Methods(http.MethodPost).Name(config.RouteLogout)

	api.HandleFunc("/student/dashboard", s.handleDashboard).Methods(http.MethodGet).Name(config.RouteDashboard)

	api.HandleFunc("/admin/login", s.limiter.wrap(s.handleAdminLogin)).Methods(http.MethodPost).Name(config.RouteAdminLogin)
	api.HandleFunc("/admin/setup", s.handleAdminSetup).Methods(http.MethodPost).Name(config.RouteAdminSetup)
	api.HandleFunc("/admin/members", s.handleListMembers).Methods(http.MethodGet).Name(config.RouteListMembers)
	api.HandleFunc("/admin/members/stream", s.handleStreamMembers).Methods(http.MethodGet).Name(config.RouteStreamMembers)
	api.HandleFunc("/admin/members/{uid}/status", s.handleSetStatus).Methods(http.MethodPut).Name(config.RouteSetStatus)
	api.HandleFunc("/admin/machines", s.handleMachineStats).Methods(http.MethodGet).Name(config.RouteMachineStats)

	return r
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	members := s.admin.Members(r.Context())
	machines := s.admin.MachineStats(r.Context())
	status := "ok"
	if members.Degraded || machines.Degraded {
		status = "degraded"
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"status":           status,
		"roster_degraded":  members.Degraded,
		"machine_degraded": machines.Degraded,
	})
}
