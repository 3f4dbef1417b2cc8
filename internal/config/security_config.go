package config

type SecurityLevel int

const (
	SecurityPublic  SecurityLevel = iota // No session
	SecuritySession                      // Any signed-in user
	SecurityStudent                      // Student session
	SecurityAdmin                        // Admin session
)

// Route names used by the HTTP router
const (
	RouteRegister      = "auth.register"
	RouteStudentLogin  = "auth.login"
	RouteAdminLogin    = "admin.login"
	RouteLogout        = "auth.logout"
	RouteAdminSetup    = "admin.setup"
	RouteDashboard     = "student.dashboard"
	RouteListMembers   = "admin.members.list"
	RouteStreamMembers = "admin.members.stream"
	RouteSetStatus     = "admin.members.status"
	RouteMachineStats  = "admin.machines.stats"
	RouteHealth        = "health"
	RouteMetrics       = "metrics"
)

// EndpointSecurityConfig maps routes to their required security level
var EndpointSecurityConfig = map[string]SecurityLevel{
	// Public
	RouteRegister:     SecurityPublic,
	RouteStudentLogin: SecurityPublic,
	RouteAdminLogin:   SecurityPublic,
	RouteHealth:       SecurityPublic,
	RouteMetrics:      SecurityPublic,

	// Any session
	RouteLogout:     SecuritySession,
	RouteAdminSetup: SecuritySession,

	// Student
	RouteDashboard: SecurityStudent,

	// Admin
	RouteListMembers:   SecurityAdmin,
	RouteStreamMembers: SecurityAdmin,
	RouteSetStatus:     SecurityAdmin,
	RouteMachineStats:  SecurityAdmin,
}

// GetSecurityLevel returns the security level for a given route
func GetSecurityLevel(route string) SecurityLevel {
	if level, exists := EndpointSecurityConfig[route]; exists {
		return level
	}
	// Default to highest security for unknown routes
	return SecurityAdmin
}
