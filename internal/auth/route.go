package auth

// Route names a screen of the client.
type Route string

const (
	RouteLanding  Route = "landing"
	RouteLogin    Route = "login"
	RouteRegister Route = "register"
	RouteChat     Route = "chat"
	RouteSettings Route = "settings"
	RouteHistory  Route = "history"
)

// Protected reports whether the route requires a signed-in user.
func (r Route) Protected() bool {
	switch r {
	case RouteChat, RouteSettings, RouteHistory:
		return true
	default:
		return false
	}
}

func (r Route) Title() string {
	switch r {
	case RouteLanding:
		return "Home"
	case RouteLogin:
		return "Sign in"
	case RouteRegister:
		return "Register"
	case RouteChat:
		return "Chat"
	case RouteSettings:
		return "Settings"
	case RouteHistory:
		return "History"
	default:
		return string(r)
	}
}
