package session

// Navigator moves the user to the login surface after logout or session loss.
// cause is nil for a deliberate logout.
type Navigator interface {
	RedirectToLogin(cause error)
}

// NavigatorFunc adapts a function to [Navigator].
type NavigatorFunc func(cause error)

func (f NavigatorFunc) RedirectToLogin(cause error) {
	f(cause)
}

type nopNavigator struct{}

func (nopNavigator) RedirectToLogin(error) {}
