package dto

// RegisterForm represents the form fields posted to /register
type RegisterForm struct {
	Name     string
	Email    string
	Password string
}

// LoginForm represents the form fields posted to /login
type LoginForm struct {
	Email    string
	Password string
}

// LoginView is the data for the login page. Msg is the inline error
// and Email echoes the submitted address.
type LoginView struct {
	Msg   string
	Email string
}

// DashboardView is the data for the dashboard page
type DashboardView struct {
	Name  string
	Email string
}
