package handler

type registerRequest struct {
	Username  string `json:"username"   validate:"required,min=3,max=50"`
	Email     string `json:"email"      validate:"required,email"`
	Password  string `json:"password"   validate:"required,min=6,max=100"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
}

// loginRequest accepts either a username or an email in the identifier field.
type loginRequest struct {
	Identifier string `json:"identifier" validate:"required,min=3,max=100"`
	Password   string `json:"password"   validate:"required"`
}

type refreshRequest struct {
	Token string `json:"token" validate:"required"`
}

type authResponse struct {
	Token        string `json:"token"`
	RefreshToken string `json:"refresh_token"`
	UserID       string `json:"user_id"`
	Username     string `json:"username"`
	Email        string `json:"email"`
	Role         string `json:"role"`
}
