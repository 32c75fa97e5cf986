package authapi

import (
	"time"

	"ripple/cmd/identity"
)

type signupRequest struct {
	Email    string  `json:"email"`
	Password string  `json:"password"`
	Name     string  `json:"name"`
	Age      *int    `json:"age"`
	Gender   *string `json:"gender"`
	Icon     *string `json:"icon"`
}

type signinRequest struct {
	Email       string `json:"email"`
	Password    string `json:"password"`
	ClientToken string `json:"clientToken"`
}

type credentialsRequest struct {
	ClientToken string `json:"clientToken"`
	UserID      string `json:"userId"`
}

type updateUserRequest struct {
	Email  *string `json:"email"`
	Name   *string `json:"name"`
	Age    *int    `json:"age"`
	Gender *string `json:"gender"`
}

// userResponse deliberately has no field for the password hash, the session
// token hash, or the session expiry: secrets never leave the server.
type userResponse struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	Name      string    `json:"name"`
	Age       *int      `json:"age,omitempty"`
	Gender    *string   `json:"gender,omitempty"`
	Icon      *string   `json:"icon,omitempty"`
	Role      string    `json:"role"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type signupResponse struct {
	User userResponse `json:"user"`
}

type signinResponse struct {
	User             userResponse `json:"user"`
	SessionExpiresAt time.Time    `json:"session_expires_at"`
}

type signoutResponse struct {
	Message string `json:"message"`
}

type verifyResponse struct {
	Valid bool         `json:"valid"`
	User  userResponse `json:"user"`
}

type usersResponse struct {
	Users []userResponse `json:"users"`
}

type userEnvelope struct {
	User userResponse `json:"user"`
}

func toUserResponse(a identity.Account) userResponse {
	return userResponse{
		ID:        a.ID,
		Email:     a.Email,
		Name:      a.Name,
		Age:       a.Age,
		Gender:    a.Gender,
		Icon:      a.Icon,
		Role:      string(a.Role),
		CreatedAt: a.CreatedAt,
		UpdatedAt: a.UpdatedAt,
	}
}
