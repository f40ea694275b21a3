// internal/handlers/user-account/models.go
package useraccount

import "shop-assistant/internal/models"

type RegisterInput struct {
	FirstName   string `json:"firstName"`
	LastName    string `json:"lastName"`
	Email       string `json:"email"`
	Password    string `json:"password"`
	PhoneNumber string `json:"phoneNumber,omitempty"`
}

type LoginInput struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type UserView struct {
	ID        string `json:"id"`
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	Email     string `json:"email"`
	Role      string `json:"role"`
}

type Output struct {
	Success bool     `json:"success"`
	Token   string   `json:"token"`
	User    UserView `json:"user"`
}

func newOutput(u *models.User, token string) *Output {
	return &Output{
		Success: true,
		Token:   token,
		User: UserView{
			ID:        u.ID,
			FirstName: u.FirstName,
			LastName:  u.LastName,
			Email:     u.Email,
			Role:      u.Role,
		},
	}
}
