package dto

type ChangePasswordInput struct {
	CurrentPassword string `json:"current_password"`
	NewPassword     string `json:"new_password"`
	IPAddress       string `json:"-"`
	UserAgent       string `json:"-"`
}
