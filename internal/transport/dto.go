package transport

type RegisterRequest struct {
	Email     string `json:"email"`
	Password  string `json:"password"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Address   string `json:"address"`
	Role      string `json:"role"`
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type ClassRequest struct {
	Date        string `json:"date"`
	Time        string `json:"time"`
	TrainerName string `json:"trainer_name"`
	Capacity    uint   `json:"capacity"`
	Type        string `json:"type"`
	Location    string `json:"location"`
}

type UpdateProfileRequest struct {
	FirstName *string `json:"first_name"`
	LastName  *string `json:"last_name"`
	Address   *string `json:"address"`
	Bio       *string `json:"bio"`
}

type ChangePasswordRequest struct {
	CurrentPassword string `json:"current_password"`
	NewPassword     string `json:"new_password"`
}

type ChangeRoleRequest struct {
	Role string `json:"role"`
}
