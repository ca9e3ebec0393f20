package handler

type projectRequest struct {
	Name        string `json:"name"        validate:"required,min=1,max=120"`
	Description string `json:"description" validate:"max=2000"`
	Status      string `json:"status"      validate:"omitempty,oneof=planning active completed on_hold"`
}
