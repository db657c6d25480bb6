package dto

// RegisterRequest is a corporate signup.
type RegisterRequest struct {
	CompanyName  string `json:"company_name" binding:"required" example:"Acme Sdn Bhd"`
	Slug         string `json:"slug" binding:"required" example:"acme"`
	Email        string `json:"email" binding:"required,email" example:"admin@acme.example"`
	Username     string `json:"username" example:"acme-admin"`
	Name         string `json:"name" example:"Acme Admin"`
	Password     string `json:"password" binding:"required,min=8"`
	CountryCode  string `json:"country_code" example:"MY"`
	IndustryCode string `json:"industry_code" example:"services"`
	Timezone     string `json:"timezone" example:"Asia/Kuala_Lumpur"`
	Plan         string `json:"plan" example:"trial"`
}

type LoginRequest struct {
	Email    string `json:"email" binding:"required,email" example:"admin@acme.example"`
	Password string `json:"password" binding:"required"`
}

type VerifyEmailRequest struct {
	Email string `json:"email" binding:"required,email" example:"admin@acme.example"`
}

type CreateUserRequest struct {
	Email    string `json:"email" binding:"required,email" example:"staff@acme.example"`
	Username string `json:"username" example:"acme-staff"`
	Name     string `json:"name" binding:"required" example:"Acme Staff"`
	Password string `json:"password" binding:"required,min=8"`
	Role     string `json:"role" binding:"required" example:"staff"`
}

type CreateTenantRequest struct {
	Slug string `json:"slug" binding:"required" example:"acme"`
	Name string `json:"name" binding:"required" example:"Acme Sdn Bhd"`
	Plan string `json:"plan" example:"trial"`
}

type UpdateTenantSettingsRequest struct {
	Settings map[string]interface{} `json:"settings" binding:"required"`
}

type AddDomainRequest struct {
	Domain    string `json:"domain" binding:"required" example:"books.acme.example"`
	IsPrimary bool   `json:"is_primary"`
}

type ResolveViolationRequest struct {
	Status string `json:"status" binding:"required" example:"RESOLVED"`
	Notes  string `json:"notes" example:"confirmed false positive"`
}
