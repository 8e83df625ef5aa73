package model

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// UserForm is the payload of the user create/edit wizard.
type UserForm struct {
	FirstName       string      `json:"firstName" validate:"required"`
	LastName        string      `json:"lastName" validate:"required"`
	Email           string      `json:"email" validate:"required,email"`
	Phone           string      `json:"phone,omitempty" validate:"omitempty,e164"`
	Role            string      `json:"role" validate:"required"`
	Address         AddressForm `json:"address"`
	Password        string      `json:"password,omitempty" validate:"omitempty,min=8"`
	ConfirmPassword string      `json:"confirmPassword,omitempty" validate:"eqfield=Password"`
}

type AddressForm struct {
	Street  string `json:"street" validate:"required"`
	City    string `json:"city" validate:"required"`
	State   string `json:"state" validate:"required,len=2"`
	Zip     string `json:"zip" validate:"required,numeric,len=5"`
	Country string `json:"country,omitempty"`
}

// CarrierForm is the payload of the carrier create/edit wizard.
type CarrierForm struct {
	CompanyName   string      `json:"companyName" validate:"required"`
	MCNumber      string      `json:"mcNumber" validate:"required,numeric"`
	USDOTNumber   string      `json:"usdotNumber" validate:"required,numeric"`
	ContactName   string      `json:"contactName" validate:"required"`
	Email         string      `json:"email" validate:"required,email"`
	Phone         string      `json:"phone" validate:"required"`
	Address       AddressForm `json:"address"`
	InsuranceName string      `json:"insuranceName,omitempty"`
	PaymentTerms  string      `json:"paymentTerms" validate:"required,oneof=net15 net30 net45 quickpay"`
}
