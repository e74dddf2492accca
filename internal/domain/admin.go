package domain

import "strings"

type Category struct {
	ID          ID     `json:"id"`
	Name        string `json:"name"`
	DisplayName string `json:"displayName"`
	Emoji       string `json:"emoji"`
}

// AdminProfile is the employee record returned by a successful login.
type AdminProfile struct {
	ID    ID     `json:"id,omitempty"`
	Name  string `json:"name,omitempty"`
	Email string `json:"email"`
	Role  string `json:"role,omitempty"`
	Token string `json:"token,omitempty"`
}

// PaymentSettings is the gateway configuration managed from the admin console.
type PaymentSettings struct {
	KeyID     string `json:"razorpayKeyId"`
	KeySecret string `json:"razorpayKeySecret,omitempty"`
	Enabled   bool   `json:"enabled"`
}

// Configured reports whether the key id looks like a gateway key.
func (p PaymentSettings) Configured() bool {
	return strings.HasPrefix(p.KeyID, "rzp_")
}

func (p PaymentSettings) Live() bool {
	return p.Enabled && p.Configured()
}
