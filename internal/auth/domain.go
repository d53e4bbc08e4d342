package auth

import (
	"time"

	"github.com/novaq/novaq-dashboard/internal/shared"
)

// Backend login endpoints.
const (
	AccountantLoginPath = "/api/auth/accountant"
	SysadminLoginPath   = "/api/auth/sysadmin"
)

// Messages shown to the user.
const (
	MsgInvalidCredentials = "Нэвтрэх нэр эсвэл нууц үг буруу байна."
	MsgLoginFailed        = "Нэвтрэх үйлдэл амжилтгүй боллоо."
	MsgWelcome            = "Тавтай морил"
)

// Credentials is the login form.
type Credentials struct {
	UserID   string `json:"userId" validate:"required"`
	Password string `json:"password" validate:"required"`
	Role     string `json:"role" validate:"omitempty,oneof=Accountant SystemAdmin Director Employee"`
}

var credentialMessages = map[string]string{
	"UserID":   "Нэвтрэх нэр оруулна уу",
	"Password": "Нууц үг оруулна уу",
	"Role":     "Эрх сонгоно уу",
}

// LoginResult is returned to the browser after a successful login.
type LoginResult struct {
	User  shared.User `json:"user"`
	Token string      `json:"token"`
}

// backendLogin is the body the backend expects.
type backendLogin struct {
	UserName     string `json:"UserName"`
	PasswordHash string `json:"PasswordHash"`
}

// backendReply carries the token and the user record.
type backendReply struct {
	Token string       `json:"token"`
	Data  *shared.User `json:"data"`
}

// LoginRecord is one audited login.
type LoginRecord struct {
	TokenHash string
	UserName  string
	Role      string
	DeviceID  string
	IP        string
	UserAgent string
	CreatedAt time.Time
	ExpiresAt time.Time
}
