package shared

import (
	"strings"
	"unicode/utf8"
)

// Role names accepted by the login endpoint.
const (
	RoleAccountant  = "Accountant"
	RoleSystemAdmin = "SystemAdmin"
	RoleDirector    = "Director"
	RoleEmployee    = "Employee"
)

// User is the profile returned by the backend at login time.
type User struct {
	Oid           string `json:"Oid"`
	UserName      string `json:"UserName"`
	Firstname     string `json:"Firstname,omitempty"`
	LastName      string `json:"LastName,omitempty"`
	Email         string `json:"Email,omitempty"`
	Phone         string `json:"Phone,omitempty"`
	RoleName      string `json:"RoleName,omitempty"`
	AccountantOid string `json:"AccountantOid,omitempty"`
}

// DisplayName renders the short "Б.БОЛД" form used in the sidebar.
func (u *User) DisplayName() string {
	if u == nil {
		return ""
	}
	if u.Firstname == "" {
		return u.UserName
	}
	initial := ""
	if r, _ := utf8.DecodeRuneInString(u.LastName); r != utf8.RuneError {
		initial = string(r) + "."
	}
	return strings.ToUpper(initial + u.Firstname)
}

// Initials returns up to two upper-case letters for the avatar badge.
func (u *User) Initials() string {
	if u == nil {
		return ""
	}
	var b strings.Builder
	for _, part := range []string{u.LastName, u.Firstname} {
		if r, _ := utf8.DecodeRuneInString(part); r != utf8.RuneError {
			b.WriteRune(r)
		}
	}
	if b.Len() == 0 {
		if r, _ := utf8.DecodeRuneInString(u.UserName); r != utf8.RuneError {
			b.WriteRune(r)
		}
	}
	return strings.ToUpper(b.String())
}
