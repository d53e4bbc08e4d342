package shared

import (
	"encoding/base64"
	"encoding/json"
	"net/http"
)

// FlashCookie carries a one-shot toast between a redirect and the next page.
const FlashCookie = "novaq_flash"

// Flash kinds rendered by the toast partial.
const (
	FlashSuccess = "success"
	FlashError   = "error"
	FlashWarning = "warning"
)

// FlashMessage represents a one-time notification.
type FlashMessage struct {
	Kind    string `json:"kind"`
	Message string `json:"message"`
}

// SetFlash queues a message for the next rendered page.
func SetFlash(w http.ResponseWriter, msg FlashMessage) {
	raw, err := json.Marshal(msg)
	if err != nil {
		return
	}
	http.SetCookie(w, &http.Cookie{
		Name:     FlashCookie,
		Value:    base64.RawURLEncoding.EncodeToString(raw),
		Path:     "/",
		MaxAge:   60,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}

// PopFlash reads and clears the queued message.
func PopFlash(w http.ResponseWriter, r *http.Request) *FlashMessage {
	cookie, err := r.Cookie(FlashCookie)
	if err != nil || cookie.Value == "" {
		return nil
	}
	http.SetCookie(w, &http.Cookie{Name: FlashCookie, Value: "", Path: "/", MaxAge: -1, HttpOnly: true})
	raw, err := base64.RawURLEncoding.DecodeString(cookie.Value)
	if err != nil {
		return nil
	}
	var msg FlashMessage
	if err := json.Unmarshal(raw, &msg); err != nil || msg.Message == "" {
		return nil
	}
	return &msg
}
