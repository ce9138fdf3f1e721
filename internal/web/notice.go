// Package web holds request state shared by the session gate and the handlers:
// the one-shot notice cookie and the gin context keys for the caller.
package web

import (
	"encoding/base64"
	"encoding/json"
	nethttp "net/http"

	"github.com/gin-gonic/gin"
)

const NoticeCookie = "postnest_notice"

const (
	LevelSuccess = "success"
	LevelInfo    = "info"
	LevelPrimary = "primary"
	LevelWarning = "warning"
	LevelDanger  = "danger"
)

// Notice is a one-shot message shown on the next page the client loads.
type Notice struct {
	Level string `json:"level"`
	Text  string `json:"text"`
}

func SetNotice(c *gin.Context, level, text string) {
	raw, err := json.Marshal(Notice{Level: level, Text: text})
	if err != nil {
		return
	}
	c.SetSameSite(nethttp.SameSiteLaxMode)
	c.SetCookie(NoticeCookie, base64.RawURLEncoding.EncodeToString(raw), 0, "/", "", false, true)
}

// PopNotice returns the pending notice, if any, and clears it.
func PopNotice(c *gin.Context) *Notice {
	value, err := c.Cookie(NoticeCookie)
	if err != nil || value == "" {
		return nil
	}
	c.SetCookie(NoticeCookie, "", -1, "/", "", false, true)

	raw, err := base64.RawURLEncoding.DecodeString(value)
	if err != nil {
		return nil
	}
	var n Notice
	if err := json.Unmarshal(raw, &n); err != nil || n.Text == "" {
		return nil
	}
	return &n
}

// RedirectWithNotice sets a notice and sends a 303 to location.
func RedirectWithNotice(c *gin.Context, level, text, location string) {
	SetNotice(c, level, text)
	c.Redirect(nethttp.StatusSeeOther, location)
}
