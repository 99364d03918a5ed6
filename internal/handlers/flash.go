package handlers

import (
	"encoding/base64"
	"encoding/json"
	"net/http"

	"github.com/gin-gonic/gin"
)

const (
	flashCookieName = "flash"
	flashContextKey = "flash_state"
)

const (
	FlashSuccess = "success"
	FlashInfo    = "info"
	FlashWarning = "warning"
	FlashDanger  = "danger"
)

// Flash is a one-shot message shown on the next rendered page
type Flash struct {
	Category string `json:"category"`
	Message  string `json:"message"`
}

type flashState struct {
	incoming []Flash
	pending  []Flash
	consumed bool
}

func flashes(c *gin.Context) *flashState {
	if v, ok := c.Get(flashContextKey); ok {
		return v.(*flashState)
	}
	st := &flashState{}
	if raw, err := c.Cookie(flashCookieName); err == nil && raw != "" {
		st.incoming = decodeFlashes(raw)
	}
	c.Set(flashContextKey, st)
	return st
}

// AddFlash queues a message; it survives a redirect through the flash cookie
func AddFlash(c *gin.Context, category, message string) {
	st := flashes(c)
	st.pending = append(st.pending, Flash{Category: category, Message: message})

	all := st.pending
	if !st.consumed {
		all = append(append([]Flash{}, st.incoming...), st.pending...)
	}
	writeFlashCookie(c, encodeFlashes(all), 0)
}

// PopFlashes returns every queued message and clears the cookie
func PopFlashes(c *gin.Context) []Flash {
	st := flashes(c)
	var out []Flash
	if !st.consumed {
		out = append(out, st.incoming...)
	}
	out = append(out, st.pending...)
	st.consumed = true
	st.pending = nil
	if len(out) > 0 || len(st.incoming) > 0 {
		writeFlashCookie(c, "", -1)
	}
	if out == nil {
		out = []Flash{}
	}
	return out
}

func writeFlashCookie(c *gin.Context, value string, maxAge int) {
	http.SetCookie(c.Writer, &http.Cookie{
		Name:     flashCookieName,
		Value:    value,
		Path:     "/",
		MaxAge:   maxAge,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}

func encodeFlashes(list []Flash) string {
	raw, err := json.Marshal(list)
	if err != nil {
		return ""
	}
	return base64.RawURLEncoding.EncodeToString(raw)
}

func decodeFlashes(value string) []Flash {
	raw, err := base64.RawURLEncoding.DecodeString(value)
	if err != nil {
		return nil
	}
	var list []Flash
	if err := json.Unmarshal(raw, &list); err != nil {
		return nil
	}
	return list
}
