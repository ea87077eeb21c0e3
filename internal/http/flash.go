package http

import (
	"encoding/base64"
	"encoding/json"
	"net/http"
)

// Flash messages survive exactly one redirect: the write handler sets a
// cookie, the next page render pops and clears it. The message list rides
// in the response, not in server-side session state.

const flashCookie = "expenses_flash"

const (
	flashSuccess = "success"
	flashError   = "error"
	flashWarning = "warning"
)

type flashMessage struct {
	Kind string `json:"kind"`
	Text string `json:"text"`
}

// addFlash appends a message to the pending flash cookie.
func addFlash(w http.ResponseWriter, r *http.Request, kind, text string) {
	msgs := append(readFlashes(r), flashMessage{Kind: kind, Text: text})
	payload, err := json.Marshal(msgs)
	if err != nil {
		return
	}
	http.SetCookie(w, &http.Cookie{
		Name:     flashCookie,
		Value:    base64.RawURLEncoding.EncodeToString(payload),
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}

// popFlashes returns pending messages and clears the cookie. A malformed
// cookie is dropped silently.
func popFlashes(w http.ResponseWriter, r *http.Request) []flashMessage {
	msgs := readFlashes(r)
	if _, err := r.Cookie(flashCookie); err == nil {
		http.SetCookie(w, &http.Cookie{
			Name:     flashCookie,
			Value:    "",
			Path:     "/",
			MaxAge:   -1,
			HttpOnly: true,
			SameSite: http.SameSiteLaxMode,
		})
	}
	return msgs
}

func readFlashes(r *http.Request) []flashMessage {
	c, err := r.Cookie(flashCookie)
	if err != nil {
		return nil
	}
	raw, err := base64.RawURLEncoding.DecodeString(c.Value)
	if err != nil {
		return nil
	}
	var msgs []flashMessage
	if err := json.Unmarshal(raw, &msgs); err != nil {
		return nil
	}
	return msgs
}
