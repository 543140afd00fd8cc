package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/google/uuid"

	"gamehub/internal/hub"
)

const profileCookieName = "gamehub_profile"

type profileKey struct{}

// Profiles resolves the browser profile from its cookie, issuing a new id
// when the cookie is missing or malformed.
func Profiles(store *hub.Store) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id := profileIDFromCookie(r)
			if id == "" {
				id = uuid.NewString()
				setProfileCookie(w, id)
			}
			p := store.Profile(id)
			next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), profileKey{}, p)))
		})
	}
}

// Throttle rejects actions beyond the profile's rate with 429.
func Throttle(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if p := profileFrom(r); p != nil && !p.Allow() {
			w.Header().Set("Retry-After", "1")
			http.Error(w, "too many requests", http.StatusTooManyRequests)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func profileFrom(r *http.Request) *hub.Profile {
	p, _ := r.Context().Value(profileKey{}).(*hub.Profile)
	return p
}

func profileIDFromCookie(r *http.Request) string {
	cookie, err := r.Cookie(profileCookieName)
	if err != nil {
		return ""
	}
	id, err := uuid.Parse(cookie.Value)
	if err != nil {
		return ""
	}
	return id.String()
}

func setProfileCookie(w http.ResponseWriter, id string) {
	http.SetCookie(w, &http.Cookie{
		Name:     profileCookieName,
		Value:    id,
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
		Expires:  time.Now().Add(365 * 24 * time.Hour),
	})
}
