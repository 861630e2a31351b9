package xfeed

import (
	"strings"
	"sync"
	"time"
)

// session guards the live credential bundle. The platform rotates the ct0
// cookie on responses; absorbing those rotations keeps the next request's
// x-csrf-token and cookie header consistent.
type session struct {
	mu              sync.Mutex
	creds           Credentials
	csrfRefreshedAt time.Time
}

func newSession(creds Credentials) *session {
	return &session{creds: creds, csrfRefreshedAt: time.Now()}
}

// snapshot returns a copy of the current credentials under lock.
func (s *session) snapshot() Credentials {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.creds
}

// setCSRF updates the ct0 from a server response.
func (s *session) setCSRF(token string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.creds.CSRFToken = token
	s.csrfRefreshedAt = time.Now()
}

// absorbCookies picks up a rotated ct0 value from a set-cookie response
// header, if present and different from the current one.
func (s *session) absorbCookies(headers map[string]string) {
	fresh := extractCSRFCookie(headers)
	if fresh == "" {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if fresh != s.creds.CSRFToken {
		s.creds.CSRFToken = fresh
		s.csrfRefreshedAt = time.Now()
	}
}

// extractCSRFCookie parses the ct0 value from a set-cookie response header.
func extractCSRFCookie(headers map[string]string) string {
	cookie := headers["set-cookie"]
	if cookie == "" {
		return ""
	}
	for _, part := range strings.Split(cookie, ";") {
		part = strings.TrimSpace(part)
		if strings.HasPrefix(part, "ct0=") {
			if val := strings.TrimPrefix(part, "ct0="); val != "" {
				return val
			}
		}
	}
	return ""
}
