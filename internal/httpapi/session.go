package httpapi

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/godilite/engagement-dashboard/internal/selection"
)

const (
	SessionCookie = "dash_session"

	ctxSelection = "selection"
	ctxUniverse  = "universe"
)

// sessionMiddleware attaches the caller's selection and the current universe
// of product codes. A new session starts with every code selected.
func (s *server) sessionMiddleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			var id string
			if cookie, err := c.Cookie(SessionCookie); err == nil {
				id = cookie.Value
			}

			universe, err := s.opts.Dashboard.ProductCodes(c.Request().Context())
			if err != nil {
				// Existing sessions keep rendering with the last universe seen;
				// their units report the source failure individually.
				last, ok := s.knownUniverse()
				if _, exists := s.opts.Sessions.Get(id); !exists || !ok {
					return handleError(err)
				}
				s.logger.Warn("product codes unavailable, using last known universe", zap.Error(err))
				universe = last
			} else {
				s.rememberUniverse(universe)
			}

			newID, sel := s.opts.Sessions.Open(id, universe)
			if newID != id {
				c.SetCookie(&http.Cookie{
					Name:     SessionCookie,
					Value:    newID,
					Path:     "/",
					HttpOnly: true,
					Secure:   s.opts.SecureCookies,
					SameSite: http.SameSiteLaxMode,
					MaxAge:   int(s.opts.SessionMaxAge.Seconds()),
				})
			}

			c.Set(ctxSelection, sel)
			c.Set(ctxUniverse, universe)
			return next(c)
		}
	}
}

func (s *server) rememberUniverse(universe []string) {
	s.mu.Lock()
	s.lastUniverse = append([]string(nil), universe...)
	s.mu.Unlock()
}

func (s *server) knownUniverse() ([]string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.lastUniverse, s.lastUniverse != nil
}

func sessionSelection(c echo.Context) *selection.Selection {
	sel, _ := c.Get(ctxSelection).(*selection.Selection)
	return sel
}

func sessionUniverse(c echo.Context) []string {
	u, _ := c.Get(ctxUniverse).([]string)
	return u
}
