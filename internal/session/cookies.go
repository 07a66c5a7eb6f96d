package session

import (
	"errors"
	"net"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/sessions"
	"go.uber.org/zap"
)

// CookieName is the name of the cookie remembering the caller's latest upload.
const CookieName = "study_session"

const currentUploadKey = "upload_session_id"

// ErrNoCurrentUpload is returned when the cookie does not reference an upload.
var ErrNoCurrentUpload = errors.New("no current upload session")

// Cookies remembers, per browser, which upload session is current.
type Cookies struct {
	store  sessions.Store
	logger *zap.Logger
	maxAge int
}

// NewCookies creates a cookie helper backed by store. maxAge is in seconds.
func NewCookies(store sessions.Store, maxAge int, logger *zap.Logger) *Cookies {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Cookies{store: store, logger: logger, maxAge: maxAge}
}

// SetCurrent points the caller's cookie at sessionID.
func (c *Cookies) SetCurrent(ctx *gin.Context, sessionID string) error {
	sess, err := c.store.Get(ctx.Request, CookieName)
	if err != nil {
		// An undecodable cookie still yields a fresh session to overwrite it.
		c.logger.Debug("replacing unreadable session cookie", zap.Error(err))
	}

	sess.Options = c.options(ctx.Request)
	sess.Values[currentUploadKey] = sessionID

	if err := c.store.Save(ctx.Request, ctx.Writer, sess); err != nil {
		c.logger.Error("failed to save session cookie", zap.Error(err))
		return err
	}
	return nil
}

// Current returns the upload session id stored in the caller's cookie.
func (c *Cookies) Current(ctx *gin.Context) (string, error) {
	sess, err := c.store.Get(ctx.Request, CookieName)
	if err != nil {
		c.logger.Debug("unreadable session cookie", zap.Error(err))
		return "", ErrNoCurrentUpload
	}

	id, ok := sess.Values[currentUploadKey].(string)
	if !ok || id == "" {
		return "", ErrNoCurrentUpload
	}
	return id, nil
}

// options mirrors the cookie policy for cross-site frontends: SameSite=None
// needs Secure, except on localhost where plain HTTP is used.
func (c *Cookies) options(r *http.Request) *sessions.Options {
	local := isLocalhost(r.Host)
	sameSite := http.SameSiteNoneMode
	if local {
		sameSite = http.SameSiteLaxMode
	}
	return &sessions.Options{
		Path:     "/",
		MaxAge:   c.maxAge,
		HttpOnly: true,
		Secure:   !local,
		SameSite: sameSite,
	}
}

func isLocalhost(host string) bool {
	if h, _, err := net.SplitHostPort(host); err == nil {
		host = h
	}
	host = strings.Trim(host, "[]")
	return host == "localhost" || host == "127.0.0.1" || host == "::1"
}
