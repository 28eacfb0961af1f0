package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"library-backend/internal/shared"
	"library-backend/pkg/jwt"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func newAuthRouter(tokens *jwt.Manager) *gin.Engine {
	r := gin.New()
	r.Use(RequestID(), AuthMiddleware(tokens))
	r.GET("/me", func(c *gin.Context) {
		id, ok := shared.IdentityFrom(c.Request.Context())
		if !ok {
			c.String(http.StatusInternalServerError, "no identity")
			return
		}
		c.JSON(http.StatusOK, gin.H{"member": id.MemberID.String(), "role": id.Role})
	})
	r.GET("/admin", AdminMiddleware(), func(c *gin.Context) {
		c.Status(http.StatusOK)
	})
	return r
}

func do(r http.Handler, path, token string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func Test_AuthMiddleware_AcceptsValidToken(t *testing.T) {
	tokens := jwt.NewManager("secret", time.Minute)
	member := uuid.New()
	token, err := tokens.GenerateAccessToken(member.String(), shared.RoleMember)
	require.NoError(t, err)

	w := do(newAuthRouter(tokens), "/me", token)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), member.String())
	assert.NotEmpty(t, w.Header().Get(HeaderRequestID))
}

func Test_AuthMiddleware_Rejects(t *testing.T) {
	tokens := jwt.NewManager("secret", time.Minute)
	other := jwt.NewManager("other-secret", time.Minute)
	forged, err := other.GenerateAccessToken(uuid.NewString(), shared.RoleMember)
	require.NoError(t, err)
	badSubject, err := tokens.GenerateAccessToken("not-a-uuid", shared.RoleMember)
	require.NoError(t, err)
	noRole, err := tokens.GenerateAccessToken(uuid.NewString(), "")
	require.NoError(t, err)

	cases := map[string]string{
		"missing":     "",
		"forged":      forged,
		"bad subject": badSubject,
		"no role":     noRole,
	}

	r := newAuthRouter(tokens)
	for name, token := range cases {
		t.Run(name, func(t *testing.T) {
			w := do(r, "/me", token)
			assert.Equal(t, http.StatusUnauthorized, w.Code)
		})
	}
}

func Test_AdminMiddleware(t *testing.T) {
	tokens := jwt.NewManager("secret", time.Minute)
	r := newAuthRouter(tokens)

	member, err := tokens.GenerateAccessToken(uuid.NewString(), shared.RoleMember)
	require.NoError(t, err)
	admin, err := tokens.GenerateAccessToken(uuid.NewString(), shared.RoleAdmin)
	require.NoError(t, err)

	assert.Equal(t, http.StatusForbidden, do(r, "/admin", member).Code)
	assert.Equal(t, http.StatusOK, do(r, "/admin", admin).Code)
}

func Test_RequestID_PropagatesHeader(t *testing.T) {
	r := gin.New()
	r.Use(RequestID())
	r.GET("/", func(c *gin.Context) { c.String(http.StatusOK, c.GetString(ContextRequestID)) })

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(HeaderRequestID, "abc-123")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, "abc-123", w.Body.String())
	assert.Equal(t, "abc-123", w.Header().Get(HeaderRequestID))
}

func Test_Recovery_ReturnsEnvelope(t *testing.T) {
	r := gin.New()
	r.Use(Recovery())
	r.GET("/", func(c *gin.Context) { panic("boom") })

	w := do(r, "/", "")

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Contains(t, w.Body.String(), "SYS_001")
}
