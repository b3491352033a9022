package middleware

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/RoyceAzure/lab/grocery/internal/api/response"
	"github.com/RoyceAzure/lab/grocery/internal/constants"
	"github.com/RoyceAzure/lab/grocery/internal/infra/repository/kv_repo"
	"github.com/RoyceAzure/lab/grocery/internal/infra/storage"
	"github.com/RoyceAzure/lab/grocery/internal/service"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
)

type MiddlewareTestSuite struct {
	suite.Suite
	*require.Assertions

	ctx      context.Context
	identity *service.IdentityService
}

func TestMiddlewareSuite(t *testing.T) {
	suite.Run(t, new(MiddlewareTestSuite))
}

func (s *MiddlewareTestSuite) SetupTest() {
	s.Assertions = require.New(s.T())
	s.ctx = context.Background()

	maker, err := service.NewJWTMaker("middleware-test-secret")
	s.NoError(err)
	s.identity = service.NewIdentityService(s.ctx,
		kv_repo.NewKVRepo(storage.NewMemoryStore()),
		service.PlainHasher{},
		maker,
		service.WithIdentityLatency(0),
	)
	s.NoError(s.identity.SeedDemoUsers(s.ctx))
}

func (s *MiddlewareTestSuite) login(email string) string {
	_, token, err := s.identity.Login(s.ctx, email, constants.SeedDefaultPassword)
	s.NoError(err)
	return token
}

func (s *MiddlewareTestSuite) protected(admin bool) http.Handler {
	h := http.Handler(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user := GetCurrentUser(r.Context())
		s.NotNil(user)
		response.SuccessJSON(w, user.Email, nil)
	}))
	if admin {
		h = AdminMiddleware(h)
	}
	return AuthMiddleware(s.identity)(h)
}

func (s *MiddlewareTestSuite) do(h http.Handler, header string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	if header != "" {
		req.Header.Set("Authorization", header)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func (s *MiddlewareTestSuite) TestAuthMissingAndMalformed() {
	s.Equal(http.StatusUnauthorized, s.do(s.protected(false), "").Code)
	s.Equal(http.StatusUnauthorized, s.do(s.protected(false), "Token abc").Code)
	s.Equal(http.StatusUnauthorized, s.do(s.protected(false), "Bearer").Code)
}

func (s *MiddlewareTestSuite) TestAuthRequiresCurrentSessionToken() {
	old := s.login(constants.SeedCustomerEmail)
	s.Equal(http.StatusOK, s.do(s.protected(false), "Bearer "+old).Code)

	// 重新登入後舊 token 失效
	fresh := s.login(constants.SeedCustomerEmail)
	s.NotEqual(old, fresh)
	s.Equal(http.StatusUnauthorized, s.do(s.protected(false), "Bearer "+old).Code)
	s.Equal(http.StatusOK, s.do(s.protected(false), "bearer "+fresh).Code)

	s.NoError(s.identity.Logout(s.ctx))
	s.Equal(http.StatusUnauthorized, s.do(s.protected(false), "Bearer "+fresh).Code)
}

func (s *MiddlewareTestSuite) TestAuthAcceptsQueryToken() {
	token := s.login(constants.SeedCustomerEmail)
	req := httptest.NewRequest(http.MethodGet, "/?token="+token, nil)
	rec := httptest.NewRecorder()
	s.protected(false).ServeHTTP(rec, req)
	s.Equal(http.StatusOK, rec.Code)
}

func (s *MiddlewareTestSuite) TestAdminOnly() {
	token := s.login(constants.SeedCustomerEmail)
	s.Equal(http.StatusForbidden, s.do(s.protected(true), "Bearer "+token).Code)

	token = s.login(constants.SeedAdminEmail)
	s.Equal(http.StatusOK, s.do(s.protected(true), "Bearer "+token).Code)
}

func (s *MiddlewareTestSuite) TestRequestID() {
	var seen string
	h := RequestIdMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = GetRequestID(r.Context())
	}))

	rec := s.do(h, "")
	s.NotEmpty(seen)
	s.Equal(seen, rec.Header().Get(RequestIDHeader))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(RequestIDHeader, "req-1")
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	s.Equal("req-1", seen)
	s.Equal("unknown", GetRequestID(context.Background()))
}

func (s *MiddlewareTestSuite) TestLoggerRecordsUserAndStatus() {
	var buf bytes.Buffer
	logger := zerolog.New(&buf)
	token := s.login(constants.SeedCustomerEmail)

	h := RequestIdMiddleware(LoggerMiddleware(logger)(s.protected(false)))
	s.do(h, "Bearer "+token)

	var entry map[string]any
	s.NoError(json.Unmarshal(buf.Bytes(), &entry))
	s.Equal(constants.SeedCustomerID, entry["user_id"])
	s.Equal(float64(http.StatusOK), entry["status"])
	s.NotEqual("unknown", entry["request_id"])
}

func (s *MiddlewareTestSuite) TestRecover() {
	h := RecoverMiddleware(zerolog.Nop())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic("boom")
	}))
	rec := s.do(h, "")
	s.Equal(http.StatusInternalServerError, rec.Code)

	var body response.ResponseError
	s.NoError(json.Unmarshal(rec.Body.Bytes(), &body))
	s.Empty(body.Error)
	s.Equal(http.StatusInternalServerError, body.Code)
}
