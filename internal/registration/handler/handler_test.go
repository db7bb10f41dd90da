package handler

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/suite"

	"github.com/SmartForm247/EasyForm2/internal/platform/middleware"
	"github.com/SmartForm247/EasyForm2/internal/registration/service"
	"github.com/SmartForm247/EasyForm2/internal/registration/store/memory"
)

type staticValidator struct{}

func (staticValidator) ValidateToken(token string) (*middleware.JWTClaims, error) {
	if token != "good-token" {
		return nil, errors.New("invalid token")
	}
	return &middleware.JWTClaims{UserID: "user-1", SessionID: "session-1"}, nil
}

type HandlerSuite struct {
	suite.Suite
	server *httptest.Server
}

func TestHandlerSuite(t *testing.T) {
	suite.Run(t, new(HandlerSuite))
}

func (s *HandlerSuite) SetupTest() {
	svc := service.New(memory.New())
	h := New(svc, slog.New(slog.NewTextHandler(io.Discard, nil)), nil, staticValidator{})

	router := chi.NewRouter()
	h.Register(router)
	s.server = httptest.NewServer(router)
	s.T().Cleanup(s.server.Close)
}

func (s *HandlerSuite) do(method, path, token string, body any) (*http.Response, map[string]any) {
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		s.Require().NoError(err)
		reader = bytes.NewReader(raw)
	}
	req, err := http.NewRequest(method, s.server.URL+path, reader)
	s.Require().NoError(err)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := s.server.Client().Do(req)
	s.Require().NoError(err)
	defer resp.Body.Close()

	var decoded map[string]any
	raw, err := io.ReadAll(resp.Body)
	s.Require().NoError(err)
	if len(raw) > 0 {
		s.Require().NoError(json.Unmarshal(raw, &decoded))
	}
	return resp, decoded
}

func (s *HandlerSuite) createRegistration() string {
	resp, body := s.do(http.MethodPost, "/registrations", "good-token", map[string]string{"form_type": "limited-company"})
	s.Require().Equal(http.StatusCreated, resp.StatusCode)
	id, _ := body["id"].(string)
	s.Require().NotEmpty(id)
	return id
}

func (s *HandlerSuite) TestRequiresBearerToken() {
	resp, _ := s.do(http.MethodGet, "/registrations", "", nil)
	s.Equal(http.StatusUnauthorized, resp.StatusCode)

	resp, _ = s.do(http.MethodGet, "/registrations", "bad-token", nil)
	s.Equal(http.StatusUnauthorized, resp.StatusCode)
}

func (s *HandlerSuite) TestCreateAndGet() {
	id := s.createRegistration()

	resp, body := s.do(http.MethodGet, "/registrations/"+id, "good-token", nil)
	s.Require().Equal(http.StatusOK, resp.StatusCode)
	s.Equal("limited-company", body["form_type"])

	directors, ok := body["directors"].([]any)
	s.Require().True(ok)
	s.Len(directors, 1)
}

func (s *HandlerSuite) TestCreateRejectsUnknownFormType() {
	resp, body := s.do(http.MethodPost, "/registrations", "good-token", map[string]string{"form_type": "charity"})
	s.Equal(http.StatusBadRequest, resp.StatusCode)
	s.Equal("validation_failed", body["error"])
}

func (s *HandlerSuite) TestSetRoleReturnsFlags() {
	id := s.createRegistration()

	resp, body := s.do(http.MethodPut, "/registrations/"+id+"/directors/1/roles", "good-token",
		map[string]any{"role": "subscriber", "enabled": true})
	s.Require().Equal(http.StatusOK, resp.StatusCode)

	roles, ok := body["roles"].(map[string]any)
	s.Require().True(ok)
	s.Equal(true, roles["subscriber"])
	s.Equal(false, roles["director_only"])
}

func (s *HandlerSuite) TestSecretaryConflictMapsToConflict() {
	id := s.createRegistration()
	resp, _ := s.do(http.MethodPost, "/registrations/"+id+"/records", "good-token", map[string]string{"kind": "director"})
	s.Require().Equal(http.StatusCreated, resp.StatusCode)

	resp, _ = s.do(http.MethodPut, "/registrations/"+id+"/directors/1/roles", "good-token",
		map[string]any{"role": "secretary", "enabled": true})
	s.Require().Equal(http.StatusOK, resp.StatusCode)

	resp, body := s.do(http.MethodPut, "/registrations/"+id+"/directors/2/roles", "good-token",
		map[string]any{"role": "secretary", "enabled": true})
	s.Equal(http.StatusConflict, resp.StatusCode)
	s.Contains(fmt.Sprint(body["message"]), "already the company secretary")
}

func (s *HandlerSuite) TestFieldEditsFlowIntoProjection() {
	id := s.createRegistration()

	resp, _ := s.do(http.MethodPatch, "/registrations/"+id+"/company", "good-token",
		map[string]any{"fields": map[string]string{"companyName": "Akwaaba Ventures", "capital": "10000"}})
	s.Require().Equal(http.StatusNoContent, resp.StatusCode)

	resp, _ = s.do(http.MethodPatch, "/registrations/"+id+"/records/director/1", "good-token",
		map[string]any{"fields": map[string]string{"fname": "Ama", "sname": "Mensah"}})
	s.Require().Equal(http.StatusNoContent, resp.StatusCode)

	resp, body := s.do(http.MethodGet, "/registrations/"+id+"/projection", "good-token", nil)
	s.Require().Equal(http.StatusOK, resp.StatusCode)

	surface, ok := body["surface"].(map[string]any)
	s.Require().True(ok)
	s.Equal("Akwaaba Ventures", surface["companyName"])
	s.Equal("Ama", surface["D1FirstName"])
}

func (s *HandlerSuite) TestInvalidIDAndBody() {
	resp, body := s.do(http.MethodGet, "/registrations/not-a-uuid", "good-token", nil)
	s.Equal(http.StatusBadRequest, resp.StatusCode)
	s.Equal("bad_request", body["error"])

	id := s.createRegistration()
	resp, _ = s.do(http.MethodPatch, "/registrations/"+id+"/company", "good-token", map[string]any{})
	s.Equal(http.StatusBadRequest, resp.StatusCode)
}

func (s *HandlerSuite) TestUnknownRegistrationIsNotFound() {
	resp, body := s.do(http.MethodGet, "/registrations/00000000-0000-0000-0000-000000000001", "good-token", nil)
	s.Equal(http.StatusNotFound, resp.StatusCode)
	s.Equal("not_found", body["error"])
}
