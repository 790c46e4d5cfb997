package main

import (
	"io"
	"log/slog"
	"net/http"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	listinghandler "dealroom/internal/listing/handler"
	listingmodels "dealroom/internal/listing/models"
	jwttoken "dealroom/internal/jwt_token"
	"dealroom/internal/platform/config"
	id "dealroom/pkg/domain"
	"dealroom/pkg/testutil"
)

func testConfig() config.Config {
	return config.Config{
		Server: config.Server{SideEffectTimeout: time.Second},
		Auth: config.AuthConfig{
			JWTSigningKey: "router-test-key",
			JWTIssuer:     "dealroom",
			JWTAudience:   "dealroom-api",
		},
		Email:    config.EmailConfig{From: "no-reply@dealroom.local", Queue: "emails"},
		Matching: config.MatchingConfig{Threshold: 50},
	}
}

func bearer(t *testing.T, cfg config.Config, userID id.UserID, role id.Role) string {
	t.Helper()
	token, err := jwttoken.NewJWTService(cfg.Auth.JWTSigningKey, cfg.Auth.JWTIssuer, cfg.Auth.JWTAudience).
		GenerateAccessToken(userID, role, time.Minute)
	require.NoError(t, err)
	return "Bearer " + token
}

func TestRouter(t *testing.T) {
	testutil.Given(t, "the in-memory application", func(t *testing.T) {
		cfg := testConfig()
		infra := &Infra{}
		logger := slog.New(slog.NewTextHandler(io.Discard, nil))
		router := newRouter(infra, buildApp(cfg, infra, logger), nil)
		seller := id.UserID(uuid.New())

		testutil.When(t, "calling GET /health", func(t *testing.T) {
			rr := testutil.DoRequest(router, testutil.NewRequest(t, http.MethodGet, "/health"))

			testutil.Then(t, "it reports ok with no backends to check", func(t *testing.T) {
				resp := testutil.UnmarshalResponse[healthResponse](t, rr)
				assert.Equal(t, http.StatusOK, rr.Code)
				assert.Equal(t, "ok", resp.Status)
				assert.Empty(t, resp.Checks)
			})
		})

		testutil.When(t, "an anonymous caller creates a listing", func(t *testing.T) {
			req := testutil.NewJSONRequest(t, http.MethodPost, "/listings", map[string]any{"title": "Bakery", "region": "Stockholm"})
			rr := testutil.DoRequest(router, req)

			testutil.Then(t, "it is unauthorized", func(t *testing.T) {
				assert.Equal(t, http.StatusUnauthorized, rr.Code)
			})
		})

		testutil.When(t, "a seller creates a listing and an anonymous caller reads it", func(t *testing.T) {
			req := testutil.NewJSONRequest(t, http.MethodPost, "/listings", map[string]any{
				"title":      "Bakery",
				"region":     "Stockholm",
				"legal_name": "Bageri Holding AB",
			})
			req.Header.Set("Authorization", bearer(t, cfg, seller, id.RoleSeller))
			rr := testutil.DoRequest(router, req)
			require.Equal(t, http.StatusCreated, rr.Code)
			created := testutil.UnmarshalResponse[listinghandler.CreateResponse](t, rr)

			rr = testutil.DoRequest(router, testutil.NewRequest(t, http.MethodGet, "/listings/"+created.ID))

			testutil.Then(t, "the public view is masked", func(t *testing.T) {
				got := testutil.UnmarshalResponse[listingmodels.MaskedListing](t, rr)
				assert.Equal(t, http.StatusOK, rr.Code)
				assert.True(t, got.Masked)
				assert.Empty(t, got.LegalName)
				assert.Equal(t, "Bakery", got.Title)
			})
		})

		testutil.When(t, "an anonymous caller reads an unknown listing", func(t *testing.T) {
			rr := testutil.DoRequest(router, testutil.NewRequest(t, http.MethodGet, "/listings/"+uuid.NewString()))

			testutil.Then(t, "it is not found", func(t *testing.T) {
				assert.Equal(t, http.StatusNotFound, rr.Code)
			})
		})

		testutil.When(t, "a bearer token is malformed on a public route", func(t *testing.T) {
			req := testutil.NewRequest(t, http.MethodGet, "/listings/"+uuid.NewString())
			req.Header.Set("Authorization", "Bearer not-a-token")
			rr := testutil.DoRequest(router, req)

			testutil.Then(t, "it is rejected rather than downgraded", func(t *testing.T) {
				assert.Equal(t, http.StatusUnauthorized, rr.Code)
			})
		})
	})
}
