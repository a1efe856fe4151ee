package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Naimehossein77/gym-nfc/internal/common"
	"github.com/Naimehossein77/gym-nfc/internal/logging"
	"github.com/Naimehossein77/gym-nfc/internal/nfc"
	"github.com/Naimehossein77/gym-nfc/internal/passkit"
	"github.com/Naimehossein77/gym-nfc/internal/server/auth"
	"github.com/Naimehossein77/gym-nfc/internal/server/models"
	"github.com/Naimehossein77/gym-nfc/internal/server/services"
)

var testSecret = []byte("test-secret")

// --- fakes ---

type fakeAuthService struct {
	token string
	err   error
}

func (f *fakeAuthService) Login(ctx context.Context, username, password string) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	return f.token, nil
}

type fakeTokenService struct {
	issued      *models.IssuedToken
	generateErr error

	valid    bool
	validErr error

	getOut *models.Token
	getErr error

	listOut []*models.Token
	listErr error

	revoked   bool
	revokeErr error

	cleanupCount int64
	cleanupErr   error

	payloadResult *services.PayloadResult
	payloadErr    error
}

func (f *fakeTokenService) Generate(ctx context.Context, memberID int64, ttlDays *int) (*models.IssuedToken, error) {
	if f.generateErr != nil {
		return nil, f.generateErr
	}
	return f.issued, nil
}

func (f *fakeTokenService) IsValid(ctx context.Context, token string) (bool, error) {
	return f.valid, f.validErr
}

func (f *fakeTokenService) Get(ctx context.Context, token string) (*models.Token, error) {
	if f.getErr != nil {
		return nil, f.getErr
	}
	return f.getOut, nil
}

func (f *fakeTokenService) ListForMember(ctx context.Context, memberID int64) ([]*models.Token, error) {
	if f.listErr != nil {
		return nil, f.listErr
	}
	return f.listOut, nil
}

func (f *fakeTokenService) Revoke(ctx context.Context, token string) (bool, error) {
	return f.revoked, f.revokeErr
}

func (f *fakeTokenService) CleanupExpired(ctx context.Context) (int64, error) {
	return f.cleanupCount, f.cleanupErr
}

func (f *fakeTokenService) ValidatePayload(ctx context.Context, payload string) (*services.PayloadResult, error) {
	if f.payloadErr != nil {
		return nil, f.payloadErr
	}
	return f.payloadResult, nil
}

type fakeProvisionService struct {
	result *nfc.WriteResult
	err    error
}

func (f *fakeProvisionService) Provision(ctx context.Context, token string, memberID int64, timeout time.Duration) (*nfc.WriteResult, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.result, nil
}

type fakeGatewayService struct {
	readResult nfc.ReadResult
	status     nfc.Status
}

func (f *fakeGatewayService) Read(ctx context.Context, timeout time.Duration) nfc.ReadResult {
	return f.readResult
}

func (f *fakeGatewayService) Status(ctx context.Context) nfc.Status {
	return f.status
}

type fakePassService struct {
	issued *services.IssuedPass
	err    error
	status map[string]passkit.FileStatus
}

func (f *fakePassService) Issue(ctx context.Context, d *passkit.Declaration) (*services.IssuedPass, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.issued, nil
}

func (f *fakePassService) CertificateStatus() map[string]passkit.FileStatus {
	return f.status
}

// --- helpers ---

type testDeps struct {
	auth      *fakeAuthService
	tokens    *fakeTokenService
	provision *fakeProvisionService
	gateway   *fakeGatewayService
	pass      *fakePassService
}

func newTestServer(t *testing.T, d *testDeps) *httptest.Server {
	t.Helper()
	if d.auth == nil {
		d.auth = &fakeAuthService{}
	}
	if d.tokens == nil {
		d.tokens = &fakeTokenService{}
	}
	if d.provision == nil {
		d.provision = &fakeProvisionService{}
	}
	if d.gateway == nil {
		d.gateway = &fakeGatewayService{}
	}
	if d.pass == nil {
		d.pass = &fakePassService{}
	}
	router := NewRouter(Deps{
		Auth:      d.auth,
		Tokens:    d.tokens,
		Provision: d.provision,
		Gateway:   d.gateway,
		Pass:      d.pass,
		JWTSecret: testSecret,
		Logger:    logging.NewNopLogger(),
	})
	ts := httptest.NewServer(router)
	t.Cleanup(ts.Close)
	return ts
}

func staffToken(t *testing.T) string {
	t.Helper()
	token, err := auth.GenerateToken("front-desk", models.RoleStaff, testSecret, time.Hour)
	require.NoError(t, err)
	return token
}

func doRequest(t *testing.T, method, url, bearer string, body any) *http.Response {
	t.Helper()
	var reader io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(b)
	}
	req, err := http.NewRequest(method, url, reader)
	require.NoError(t, err)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func decodeResponse(t *testing.T, resp *http.Response, v any) {
	t.Helper()
	require.NoError(t, json.NewDecoder(resp.Body).Decode(v))
}

// --- auth ---

func TestLogin(t *testing.T) {
	ts := newTestServer(t, &testDeps{auth: &fakeAuthService{token: "jwt-abc"}})

	resp := doRequest(t, http.MethodPost, ts.URL+"/api/auth/login", "", map[string]string{"username": "u", "password": "p"})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var body loginResponse
	decodeResponse(t, resp, &body)
	assert.Equal(t, "jwt-abc", body.AccessToken)
	assert.Equal(t, "bearer", body.TokenType)
}

func TestLogin_BadCredentials(t *testing.T) {
	ts := newTestServer(t, &testDeps{auth: &fakeAuthService{err: common.ErrorUnauthorized}})

	resp := doRequest(t, http.MethodPost, ts.URL+"/api/auth/login", "", map[string]string{"username": "u", "password": "wrong"})
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestLogin_MissingFields(t *testing.T) {
	ts := newTestServer(t, &testDeps{})

	resp := doRequest(t, http.MethodPost, ts.URL+"/api/auth/login", "", map[string]string{"username": "u"})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestProtectedRoutes_RequireToken(t *testing.T) {
	ts := newTestServer(t, &testDeps{})

	resp := doRequest(t, http.MethodPost, ts.URL+"/api/tokens/cleanup", "", nil)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	resp = doRequest(t, http.MethodPost, ts.URL+"/api/tokens/cleanup", "garbage", nil)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestProtectedRoutes_RejectMemberRole(t *testing.T) {
	ts := newTestServer(t, &testDeps{})

	token, err := auth.GenerateToken("member-1", models.RoleMember, testSecret, time.Hour)
	require.NoError(t, err)

	resp := doRequest(t, http.MethodGet, ts.URL+"/api/nfc/status", token, nil)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

// --- tokens ---

func TestGenerateToken(t *testing.T) {
	expiry := time.Date(2025, 7, 1, 0, 0, 0, 0, time.UTC)
	d := &testDeps{tokens: &fakeTokenService{issued: &models.IssuedToken{
		Token:            &models.Token{ID: 1, Token: "abc", MemberID: 7, IsActive: true, ExpiresAt: &expiry},
		EncryptedPayload: "enc-payload",
	}}}
	ts := newTestServer(t, d)

	resp := doRequest(t, http.MethodPost, ts.URL+"/api/tokens/generate", staffToken(t), map[string]any{"member_id": 7, "ttl_days": 30})
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	var body issuedTokenResponse
	decodeResponse(t, resp, &body)
	assert.Equal(t, "abc", body.Token)
	assert.Equal(t, int64(7), body.MemberID)
	assert.Equal(t, "enc-payload", body.EncryptedPayload)
	require.NotNil(t, body.ExpiresAt)
	assert.True(t, expiry.Equal(*body.ExpiresAt))
}

func TestGenerateToken_MemberErrors(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
	}{
		{name: "member not found", err: common.ErrMemberNotFound, wantStatus: http.StatusNotFound},
		{name: "member inactive", err: common.ErrMemberInactive, wantStatus: http.StatusBadRequest},
		{name: "internal", err: errors.New("boom"), wantStatus: http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ts := newTestServer(t, &testDeps{tokens: &fakeTokenService{generateErr: tt.err}})

			resp := doRequest(t, http.MethodPost, ts.URL+"/api/tokens/generate", staffToken(t), map[string]any{"member_id": 7})
			assert.Equal(t, tt.wantStatus, resp.StatusCode)
		})
	}
}

func TestGenerateToken_BadBody(t *testing.T) {
	ts := newTestServer(t, &testDeps{})

	resp := doRequest(t, http.MethodPost, ts.URL+"/api/tokens/generate", staffToken(t), map[string]any{"member_id": 0})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp = doRequest(t, http.MethodPost, ts.URL+"/api/tokens/generate", staffToken(t), map[string]any{"member_id": 7, "ttl_days": -1})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestGenerateToken_ZeroTTLAccepted(t *testing.T) {
	expiry := time.Date(2025, 7, 1, 0, 0, 0, 0, time.UTC)
	d := &testDeps{tokens: &fakeTokenService{issued: &models.IssuedToken{
		Token: &models.Token{ID: 1, Token: "abc", MemberID: 7, IsActive: true, ExpiresAt: &expiry},
	}}}
	ts := newTestServer(t, d)

	resp := doRequest(t, http.MethodPost, ts.URL+"/api/tokens/generate", staffToken(t), map[string]any{"member_id": 7, "ttl_days": 0})
	assert.Equal(t, http.StatusCreated, resp.StatusCode)
}

func TestValidateToken(t *testing.T) {
	d := &testDeps{tokens: &fakeTokenService{
		valid:  true,
		getOut: &models.Token{ID: 1, Token: "abc", MemberID: 7, IsActive: true},
	}}
	ts := newTestServer(t, d)

	resp := doRequest(t, http.MethodGet, ts.URL+"/api/tokens/validate/abc", staffToken(t), nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var body validateTokenResponse
	decodeResponse(t, resp, &body)
	assert.True(t, body.Valid)
	require.NotNil(t, body.Token)
	assert.Equal(t, "abc", body.Token.Token)
}

func TestValidateToken_Invalid(t *testing.T) {
	ts := newTestServer(t, &testDeps{tokens: &fakeTokenService{valid: false}})

	resp := doRequest(t, http.MethodGet, ts.URL+"/api/tokens/validate/nope", staffToken(t), nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var body validateTokenResponse
	decodeResponse(t, resp, &body)
	assert.False(t, body.Valid)
	assert.Nil(t, body.Token)
}

func TestListTokensForMember(t *testing.T) {
	d := &testDeps{tokens: &fakeTokenService{listOut: []*models.Token{
		{ID: 1, Token: "abc", MemberID: 7, IsActive: true},
		{ID: 2, Token: "def", MemberID: 7, IsActive: true},
	}}}
	ts := newTestServer(t, d)

	resp := doRequest(t, http.MethodGet, ts.URL+"/api/tokens/member/7", staffToken(t), nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var body struct {
		MemberID int64           `json:"member_id"`
		Tokens   []tokenResponse `json:"tokens"`
	}
	decodeResponse(t, resp, &body)
	assert.Equal(t, int64(7), body.MemberID)
	assert.Len(t, body.Tokens, 2)
}

func TestListTokensForMember_BadID(t *testing.T) {
	ts := newTestServer(t, &testDeps{})

	resp := doRequest(t, http.MethodGet, ts.URL+"/api/tokens/member/abc", staffToken(t), nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestRevokeToken(t *testing.T) {
	ts := newTestServer(t, &testDeps{tokens: &fakeTokenService{revoked: true}})

	resp := doRequest(t, http.MethodDelete, ts.URL+"/api/tokens/abc", staffToken(t), nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var body map[string]bool
	decodeResponse(t, resp, &body)
	assert.True(t, body["revoked"])
}

func TestCleanupTokens(t *testing.T) {
	ts := newTestServer(t, &testDeps{tokens: &fakeTokenService{cleanupCount: 5}})

	resp := doRequest(t, http.MethodPost, ts.URL+"/api/tokens/cleanup", staffToken(t), nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var body map[string]int64
	decodeResponse(t, resp, &body)
	assert.Equal(t, int64(5), body["deactivated"])
}

// --- nfc ---

func TestNFCWrite(t *testing.T) {
	d := &testDeps{provision: &fakeProvisionService{result: &nfc.WriteResult{
		Success:      true,
		CardID:       "04A1B2C3",
		TokenWritten: "abc",
		Message:      "Token written to card 04A1B2C3",
	}}}
	ts := newTestServer(t, d)

	resp := doRequest(t, http.MethodPost, ts.URL+"/api/nfc/write", staffToken(t), map[string]any{"token": "abc", "member_id": 7, "timeout_seconds": 5})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var body nfc.WriteResult
	decodeResponse(t, resp, &body)
	assert.True(t, body.Success)
	assert.Equal(t, "04A1B2C3", body.CardID)
}

func TestNFCWrite_ProvisioningErrors(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
	}{
		{name: "token not found", err: common.ErrTokenNotFound, wantStatus: http.StatusNotFound},
		{name: "token invalid", err: common.ErrTokenInvalid, wantStatus: http.StatusBadRequest},
		{name: "ownership mismatch", err: common.ErrOwnershipMismatch, wantStatus: http.StatusBadRequest},
		{name: "gateway failure", err: common.ErrOperationFailed, wantStatus: http.StatusBadGateway},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ts := newTestServer(t, &testDeps{provision: &fakeProvisionService{err: tt.err}})

			resp := doRequest(t, http.MethodPost, ts.URL+"/api/nfc/write", staffToken(t), map[string]any{"token": "abc", "member_id": 7})
			assert.Equal(t, tt.wantStatus, resp.StatusCode)
		})
	}
}

func TestNFCRead(t *testing.T) {
	d := &testDeps{gateway: &fakeGatewayService{readResult: nfc.ReadResult{
		Success:     true,
		CardID:      "SIM0001",
		Content:     "SIMULATED_TOKEN|1|2024-01-01T12:00:00",
		RecordCount: 1,
	}}}
	ts := newTestServer(t, d)

	resp := doRequest(t, http.MethodGet, ts.URL+"/api/nfc/read?timeout=5", staffToken(t), nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var body nfc.ReadResult
	decodeResponse(t, resp, &body)
	assert.True(t, body.Success)
	assert.Equal(t, 1, body.RecordCount)
}

func TestNFCRead_BadTimeout(t *testing.T) {
	ts := newTestServer(t, &testDeps{})

	resp := doRequest(t, http.MethodGet, ts.URL+"/api/nfc/read?timeout=soon", staffToken(t), nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestNFCStatus(t *testing.T) {
	d := &testDeps{gateway: &fakeGatewayService{status: nfc.Status{
		Connected:  true,
		ReaderType: "Simulated ACS ACR122U",
		Timeout:    30,
	}}}
	ts := newTestServer(t, d)

	resp := doRequest(t, http.MethodGet, ts.URL+"/api/nfc/status", staffToken(t), nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var body nfc.Status
	decodeResponse(t, resp, &body)
	assert.True(t, body.Connected)
	assert.Equal(t, "Simulated ACS ACR122U", body.ReaderType)
}

func TestNFCValidatePayload(t *testing.T) {
	d := &testDeps{tokens: &fakeTokenService{payloadResult: &services.PayloadResult{Valid: true, MemberID: 7}}}
	ts := newTestServer(t, d)

	resp := doRequest(t, http.MethodPost, ts.URL+"/api/nfc/validate", staffToken(t), map[string]string{"payload": "enc"})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var body services.PayloadResult
	decodeResponse(t, resp, &body)
	assert.True(t, body.Valid)
	assert.Equal(t, int64(7), body.MemberID)
}

func TestNFCValidatePayload_NotConfigured(t *testing.T) {
	ts := newTestServer(t, &testDeps{tokens: &fakeTokenService{payloadErr: common.ErrNoPayloadKey}})

	resp := doRequest(t, http.MethodPost, ts.URL+"/api/nfc/validate", staffToken(t), map[string]string{"payload": "enc"})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

// --- pass ---

func TestPassSign(t *testing.T) {
	archive := []byte("PK\x03\x04fake")
	d := &testDeps{pass: &fakePassService{issued: &services.IssuedPass{
		Archive:     archive,
		DownloadURL: "http://s3/get/passes/x.pkpass",
	}}}
	ts := newTestServer(t, d)

	resp := doRequest(t, http.MethodPost, ts.URL+"/api/pass/sign", staffToken(t), map[string]string{"message": "enc"})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "application/vnd.apple.pkpass", resp.Header.Get("Content-Type"))
	assert.Equal(t, "http://s3/get/passes/x.pkpass", resp.Header.Get("X-Pass-Download-Url"))

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Equal(t, archive, body)
}

func TestPassSign_MaterialMissing(t *testing.T) {
	ts := newTestServer(t, &testDeps{pass: &fakePassService{err: common.ErrConfigurationMissing}})

	resp := doRequest(t, http.MethodPost, ts.URL+"/api/pass/sign", staffToken(t), map[string]string{"message": "enc"})
	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
}

func TestPassCertificateStatus(t *testing.T) {
	d := &testDeps{pass: &fakePassService{status: map[string]passkit.FileStatus{
		"pass_cert.pem": {Exists: true, Size: 100},
		"pass_key.pem":  {Exists: true, Size: 200},
		"WWDR.pem":      {Exists: false},
	}}}
	ts := newTestServer(t, d)

	resp := doRequest(t, http.MethodGet, ts.URL+"/api/pass/certificates/status", staffToken(t), nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var body map[string]passkit.FileStatus
	decodeResponse(t, resp, &body)
	require.Len(t, body, 3)
	assert.True(t, body["pass_cert.pem"].Exists)
	assert.False(t, body["WWDR.pem"].Exists)
}

// --- misc ---

func TestHealth(t *testing.T) {
	ts := newTestServer(t, &testDeps{})

	resp := doRequest(t, http.MethodGet, ts.URL+"/health", "", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestNotFound(t *testing.T) {
	ts := newTestServer(t, &testDeps{})

	resp := doRequest(t, http.MethodGet, ts.URL+"/api/unknown", "", nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}
