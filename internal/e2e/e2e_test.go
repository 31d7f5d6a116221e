package e2e

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/gin-gonic/gin"
	"github.com/glebarez/sqlite"
	"go.uber.org/fx"
	"gorm.io/gorm"

	"github.com/guardline/guardline/internal/account"
	"github.com/guardline/guardline/internal/clock"
	"github.com/guardline/guardline/internal/collabinvite"
	"github.com/guardline/guardline/internal/config"
	"github.com/guardline/guardline/internal/dependent"
	"github.com/guardline/guardline/internal/emergencycontact"
	"github.com/guardline/guardline/internal/invitation"
	"github.com/guardline/guardline/internal/migration"
	"github.com/guardline/guardline/internal/ratelimit"
	"github.com/guardline/guardline/internal/relationship"
	"github.com/guardline/guardline/internal/server"
	"github.com/guardline/guardline/internal/token"
	"github.com/guardline/guardline/pkg/log"
)

type testEnv struct {
	app     *fx.App
	db      *gorm.DB
	baseURL string
	httpSrv *httptest.Server
}

var env *testEnv

func TestMain(m *testing.M) {
	gin.SetMode(gin.TestMode)
	setDefaultEnv()

	var err error
	env, err = startEnv()
	if err != nil {
		fmt.Fprintln(os.Stderr, "failed to start test environment:", err)
		os.Exit(1)
	}

	code := m.Run()
	env.shutdown()
	os.Exit(code)
}

func startEnv() (*testEnv, error) {
	var (
		srv    *server.Server
		dbConn *gorm.DB
	)

	app := fx.New(
		fx.NopLogger,
		config.Module,
		log.Module,
		clock.Module,
		token.Module,
		ratelimit.Module,
		fx.Provide(func() (*gorm.DB, error) {
			dsn := fmt.Sprintf("file:memdb_e2e_%d?mode=memory&cache=shared", time.Now().UnixNano())
			return gorm.Open(sqlite.Open(dsn), &gorm.Config{})
		}),
		fx.Provide(func() *snowflake.Node {
			node, err := snowflake.NewNode(30)
			if err != nil {
				panic(err)
			}
			return node
		}),
		account.Module,
		dependent.Module,
		relationship.Module,
		emergencycontact.Module,
		invitation.Module,
		collabinvite.Module,
		migration.Module,
		fx.Provide(server.NewEngine),
		fx.Provide(server.NewServer),
		fx.Populate(&srv, &dbConn),
	)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := app.Start(ctx); err != nil {
		return nil, err
	}

	httpSrv := httptest.NewServer(srv.Engine())

	return &testEnv{
		app:     app,
		db:      dbConn,
		baseURL: httpSrv.URL,
		httpSrv: httpSrv,
	}, nil
}

func (e *testEnv) shutdown() {
	if e == nil {
		return
	}
	if e.httpSrv != nil {
		e.httpSrv.Close()
	}
	if e.app != nil {
		_ = e.app.Stop(context.Background())
	}
}

func setDefaultEnv() {
	setEnvIfEmpty("ENVIRONMENT", "test")
	setEnvIfEmpty("DB_TYPE", "sqlite")
	setEnvIfEmpty("LOG_LEVEL", "error")
	setEnvIfEmpty("SWEEP_INTERVAL_MINUTES", "0")
}

func setEnvIfEmpty(key, value string) {
	if strings.TrimSpace(os.Getenv(key)) != "" {
		return
	}
	_ = os.Setenv(key, value)
}

func resetDatabase(t *testing.T, dbConn *gorm.DB) {
	t.Helper()
	tables := []string{
		"emergency_contacts",
		"collaborator_invitations",
		"guardian_dependents",
		"qr_invitations",
		"pending_dependents",
		"sessions",
		"users",
	}
	for _, table := range tables {
		if err := dbConn.Exec("DELETE FROM " + table).Error; err != nil {
			t.Fatalf("clear %s: %v", table, err)
		}
	}
}

func doJSON(t *testing.T, method, rawURL string, payload any, bearer string) (*http.Response, []byte) {
	t.Helper()

	var body io.Reader
	if payload != nil {
		buf, err := json.Marshal(payload)
		if err != nil {
			t.Fatalf("marshal payload: %v", err)
		}
		body = bytes.NewReader(buf)
	}

	req, err := http.NewRequest(method, rawURL, body)
	if err != nil {
		t.Fatalf("build request: %v", err)
	}
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("%s %s: %v", method, rawURL, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("read response body: %v", err)
	}
	return resp, data
}

func decodeData(t *testing.T, body []byte, out any) {
	t.Helper()
	wrapper := struct {
		Data json.RawMessage `json:"data"`
	}{}
	if err := json.Unmarshal(body, &wrapper); err != nil {
		t.Fatalf("decode envelope: %v: %s", err, string(body))
	}
	if err := json.Unmarshal(wrapper.Data, out); err != nil {
		t.Fatalf("decode data: %v: %s", err, string(body))
	}
}

func registerAndLogin(t *testing.T, fullName, email, role string) string {
	t.Helper()

	registerReq := map[string]any{
		"full_name": fullName,
		"email":     email,
		"phone":     "+15550001111",
		"role":      role,
		"password":  "correct-horse",
	}
	resp, body := doJSON(t, http.MethodPost, env.baseURL+"/v1/auth/register", registerReq, "")
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("register %s failed: %d: %s", email, resp.StatusCode, string(body))
	}

	loginReq := map[string]any{"email": email, "password": "correct-horse"}
	resp, body = doJSON(t, http.MethodPost, env.baseURL+"/v1/auth/login", loginReq, "")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("login %s failed: %d: %s", email, resp.StatusCode, string(body))
	}

	login := struct {
		Token string `json:"token"`
	}{}
	decodeData(t, body, &login)
	if strings.TrimSpace(login.Token) == "" {
		t.Fatalf("expected session token after login")
	}
	return login.Token
}

func createStubWithInvitation(t *testing.T, guardianToken, name, relation string, age int) (string, string) {
	t.Helper()

	stubReq := map[string]any{"name": name, "relation": relation, "age": age}
	resp, body := doJSON(t, http.MethodPost, env.baseURL+"/v1/dependents", stubReq, guardianToken)
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("create dependent failed: %d: %s", resp.StatusCode, string(body))
	}
	stub := struct {
		ID string `json:"id"`
	}{}
	decodeData(t, body, &stub)

	resp, body = doJSON(t, http.MethodPost, env.baseURL+"/v1/dependents/"+stub.ID+"/invitations", nil, guardianToken)
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("generate invitation failed: %d: %s", resp.StatusCode, string(body))
	}
	inv := struct {
		Token string `json:"token"`
	}{}
	decodeData(t, body, &inv)
	if inv.Token == "" {
		t.Fatalf("expected invitation token")
	}
	return stub.ID, inv.Token
}

func TestE2E_HealthCheck(t *testing.T) {
	resp, err := http.Get(env.baseURL + "/health")
	if err != nil {
		t.Fatalf("health request failed: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected status 200, got %d", resp.StatusCode)
	}
}

func TestE2E_QRLinkFlow(t *testing.T) {
	resetDatabase(t, env.db)

	guardianToken := registerAndLogin(t, "Dana Whitfield", "dana.e2e@example.com", "guardian")
	childToken := registerAndLogin(t, "Maya Whitfield", "maya.e2e@example.com", "child")

	_, inviteToken := createStubWithInvitation(t, guardianToken, "Maya", "daughter", 9)

	scanReq := map[string]any{"token": inviteToken}
	resp, body := doJSON(t, http.MethodPost, env.baseURL+"/v1/invitations/scan", scanReq, childToken)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("scan failed: %d: %s", resp.StatusCode, string(body))
	}
	scan := struct {
		InvitationID string `json:"invitation_id"`
		Status       string `json:"status"`
		GuardianName string `json:"guardian_name"`
	}{}
	decodeData(t, body, &scan)
	if scan.Status != "scanned" {
		t.Fatalf("expected status scanned, got %s", scan.Status)
	}
	if scan.GuardianName != "Dana Whitfield" {
		t.Fatalf("expected guardian name on scan result, got %q", scan.GuardianName)
	}

	resp, body = doJSON(t, http.MethodGet, env.baseURL+"/v1/invitations/pending", nil, guardianToken)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("list pending failed: %d: %s", resp.StatusCode, string(body))
	}
	pending := []struct {
		InvitationID  string `json:"invitation_id"`
		ScannedByName string `json:"scanned_by_name"`
	}{}
	decodeData(t, body, &pending)
	if len(pending) != 1 || pending[0].InvitationID != scan.InvitationID {
		t.Fatalf("expected scanned invitation in approval inbox: %s", string(body))
	}
	if pending[0].ScannedByName != "Maya Whitfield" {
		t.Fatalf("expected scanner name in inbox, got %q", pending[0].ScannedByName)
	}

	resp, body = doJSON(t, http.MethodPost, env.baseURL+"/v1/invitations/"+scan.InvitationID+"/approve", nil, guardianToken)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("approve failed: %d: %s", resp.StatusCode, string(body))
	}
	approve := struct {
		Relationship struct {
			ID       string `json:"id"`
			LinkRole string `json:"link_role"`
			Kind     string `json:"kind"`
		} `json:"relationship"`
		AlreadyLinked bool `json:"already_linked"`
	}{}
	decodeData(t, body, &approve)
	if approve.AlreadyLinked {
		t.Fatalf("first approval must not report already_linked")
	}
	if approve.Relationship.LinkRole != "primary" || approve.Relationship.Kind != "daughter" {
		t.Fatalf("unexpected relationship: %+v", approve.Relationship)
	}

	// Approval is idempotent over retries.
	resp, body = doJSON(t, http.MethodPost, env.baseURL+"/v1/invitations/"+scan.InvitationID+"/approve", nil, guardianToken)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("approve retry failed: %d: %s", resp.StatusCode, string(body))
	}
	retry := struct {
		Relationship struct {
			ID string `json:"id"`
		} `json:"relationship"`
		AlreadyLinked bool `json:"already_linked"`
	}{}
	decodeData(t, body, &retry)
	if !retry.AlreadyLinked || retry.Relationship.ID != approve.Relationship.ID {
		t.Fatalf("expected idempotent approval: %s", string(body))
	}

	resp, body = doJSON(t, http.MethodGet, env.baseURL+"/v1/relationships", nil, guardianToken)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("list relationships failed: %d: %s", resp.StatusCode, string(body))
	}
	links := []struct {
		DependentName string `json:"dependent_name"`
		LinkRole      string `json:"link_role"`
	}{}
	decodeData(t, body, &links)
	if len(links) != 1 || links[0].DependentName != "Maya Whitfield" || links[0].LinkRole != "primary" {
		t.Fatalf("unexpected guardian link list: %s", string(body))
	}

	// The dependent gets an auto-managed emergency contact for the guardian.
	resp, body = doJSON(t, http.MethodGet, env.baseURL+"/v1/emergency-contacts", nil, childToken)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("list contacts failed: %d: %s", resp.StatusCode, string(body))
	}
	contacts := []struct {
		Name   string `json:"name"`
		Source string `json:"source"`
	}{}
	decodeData(t, body, &contacts)
	if len(contacts) != 1 || contacts[0].Name != "Dana Whitfield" || contacts[0].Source != "auto_guardian" {
		t.Fatalf("expected auto guardian contact: %s", string(body))
	}
}

func TestE2E_ScanGuards(t *testing.T) {
	resetDatabase(t, env.db)

	guardianToken := registerAndLogin(t, "Omar Reyes", "omar.e2e@example.com", "guardian")
	firstToken := registerAndLogin(t, "Lena Reyes", "lena.e2e@example.com", "child")
	secondToken := registerAndLogin(t, "Theo Reyes", "theo.e2e@example.com", "child")

	_, inviteToken := createStubWithInvitation(t, guardianToken, "Lena", "daughter", 11)

	// A guardian cannot claim its own QR code.
	resp, body := doJSON(t, http.MethodPost, env.baseURL+"/v1/invitations/scan", map[string]any{"token": inviteToken}, guardianToken)
	if resp.StatusCode != http.StatusForbidden {
		t.Fatalf("expected 403 for self scan, got %d: %s", resp.StatusCode, string(body))
	}

	resp, body = doJSON(t, http.MethodPost, env.baseURL+"/v1/invitations/scan", map[string]any{"token": inviteToken}, firstToken)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("first scan failed: %d: %s", resp.StatusCode, string(body))
	}

	// The token binds to the first scanner.
	resp, body = doJSON(t, http.MethodPost, env.baseURL+"/v1/invitations/scan", map[string]any{"token": inviteToken}, secondToken)
	if resp.StatusCode != http.StatusConflict {
		t.Fatalf("expected 409 for second scanner, got %d: %s", resp.StatusCode, string(body))
	}

	resp, body = doJSON(t, http.MethodPost, env.baseURL+"/v1/invitations/scan", map[string]any{"token": "no-such-token"}, firstToken)
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("expected 404 for unknown token, got %d: %s", resp.StatusCode, string(body))
	}
}

func TestE2E_RoleEnforcement(t *testing.T) {
	resetDatabase(t, env.db)

	childToken := registerAndLogin(t, "Ivy Park", "ivy.e2e@example.com", "child")

	resp, body := doJSON(t, http.MethodPost, env.baseURL+"/v1/dependents", map[string]any{
		"name": "X", "relation": "son", "age": 7,
	}, childToken)
	if resp.StatusCode != http.StatusForbidden {
		t.Fatalf("expected 403 for child creating dependents, got %d: %s", resp.StatusCode, string(body))
	}

	resp, body = doJSON(t, http.MethodGet, env.baseURL+"/v1/dependents", nil, "")
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("expected 401 without token, got %d: %s", resp.StatusCode, string(body))
	}
}

func TestE2E_CollaboratorFlow(t *testing.T) {
	resetDatabase(t, env.db)

	primaryToken := registerAndLogin(t, "Grace Lin", "grace.e2e@example.com", "guardian")
	collabToken := registerAndLogin(t, "Sam Lin", "sam.e2e@example.com", "guardian")
	childToken := registerAndLogin(t, "Nora Lin", "nora.e2e@example.com", "child")

	_, inviteToken := createStubWithInvitation(t, primaryToken, "Nora", "daughter", 8)

	resp, body := doJSON(t, http.MethodPost, env.baseURL+"/v1/invitations/scan", map[string]any{"token": inviteToken}, childToken)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("scan failed: %d: %s", resp.StatusCode, string(body))
	}
	scan := struct {
		InvitationID string `json:"invitation_id"`
	}{}
	decodeData(t, body, &scan)

	resp, body = doJSON(t, http.MethodPost, env.baseURL+"/v1/invitations/"+scan.InvitationID+"/approve", nil, primaryToken)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("approve failed: %d: %s", resp.StatusCode, string(body))
	}
	approve := struct {
		Relationship struct {
			DependentID string `json:"dependent_id"`
		} `json:"relationship"`
	}{}
	decodeData(t, body, &approve)

	resp, body = doJSON(t, http.MethodPost, env.baseURL+"/v1/collaborator-invitations", map[string]any{
		"dependent_id": approve.Relationship.DependentID,
	}, primaryToken)
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("create collaborator invitation failed: %d: %s", resp.StatusCode, string(body))
	}
	collabInvite := struct {
		Code string `json:"code"`
	}{}
	decodeData(t, body, &collabInvite)
	if collabInvite.Code == "" {
		t.Fatalf("expected collaborator code")
	}

	// Only the primary guardian may issue codes.
	resp, body = doJSON(t, http.MethodPost, env.baseURL+"/v1/collaborator-invitations", map[string]any{
		"dependent_id": approve.Relationship.DependentID,
	}, collabToken)
	if resp.StatusCode != http.StatusForbidden && resp.StatusCode != http.StatusNotFound {
		t.Fatalf("expected non-primary to be rejected, got %d: %s", resp.StatusCode, string(body))
	}

	resp, body = doJSON(t, http.MethodPost, env.baseURL+"/v1/collaborator-invitations/accept", map[string]any{
		"code": collabInvite.Code,
	}, collabToken)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("accept collaborator invitation failed: %d: %s", resp.StatusCode, string(body))
	}
	rel := struct {
		LinkRole string `json:"link_role"`
	}{}
	decodeData(t, body, &rel)
	if rel.LinkRole != "collaborator" {
		t.Fatalf("expected collaborator link role, got %q", rel.LinkRole)
	}

	// The dependent now sees both guardians.
	resp, body = doJSON(t, http.MethodGet, env.baseURL+"/v1/relationships", nil, childToken)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("list relationships failed: %d: %s", resp.StatusCode, string(body))
	}
	guardians := []struct {
		GuardianName string `json:"guardian_name"`
		LinkRole     string `json:"link_role"`
	}{}
	decodeData(t, body, &guardians)
	if len(guardians) != 2 {
		t.Fatalf("expected two linked guardians: %s", string(body))
	}
}
