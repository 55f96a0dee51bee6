// Package integration provides end-to-end integration tests for the ledger
// API. Tests run against both PostgreSQL and MySQL databases and are skipped
// when the database is not available.
package integration

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"regexp"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/allisson/ledger/cmd/app/commands"
	accountDTO "github.com/allisson/ledger/internal/account/http/dto"
	"github.com/allisson/ledger/internal/app"
	clientDTO "github.com/allisson/ledger/internal/client/http/dto"
	"github.com/allisson/ledger/internal/config"
	"github.com/allisson/ledger/internal/testutil"
)

var (
	testEncryptionKey = strings.Repeat("a", 64)
	nextEncryptionKey = strings.Repeat("b", 64)
	hexTokenPattern   = regexp.MustCompile(`^[0-9a-f]{64}$`)
)

// testContext holds all dependencies and state for integration testing.
type testContext struct {
	container *app.Container
	cfg       *config.Config
	db        *sql.DB
	server    *httptest.Server
	dbDriver  string
}

func newTestConfig(driver, dsn string) *config.Config {
	return &config.Config{
		LogLevel:              "error",
		DBDriver:              driver,
		DBConnectionString:    dsn,
		DBMaxOpenConnections:  5,
		DBMaxIdleConnections:  5,
		DBConnMaxLifetime:     time.Minute,
		FieldEncryptionKey:    testEncryptionKey,
		FieldEncryptionConfig: "clients:email,phone_number,notes;accounts:credit_limit,notes",
		CryptoAuditEnabled:    true,
		RateLimitEnabled:      false,
		MetricsEnabled:        false,
		MetricsNamespace:      "ledger",
	}
}

// setupTestContext connects to the requested database, runs migrations, and
// starts an in-process API server. Skips the test when the database is not
// reachable.
func setupTestContext(t *testing.T, driver string) *testContext {
	t.Helper()
	gin.SetMode(gin.TestMode)

	var db *sql.DB
	var dsn string

	switch driver {
	case "postgres":
		testutil.SkipIfNoPostgres(t)
		db = testutil.SetupPostgresDB(t)
		dsn = testutil.GetPostgresTestDSN()
	case "mysql":
		testutil.SkipIfNoMySQL(t)
		db = testutil.SetupMySQLDB(t)
		dsn = testutil.GetMySQLTestDSN()
	default:
		t.Fatalf("unsupported test driver: %s", driver)
	}

	cfg := newTestConfig(driver, dsn)
	container := app.NewContainer(cfg)

	server, err := container.HTTPServer()
	require.NoError(t, err, "failed to initialize HTTP server")

	return &testContext{
		container: container,
		cfg:       cfg,
		db:        db,
		server:    httptest.NewServer(server.GetHandler()),
		dbDriver:  driver,
	}
}

func (tc *testContext) teardown(t *testing.T) {
	t.Helper()
	tc.server.Close()
	require.NoError(t, tc.container.Shutdown(context.Background()))
	testutil.TeardownDB(t, tc.db)
}

// request performs an HTTP request against the test server and returns the
// response status and body.
func (tc *testContext) request(t *testing.T, method, path string, body any) (int, []byte) {
	t.Helper()

	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequest(method, tc.server.URL+path, reader)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")

	resp, err := tc.server.Client().Do(req)
	require.NoError(t, err)
	defer func() {
		_ = resp.Body.Close()
	}()

	data, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp.StatusCode, data
}

// placeholder returns the positional parameter syntax for the test driver.
func (tc *testContext) placeholder(n int) string {
	if tc.dbDriver == "postgres" {
		return fmt.Sprintf("$%d", n)
	}
	return "?"
}

func (tc *testContext) createClient(t *testing.T, req clientDTO.CreateClientRequest) clientDTO.ClientResponse {
	t.Helper()

	status, body := tc.request(t, http.MethodPost, "/v1/clients", req)
	require.Equal(t, http.StatusCreated, status, "unexpected response: %s", body)

	var client clientDTO.ClientResponse
	require.NoError(t, json.Unmarshal(body, &client))
	return client
}

func stringPtr(s string) *string {
	return &s
}

func forEachDriver(t *testing.T, fn func(t *testing.T, tc *testContext)) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	for _, driver := range []string{"postgres", "mysql"} {
		t.Run(driver, func(t *testing.T) {
			tc := setupTestContext(t, driver)
			defer tc.teardown(t)
			fn(t, tc)
		})
	}
}

func TestClientLifecycle(t *testing.T) {
	forEachDriver(t, func(t *testing.T, tc *testContext) {
		created := tc.createClient(t, clientDTO.CreateClientRequest{
			Name:        "Acme Corp",
			Email:       "billing@example.com",
			PhoneNumber: stringPtr("555-0100"),
			Notes:       stringPtr("net 30 terms"),
		})
		assert.Equal(t, "billing@example.com", created.Email)
		require.NotNil(t, created.PhoneNumber)
		assert.Equal(t, "555-0100", *created.PhoneNumber)

		// The stored row holds ciphertext, never the plaintext values.
		var storedEmail, storedHash string
		var storedPhone, storedNotes sql.NullString
		query := fmt.Sprintf(
			"SELECT email, email_hash, phone_number, notes FROM clients WHERE id = %s",
			tc.placeholder(1),
		)
		err := tc.db.QueryRow(query, created.ID).Scan(&storedEmail, &storedHash, &storedPhone, &storedNotes)
		require.NoError(t, err)

		assert.True(t, strings.HasPrefix(storedEmail, "enc:"), "email stored as %q", storedEmail)
		assert.NotContains(t, storedEmail, "billing@example.com")
		assert.True(t, hexTokenPattern.MatchString(strings.TrimSpace(storedHash)), "hash stored as %q", storedHash)
		require.True(t, storedPhone.Valid)
		assert.True(t, strings.HasPrefix(storedPhone.String, "enc:"))
		require.True(t, storedNotes.Valid)
		assert.True(t, strings.HasPrefix(storedNotes.String, "enc:"))

		// Reads return plaintext.
		status, body := tc.request(t, http.MethodGet, "/v1/clients/"+created.ID, nil)
		require.Equal(t, http.StatusOK, status)
		var fetched clientDTO.ClientResponse
		require.NoError(t, json.Unmarshal(body, &fetched))
		assert.Equal(t, "billing@example.com", fetched.Email)

		// Email lookup goes through the deterministic hash and is
		// case-insensitive.
		status, body = tc.request(t, http.MethodGet, "/v1/clients?email=BILLING@example.com", nil)
		require.Equal(t, http.StatusOK, status)
		var found clientDTO.ClientResponse
		require.NoError(t, json.Unmarshal(body, &found))
		assert.Equal(t, created.ID, found.ID)

		// Update re-encrypts and recomputes the lookup hash.
		status, body = tc.request(t, http.MethodPut, "/v1/clients/"+created.ID, clientDTO.UpdateClientRequest{
			Name:  "Acme Corp",
			Email: "accounts@example.com",
		})
		require.Equal(t, http.StatusOK, status, "unexpected response: %s", body)

		status, _ = tc.request(t, http.MethodGet, "/v1/clients?email=billing@example.com", nil)
		assert.Equal(t, http.StatusNotFound, status)

		status, body = tc.request(t, http.MethodGet, "/v1/clients?email=accounts@example.com", nil)
		require.Equal(t, http.StatusOK, status)
		require.NoError(t, json.Unmarshal(body, &found))
		assert.Equal(t, created.ID, found.ID)

		// Duplicate email is a conflict.
		status, _ = tc.request(t, http.MethodPost, "/v1/clients", clientDTO.CreateClientRequest{
			Name:  "Copycat",
			Email: "accounts@example.com",
		})
		assert.Equal(t, http.StatusConflict, status)

		// List pagination.
		status, body = tc.request(t, http.MethodGet, "/v1/clients?offset=0&limit=10", nil)
		require.Equal(t, http.StatusOK, status)
		var list clientDTO.ListClientsResponse
		require.NoError(t, json.Unmarshal(body, &list))
		assert.Len(t, list.Clients, 1)

		// Delete.
		status, _ = tc.request(t, http.MethodDelete, "/v1/clients/"+created.ID, nil)
		require.Equal(t, http.StatusNoContent, status)

		status, _ = tc.request(t, http.MethodGet, "/v1/clients/"+created.ID, nil)
		assert.Equal(t, http.StatusNotFound, status)
	})
}

func TestAccountLifecycle(t *testing.T) {
	forEachDriver(t, func(t *testing.T, tc *testContext) {
		owner := tc.createClient(t, clientDTO.CreateClientRequest{
			Name:  "Acme Corp",
			Email: "owner@example.com",
		})

		status, body := tc.request(t, http.MethodPost, "/v1/accounts", accountDTO.CreateAccountRequest{
			ClientID:    owner.ID,
			Name:        "Operating",
			Currency:    "usd",
			CreditLimit: stringPtr("2500.00"),
		})
		require.Equal(t, http.StatusCreated, status, "unexpected response: %s", body)

		var account accountDTO.AccountResponse
		require.NoError(t, json.Unmarshal(body, &account))
		assert.Equal(t, "USD", account.Currency)
		require.NotNil(t, account.CreditLimit)
		assert.Equal(t, "2500.00", *account.CreditLimit)

		// The credit limit is stored encrypted, the currency is not configured
		// for encryption and stays readable.
		var storedCurrency string
		var storedLimit sql.NullString
		query := fmt.Sprintf(
			"SELECT currency, credit_limit FROM accounts WHERE id = %s",
			tc.placeholder(1),
		)
		err := tc.db.QueryRow(query, account.ID).Scan(&storedCurrency, &storedLimit)
		require.NoError(t, err)
		assert.Equal(t, "USD", strings.TrimSpace(storedCurrency))
		require.True(t, storedLimit.Valid)
		assert.True(t, strings.HasPrefix(storedLimit.String, "enc:"))
		assert.NotContains(t, storedLimit.String, "2500.00")

		// List by owner.
		status, body = tc.request(t, http.MethodGet, "/v1/accounts?client_id="+owner.ID, nil)
		require.Equal(t, http.StatusOK, status)
		var list accountDTO.ListAccountsResponse
		require.NoError(t, json.Unmarshal(body, &list))
		require.Len(t, list.Accounts, 1)
		assert.Equal(t, account.ID, list.Accounts[0].ID)

		// Update.
		status, body = tc.request(t, http.MethodPut, "/v1/accounts/"+account.ID, accountDTO.UpdateAccountRequest{
			Name:        "Operating",
			Currency:    "eur",
			CreditLimit: stringPtr("5000.00"),
		})
		require.Equal(t, http.StatusOK, status, "unexpected response: %s", body)
		var updated accountDTO.AccountResponse
		require.NoError(t, json.Unmarshal(body, &updated))
		assert.Equal(t, "EUR", updated.Currency)
		require.NotNil(t, updated.CreditLimit)
		assert.Equal(t, "5000.00", *updated.CreditLimit)

		// Creating an account for an unknown client fails.
		status, _ = tc.request(t, http.MethodPost, "/v1/accounts", accountDTO.CreateAccountRequest{
			ClientID: uuid.NewString(),
			Name:     "Orphan",
			Currency: "usd",
		})
		assert.Equal(t, http.StatusNotFound, status)

		// Delete.
		status, _ = tc.request(t, http.MethodDelete, "/v1/accounts/"+account.ID, nil)
		require.Equal(t, http.StatusNoContent, status)

		status, _ = tc.request(t, http.MethodGet, "/v1/accounts/"+account.ID, nil)
		assert.Equal(t, http.StatusNotFound, status)
	})
}

func TestLegacyPlaintextRead(t *testing.T) {
	forEachDriver(t, func(t *testing.T, tc *testContext) {
		// A row written before encryption was enabled holds plaintext values.
		id := uuid.Must(uuid.NewV7()).String()
		hash := strings.Repeat("0", 64)
		now := time.Now().UTC()

		query := fmt.Sprintf(
			"INSERT INTO clients (id, name, email, email_hash, created_at, updated_at) VALUES (%s, %s, %s, %s, %s, %s)",
			tc.placeholder(1), tc.placeholder(2), tc.placeholder(3),
			tc.placeholder(4), tc.placeholder(5), tc.placeholder(6),
		)
		_, err := tc.db.Exec(query, id, "Legacy Co", "legacy@example.com", hash, now, now)
		require.NoError(t, err)

		status, body := tc.request(t, http.MethodGet, "/v1/clients/"+id, nil)
		require.Equal(t, http.StatusOK, status, "unexpected response: %s", body)

		var client clientDTO.ClientResponse
		require.NoError(t, json.Unmarshal(body, &client))
		assert.Equal(t, "legacy@example.com", client.Email)
	})
}

func TestFieldKeyRotation(t *testing.T) {
	forEachDriver(t, func(t *testing.T, tc *testContext) {
		first := tc.createClient(t, clientDTO.CreateClientRequest{
			Name:  "First Corp",
			Email: "first@example.com",
			Notes: stringPtr("rotate me"),
		})
		second := tc.createClient(t, clientDTO.CreateClientRequest{
			Name:  "Second Corp",
			Email: "second@example.com",
		})

		rawStore, err := tc.container.RawStore()
		require.NoError(t, err)
		txManager, err := tc.container.TxManager()
		require.NoError(t, err)
		rotator, err := tc.container.Rotator()
		require.NoError(t, err)
		fieldConfig, err := tc.container.FieldConfig()
		require.NoError(t, err)

		logger := slog.New(slog.NewTextHandler(io.Discard, nil))
		err = commands.RunRotateFieldKey(
			context.Background(),
			rawStore, txManager, rotator, fieldConfig, logger,
			testEncryptionKey, nextEncryptionKey, 1,
		)
		require.NoError(t, err)

		// The old key no longer decrypts, so the API backed by it reports an
		// opaque internal error.
		status, body := tc.request(t, http.MethodGet, "/v1/clients/"+first.ID, nil)
		assert.Equal(t, http.StatusInternalServerError, status)
		assert.NotContains(t, string(body), "first@example.com")

		// A server holding the new key reads everything back.
		rotatedCfg := newTestConfig(tc.dbDriver, tc.cfg.DBConnectionString)
		rotatedCfg.FieldEncryptionKey = nextEncryptionKey
		rotatedContainer := app.NewContainer(rotatedCfg)
		defer func() {
			require.NoError(t, rotatedContainer.Shutdown(context.Background()))
		}()

		rotatedServer, err := rotatedContainer.HTTPServer()
		require.NoError(t, err)
		rotatedAPI := httptest.NewServer(rotatedServer.GetHandler())
		defer rotatedAPI.Close()

		for _, expected := range []clientDTO.ClientResponse{first, second} {
			resp, err := http.Get(rotatedAPI.URL + "/v1/clients/" + expected.ID)
			require.NoError(t, err)
			data, err := io.ReadAll(resp.Body)
			require.NoError(t, err)
			require.NoError(t, resp.Body.Close())
			require.Equal(t, http.StatusOK, resp.StatusCode, "unexpected response: %s", data)

			var client clientDTO.ClientResponse
			require.NoError(t, json.Unmarshal(data, &client))
			assert.Equal(t, expected.Email, client.Email)
			assert.Equal(t, expected.Notes, client.Notes)
		}
	})
}
