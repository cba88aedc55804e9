package http_test

import (
	"bytes"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MrJamesThe3rd/heshbon/internal/analysis"
	"github.com/MrJamesThe3rd/heshbon/internal/export"
	heshbonHttp "github.com/MrJamesThe3rd/heshbon/internal/http"
	analysisHandler "github.com/MrJamesThe3rd/heshbon/internal/http/analysis"
	exportHandler "github.com/MrJamesThe3rd/heshbon/internal/http/export"
	rulesHandler "github.com/MrJamesThe3rd/heshbon/internal/http/rules"
	"github.com/MrJamesThe3rd/heshbon/internal/reconcile"
	"github.com/MrJamesThe3rd/heshbon/internal/rules"
	"github.com/MrJamesThe3rd/heshbon/internal/rules/store"
	"github.com/MrJamesThe3rd/heshbon/internal/transaction"
)

const cardCSV = `פירוט עסקאות לכרטיס המסתיים ב-1234
תאריך חיוב: 05/03/2024
תאריך עסקה,שם בית העסק,סכום חיוב
01/02/2024,שופרסל דיל,1500
`

const otherCardCSV = `פירוט עסקאות לכרטיס המסתיים ב-5678
תאריך חיוב: 05/03/2024
תאריך עסקה,שם בית העסק,סכום חיוב
10/02/2024,וולט,800
`

const bankCSV = `תאריך,תיאור,אסמכתא,בחובה,בזכות
06/03/2024,ישראכרט,1,"2,300.00",
`

type fixture struct {
	root   string
	server *httptest.Server
}

func setup(t *testing.T) fixture {
	t.Helper()

	root := t.TempDir()
	home := filepath.Join(root, "home")
	require.NoError(t, os.Mkdir(home, 0o755))
	require.NoError(t, os.Mkdir(filepath.Join(root, "empty"), 0o755))

	for name, content := range map[string]string{
		"card-1234.csv": cardCSV,
		"card-5678.csv": otherCardCSV,
		"bank.csv":      bankCSV,
	} {
		require.NoError(t, os.WriteFile(filepath.Join(home, name), []byte(content), 0o644))
	}

	locator := store.NewLocator(root, nil)
	analysisSvc := analysis.NewService(reconcile.DefaultOptions(), nil)

	router := heshbonHttp.New(
		analysisHandler.NewHandler(analysisSvc, locator),
		rulesHandler.NewHandler(locator),
		exportHandler.NewHandler(export.NewService(analysisSvc), locator),
		[]string{"http://ui.test"},
	)

	server := httptest.NewServer(router)
	t.Cleanup(server.Close)

	return fixture{root: root, server: server}
}

func (f fixture) do(t *testing.T, method, path, body string) *http.Response {
	t.Helper()

	req, err := http.NewRequest(method, f.server.URL+path, strings.NewReader(body))
	require.NoError(t, err)

	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })

	return resp
}

func decode[T any](t *testing.T, resp *http.Response) T {
	t.Helper()

	var v T
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&v))

	return v
}

func TestAnalysis_Directory(t *testing.T) {
	f := setup(t)

	resp := f.do(t, http.MethodPost, "/api/v1/analysis/directory", `{"path": "home"}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	res := decode[analysis.Result](t, resp)
	assert.Len(t, res.Transactions, 3)
	require.Len(t, res.Cycles, 2)
	assert.Equal(t, transaction.MatchGrouped, res.Cycles[0].BankMatchStatus)
	assert.Equal(t, transaction.MatchGrouped, res.Cycles[1].BankMatchStatus)
	assert.Equal(t, int64(-230000), res.Totals.Net)
}

func TestAnalysis_DirectoryErrors(t *testing.T) {
	type testCase struct {
		name       string
		body       string
		wantStatus int
	}

	tests := []testCase{
		{name: "Outside root", body: `{"path": "../etc"}`, wantStatus: http.StatusBadRequest},
		{name: "Missing directory", body: `{"path": "nope"}`, wantStatus: http.StatusNotFound},
		{name: "No statements", body: `{"path": "empty"}`, wantStatus: http.StatusUnprocessableEntity},
		{name: "Malformed body", body: `{"path":`, wantStatus: http.StatusBadRequest},
	}

	f := setup(t)

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := f.do(t, http.MethodPost, "/api/v1/analysis/directory", tt.body)
			assert.Equal(t, tt.wantStatus, resp.StatusCode)
		})
	}
}

func TestAnalysis_Upload(t *testing.T) {
	f := setup(t)

	var body bytes.Buffer

	mw := multipart.NewWriter(&body)

	for name, content := range map[string]string{"card.csv": cardCSV, "odd.csv": "x,y\n1,2\n"} {
		part, err := mw.CreateFormFile("files", name)
		require.NoError(t, err)
		_, err = part.Write([]byte(content))
		require.NoError(t, err)
	}

	require.NoError(t, mw.WriteField("workspace", "home"))
	require.NoError(t, mw.Close())

	resp, err := http.Post(f.server.URL+"/api/v1/analysis", mw.FormDataContentType(), &body)
	require.NoError(t, err)
	defer resp.Body.Close()

	require.Equal(t, http.StatusOK, resp.StatusCode)

	res := decode[analysis.Result](t, resp)
	assert.Len(t, res.Transactions, 1)
	require.Len(t, res.Pending, 1)
	assert.Equal(t, "odd.csv::", res.Pending[0].Key)
	assert.Equal(t, transaction.MatchNone, res.Cycles[0].BankMatchStatus)

	resp, err = http.Post(f.server.URL+"/api/v1/analysis", mw.FormDataContentType(), strings.NewReader(""))
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestRules_Lifecycle(t *testing.T) {
	f := setup(t)

	resp := f.do(t, http.MethodPost, "/api/v1/rules/category-rules?workspace=home",
		`{"category": "Food", "conditions": {"descriptionRegex": "שופרסל"}}`)
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	added := decode[rules.Rule](t, resp)
	assert.NotEmpty(t, added.ID)
	assert.Equal(t, rules.OriginUser, added.Origin)

	_, err := os.Stat(filepath.Join(f.root, "home", store.FileCategoryRules))
	require.NoError(t, err)

	resp = f.do(t, http.MethodPut, "/api/v1/rules/direction-overrides/some-id?workspace=home",
		`{"direction": "income", "note": "refund"}`)
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)

	resp = f.do(t, http.MethodGet, "/api/v1/rules?workspace=home", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)

	rs := decode[rules.RuleSet](t, resp)
	require.Len(t, rs.CategoryRules, 1)
	assert.Equal(t, "refund", rs.DirectionOverrides["some-id"].Note)

	resp = f.do(t, http.MethodPost, "/api/v1/analysis/directory", `{"path": "home"}`)
	res := decode[analysis.Result](t, resp)

	for _, tx := range res.Transactions {
		if tx.Description == "שופרסל דיל" {
			assert.Equal(t, "Food", tx.Category)
		}
	}

	resp = f.do(t, http.MethodDelete, "/api/v1/rules/category-rules/"+added.ID+"?workspace=home", "")
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)

	resp = f.do(t, http.MethodDelete, "/api/v1/rules/category-rules/"+added.ID+"?workspace=home", "")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestRules_Validation(t *testing.T) {
	type testCase struct {
		name       string
		method     string
		path       string
		body       string
		wantStatus int
	}

	tests := []testCase{
		{
			name:       "Rule without conditions",
			method:     http.MethodPost,
			path:       "/api/v1/rules/category-rules",
			body:       `{"category": "Food"}`,
			wantStatus: http.StatusBadRequest,
		},
		{
			name:       "Rule with bad regex",
			method:     http.MethodPost,
			path:       "/api/v1/rules/category-rules",
			body:       `{"category": "Food", "conditions": {"descriptionRegex": "("}}`,
			wantStatus: http.StatusBadRequest,
		},
		{
			name:       "Unknown direction",
			method:     http.MethodPut,
			path:       "/api/v1/rules/direction-overrides/x",
			body:       `{"direction": "sideways"}`,
			wantStatus: http.StatusBadRequest,
		},
		{
			name:       "Unknown sheet type",
			method:     http.MethodPut,
			path:       "/api/v1/rules/sheet-types",
			body:       `{"key": "a.csv::", "type": "pdf"}`,
			wantStatus: http.StatusBadRequest,
		},
		{
			name:       "Sheet type",
			method:     http.MethodPut,
			path:       "/api/v1/rules/sheet-types",
			body:       `{"key": "a.csv::", "type": "bank"}`,
			wantStatus: http.StatusNoContent,
		},
		{
			name:       "Move missing rule",
			method:     http.MethodPost,
			path:       "/api/v1/rules/category-rules/missing/move",
			body:       `{"to": 0}`,
			wantStatus: http.StatusNotFound,
		},
		{
			name:       "Workspace outside root",
			method:     http.MethodGet,
			path:       "/api/v1/rules?workspace=../x",
			wantStatus: http.StatusBadRequest,
		},
	}

	f := setup(t)

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := f.do(t, tt.method, tt.path, tt.body)
			assert.Equal(t, tt.wantStatus, resp.StatusCode)
		})
	}
}

func TestExport_TransactionsCSV(t *testing.T) {
	f := setup(t)

	resp := f.do(t, http.MethodPost, "/api/v1/export/transactions.csv", `{"path": "home"}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, resp.Header.Get("Content-Type"), "text/csv")

	var buf bytes.Buffer
	_, err := buf.ReadFrom(resp.Body)
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	assert.Len(t, lines, 4)
	assert.True(t, strings.HasPrefix(lines[0], "date,description,amount"))
}

func TestCORS_Preflight(t *testing.T) {
	f := setup(t)

	req, err := http.NewRequest(http.MethodOptions, f.server.URL+"/api/v1/rules", nil)
	require.NoError(t, err)
	req.Header.Set("Origin", "http://ui.test")
	req.Header.Set("Access-Control-Request-Method", http.MethodPut)

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, "http://ui.test", resp.Header.Get("Access-Control-Allow-Origin"))
}
