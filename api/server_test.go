package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/telnet2/go-practice/modsh"
)

type mapUnit struct {
	name     string
	bindings map[string]any
}

func (u *mapUnit) Name() string { return u.name }

func (u *mapUnit) Names() []string {
	var names []string
	for n := range u.bindings {
		names = append(names, n)
	}
	return names
}

func (u *mapUnit) Lookup(name string) (any, bool) {
	v, ok := u.bindings[name]
	return v, ok
}

func (u *mapUnit) Bind(name string, v any) { u.bindings[name] = v }
func (u *mapUnit) Unbind(name string)      { delete(u.bindings, name) }
func (u *mapUnit) String() string          { return fmt.Sprintf("<unit %q>", u.name) }

type mapLoader map[string]*mapUnit

func (l mapLoader) Resolve(name, relativeTo string) (string, error) {
	return strings.TrimPrefix(name, "/"), nil
}

func (l mapLoader) Load(ctx context.Context, name string) (modsh.Unit, error) {
	u, ok := l[name]
	if !ok {
		return nil, fmt.Errorf("%s: %w", name, modsh.ErrNotFound)
	}
	return u, nil
}

// echoEvaluator answers "=> code", waiting for more lines while braces are
// open.
type echoEvaluator struct{}

func (echoEvaluator) Eval(ctx context.Context, u modsh.Unit, code string) (any, error) {
	if strings.Count(code, "{") > strings.Count(code, "}") {
		return nil, modsh.ErrIncomplete
	}
	if code == "fail" {
		return nil, fmt.Errorf("undefined: fail")
	}
	return "=> " + strings.ReplaceAll(code, "\n", " "), nil
}

func (echoEvaluator) Document(ctx context.Context, w io.Writer, v any) error {
	_, err := fmt.Fprintf(w, "doc %v\n", v)
	return err
}

func testFactory(stdout, stderr io.Writer) (*modsh.Console, error) {
	loader := mapLoader{
		"main": {name: "main", bindings: map[string]any{"x": 1}},
		"fmt":  {name: "fmt", bindings: map[string]any{"Println": 1}},
	}
	return modsh.NewConsole(modsh.Options{
		Loader:  loader,
		Eval:    echoEvaluator{},
		Entry:   "main",
		Stdin:   strings.NewReader(""),
		Stdout:  stdout,
		Stderr:  stderr,
		Width:   func() int { return 80 },
		NoColor: true,
	})
}

func createSession(t *testing.T, url, unit string) CreateSessionResponse {
	t.Helper()
	var body io.Reader
	if unit != "" {
		data, _ := json.Marshal(CreateSessionRequest{Unit: unit})
		body = bytes.NewReader(data)
	}
	resp, err := http.Post(url+"/api/v1/session/create", "application/json", body)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	var created CreateSessionResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&created))
	return created
}

func TestServer_SessionLifecycle(t *testing.T) {
	srv := httptest.NewServer(NewServer(testFactory, Config{}))
	defer srv.Close()

	created := createSession(t, srv.URL, "")
	assert.NotEmpty(t, created.Session.ID)
	assert.Equal(t, "main", created.Session.Location)
	require.NotNil(t, created.Banner)
	assert.Contains(t, created.Banner.Output[0], `Starting a debugging session in unit "main"`)

	other := createSession(t, srv.URL, "fmt")
	assert.Equal(t, "fmt", other.Session.Location)

	resp, err := http.Post(srv.URL+"/api/v1/session/list", "application/json", nil)
	require.NoError(t, err)
	var list ListSessionsResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&list))
	resp.Body.Close()
	require.Len(t, list.Sessions, 2)
	assert.Equal(t, created.Session.ID, list.Sessions[0].ID)

	body, _ := json.Marshal(RemoveSessionRequest{SessionID: created.Session.ID})
	resp, err = http.Post(srv.URL+"/api/v1/session/remove", "application/json", bytes.NewReader(body))
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp, err = http.Post(srv.URL+"/api/v1/session/remove", "application/json", bytes.NewReader(body))
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestServer_CreateInMissingUnit(t *testing.T) {
	srv := httptest.NewServer(NewServer(testFactory, Config{}))
	defer srv.Close()

	data, _ := json.Marshal(CreateSessionRequest{Unit: "nowhere"})
	resp, err := http.Post(srv.URL+"/api/v1/session/create", "application/json", bytes.NewReader(data))
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)
	var errResp ErrorResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&errResp))
	assert.Contains(t, errResp.Error, "unit not found")
}

func TestServer_Health(t *testing.T) {
	srv := httptest.NewServer(NewServer(testFactory, Config{}))
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/health")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestServer_REPL(t *testing.T) {
	srv := httptest.NewServer(NewServer(testFactory, Config{}))
	defer srv.Close()
	created := createSession(t, srv.URL, "")

	wsURL := "ws" + strings.TrimPrefix(srv.URL, "http") + "/api/v1/session/repl"
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	require.NoError(t, err)
	defer conn.Close()

	id := 0
	execute := func(line string) (*ExecuteResult, *JSONRPCError) {
		id++
		params, _ := json.Marshal(ExecuteParams{SessionID: created.Session.ID, Line: line})
		require.NoError(t, conn.WriteJSON(JSONRPCRequest{JSONRPC: "2.0", Method: MethodExecute, Params: params, ID: id}))

		var resp struct {
			Result *ExecuteResult `json:"result"`
			Error  *JSONRPCError  `json:"error"`
			ID     int            `json:"id"`
		}
		require.NoError(t, conn.ReadJSON(&resp))
		assert.Equal(t, id, resp.ID)
		return resp.Result, resp.Error
	}

	res, rpcErr := execute("cd fmt")
	require.Nil(t, rpcErr)
	assert.Equal(t, "fmt", res.Location)
	assert.Empty(t, res.Output)

	res, _ = execute("pwd")
	assert.Equal(t, []string{`unit "fmt"`}, res.Output)

	res, _ = execute("pwd extra")
	assert.Equal(t, []string{"Too many arguments for pwd.", "Usage: pwd"}, res.Errors)

	res, _ = execute("frobnicate x y")
	assert.Equal(t, []string{"=> frobnicate x y"}, res.Output)
	assert.Empty(t, res.Errors)

	res, _ = execute("if x {")
	assert.True(t, res.More)
	res, _ = execute("cd main")
	assert.True(t, res.More)
	assert.Equal(t, "fmt", res.Location)
	res, _ = execute("}")
	assert.False(t, res.More)
	assert.Equal(t, []string{"=> if x { cd main }"}, res.Output)

	res, _ = execute("fail")
	assert.Equal(t, []string{"undefined: fail"}, res.Errors)

	_, rpcErr = execute("")
	assert.Nil(t, rpcErr)
}

func TestHandleJSONRPC_Errors(t *testing.T) {
	sm := NewSessionManager(testFactory)
	ctx := context.Background()

	resp := HandleJSONRPC(ctx, sm, &JSONRPCRequest{JSONRPC: "1.0", Method: MethodExecute, ID: 1})
	require.NotNil(t, resp.Error)
	assert.Equal(t, InvalidRequest, resp.Error.Code)

	resp = HandleJSONRPC(ctx, sm, &JSONRPCRequest{JSONRPC: "2.0", Method: "shell.execute", ID: 2})
	require.NotNil(t, resp.Error)
	assert.Equal(t, MethodNotFound, resp.Error.Code)

	resp = HandleJSONRPC(ctx, sm, &JSONRPCRequest{JSONRPC: "2.0", Method: MethodExecute, Params: json.RawMessage(`{"line":"pwd"}`), ID: 3})
	require.NotNil(t, resp.Error)
	assert.Equal(t, InvalidParams, resp.Error.Code)

	resp = HandleJSONRPC(ctx, sm, &JSONRPCRequest{JSONRPC: "2.0", Method: MethodExecute, Params: json.RawMessage(`{"session_id":"nope","line":"pwd"}`), ID: 4})
	require.NotNil(t, resp.Error)
	assert.Equal(t, "Invalid session", resp.Error.Message)

	resp = HandleJSONRPC(ctx, sm, &JSONRPCRequest{JSONRPC: "2.0", Method: MethodExecute, Params: json.RawMessage(`[`), ID: 5})
	require.NotNil(t, resp.Error)
	assert.Equal(t, InvalidParams, resp.Error.Code)
}

func TestSessionManager_RemoveClosesConsole(t *testing.T) {
	sm := NewSessionManager(testFactory)
	ctx := context.Background()

	s, _, err := sm.CreateSession(ctx, "")
	require.NoError(t, err)
	_, bound := s.Console.Navigator().Unit().Lookup(modsh.HelperName)
	require.True(t, bound)

	require.NoError(t, sm.RemoveSession(s.ID))
	_, bound = s.Console.Navigator().Unit().Lookup(modsh.HelperName)
	assert.False(t, bound)

	_, err = sm.GetSession(s.ID)
	assert.Error(t, err)
}

func TestServer_LogsComponentOnce(t *testing.T) {
	logs := &lockedBuffer{}
	logger := zerolog.New(logs).With().Str("component", "api").Logger()
	srv := httptest.NewServer(NewServer(testFactory, Config{Logger: &logger}))
	defer srv.Close()

	createSession(t, srv.URL, "")

	line, _, _ := strings.Cut(logs.String(), "\n")
	assert.Contains(t, line, `"session created"`)
	assert.Equal(t, 1, strings.Count(line, `"component"`))
}

type lockedBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *lockedBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *lockedBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}
