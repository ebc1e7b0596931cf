package main

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alexandrut83/alerimpool/clarity"
	"github.com/alexandrut83/alerimpool/dashboard"
	"github.com/alexandrut83/alerimpool/pool"
)

const (
	minerA = "SP3FBR2AGK5H9QBDH3EEN6DF8EK8JY7RX8QJ5SVTE"
	minerB = "SP1P72Z3704VMT3DMHPP2CB8TGQWGDBHD3RPR9GZS"
)

// fakeNode answers read-only calls of the pool contract.
func fakeNode() *httptest.Server {
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Arguments []string `json:"arguments"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}

		var result clarity.Value = clarity.None{}
		switch path.Base(r.URL.Path) {
		case "get-remaining-blocks-until-join":
			result = clarity.ResponseOk{Value: clarity.NewUInt(17)}
		case "get-waiting-list":
			list, _ := clarity.PrincipalList([]string{minerA, minerB})
			result = clarity.ResponseOk{Value: list}
		case "get-all-data-waiting-miners":
			arg, err := clarity.FromHex(req.Arguments[0])
			if err != nil {
				http.Error(w, err.Error(), http.StatusBadRequest)
				return
			}
			out := clarity.List{}
			for _, p := range arg.(clarity.List) {
				out = append(out, clarity.Tuple{"miner": p, "pos-votes": clarity.NewUInt(3)})
			}
			result = clarity.ResponseOk{Value: out}
		}
		encoded, _ := clarity.ToHex(result)
		json.NewEncoder(w).Encode(map[string]interface{}{"okay": true, "result": encoded})
	}))
}

func execute(t *testing.T, node string, args ...string) (string, error) {
	t.Setenv("ALERIMPOOL_PASSPHRASE", "")
	file := filepath.Join(t.TempDir(), "config.yaml")
	content := "network: mocknet\nnetworks:\n  mocknet:\n    api_url: " + node + "\nlog:\n  level: error\n"
	require.NoError(t, os.WriteFile(file, []byte(content), 0600))

	out := new(bytes.Buffer)
	rootCmd.SetOut(out)
	rootCmd.SetErr(io.Discard)
	rootCmd.SetArgs(append([]string{"--config", file}, args...))
	err := rootCmd.Execute()
	return out.String(), err
}

func TestConfigShow(t *testing.T) {
	out, err := execute(t, "http://localhost:3999", "config", "show")
	require.NoError(t, err)
	assert.Contains(t, out, "network: mocknet")
	assert.Contains(t, out, "batch_size: 100")
}

func TestRemainingBlocks(t *testing.T) {
	node := fakeNode()
	defer node.Close()

	out, err := execute(t, node.URL, "remaining-blocks")
	require.NoError(t, err)
	assert.Equal(t, "17\n", out)
}

func TestCall(t *testing.T) {
	node := fakeNode()
	defer node.Close()

	out, err := execute(t, node.URL, "call", "get-remaining-blocks-until-join")
	require.NoError(t, err)
	var result map[string]interface{}
	require.NoError(t, json.Unmarshal([]byte(out), &result))
	assert.Equal(t, true, result["success"])
	assert.Equal(t, "17", result["value"].(map[string]interface{})["value"])

	_, err = execute(t, node.URL, "call", "get-balance", "u12x")
	assert.Error(t, err)
}

func TestListCommand(t *testing.T) {
	node := fakeNode()
	defer node.Close()

	out, err := execute(t, node.URL, "waiting", "--batch-size", "1")
	require.NoError(t, err)
	assert.Contains(t, out, "Positive votes")
	assert.Contains(t, out, minerA)
	assert.Contains(t, out, minerB)
	assert.NotContains(t, out, "Propose removal")
}

func TestStatusWithoutUser(t *testing.T) {
	node := fakeNode()
	defer node.Close()

	_, err := execute(t, node.URL, "status")
	assert.Error(t, err)

	out, err := execute(t, node.URL, "status", minerA)
	require.NoError(t, err)
	assert.Contains(t, out, string(pool.StatusNotAsked))
}

func TestWriteTable(t *testing.T) {
	table, ok := dashboard.LookupTable("miners")
	require.True(t, ok)

	buf := new(bytes.Buffer)
	require.NoError(t, writeTable(buf, table, []dashboard.Row{{"address": minerA, "balance": "10"}}))
	lines := bytes.Split(bytes.TrimSpace(buf.Bytes()), []byte("\n"))
	require.Len(t, lines, 2)
	assert.Contains(t, string(lines[0]), "Address")
	assert.NotContains(t, string(lines[0]), "Info")
	assert.Contains(t, string(lines[1]), minerA)
	assert.Contains(t, string(lines[1]), "10")
}

func TestParseArgs(t *testing.T) {
	values, err := parseArgs([]string{"u1", "true", "'" + minerA})
	require.NoError(t, err)
	require.Len(t, values, 3)
	assert.Equal(t, clarity.NewUInt(1), values[0])
	assert.Equal(t, clarity.Bool(true), values[1])

	_, err = parseArgs([]string{"u1", "zz"})
	assert.EqualError(t, err, `argument 2: cannot parse argument "zz"`)
}
