package vars

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gyaneshwarpardhi/ticketsupervisor/internal/ticket"
)

func writeFile(t *testing.T, dir, name, body string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(body), 0o644))
}

func TestProvider_Precedence(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "shared-vars-a.txt", "team: ops\nqueue: shared\nport: 8080\n")
	writeFile(t, dir, "Paavo-vars-1.txt", "queue: paavo\nowner: alice\n")
	writeFile(t, dir, "Other-vars-1.txt", "owner: bob\n")

	p := Provider{Dir: dir, Environ: func() []string { return []string{"owner=env-owner", "HOME=/root"} }}
	m, err := p.Load("Paavo")
	require.NoError(t, err)

	assert.Equal(t, "ops", m["team"])
	assert.Equal(t, "paavo", m["queue"])
	assert.Equal(t, "8080", m["port"])
	assert.Equal(t, "env-owner", m["owner"])
	assert.Equal(t, "/root", m["HOME"])
}

func TestProvider_MalformedFile(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "Paavo-vars-bad.txt", "key: [unterminated\n")
	_, err := Provider{Dir: dir, Environ: func() []string { return nil }}.Load("Paavo")
	assert.Error(t, err)
}

func TestExpand(t *testing.T) {
	m := Map{"number": "INC1", "who": "alice"}
	assert.Equal(t, "INC1 for alice", Expand("{number} for {who}", m))
	assert.Equal(t, "INC1 {unknown}", Expand("{number} {unknown}", m))
	assert.Equal(t, "awk '{print $1}'", Expand("awk '{print $1}'", m))
	assert.True(t, HasPlaceholder("x {number}"))
	assert.False(t, HasPlaceholder("plain"))
}

func TestUnresolved(t *testing.T) {
	m := Map{"number": "INC1"}
	assert.Empty(t, Unresolved("run {number}", m))
	assert.Equal(t, []string{"assigned_to", "x"}, Unresolved("{assigned_to} {number} {x} {assigned_to}", m))
	assert.Empty(t, Unresolved("awk '{print $1}'", m))
}

func TestCombine_VariablesWin(t *testing.T) {
	tk := ticket.Ticket{"number": "INC1", "team": "from-ticket"}
	m := Combine(tk, Map{"team": "from-vars"})
	assert.Equal(t, "INC1", m["number"])
	assert.Equal(t, "from-vars", m["team"])

	ext := m.With(Map{"tkt_json_file": "/tmp/x.json"})
	assert.Equal(t, "/tmp/x.json", ext["tkt_json_file"])
	_, leaked := m["tkt_json_file"]
	assert.False(t, leaked)
}
