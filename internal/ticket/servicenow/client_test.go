package servicenow

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gyaneshwarpardhi/ticketsupervisor/internal/ticket"
)

func TestEncodedQuery(t *testing.T) {
	cases := []struct {
		name string
		q    ticket.Query
		want string
	}{
		{"no filters", ticket.Query{}, "active=true"},
		{"one state", ticket.Query{IgnoreStates: []string{"6"}}, "active=true^state!=6"},
		{"states and group", ticket.Query{IgnoreStates: []string{"6", "7"}, AssignmentGroup: "g1"}, "active=true^stateNOT IN6,7^assignment_group=g1"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, EncodedQuery(tc.q))
		})
	}
}

func TestClient_QueryAndUpdate(t *testing.T) {
	var patched map[string]string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user, pwd, ok := r.BasicAuth()
		if !ok || user != "bot" || pwd != "secret" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		switch {
		case r.Method == http.MethodGet && r.URL.Path == "/api/now/table/incident":
			assert.Equal(t, "active=true^state!=6", r.URL.Query().Get("sysparm_query"))
			assert.Equal(t, "50", r.URL.Query().Get("sysparm_limit"))
			_, _ = io.WriteString(w, `{"result":[{"number":"INC1","sys_id":"s1"},{"number":"INC2","sys_id":"s2"}]}`)
		case r.Method == http.MethodPatch && r.URL.Path == "/api/now/table/incident/s1":
			_ = json.NewDecoder(r.Body).Decode(&patched)
			_, _ = io.WriteString(w, `{"result":{"number":"INC1","sys_id":"s1","state":"2"}}`)
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer srv.Close()

	c, err := New(Options{Instance: srv.URL, User: "bot", Password: "secret"})
	require.NoError(t, err)

	rows, err := c.Query(context.Background(), ticket.Query{Table: "incident", IgnoreStates: []string{"6"}, Limit: 50})
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "INC2", rows[1].Number())

	res, err := c.Update(context.Background(), "incident", rows[0], map[string]string{"state": "2"})
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"state": "2"}, patched)
	assert.Equal(t, "2", res["state"])
}

func TestClient_ErrorsAreConnErrors(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	c, err := New(Options{Instance: srv.URL})
	require.NoError(t, err)
	_, err = c.Query(context.Background(), ticket.Query{Table: "incident"})
	require.Error(t, err)
	assert.True(t, ticket.IsConnError(err))
}

func TestClient_GetNotFound(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, `{"result":[]}`)
	}))
	defer srv.Close()

	c, err := New(Options{Instance: srv.URL})
	require.NoError(t, err)
	_, err = c.Get(context.Background(), "incident", "INC404")
	assert.ErrorIs(t, err, ticket.ErrNotFound)
}

func TestNew_InstanceAbbreviation(t *testing.T) {
	c, err := New(Options{Instance: "acme"})
	require.NoError(t, err)
	assert.Equal(t, "https://acme.service-now.com/api/now/table/incident", c.tableURL("incident"))

	_, err = New(Options{})
	assert.Error(t, err)
}
