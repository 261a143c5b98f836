package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/Nathan-Yinka/Project-management-application/internal/domain"
	domerrors "github.com/Nathan-Yinka/Project-management-application/internal/domain/errors"
)

func TestRequestHeaders(t *testing.T) {
	got := make(chan *http.Request, 1)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got <- r
		_, _ = w.Write([]byte(`{"id":1,"username":"ada"}`))
	}))
	defer srv.Close()

	c, err := New(srv.URL+"/", WithTokenSource(func() string { return "tok" }))
	if err != nil {
		t.Fatal(err)
	}
	u, err := c.Me(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if u.Username != "ada" {
		t.Errorf("user = %+v", u)
	}
	req := <-got
	if req.URL.Path != "/auth/me/" {
		t.Errorf("path = %q", req.URL.Path)
	}
	if h := req.Header.Get("Authorization"); h != "Bearer tok" {
		t.Errorf("Authorization = %q", h)
	}
	if req.Header.Get("Content-Type") != "application/json" || req.Header.Get("X-Request-Id") == "" {
		t.Errorf("headers = %v", req.Header)
	}
}

func TestNoTokenNoAuthorization(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "" {
			t.Errorf("unexpected Authorization header")
		}
		_, _ = w.Write([]byte(`{"token":"abc"}`))
	}))
	defer srv.Close()

	c, _ := New(srv.URL)
	tok, err := c.Login(context.Background(), domain.Credentials{Username: "ada", Password: "pw"})
	if err != nil || tok != "abc" {
		t.Errorf("Login = %q, %v", tok, err)
	}
}

func TestAuthFailureRunsHandler(t *testing.T) {
	for _, status := range []int{http.StatusUnauthorized, http.StatusForbidden} {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(status)
		}))
		var seen int
		c, _ := New(srv.URL, WithAuthFailureHandler(func(s int) { seen = s }))
		_, err := c.ListOrganizations(context.Background())
		srv.Close()
		if !errors.Is(err, domerrors.ErrSessionExpired) {
			t.Errorf("status %d: err = %v", status, err)
		}
		if seen != status {
			t.Errorf("handler saw %d, want %d", seen, status)
		}
	}
}

func TestFieldErrorsDecoded(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"priority":["This field is required."],"name":"Too long.","non_field_errors":["Bad."]}`))
	}))
	defer srv.Close()

	c, _ := New(srv.URL)
	_, err := c.CreateTask(context.Background(), domain.TaskInput{})
	var fe domerrors.FieldErrors
	if !errors.As(err, &fe) {
		t.Fatalf("err = %v", err)
	}
	if len(fe["priority"]) != 1 || len(fe["name"]) != 1 || len(fe["non_field_errors"]) != 1 {
		t.Errorf("field errors = %v", fe)
	}
}

func TestStatusErrorWithoutBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte("<html>oops</html>"))
	}))
	defer srv.Close()

	c, _ := New(srv.URL)
	err := c.DeleteTask(context.Background(), 3)
	var se *StatusError
	if !errors.As(err, &se) || se.Status != 500 || se.Route != "/project/{id}/" {
		t.Fatalf("err = %#v", err)
	}
	if msgs := domerrors.Messages(err); len(msgs) != 1 || msgs[0] != domerrors.GenericMessage {
		t.Errorf("messages = %v", msgs)
	}
}

func TestTimeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
	}))
	defer srv.Close()

	c, _ := New(srv.URL, WithTimeout(20*time.Millisecond))
	if _, err := c.Me(context.Background()); err == nil {
		t.Fatal("want timeout error")
	}
}

func TestTimeoutLeavesSharedClientAlone(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
	}))
	defer srv.Close()

	shared := &http.Client{Timeout: time.Minute}
	c, err := New(srv.URL, WithTimeout(20*time.Millisecond), WithHTTPClient(shared))
	if err != nil {
		t.Fatal(err)
	}
	if shared.Timeout != time.Minute {
		t.Errorf("shared client timeout changed to %s", shared.Timeout)
	}
	if _, err := c.Me(context.Background()); err == nil {
		t.Fatal("want timeout error")
	}
}

func TestEndpointBindings(t *testing.T) {
	type hit struct {
		method, path, query string
		body                map[string]any
	}
	var (
		mu   sync.Mutex
		hits []hit
	)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		h := hit{method: r.Method, path: r.URL.Path, query: r.URL.RawQuery}
		_ = json.NewDecoder(r.Body).Decode(&h.body)
		mu.Lock()
		hits = append(hits, h)
		mu.Unlock()
		switch r.URL.Path {
		case "/project/":
			if r.Method == http.MethodGet {
				_, _ = w.Write([]byte(`{"count":1,"results":[{"id":7,"name":"x","status":"done"}]}`))
				return
			}
		}
		_, _ = w.Write([]byte(`{}`))
	}))
	defer srv.Close()

	ctx := context.Background()
	c, _ := New(srv.URL)
	tasks, err := c.ListTasks(ctx, 4, "abc")
	if err != nil || len(tasks) != 1 || tasks[0].ID != 7 {
		t.Fatalf("ListTasks = %v, %v", tasks, err)
	}
	_, _ = c.UpdateTaskStatus(ctx, 7, 4, domain.StatusDone)
	_, _ = c.UpdateTask(ctx, 7, domain.TaskInput{Name: "n", OrganizationID: 4})
	_ = c.AddMembers(ctx, 4, []string{"x@example.com"})
	_ = c.RemoveMember(ctx, 4, 9)
	_ = c.LeaveOrganization(ctx, 4)
	_ = c.UpdateOrganization(ctx, 4, domain.OrganizationInput{Name: "n"})

	mu.Lock()
	defer mu.Unlock()
	want := []struct{ method, path string }{
		{"GET", "/project/"},
		{"PATCH", "/project/7/update-status/"},
		{"PATCH", "/project/7/4/"},
		{"POST", "/organization/add_member"},
		{"DELETE", "/organizations/4/remove-member/9"},
		{"POST", "/organization/leave-organization"},
		{"PUT", "/organizations/4"},
	}
	if len(hits) != len(want) {
		t.Fatalf("hits = %d, want %d", len(hits), len(want))
	}
	for i, w := range want {
		if hits[i].method != w.method || hits[i].path != w.path {
			t.Errorf("hit %d = %s %s, want %s %s", i, hits[i].method, hits[i].path, w.method, w.path)
		}
	}
	if hits[0].query != "organization_id=4&search=abc" {
		t.Errorf("list query = %q", hits[0].query)
	}
	if b := hits[1].body; b["status"] != "done" || b["organization"] != float64(4) || len(b) != 2 {
		t.Errorf("status body = %v", b)
	}
	if b := hits[3].body; b["organization"] != float64(4) {
		t.Errorf("add_member body = %v", b)
	}
	if b := hits[5].body; b["organization_id"] != float64(4) {
		t.Errorf("leave body = %v", b)
	}
}

func TestNewRejectsBadURL(t *testing.T) {
	if _, err := New("localhost:8000"); err == nil {
		t.Error("want error for missing scheme")
	}
}
