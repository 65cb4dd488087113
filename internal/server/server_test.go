package server

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/zekarki/WeatherAPI/internal/config"
	"github.com/zekarki/WeatherAPI/internal/models"
)

type apiClient struct {
	t   *testing.T
	srv *Server
	ts  *httptest.Server
}

func testConfig() *config.Config {
	users := []config.BootstrapUser{
		{Username: "teacher", Password: "pw", Role: string(models.RoleTeacher)},
		{Username: "admin", Password: "pw", Role: string(models.RoleAdmin)},
		{Username: "student", Password: "pw", Role: string(models.RoleStudent)},
		{Username: "sensor", Password: "pw", Role: string(models.RoleSensor)},
	}
	return &config.Config{
		Server:  config.ServerConfig{ShutdownTimeout: time.Second},
		Storage: config.StorageConfig{Driver: config.DriverMemory, Sessions: config.DriverMemory},
		Auth: config.AuthConfig{
			JWTSecret:      "test-secret",
			Issuer:         "weatherapi-test",
			TokenTTL:       time.Hour,
			BcryptCost:     bcrypt.MinCost,
			Schemes:        config.SchemeConfig{Readings: "basic", Analysis: "basic", Users: "basic"},
			BootstrapUsers: users,
		},
		Retention:  config.RetentionConfig{InactivityWindow: 720 * time.Hour, SweepInterval: time.Hour},
		Monitoring: config.MonitoringConfig{MetricsEnabled: true},
	}
}

func newAPIClient(t *testing.T) *apiClient {
	t.Helper()
	srv := New(testConfig())
	require.NoError(t, srv.Init(context.Background(), MemoryStores()))
	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(func() {
		ts.Close()
		srv.Close(context.Background())
	})
	return &apiClient{t: t, srv: srv, ts: ts}
}

func basic(user, password string) string {
	return "Basic " + base64.StdEncoding.EncodeToString([]byte(user+":"+password))
}

// do sends body as JSON and decodes the JSON response into out when given
func (c *apiClient) do(method, path, authorization string, body any, out any) int {
	c.t.Helper()
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(c.t, err)
		reader = bytes.NewReader(data)
	}
	req, err := http.NewRequest(method, c.ts.URL+path, reader)
	require.NoError(c.t, err)
	if authorization != "" {
		req.Header.Set("Authorization", authorization)
	}
	resp, err := http.DefaultClient.Do(req)
	require.NoError(c.t, err)
	defer resp.Body.Close()
	if out != nil {
		require.NoError(c.t, json.NewDecoder(resp.Body).Decode(out))
	}
	return resp.StatusCode
}

func (c *apiClient) insert(temperature, humidity float64) string {
	c.t.Helper()
	var res map[string]string
	status := c.do(http.MethodPost, "/reading", basic("sensor", "pw"), map[string]any{
		models.FieldDeviceName:  "Woodford_Sensor",
		models.FieldTemperature: temperature,
		models.FieldHumidity:    humidity,
	}, &res)
	require.Equal(c.t, http.StatusCreated, status)
	require.NotEmpty(c.t, res["inserted_id"])
	return res["inserted_id"]
}

func TestInsertThenFetchReading(t *testing.T) {
	c := newAPIClient(t)
	before := time.Now().UTC().Truncate(time.Second)
	id := c.insert(25.5, 60)

	var doc map[string]any
	status := c.do(http.MethodGet, "/reading?_id="+id, basic("student", "pw"), nil, &doc)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, id, doc[models.FieldID])
	assert.Equal(t, 25.5, doc[models.FieldTemperature])
	assert.Equal(t, 60.0, doc[models.FieldHumidity])

	ts, err := time.Parse(time.RFC3339Nano, doc[models.FieldTime].(string))
	require.NoError(t, err)
	assert.False(t, ts.Before(before))

	var display map[string]any
	status = c.do(http.MethodGet, "/readings?_id="+id, basic("teacher", "pw"), nil, &display)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "Woodford_Sensor", display["Sensor Name"])
	assert.Contains(t, display, "Date/Time")
}

func TestInsertOutOfRangeCreatesNothing(t *testing.T) {
	c := newAPIClient(t)

	var res map[string]any
	status := c.do(http.MethodPost, "/reading", basic("teacher", "pw"), map[string]any{
		models.FieldTemperature: 61,
		models.FieldHumidity:    50,
	}, &res)
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "Temperature must be between -50°C and 60°C.", res["error"])

	status = c.do(http.MethodPost, "/reading", basic("teacher", "pw"), map[string]any{
		models.FieldTemperature: 20,
		models.FieldHumidity:    101,
	}, &res)
	assert.Equal(t, http.StatusBadRequest, status)

	var found []any
	status = c.do(http.MethodGet, "/analysis/temp?low=-100&high=100", basic("student", "pw"), nil, &found)
	require.Equal(t, http.StatusOK, status)
	assert.Empty(t, found)
}

func TestAuthenticationAndAuthorizationFailures(t *testing.T) {
	c := newAPIClient(t)
	body := map[string]any{models.FieldTemperature: 20, models.FieldHumidity: 50}

	var res map[string]any
	assert.Equal(t, http.StatusUnauthorized, c.do(http.MethodPost, "/reading", "", body, &res))
	assert.Equal(t, "Authentication required", res["error"])

	assert.Equal(t, http.StatusForbidden, c.do(http.MethodPost, "/reading", basic("student", "pw"), body, &res))
	assert.Equal(t, "Forbidden", res["error"])

	var wrongPassword, unknownUser map[string]any
	assert.Equal(t, http.StatusUnauthorized, c.do(http.MethodPost, "/reading", basic("teacher", "nope"), body, &wrongPassword))
	assert.Equal(t, http.StatusUnauthorized, c.do(http.MethodPost, "/reading", basic("ghost", "pw"), body, &unknownUser))
	assert.Equal(t, wrongPassword["error"], unknownUser["error"])

	assert.Equal(t, http.StatusUnauthorized, c.do(http.MethodPatch, "/login", "", map[string]string{"username": "teacher", "password": "nope"}, &wrongPassword))
	assert.Equal(t, http.StatusUnauthorized, c.do(http.MethodPatch, "/login", "", map[string]string{"username": "ghost", "password": "pw"}, &unknownUser))
	assert.Equal(t, "Invalid credentials", wrongPassword["error"])
	assert.Equal(t, wrongPassword["error"], unknownUser["error"])
}

func TestDeleteReadingLogsCopy(t *testing.T) {
	c := newAPIClient(t)
	id := c.insert(18, 40)

	var res map[string]any
	status := c.do(http.MethodDelete, "/reading", basic("teacher", "pw"), map[string]string{models.FieldID: id}, &res)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "Reading deleted and logged successfully", res["message"])

	entries, err := c.srv.service.DeletionLog(context.Background())
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, id, entries[0].Reading.ID)
	assert.Equal(t, 18.0, *entries[0].Reading.Temperature)
	assert.False(t, entries[0].DeletedAt.IsZero())

	assert.Equal(t, http.StatusNotFound, c.do(http.MethodGet, "/reading?_id="+id, basic("teacher", "pw"), nil, &res))
	assert.Equal(t, http.StatusNotFound, c.do(http.MethodDelete, "/reading", basic("teacher", "pw"), map[string]string{models.FieldID: id}, &res))
	assert.Equal(t, "Record not found", res["error"])

	assert.Eventually(t, func() bool {
		n, err := c.srv.Monitoring().EventCount("reading_deletion")
		return err == nil && n == 1
	}, time.Second, 10*time.Millisecond)
}

func TestTeacherDeletionNeedsAdmin(t *testing.T) {
	c := newAPIClient(t)

	var created map[string]any
	status := c.do(http.MethodPost, "/user", basic("admin", "pw"), map[string]string{
		"username": "teacher2", "password": "pw", "role": "Teacher",
	}, &created)
	require.Equal(t, http.StatusCreated, status)
	assert.Equal(t, "User created successfully", created["message"])
	assert.Equal(t, "Teacher", created["role"])
	id := created["user_id"].(string)

	var res map[string]any
	assert.Equal(t, http.StatusForbidden, c.do(http.MethodDelete, "/user/"+id, basic("teacher", "pw"), nil, &res))
	assert.Equal(t, "Only Admins may perform this action", res["error"])

	assert.Equal(t, http.StatusOK, c.do(http.MethodDelete, "/user/"+id, basic("admin", "pw"), nil, &res))
	assert.Equal(t, http.StatusNotFound, c.do(http.MethodDelete, "/user/"+id, basic("admin", "pw"), nil, &res))

	day := time.Now().UTC().Format("2006-01-02")
	assert.Equal(t, http.StatusForbidden, c.do(http.MethodDelete, "/users", basic("teacher", "pw"), map[string]string{
		"start": day, "end": day, "role": "Teacher",
	}, &res))
}

func TestBulkUpdate(t *testing.T) {
	c := newAPIClient(t)
	ids := []string{c.insert(10, 50), c.insert(11, 50), c.insert(12, 50)}

	var res map[string]any
	status := c.do(http.MethodPut, "/readings", basic("teacher", "pw"), map[string]any{
		"updates": []any{
			map[string]any{"id": ids[0], "update_fields": map[string]any{models.FieldTemperature: 20}},
			map[string]any{"id": ids[1], "update_fields": map[string]any{models.FieldTemperature: 200}},
			map[string]any{"id": ids[2], "update_fields": map[string]any{models.FieldTemperature: 22}},
		},
	}, &res)
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Contains(t, res["error"], ids[1])

	var doc map[string]any
	require.Equal(t, http.StatusOK, c.do(http.MethodGet, "/reading?_id="+ids[0], basic("teacher", "pw"), nil, &doc))
	assert.Equal(t, 10.0, doc[models.FieldTemperature])

	status = c.do(http.MethodPatch, "/readings", basic("teacher", "pw"), map[string]any{
		"updates": []any{
			map[string]any{"id": ids[0], "update_fields": map[string]any{models.FieldTemperature: 20}},
			map[string]any{"id": ids[1]},
			map[string]any{"id": ids[2], "update_fields": map[string]any{models.FieldTemperature: 22}},
		},
	}, &res)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "Updated 2 record(s)", res["message"])
}

func TestLoginIssuesRevocableToken(t *testing.T) {
	c := newAPIClient(t)

	var login map[string]any
	status := c.do(http.MethodPatch, "/login", "", map[string]string{"username": "student", "password": "pw"}, &login)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "Login successful", login["message"])
	assert.Equal(t, "Student", login["role"])
	token := login["token"].(string)

	var res map[string]any
	assert.Equal(t, http.StatusOK, c.do(http.MethodPost, "/logout", "Bearer "+token, nil, &res))
	assert.Equal(t, http.StatusUnauthorized, c.do(http.MethodPost, "/logout", "Bearer "+token, nil, &res))
	assert.Equal(t, "Invalid token", res["error"])
}

func TestRoutingEdges(t *testing.T) {
	c := newAPIClient(t)

	var res map[string]any
	assert.Equal(t, http.StatusMethodNotAllowed, c.do(http.MethodPut, "/user", basic("admin", "pw"), nil, &res))
	assert.Equal(t, "Method not allowed", res["error"])

	assert.Equal(t, http.StatusOK, c.do(http.MethodGet, "/health", "", nil, &res))
	assert.Equal(t, "ok", res["status"])

	day := time.Now().UTC().Format("2006-01-02")
	assert.Equal(t, http.StatusNotFound, c.do(http.MethodGet, fmt.Sprintf("/analysis/max-temp?start=%s&end=%s", day, day), basic("student", "pw"), nil, &res))
	assert.Equal(t, "No records found", res["error"])

	assert.Equal(t, http.StatusBadRequest, c.do(http.MethodGet, "/analysis/max-temp?start="+day, basic("student", "pw"), nil, &res))
	assert.Equal(t, "Missing start or end parameter", res["error"])

	resp, err := http.Get(c.ts.URL + "/metrics")
	require.NoError(t, err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.True(t, strings.Contains(string(body), "weatherapi_requests_total"))
}

func TestMaxTemperatureCoversWholeEndDay(t *testing.T) {
	c := newAPIClient(t)
	c.insert(21.5, 40)
	c.insert(25.5, 45)

	day := time.Now().UTC().Format("2006-01-02")
	var peaks []map[string]any
	status := c.do(http.MethodGet, fmt.Sprintf("/analysis/max-temp?start=%s&end=%s", day, day), basic("student", "pw"), nil, &peaks)
	require.Equal(t, http.StatusOK, status)
	require.Len(t, peaks, 1)
	assert.Equal(t, "Woodford_Sensor", peaks[0]["Sensor Name"])
	assert.Equal(t, 25.5, peaks[0]["Max Temperature (°C)"])
}

func TestRoleGrantNeedsAdmin(t *testing.T) {
	c := newAPIClient(t)

	var res map[string]any
	for _, role := range []string{"Admin", "Teacher"} {
		status := c.do(http.MethodPost, "/user", basic("teacher", "pw"), map[string]string{
			"username": "mallory", "password": "pw", "role": role,
		}, &res)
		assert.Equal(t, http.StatusForbidden, status, role)
		assert.Equal(t, "Only Admins may perform this action", res["error"])
	}
	assert.Equal(t, http.StatusCreated, c.do(http.MethodPost, "/user", basic("teacher", "pw"), map[string]string{
		"username": "pupil", "password": "pw",
	}, &res))

	day := time.Now().UTC().Format("2006-01-02")
	status := c.do(http.MethodPatch, "/users", basic("teacher", "pw"), map[string]string{
		"start_date": day, "end_date": day, "new_access": "Admin",
	}, &res)
	assert.Equal(t, http.StatusForbidden, status)

	var login map[string]any
	require.Equal(t, http.StatusOK, c.do(http.MethodPatch, "/login", "", map[string]string{"username": "teacher", "password": "pw"}, &login))
	assert.Equal(t, "Teacher", login["role"])

	status = c.do(http.MethodPatch, "/users", basic("admin", "pw"), map[string]string{
		"start_date": day, "end_date": day, "new_access": "Teacher",
	}, &res)
	require.Equal(t, http.StatusOK, status)
	// admin, student, sensor and pupil were all created today
	assert.Equal(t, "Updated 4 user(s)", res["message"])
}
