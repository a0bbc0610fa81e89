package handlers

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"

	"tornadogo-backend/internal/models"
)

func TestAssignDriverEndpoint(t *testing.T) {
	eng := newTestEngine(t)
	admin := registerUser(t, eng, "Brady Admin", "brady@example.com", models.RoleAdmin)
	driver := registerUser(t, eng, "John Driver", "john@example.com", models.RoleDriver)
	ride := createGuestRide(t, eng)

	r := chi.NewRouter()
	r.Post("/api/admin/rides/{id}/assign", AssignDriver(eng, nil))

	body, _ := json.Marshal(AssignDriverRequest{DriverID: driver.ID})
	req := withClaims(httptest.NewRequest(http.MethodPost, "/api/admin/rides/"+ride.ID+"/assign", bytes.NewReader(body)), admin)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}

	var updated models.Ride
	json.Unmarshal(rec.Body.Bytes(), &updated)
	if updated.AssignedDriverID != driver.ID {
		t.Errorf("driver = %q", updated.AssignedDriverID)
	}
	if updated.Status != models.StatusAssigned {
		t.Errorf("status = %q", updated.Status)
	}
}

func TestUpdateStatusEndpointUnknownRide(t *testing.T) {
	eng := newTestEngine(t)
	admin := registerUser(t, eng, "Brady Admin", "brady@example.com", models.RoleAdmin)

	r := chi.NewRouter()
	r.Post("/api/admin/rides/{id}/status", UpdateStatus(eng, nil))

	body, _ := json.Marshal(UpdateStatusRequest{Status: models.StatusCompleted})
	req := withClaims(httptest.NewRequest(http.MethodPost, "/api/admin/rides/nope/status", bytes.NewReader(body)), admin)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", rec.Code)
	}
}

func TestGetAllUsersHidesPasswordHash(t *testing.T) {
	eng := newTestEngine(t)
	registerUser(t, eng, "Jane Passenger", "jane@example.com", models.RolePassenger)

	rec := httptest.NewRecorder()
	GetAllUsers(eng)(rec, httptest.NewRequest(http.MethodGet, "/api/admin/users", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if bytes.Contains(rec.Body.Bytes(), []byte("password")) {
		t.Error("user listing leaks password material")
	}
}

func TestGetDriversOverview(t *testing.T) {
	eng := newTestEngine(t)
	driver := registerUser(t, eng, "John Driver", "john@example.com", models.RoleDriver)
	registerUser(t, eng, "Jane Passenger", "jane@example.com", models.RolePassenger)
	eng.SetAvailability(driver.ID, true)
	eng.ReportLocation(driver.ID, 39.5, -89.3)

	rec := httptest.NewRecorder()
	GetDrivers(eng)(rec, httptest.NewRequest(http.MethodGet, "/api/admin/drivers", nil))

	var overviews []DriverOverview
	json.Unmarshal(rec.Body.Bytes(), &overviews)
	if len(overviews) != 1 {
		t.Fatalf("overviews = %d, want 1 (passengers excluded)", len(overviews))
	}
	if overviews[0].Availability == nil || !overviews[0].Availability.IsAvailableNow {
		t.Error("availability missing from overview")
	}
	if overviews[0].Location == nil || overviews[0].Location.LastLat != 39.5 {
		t.Error("location missing from overview")
	}
}

func TestAdminCreateUserAllowsAdminRole(t *testing.T) {
	eng := newTestEngine(t)

	body, _ := json.Marshal(AdminCreateUserRequest{
		Name:     "Second Admin",
		Email:    "admin2@example.com",
		Phone:    "555-0199",
		Role:     models.RoleAdmin,
		Password: "pw",
	})
	rec := httptest.NewRecorder()
	CreateUser(eng)(rec, httptest.NewRequest(http.MethodPost, "/api/admin/users", bytes.NewReader(body)))

	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}
	var resp models.UserResponse
	json.Unmarshal(rec.Body.Bytes(), &resp)
	if resp.Role != models.RoleAdmin {
		t.Errorf("role = %q", resp.Role)
	}
}
