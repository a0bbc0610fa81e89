package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"

	"tornadogo-backend/internal/dispatch"
	"tornadogo-backend/internal/middleware"
	"tornadogo-backend/internal/models"
	"tornadogo-backend/internal/store"
)

func newTestEngine(t *testing.T) *dispatch.Engine {
	t.Helper()
	st, err := store.New(store.NewMemoryAdapter())
	if err != nil {
		t.Fatalf("store.New: %v", err)
	}
	return dispatch.NewEngine(st, nil, dispatch.Config{})
}

func registerUser(t *testing.T, eng *dispatch.Engine, name, email, role string) models.User {
	t.Helper()
	user, err := eng.RegisterUser(dispatch.RegisterUserInput{
		Name:     name,
		Email:    email,
		Phone:    "555-0100",
		Role:     role,
		Password: "hunter22",
	})
	if err != nil {
		t.Fatalf("RegisterUser(%s): %v", email, err)
	}
	return user
}

func createGuestRide(t *testing.T, eng *dispatch.Engine) models.Ride {
	t.Helper()
	ride, err := eng.CreateRide(dispatch.CreateRideInput{
		GuestName:      "Pat Walker",
		GuestEmail:     "pat@example.com",
		GuestPhone:     "555-0142",
		PickupDetails:  "123 Main St",
		DropoffDetails: "456 Oak Ave",
		RideDateTime:   time.Now().Add(2 * time.Hour),
		NumPassengers:  1,
		PaymentType:    models.PaymentCash,
	})
	if err != nil {
		t.Fatalf("CreateRide: %v", err)
	}
	return ride
}

// withClaims injects authenticated user claims the way the Auth middleware
// does.
func withClaims(r *http.Request, user models.User) *http.Request {
	claims := middleware.UserClaims{UserID: user.ID, Email: user.Email, Role: user.Role}
	return r.WithContext(context.WithValue(r.Context(), middleware.UserContextKey, claims))
}

func TestCreateRideEndpointGuest(t *testing.T) {
	eng := newTestEngine(t)

	body, _ := json.Marshal(CreateRideRequest{
		GuestName:      "Pat Walker",
		GuestEmail:     "pat@example.com",
		GuestPhone:     "555-0142",
		PickupDetails:  "123 Main St",
		DropoffDetails: "456 Oak Ave",
		RideDateTime:   time.Now().Add(2 * time.Hour).Format(time.RFC3339),
		NumPassengers:  2,
		PaymentType:    models.PaymentCard,
	})

	req := httptest.NewRequest(http.MethodPost, "/api/rides", bytes.NewReader(body))
	rec := httptest.NewRecorder()
	CreateRide(eng)(rec, req)

	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}

	var ride models.Ride
	if err := json.Unmarshal(rec.Body.Bytes(), &ride); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if ride.Status != models.StatusRequested {
		t.Errorf("status = %q", ride.Status)
	}
	if ride.PublicToken == "" {
		t.Error("no public token in response")
	}
}

func TestCreateRideEndpointValidationError(t *testing.T) {
	eng := newTestEngine(t)

	body, _ := json.Marshal(CreateRideRequest{
		GuestName:      "Pat Walker",
		GuestEmail:     "pat@example.com",
		GuestPhone:     "555-0142",
		PickupDetails:  "", // missing
		DropoffDetails: "456 Oak Ave",
		RideDateTime:   time.Now().Add(2 * time.Hour).Format(time.RFC3339),
		NumPassengers:  1,
		PaymentType:    models.PaymentCash,
	})

	req := httptest.NewRequest(http.MethodPost, "/api/rides", bytes.NewReader(body))
	rec := httptest.NewRecorder()
	CreateRide(eng)(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
}

func TestCreateRideEndpointBadTimestamp(t *testing.T) {
	eng := newTestEngine(t)

	body, _ := json.Marshal(CreateRideRequest{
		GuestName:      "Pat Walker",
		GuestEmail:     "pat@example.com",
		GuestPhone:     "555-0142",
		PickupDetails:  "123 Main St",
		DropoffDetails: "456 Oak Ave",
		RideDateTime:   "tomorrow at noon",
		NumPassengers:  1,
		PaymentType:    models.PaymentCash,
	})

	req := httptest.NewRequest(http.MethodPost, "/api/rides", bytes.NewReader(body))
	rec := httptest.NewRecorder()
	CreateRide(eng)(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
}

func TestPublicRideStatus(t *testing.T) {
	eng := newTestEngine(t)
	driver := registerUser(t, eng, "John Driver", "john@example.com", models.RoleDriver)
	ride := createGuestRide(t, eng)
	eng.AssignDriver(ride.ID, driver.ID, "")
	eng.ReportLocation(driver.ID, 39.5, -89.3)

	r := chi.NewRouter()
	r.Get("/api/rides/status/{token}", PublicRideStatus(eng))

	// Location hidden while sharing is off.
	req := httptest.NewRequest(http.MethodGet, "/api/rides/status/"+ride.PublicToken, nil)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	var resp PublicStatusResponse
	json.Unmarshal(rec.Body.Bytes(), &resp)
	if resp.DriverName != "John Driver" {
		t.Errorf("driver name = %q", resp.DriverName)
	}
	if resp.DriverLocation != nil {
		t.Error("location leaked while sharing disabled")
	}

	// Location appears once sharing is on.
	eng.ToggleLocationSharing(ride.ID, true)
	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/rides/status/"+ride.PublicToken, nil))
	json.Unmarshal(rec.Body.Bytes(), &resp)
	if resp.DriverLocation == nil {
		t.Fatal("location missing while sharing enabled")
	}
	if resp.DriverLocation.LastLat != 39.5 {
		t.Errorf("lat = %v", resp.DriverLocation.LastLat)
	}
}

func TestPublicRideStatusUnknownToken(t *testing.T) {
	eng := newTestEngine(t)

	r := chi.NewRouter()
	r.Get("/api/rides/status/{token}", PublicRideStatus(eng))

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/rides/status/pub_nope", nil))
	if rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", rec.Code)
	}
}

func TestPublicStatusHidesContactDetails(t *testing.T) {
	eng := newTestEngine(t)
	ride := createGuestRide(t, eng)

	r := chi.NewRouter()
	r.Get("/api/rides/status/{token}", PublicRideStatus(eng))

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/rides/status/"+ride.PublicToken, nil))

	body := rec.Body.String()
	for _, leaked := range []string{"pat@example.com", "555-0142", "Pat Walker"} {
		if bytes.Contains([]byte(body), []byte(leaked)) {
			t.Errorf("public status leaks %q", leaked)
		}
	}
}

func TestGetRideAccessControl(t *testing.T) {
	eng := newTestEngine(t)
	admin := registerUser(t, eng, "Brady Admin", "brady@example.com", models.RoleAdmin)
	stranger := registerUser(t, eng, "Sam Stranger", "sam@example.com", models.RolePassenger)
	ride := createGuestRide(t, eng)

	r := chi.NewRouter()
	r.Get("/api/rides/{id}", GetRide(eng))

	cases := []struct {
		name string
		user models.User
		want int
	}{
		{"admin sees any ride", admin, http.StatusOK},
		{"stranger is forbidden", stranger, http.StatusForbidden},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := withClaims(httptest.NewRequest(http.MethodGet, "/api/rides/"+ride.ID, nil), tc.user)
			rec := httptest.NewRecorder()
			r.ServeHTTP(rec, req)
			if rec.Code != tc.want {
				t.Errorf("status = %d, want %d", rec.Code, tc.want)
			}
		})
	}
}

func TestCancelRideEndpoint(t *testing.T) {
	eng := newTestEngine(t)
	admin := registerUser(t, eng, "Brady Admin", "brady@example.com", models.RoleAdmin)
	ride := createGuestRide(t, eng)

	r := chi.NewRouter()
	r.Post("/api/rides/{id}/cancel", CancelRide(eng))

	body := bytes.NewReader([]byte(`{"reason":"Customer no-show"}`))
	req := withClaims(httptest.NewRequest(http.MethodPost, fmt.Sprintf("/api/rides/%s/cancel", ride.ID), body), admin)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}

	got, _ := eng.RideByID(ride.ID)
	if got.Status != models.StatusCancelled {
		t.Errorf("ride status = %q", got.Status)
	}
}

func TestCancelRideEmptyReasonRejected(t *testing.T) {
	eng := newTestEngine(t)
	admin := registerUser(t, eng, "Brady Admin", "brady@example.com", models.RoleAdmin)
	ride := createGuestRide(t, eng)

	r := chi.NewRouter()
	r.Post("/api/rides/{id}/cancel", CancelRide(eng))

	req := withClaims(httptest.NewRequest(http.MethodPost, fmt.Sprintf("/api/rides/%s/cancel", ride.ID), bytes.NewReader([]byte(`{"reason":""}`))), admin)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
}

func TestGetMyRidesByRole(t *testing.T) {
	eng := newTestEngine(t)
	passenger := registerUser(t, eng, "Jane Passenger", "jane@example.com", models.RolePassenger)
	driver := registerUser(t, eng, "John Driver", "john@example.com", models.RoleDriver)

	mine, err := eng.CreateRide(dispatch.CreateRideInput{
		RequesterUserID: passenger.ID,
		PickupDetails:   "123 Main St",
		DropoffDetails:  "456 Oak Ave",
		RideDateTime:    time.Now().Add(time.Hour),
		NumPassengers:   1,
		PaymentType:     models.PaymentCash,
	})
	if err != nil {
		t.Fatalf("CreateRide: %v", err)
	}
	other := createGuestRide(t, eng)
	eng.AssignDriver(other.ID, driver.ID, "")

	fetch := func(user models.User) []models.Ride {
		req := withClaims(httptest.NewRequest(http.MethodGet, "/api/rides/mine", nil), user)
		rec := httptest.NewRecorder()
		GetMyRides(eng)(rec, req)
		if rec.Code != http.StatusOK {
			t.Fatalf("status = %d", rec.Code)
		}
		var rides []models.Ride
		json.Unmarshal(rec.Body.Bytes(), &rides)
		return rides
	}

	passengerRides := fetch(passenger)
	if len(passengerRides) != 1 || passengerRides[0].ID != mine.ID {
		t.Errorf("passenger sees %d rides", len(passengerRides))
	}

	driverRides := fetch(driver)
	if len(driverRides) != 1 || driverRides[0].ID != other.ID {
		t.Errorf("driver sees %d rides", len(driverRides))
	}
}
