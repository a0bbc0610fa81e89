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

func TestSendMessageRequiresAssignedDriver(t *testing.T) {
	eng := newTestEngine(t)
	admin := registerUser(t, eng, "Brady Admin", "brady@example.com", models.RoleAdmin)
	ride := createGuestRide(t, eng)

	r := chi.NewRouter()
	r.Post("/api/rides/{id}/messages", SendMessage(eng, nil))

	body := bytes.NewReader([]byte(`{"message_text":"hello?"}`))
	req := withClaims(httptest.NewRequest(http.MethodPost, "/api/rides/"+ride.ID+"/messages", body), admin)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	if rec.Code != http.StatusConflict {
		t.Fatalf("status = %d, want 409", rec.Code)
	}
	if len(eng.MessagesForRide(ride.ID)) != 0 {
		t.Error("message stored despite missing driver")
	}
}

func TestSendMessageDerivesReceiver(t *testing.T) {
	eng := newTestEngine(t)
	passenger := registerUser(t, eng, "Jane Passenger", "jane@example.com", models.RolePassenger)
	driver := registerUser(t, eng, "John Driver", "john@example.com", models.RoleDriver)
	ride := createGuestRide(t, eng)
	eng.AssignDriver(ride.ID, driver.ID, "")

	r := chi.NewRouter()
	r.Post("/api/rides/{id}/messages", SendMessage(eng, nil))

	// The passenger is not the requester here (guest ride), so the admin
	// path is exercised with the driver instead.
	body := bytes.NewReader([]byte(`{"message_text":"Arriving in 5"}`))
	req := withClaims(httptest.NewRequest(http.MethodPost, "/api/rides/"+ride.ID+"/messages", body), driver)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}

	var msg models.Message
	json.Unmarshal(rec.Body.Bytes(), &msg)
	if msg.SenderID != driver.ID {
		t.Errorf("sender = %q", msg.SenderID)
	}
	if msg.ReceiverID != ride.RequesterUserID {
		t.Errorf("receiver = %q, want requester %q", msg.ReceiverID, ride.RequesterUserID)
	}

	// A stranger passenger may not message on this ride at all.
	rec = httptest.NewRecorder()
	req = withClaims(httptest.NewRequest(http.MethodPost, "/api/rides/"+ride.ID+"/messages", bytes.NewReader([]byte(`{"message_text":"hi"}`))), passenger)
	r.ServeHTTP(rec, req)
	if rec.Code != http.StatusForbidden {
		t.Errorf("stranger status = %d, want 403", rec.Code)
	}
}
