package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/Merka34/pocket-scrum-bk/db"
	"github.com/Merka34/pocket-scrum-bk/models"
	"github.com/gin-gonic/gin"
)

func newTestRouter(store *db.Registry) *gin.Engine {
	gin.SetMode(gin.TestMode)
	status := NewStatusHandler(store)

	router := gin.New()
	router.GET("/healthz", status.Health)
	router.GET("/api/status", status.Status)
	router.GET("/api/rooms/:code", status.GetRoom)
	return router
}

func TestHealth(t *testing.T) {
	router := newTestRouter(db.NewRegistry())

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Errorf("status = %d, want 200", w.Code)
	}
}

func TestStatus_Counts(t *testing.T) {
	store := db.NewRegistry()
	room, err := store.Create(&models.Participant{ID: "h1", Name: "Hana", JoinedAt: time.Now()})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	room.AddParticipant(&models.Participant{ID: "p1", Name: "Ana", JoinedAt: time.Now()})
	router := newTestRouter(store)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/status", nil)
	router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}
	var body struct {
		Data struct {
			Rooms        int `json:"rooms"`
			Participants int `json:"participants"`
		} `json:"data"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if body.Data.Rooms != 1 || body.Data.Participants != 2 {
		t.Errorf("counts = %+v, want 1 room, 2 participants", body.Data)
	}
}

func TestGetRoom(t *testing.T) {
	store := db.NewRegistry()
	room, err := store.Create(&models.Participant{ID: "h1", Name: "Hana", JoinedAt: time.Now()})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	router := newTestRouter(store)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/rooms/"+room.Code, nil)
	router.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Errorf("status = %d, want 200", w.Code)
	}

	w = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodGet, "/api/rooms/ZZZZZ", nil)
	router.ServeHTTP(w, req)
	if w.Code != http.StatusNotFound {
		t.Errorf("missing room status = %d, want 404", w.Code)
	}
}
