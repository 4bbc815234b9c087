// A stand-in for the remote attendance service, for local agent testing.
// Keeps one open record per role in memory and evaluates the geofence
// against a single configured site.
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"math"
	"net/http"
	"sync"
	"time"
)

type positionSample struct {
	Latitude       float64   `json:"latitude"`
	Longitude      float64   `json:"longitude"`
	AccuracyMeters float64   `json:"accuracyMeters"`
	CapturedAt     time.Time `json:"capturedAt"`
}

type checkEvent struct {
	Timestamp       time.Time      `json:"timestamp"`
	Sample          positionSample `json:"sample"`
	IsValidLocation bool           `json:"isValidLocation"`
}

type record struct {
	ID       string      `json:"id"`
	SiteID   int64       `json:"siteId"`
	RoleType string      `json:"roleType"`
	ShiftID  string      `json:"shiftId,omitempty"`
	CheckIn  checkEvent  `json:"checkIn"`
	CheckOut *checkEvent `json:"checkOut,omitempty"`
}

type store struct {
	mu   sync.Mutex
	open map[string]*record // role -> open record
	seq  int
}

var (
	siteLat    = flag.Float64("site-lat", -6.200000, "site latitude")
	siteLon    = flag.Float64("site-lon", 106.816666, "site longitude")
	radius     = flag.Float64("radius", 150, "geofence radius in meters")
	listenAddr = flag.String("addr", ":8081", "listen address")
)

// withinGeofence applies the haversine distance against the configured site.
func withinGeofence(s positionSample) bool {
	const earthRadius = 6371000.0

	lat1 := s.Latitude * math.Pi / 180
	lat2 := *siteLat * math.Pi / 180
	dLat := (*siteLat - s.Latitude) * math.Pi / 180
	dLon := (*siteLon - s.Longitude) * math.Pi / 180

	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1)*math.Cos(lat2)*math.Sin(dLon/2)*math.Sin(dLon/2)
	distance := earthRadius * 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))

	return distance <= *radius
}

func (st *store) checkIn(w http.ResponseWriter, r *http.Request) {
	var req struct {
		SiteID   int64          `json:"siteId"`
		RoleType string         `json:"roleType"`
		ShiftID  string         `json:"shiftId"`
		Sample   positionSample `json:"sample"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		reject(w, http.StatusBadRequest, "invalid request body")
		return
	}

	st.mu.Lock()
	defer st.mu.Unlock()

	if _, exists := st.open[req.RoleType]; exists {
		reject(w, http.StatusConflict, "an open attendance record already exists for this role")
		return
	}

	st.seq++
	now := time.Now().UTC()
	valid := withinGeofence(req.Sample)
	rec := &record{
		ID:       fmt.Sprintf("att-%d", st.seq),
		SiteID:   req.SiteID,
		RoleType: req.RoleType,
		ShiftID:  req.ShiftID,
		CheckIn:  checkEvent{Timestamp: now, Sample: req.Sample, IsValidLocation: valid},
	}
	st.open[req.RoleType] = rec

	log.Printf("Check-in %s for role %s (valid location: %v)", rec.ID, req.RoleType, valid)
	respond(w, map[string]interface{}{
		"attendanceId":    rec.ID,
		"isValidLocation": valid,
		"checkTime":       now,
	})
}

func (st *store) checkOut(w http.ResponseWriter, r *http.Request) {
	var req struct {
		AttendanceID string         `json:"attendanceId"`
		Sample       positionSample `json:"sample"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		reject(w, http.StatusBadRequest, "invalid request body")
		return
	}

	st.mu.Lock()
	defer st.mu.Unlock()

	for role, rec := range st.open {
		if rec.ID == req.AttendanceID {
			now := time.Now().UTC()
			valid := withinGeofence(req.Sample)
			rec.CheckOut = &checkEvent{Timestamp: now, Sample: req.Sample, IsValidLocation: valid}
			delete(st.open, role)

			log.Printf("Check-out %s for role %s (valid location: %v)", rec.ID, role, valid)
			respond(w, map[string]interface{}{
				"attendanceId":    rec.ID,
				"isValidLocation": valid,
				"checkTime":       now,
			})
			return
		}
	}

	reject(w, http.StatusNotFound, "no open attendance record with that id")
}

func (st *store) qrAction(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Code     string          `json:"code"`
		RoleType string          `json:"roleType"`
		Sample   *positionSample `json:"sample"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Code == "" {
		reject(w, http.StatusBadRequest, "invalid scan payload")
		return
	}

	st.mu.Lock()
	defer st.mu.Unlock()

	now := time.Now().UTC()
	valid := true
	var sample positionSample
	if req.Sample != nil {
		sample = *req.Sample
		valid = withinGeofence(sample)
	}

	if rec, exists := st.open[req.RoleType]; exists {
		rec.CheckOut = &checkEvent{Timestamp: now, Sample: sample, IsValidLocation: valid}
		delete(st.open, req.RoleType)
		log.Printf("QR check-out %s for role %s", rec.ID, req.RoleType)
		respond(w, map[string]interface{}{
			"action":          "CLOCK_OUT",
			"attendanceId":    rec.ID,
			"isValidLocation": valid,
			"checkTime":       now,
		})
		return
	}

	st.seq++
	rec := &record{
		ID:       fmt.Sprintf("att-%d", st.seq),
		RoleType: req.RoleType,
		CheckIn:  checkEvent{Timestamp: now, Sample: sample, IsValidLocation: valid},
	}
	st.open[req.RoleType] = rec
	log.Printf("QR check-in %s for role %s", rec.ID, req.RoleType)
	respond(w, map[string]interface{}{
		"action":          "CLOCK_IN",
		"attendanceId":    rec.ID,
		"isValidLocation": valid,
		"checkTime":       now,
	})
}

func (st *store) status(w http.ResponseWriter, r *http.Request) {
	role := r.URL.Query().Get("role")

	st.mu.Lock()
	defer st.mu.Unlock()

	if rec, exists := st.open[role]; exists {
		respond(w, map[string]interface{}{"status": "ON_SHIFT", "openRecord": rec})
		return
	}
	respond(w, map[string]interface{}{"status": "NOT_CLOCKED_IN"})
}

func respond(w http.ResponseWriter, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(body)
}

func reject(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{"message": message})
}

func main() {
	flag.Parse()

	st := &store{open: make(map[string]*record)}

	http.HandleFunc("/api/v1/attendance/check-in", st.checkIn)
	http.HandleFunc("/api/v1/attendance/check-out", st.checkOut)
	http.HandleFunc("/api/v1/attendance/qr-action", st.qrAction)
	http.HandleFunc("/api/v1/attendance/status", st.status)

	log.Printf("Attendance API mock starting on %s (site %.6f,%.6f r=%.0fm)...", *listenAddr, *siteLat, *siteLon, *radius)
	log.Fatal(http.ListenAndServe(*listenAddr, nil))
}
