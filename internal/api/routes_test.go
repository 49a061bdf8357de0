package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/heimdex/heimdex-pose/internal/history"
	"github.com/heimdex/heimdex-pose/internal/transform"
)

const testToken = "test-token-0123456789"

func testConfig(rec *fakeRecorder) ServerConfig {
	return ServerConfig{
		Engine:       transform.New(transform.Options{Workers: 2}),
		History:      rec,
		Repository:   &fakeStore{token: testToken},
		Logger:       slog.New(slog.NewTextHandler(io.Discard, nil)),
		StartTime:    time.Now(),
		DeviceID:     "device-1",
		Version:      "test",
		MaxBodyBytes: 1 << 20,
	}
}

func doRequest(t *testing.T, cfg ServerConfig, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("failed to marshal body: %v", err)
		}
		reader = bytes.NewReader(data)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Authorization", "Bearer "+testToken)
	rr := httptest.NewRecorder()
	NewRouter(cfg).ServeHTTP(rr, req)
	return rr
}

func decodeJSONBody(t *testing.T, rr *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()

	var body map[string]interface{}
	if err := json.Unmarshal(rr.Body.Bytes(), &body); err != nil {
		t.Fatalf("failed to decode response body: %v (%s)", err, rr.Body.String())
	}
	return body
}

// frameJSON builds one frame with a single person whose body keypoint i sits
// at (i, 10*i) with confidence 1, plus a left hand.
func frameJSON(extraBody float64) json.RawMessage {
	var b strings.Builder
	b.WriteString(`{"version":1.3,"people":[{"person_id":[-1],"pose_keypoints_2d":[`)
	for i := range 18 {
		if i > 0 {
			b.WriteString(",")
		}
		fmt.Fprintf(&b, "%g,%g,1", float64(i)+extraBody, float64(10*i))
	}
	b.WriteString(`],"hand_left_keypoints_2d":[`)
	for i := range 21 {
		if i > 0 {
			b.WriteString(",")
		}
		fmt.Fprintf(&b, "%d,%d,1", 100+i, 200+i)
	}
	b.WriteString(`]}]}`)
	return json.RawMessage(b.String())
}

func sequenceJSON(frames int) json.RawMessage {
	parts := make([]string, frames)
	for i := range parts {
		parts[i] = string(frameJSON(float64(i)))
	}
	return json.RawMessage("[" + strings.Join(parts, ",") + "]")
}

type responsePoses struct {
	Poses []struct {
		People []struct {
			Body     []float64       `json:"pose_keypoints_2d"`
			LeftHand []float64       `json:"hand_left_keypoints_2d"`
			PersonID json.RawMessage `json:"person_id"`
		} `json:"people"`
		Version json.RawMessage `json:"version"`
	} `json:"poses"`
	Frames int `json:"frames"`
	People int `json:"people"`
}

func decodePoses(t *testing.T, rr *httptest.ResponseRecorder) responsePoses {
	t.Helper()

	var resp responsePoses
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode poses response: %v", err)
	}
	return resp
}

func TestHealth_NoAuth(t *testing.T) {
	cfg := testConfig(&fakeRecorder{})
	rr := httptest.NewRecorder()
	NewRouter(cfg).ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/health", nil))

	if rr.Code != http.StatusOK {
		t.Fatalf("status code = %d, want %d", rr.Code, http.StatusOK)
	}
	body := decodeJSONBody(t, rr)
	if body["device_id"] != "device-1" {
		t.Errorf("device_id = %v, want device-1", body["device_id"])
	}
}

func TestProtectedRoutes_RequireAuth(t *testing.T) {
	cfg := testConfig(&fakeRecorder{})
	for _, path := range []string{"/presets", "/runs", "/status"} {
		rr := httptest.NewRecorder()
		NewRouter(cfg).ServeHTTP(rr, httptest.NewRequest(http.MethodGet, path, nil))
		if rr.Code != http.StatusUnauthorized {
			t.Errorf("GET %s without token = %d, want %d", path, rr.Code, http.StatusUnauthorized)
		}
	}
}

func TestPresets(t *testing.T) {
	rr := doRequest(t, testConfig(&fakeRecorder{}), http.MethodGet, "/presets", nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("status code = %d, want %d", rr.Code, http.StatusOK)
	}

	var resp PresetsResponse
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode error = %v", err)
	}
	if len(resp.Presets) != 25 {
		t.Errorf("len(presets) = %d, want 25", len(resp.Presets))
	}
	for _, p := range resp.Presets {
		if p.Name == "left_foot" && (len(p.Indices) != 1 || p.Indices[0] != 13 || p.Keypoints[0] != "LAnkle") {
			t.Errorf("left_foot = %+v, want [13] LAnkle", p)
		}
	}
	if len(resp.CustomFlags) != 10 {
		t.Errorf("len(custom_flags) = %d, want 10", len(resp.CustomFlags))
	}
}

func TestResolve(t *testing.T) {
	cfg := testConfig(&fakeRecorder{})

	rr := doRequest(t, cfg, http.MethodPost, "/selections/resolve", ResolveRequest{
		SelectionType: "custom",
		Flags:         map[string]bool{"include_left_arm": true, "include_left_hand": true},
	})
	if rr.Code != http.StatusOK {
		t.Fatalf("status code = %d, want %d: %s", rr.Code, http.StatusOK, rr.Body.String())
	}
	var resp ResolveResponse
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode error = %v", err)
	}
	if got := resp.Selection.Indices(); len(got) != 3 || got[0] != 5 || got[2] != 7 {
		t.Errorf("indices = %v, want [5 6 7]", got)
	}
	if !resp.Selection.IncludeLeftHand() {
		t.Error("include_left_hand should be true")
	}
}

func TestResolve_UnknownPreset(t *testing.T) {
	rr := doRequest(t, testConfig(&fakeRecorder{}), http.MethodPost, "/selections/resolve", ResolveRequest{SelectionType: "nonexistent"})
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("status code = %d, want %d", rr.Code, http.StatusBadRequest)
	}
	if body := decodeJSONBody(t, rr); body["code"] != "UNKNOWN_PRESET" {
		t.Errorf("code = %v, want UNKNOWN_PRESET", body["code"])
	}
}

func TestResolve_MissingType(t *testing.T) {
	rr := doRequest(t, testConfig(&fakeRecorder{}), http.MethodPost, "/selections/resolve", map[string]any{})
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("status code = %d, want %d", rr.Code, http.StatusBadRequest)
	}
	if body := decodeJSONBody(t, rr); body["code"] != "VALIDATION_ERROR" {
		t.Errorf("code = %v, want VALIDATION_ERROR", body["code"])
	}
}

func TestFilter_UpperBody(t *testing.T) {
	rec := &fakeRecorder{}
	rr := doRequest(t, testConfig(rec), http.MethodPost, "/poses/filter", FilterRequest{
		SelectionInput: SelectionInput{SelectionType: "upper_body"},
		Poses:          frameJSON(0),
	})
	if rr.Code != http.StatusOK {
		t.Fatalf("status code = %d, want %d: %s", rr.Code, http.StatusOK, rr.Body.String())
	}

	resp := decodePoses(t, rr)
	if resp.Frames != 1 || resp.People != 1 {
		t.Fatalf("frames/people = %d/%d, want 1/1", resp.Frames, resp.People)
	}
	person := resp.Poses[0].People[0]
	for _, i := range []int{8, 9, 10, 11, 12, 13} {
		if person.Body[i*3+2] != 0 {
			t.Errorf("keypoint %d confidence = %v, want 0", i, person.Body[i*3+2])
		}
	}
	for i := range 8 {
		if person.Body[i*3+2] != 1 {
			t.Errorf("keypoint %d confidence = %v, want 1", i, person.Body[i*3+2])
		}
	}
	if string(person.PersonID) != "[-1]" {
		t.Errorf("person_id = %s, want [-1]", person.PersonID)
	}
	if string(resp.Poses[0].Version) != "1.3" {
		t.Errorf("version = %s, want 1.3", resp.Poses[0].Version)
	}

	if len(rec.runs) != 1 || rec.runs[0].op != history.OpFilter || rec.runs[0].label != "upper_body" {
		t.Errorf("recorded runs = %+v, want one filter/upper_body", rec.runs)
	}
}

func TestFilter_RequiresSelection(t *testing.T) {
	rr := doRequest(t, testConfig(&fakeRecorder{}), http.MethodPost, "/poses/filter", FilterRequest{Poses: frameJSON(0)})
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("status code = %d, want %d", rr.Code, http.StatusBadRequest)
	}
}

func TestFilter_ShapeMismatch(t *testing.T) {
	rec := &fakeRecorder{}
	rr := doRequest(t, testConfig(rec), http.MethodPost, "/poses/filter", map[string]any{
		"selection_type": "all",
		"poses":          json.RawMessage(`{"people":[{"pose_keypoints_2d":[1,2,1]}]}`),
	})
	if rr.Code != http.StatusUnprocessableEntity {
		t.Fatalf("status code = %d, want %d", rr.Code, http.StatusUnprocessableEntity)
	}
	if body := decodeJSONBody(t, rr); body["code"] != "SHAPE_MISMATCH" {
		t.Errorf("code = %v, want SHAPE_MISMATCH", body["code"])
	}
	if len(rec.runs) != 1 || rec.runs[0].err == nil {
		t.Errorf("failed run should be recorded with its error")
	}
}

func TestMove_LoopOffsets(t *testing.T) {
	rr := doRequest(t, testConfig(&fakeRecorder{}), http.MethodPost, "/poses/move", map[string]any{
		"appendage":       "head",
		"poses":           sequenceJSON(5),
		"x_offset":        []float64{0.0, 0.1, 0.2},
		"mismatch_policy": "loop",
	})
	if rr.Code != http.StatusOK {
		t.Fatalf("status code = %d, want %d: %s", rr.Code, http.StatusOK, rr.Body.String())
	}

	resp := decodePoses(t, rr)
	want := []float64{0.0, 0.1, 0.2, 0.0, 0.1}
	for fi, dx := range want {
		got := resp.Poses[fi].People[0].Body[0] - float64(fi)
		if diff := got - dx; diff > 1e-9 || diff < -1e-9 {
			t.Errorf("frame %d nose dx = %v, want %v", fi, got, dx)
		}
	}
}

func TestMove_AffectHands(t *testing.T) {
	rr := doRequest(t, testConfig(&fakeRecorder{}), http.MethodPost, "/poses/move", map[string]any{
		"selection":    map[string]any{"body_indices": []int{7}},
		"poses":        frameJSON(0),
		"x_offset":     10,
		"y_offset":     -5,
		"affect_hands": true,
	})
	if rr.Code != http.StatusOK {
		t.Fatalf("status code = %d, want %d: %s", rr.Code, http.StatusOK, rr.Body.String())
	}

	person := decodePoses(t, rr).Poses[0].People[0]
	if person.Body[7*3] != 17 || person.Body[7*3+1] != 65 {
		t.Errorf("LWrist = (%v, %v), want (17, 65)", person.Body[7*3], person.Body[7*3+1])
	}
	for i := range 21 {
		if person.LeftHand[i*3] != float64(110+i) || person.LeftHand[i*3+1] != float64(195+i) {
			t.Errorf("left hand %d = (%v, %v), want shifted by (10, -5)", i, person.LeftHand[i*3], person.LeftHand[i*3+1])
		}
	}
	if person.Body[6*3] != 6 {
		t.Errorf("LElbow x = %v, want unchanged 6", person.Body[6*3])
	}
}

func TestMove_EmptyOffsetsLoop(t *testing.T) {
	rr := doRequest(t, testConfig(&fakeRecorder{}), http.MethodPost, "/poses/move", map[string]any{
		"poses":           sequenceJSON(2),
		"x_offset":        []float64{},
		"mismatch_policy": "loop",
	})
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("status code = %d, want %d", rr.Code, http.StatusBadRequest)
	}
	if body := decodeJSONBody(t, rr); body["code"] != "INVALID_OFFSETS" {
		t.Errorf("code = %v, want INVALID_OFFSETS", body["code"])
	}
}

func TestMove_InvalidPolicy(t *testing.T) {
	rr := doRequest(t, testConfig(&fakeRecorder{}), http.MethodPost, "/poses/move", map[string]any{
		"poses":           sequenceJSON(1),
		"mismatch_policy": "bounce",
	})
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("status code = %d, want %d", rr.Code, http.StatusBadRequest)
	}
}

func TestMove_StrictPersonIndex(t *testing.T) {
	cfg := testConfig(&fakeRecorder{})
	cfg.Engine = transform.New(transform.Options{Strict: true})

	rr := doRequest(t, cfg, http.MethodPost, "/poses/move", map[string]any{
		"poses":        sequenceJSON(1),
		"x_offset":     1,
		"person_index": 3,
	})
	if rr.Code != http.StatusUnprocessableEntity {
		t.Fatalf("status code = %d, want %d", rr.Code, http.StatusUnprocessableEntity)
	}
	if body := decodeJSONBody(t, rr); body["code"] != "INVALID_PERSON_INDEX" {
		t.Errorf("code = %v, want INVALID_PERSON_INDEX", body["code"])
	}
}

func TestMerge(t *testing.T) {
	rr := doRequest(t, testConfig(&fakeRecorder{}), http.MethodPost, "/poses/merge", MergeRequest{
		Sequences: []json.RawMessage{sequenceJSON(2), frameJSON(0)},
	})
	if rr.Code != http.StatusOK {
		t.Fatalf("status code = %d, want %d: %s", rr.Code, http.StatusOK, rr.Body.String())
	}

	resp := decodePoses(t, rr)
	if resp.Frames != 2 || resp.People != 4 {
		t.Errorf("frames/people = %d/%d, want 2/4", resp.Frames, resp.People)
	}
}

func TestMerge_Empty(t *testing.T) {
	rr := doRequest(t, testConfig(&fakeRecorder{}), http.MethodPost, "/poses/merge", MergeRequest{})
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("status code = %d, want %d", rr.Code, http.StatusBadRequest)
	}
}

func TestSmooth_FactorOutOfRange(t *testing.T) {
	rr := doRequest(t, testConfig(&fakeRecorder{}), http.MethodPost, "/poses/smooth", map[string]any{
		"poses":  sequenceJSON(2),
		"factor": 2,
	})
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("status code = %d, want %d", rr.Code, http.StatusBadRequest)
	}
}

func TestSmooth_DefaultFactor(t *testing.T) {
	rr := doRequest(t, testConfig(&fakeRecorder{}), http.MethodPost, "/poses/smooth", map[string]any{
		"poses": sequenceJSON(2),
	})
	if rr.Code != http.StatusOK {
		t.Fatalf("status code = %d, want %d: %s", rr.Code, http.StatusOK, rr.Body.String())
	}

	// nose x goes 0 -> 1 between the frames; 0.3 of the way is 0.3
	resp := decodePoses(t, rr)
	if got := resp.Poses[1].People[0].Body[0]; got != 0.3 {
		t.Errorf("frame 1 nose x = %v, want 0.3", got)
	}
}

func TestSmooth_ExplicitZeroFactor(t *testing.T) {
	rr := doRequest(t, testConfig(&fakeRecorder{}), http.MethodPost, "/poses/smooth", map[string]any{
		"poses":  sequenceJSON(2),
		"factor": 0,
	})
	if rr.Code != http.StatusOK {
		t.Fatalf("status code = %d, want %d: %s", rr.Code, http.StatusOK, rr.Body.String())
	}

	resp := decodePoses(t, rr)
	if got := resp.Poses[1].People[0].Body[0]; got != 0 {
		t.Errorf("frame 1 nose x = %v, want 0", got)
	}
}

func TestAttach(t *testing.T) {
	rr := doRequest(t, testConfig(&fakeRecorder{}), http.MethodPost, "/poses/attach", map[string]any{
		"base":           sequenceJSON(2),
		"attachment":     frameJSON(50),
		"anchor_index":   1,
		"selection_type": "left_full_arm",
	})
	if rr.Code != http.StatusOK {
		t.Fatalf("status code = %d, want %d: %s", rr.Code, http.StatusOK, rr.Body.String())
	}

	resp := decodePoses(t, rr)
	if resp.Frames != 2 {
		t.Fatalf("frames = %d, want 2", resp.Frames)
	}
	// attachment is offset by +50 in x, so after anchoring on the neck the
	// arm lands back on the base positions
	if got := resp.Poses[1].People[0].Body[6*3]; got != 7 {
		t.Errorf("frame 1 LElbow x = %v, want 7", got)
	}
}

func TestRequestBodyTooLarge(t *testing.T) {
	cfg := testConfig(&fakeRecorder{})
	cfg.MaxBodyBytes = 64

	rr := doRequest(t, cfg, http.MethodPost, "/poses/filter", map[string]any{
		"selection_type": "all",
		"poses":          sequenceJSON(3),
	})
	if rr.Code != http.StatusRequestEntityTooLarge {
		t.Fatalf("status code = %d, want %d", rr.Code, http.StatusRequestEntityTooLarge)
	}
}

func TestRunsAndStatus(t *testing.T) {
	now := time.Now()
	rec := &fakeRecorder{stored: []*history.Run{
		{ID: "r2", Operation: history.OpMove, Status: history.StatusFailed, Error: "bad offsets", CreatedAt: now},
		{ID: "r1", Operation: history.OpFilter, Status: history.StatusCompleted, Frames: 3, CreatedAt: now.Add(-time.Minute)},
	}}
	cfg := testConfig(rec)

	rr := doRequest(t, cfg, http.MethodGet, "/runs?limit=5", nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("status code = %d, want %d", rr.Code, http.StatusOK)
	}
	var runs RunsResponse
	if err := json.Unmarshal(rr.Body.Bytes(), &runs); err != nil {
		t.Fatalf("decode error = %v", err)
	}
	if len(runs.Runs) != 2 || runs.Runs[0].ID != "r2" {
		t.Errorf("runs = %+v, want r2 first", runs.Runs)
	}

	rr = doRequest(t, cfg, http.MethodGet, "/runs?limit=0", nil)
	if rr.Code != http.StatusBadRequest {
		t.Errorf("limit=0 status = %d, want %d", rr.Code, http.StatusBadRequest)
	}

	rr = doRequest(t, cfg, http.MethodGet, "/status", nil)
	body := decodeJSONBody(t, rr)
	if body["state"] != "error" {
		t.Errorf("state = %v, want error", body["state"])
	}
	if body["last_error"] != "bad offsets" {
		t.Errorf("last_error = %v, want bad offsets", body["last_error"])
	}
	if body["runs_count"] != float64(2) {
		t.Errorf("runs_count = %v, want 2", body["runs_count"])
	}
	if body["workers"] != float64(2) {
		t.Errorf("workers = %v, want 2", body["workers"])
	}
}

type recordedRun struct {
	op    string
	label string
	err   error
}

type fakeRecorder struct {
	mu     sync.Mutex
	runs   []recordedRun
	stored []*history.Run
}

func (f *fakeRecorder) Record(ctx context.Context, operation, selection string, fn func() (history.Result, error)) error {
	_, err := fn()
	f.mu.Lock()
	defer f.mu.Unlock()
	f.runs = append(f.runs, recordedRun{op: operation, label: selection, err: err})
	return err
}

func (f *fakeRecorder) ListRuns(ctx context.Context, limit int) ([]*history.Run, error) {
	if limit < len(f.stored) {
		return f.stored[:limit], nil
	}
	return f.stored, nil
}

func (f *fakeRecorder) CountRuns(ctx context.Context) (int, error) {
	return len(f.stored), nil
}
