package api

import (
	"encoding/json"
	"time"

	"github.com/heimdex/heimdex-pose/internal/history"
	"github.com/heimdex/heimdex-pose/internal/pose"
	"github.com/heimdex/heimdex-pose/internal/selection"
	"github.com/heimdex/heimdex-pose/internal/transform"
)

type HealthResponse struct {
	Status   string `json:"status"`
	Version  string `json:"version"`
	UptimeS  int64  `json:"uptime_s"`
	DeviceID string `json:"device_id"`
}

type StatusResponse struct {
	State       string       `json:"state"`
	LastError   string       `json:"last_error,omitempty"`
	RunsCount   int          `json:"runs_count"`
	RunsRunning int          `json:"runs_running"`
	LastRun     *RunResponse `json:"last_run,omitempty"`
	Workers     int          `json:"workers"`
	Strict      bool         `json:"strict_person_index"`
}

type PresetResponse struct {
	Name      string   `json:"name"`
	Indices   []int    `json:"body_indices"`
	Keypoints []string `json:"keypoints"`
}

type PresetsResponse struct {
	Presets     []PresetResponse `json:"presets"`
	CustomFlags []string         `json:"custom_flags"`
}

// SelectionInput picks the keypoints an operation works on. An explicit
// Selection wins over SelectionType.
type SelectionInput struct {
	SelectionType string               `json:"selection_type,omitempty"`
	Flags         map[string]bool      `json:"flags,omitempty"`
	Selection     *selection.Selection `json:"selection,omitempty"`
}

type ResolveRequest struct {
	SelectionType string          `json:"selection_type" validate:"required"`
	Flags         map[string]bool `json:"flags,omitempty"`
}

type ResolveResponse struct {
	SelectionType string              `json:"selection_type"`
	Selection     selection.Selection `json:"selection"`
}

type FilterRequest struct {
	SelectionInput
	Poses       json.RawMessage `json:"poses" validate:"required"`
	PersonIndex *int            `json:"person_index,omitempty"`
	Invert      bool            `json:"invert,omitempty"`
}

type MoveRequest struct {
	SelectionInput
	Poses          json.RawMessage   `json:"poses" validate:"required"`
	Appendage      string            `json:"appendage,omitempty"`
	XOffset        transform.Offsets `json:"x_offset"`
	YOffset        transform.Offsets `json:"y_offset"`
	MismatchPolicy string            `json:"mismatch_policy,omitempty" validate:"omitempty,oneof=truncate loop repeat"`
	PersonIndex    *int              `json:"person_index,omitempty"`
	AffectHands    bool              `json:"affect_hands,omitempty"`
	AffectFace     bool              `json:"affect_face,omitempty"`
	IncludeHidden  bool              `json:"include_hidden,omitempty"`
}

type AttachRequest struct {
	SelectionInput
	Base             json.RawMessage `json:"base" validate:"required"`
	Attachment       json.RawMessage `json:"attachment" validate:"required"`
	AnchorIndex      int             `json:"anchor_index" validate:"min=0,max=17"`
	BasePerson       int             `json:"base_person" validate:"min=0"`
	AttachmentPerson int             `json:"attachment_person" validate:"min=0"`
	AttachHands      bool            `json:"attach_hands,omitempty"`
	AttachFace       bool            `json:"attach_face,omitempty"`
}

type MergeRequest struct {
	Sequences    []json.RawMessage `json:"sequences" validate:"required,min=1,dive,required"`
	CanvasWidth  int               `json:"canvas_width,omitempty" validate:"min=0"`
	CanvasHeight int               `json:"canvas_height,omitempty" validate:"min=0"`
}

// SmoothRequest leaves factor and smooth_hands nil when absent so the
// handler can apply their defaults (0.3 and true).
type SmoothRequest struct {
	SelectionInput
	Poses       json.RawMessage `json:"poses" validate:"required"`
	Factor      *float64        `json:"factor,omitempty" validate:"omitempty,min=0,max=1"`
	FocusIndex  *int            `json:"focus_index,omitempty" validate:"omitempty,min=0,max=17"`
	PersonIndex *int            `json:"person_index,omitempty"`
	SmoothHands *bool           `json:"smooth_hands,omitempty"`
	SmoothFace  bool            `json:"smooth_face,omitempty"`
}

type PosesResponse struct {
	Poses  pose.Sequence `json:"poses"`
	Frames int           `json:"frames"`
	People int           `json:"people"`
}

type RunResponse struct {
	ID         string `json:"id"`
	Operation  string `json:"operation"`
	Status     string `json:"status"`
	Selection  string `json:"selection,omitempty"`
	Frames     int    `json:"frames"`
	People     int    `json:"people"`
	DurationMS int64  `json:"duration_ms"`
	Error      string `json:"error,omitempty"`
	CreatedAt  string `json:"created_at"`
}

type RunsResponse struct {
	Runs []RunResponse `json:"runs"`
}

type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code,omitempty"`
}

func RunToResponse(r *history.Run) RunResponse {
	return RunResponse{
		ID:         r.ID,
		Operation:  r.Operation,
		Status:     r.Status,
		Selection:  r.Selection,
		Frames:     r.Frames,
		People:     r.People,
		DurationMS: r.DurationMS,
		Error:      r.Error,
		CreatedAt:  r.CreatedAt.Format(time.RFC3339),
	}
}

func PosesToResponse(seq pose.Sequence) PosesResponse {
	if seq == nil {
		seq = pose.Sequence{}
	}
	return PosesResponse{Poses: seq, Frames: len(seq), People: seq.PeopleCount()}
}
