package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-playground/validator/v10"

	"github.com/heimdex/heimdex-pose/internal/history"
	"github.com/heimdex/heimdex-pose/internal/pose"
	"github.com/heimdex/heimdex-pose/internal/selection"
	"github.com/heimdex/heimdex-pose/internal/skeleton"
	"github.com/heimdex/heimdex-pose/internal/transform"
)

var validate = validator.New(validator.WithRequiredStructEnabled())

// decodeRequest reads and validates a JSON body, writing the error response
// itself when it returns false.
func decodeRequest(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			WriteError(w, http.StatusRequestEntityTooLarge, "request body too large", "PAYLOAD_TOO_LARGE")
			return false
		}
		WriteError(w, http.StatusBadRequest, "invalid request body", "BAD_REQUEST")
		return false
	}
	if err := validate.Struct(v); err != nil {
		WriteError(w, http.StatusBadRequest, err.Error(), "VALIDATION_ERROR")
		return false
	}
	return true
}

func parsePoses(w http.ResponseWriter, field string, raw json.RawMessage) (pose.Sequence, bool) {
	seq, err := pose.ParseSequence(raw)
	if err != nil {
		WriteError(w, http.StatusBadRequest, field+": "+err.Error(), "BAD_REQUEST")
		return nil, false
	}
	return seq, true
}

// resolve returns nil when the input names no selection at all.
func (in SelectionInput) resolve() (*selection.Selection, error) {
	if in.Selection != nil {
		sel := *in.Selection
		return &sel, nil
	}
	if in.SelectionType == "" {
		return nil, nil
	}
	flags, err := selection.FlagsFromMap(in.Flags)
	if err != nil {
		return nil, err
	}
	sel, err := selection.Resolve(in.SelectionType, flags)
	if err != nil {
		return nil, err
	}
	return &sel, nil
}

func (in SelectionInput) label() string {
	if in.Selection != nil {
		return "explicit"
	}
	return in.SelectionType
}

func personIndex(p *int) int {
	if p == nil {
		return transform.AllPeople
	}
	return *p
}

// runOperation executes fn, records it in history and writes the response.
func runOperation(w http.ResponseWriter, r *http.Request, cfg ServerConfig, op, label string, fn func(ctx context.Context) (pose.Sequence, error)) {
	ctx := r.Context()

	var out pose.Sequence
	exec := func() (history.Result, error) {
		var err error
		out, err = fn(ctx)
		if err != nil {
			return history.Result{}, err
		}
		return history.Result{Frames: len(out), People: out.PeopleCount()}, nil
	}

	var err error
	if cfg.History != nil {
		err = cfg.History.Record(ctx, op, label, exec)
	} else {
		_, err = exec()
	}
	if err != nil {
		writeTransformError(w, err)
		return
	}

	WriteJSON(w, http.StatusOK, PosesToResponse(out))
}

// writeTransformError maps domain errors onto status codes and error codes.
func writeTransformError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, skeleton.ErrUnknownPreset):
		WriteError(w, http.StatusBadRequest, err.Error(), "UNKNOWN_PRESET")
	case errors.Is(err, transform.ErrInvalidOffsets):
		WriteError(w, http.StatusBadRequest, err.Error(), "INVALID_OFFSETS")
	case errors.Is(err, pose.ErrShapeMismatch):
		WriteError(w, http.StatusUnprocessableEntity, err.Error(), "SHAPE_MISMATCH")
	case errors.Is(err, transform.ErrInvalidPersonIndex):
		WriteError(w, http.StatusUnprocessableEntity, err.Error(), "INVALID_PERSON_INDEX")
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		WriteError(w, http.StatusServiceUnavailable, "request cancelled", "CANCELLED")
	default:
		WriteError(w, http.StatusBadRequest, err.Error(), "BAD_REQUEST")
	}
}

func resolveHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req ResolveRequest
		if !decodeRequest(w, r, &req) {
			return
		}

		flags, err := selection.FlagsFromMap(req.Flags)
		if err != nil {
			WriteError(w, http.StatusBadRequest, err.Error(), "BAD_REQUEST")
			return
		}
		sel, err := selection.Resolve(req.SelectionType, flags)
		if err != nil {
			writeTransformError(w, err)
			return
		}

		WriteJSON(w, http.StatusOK, ResolveResponse{SelectionType: req.SelectionType, Selection: sel})
	}
}

func filterHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req FilterRequest
		if !decodeRequest(w, r, &req) {
			return
		}
		seq, ok := parsePoses(w, "poses", req.Poses)
		if !ok {
			return
		}
		sel, err := req.resolve()
		if err != nil {
			writeTransformError(w, err)
			return
		}
		if sel == nil {
			WriteError(w, http.StatusBadRequest, "selection_type or selection is required", "BAD_REQUEST")
			return
		}

		opts := transform.FilterOptions{PersonIndex: personIndex(req.PersonIndex), Invert: req.Invert}
		runOperation(w, r, cfg, history.OpFilter, req.label(), func(ctx context.Context) (pose.Sequence, error) {
			return cfg.Engine.Filter(ctx, seq, *sel, opts)
		})
	}
}

func moveHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req MoveRequest
		if !decodeRequest(w, r, &req) {
			return
		}
		seq, ok := parsePoses(w, "poses", req.Poses)
		if !ok {
			return
		}
		sel, err := req.resolve()
		if err != nil {
			writeTransformError(w, err)
			return
		}

		opts := transform.MoveOptions{
			X:             req.XOffset,
			Y:             req.YOffset,
			Selection:     sel,
			Appendage:     req.Appendage,
			PersonIndex:   personIndex(req.PersonIndex),
			Policy:        transform.MismatchPolicy(req.MismatchPolicy),
			AffectHands:   req.AffectHands,
			AffectFace:    req.AffectFace,
			IncludeHidden: req.IncludeHidden,
		}
		label := req.label()
		if label == "" {
			label = req.Appendage
		}
		runOperation(w, r, cfg, history.OpMove, label, func(ctx context.Context) (pose.Sequence, error) {
			return cfg.Engine.Move(ctx, seq, opts)
		})
	}
}

func attachHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req AttachRequest
		if !decodeRequest(w, r, &req) {
			return
		}
		base, ok := parsePoses(w, "base", req.Base)
		if !ok {
			return
		}
		attachment, ok := parsePoses(w, "attachment", req.Attachment)
		if !ok {
			return
		}
		sel, err := req.resolve()
		if err != nil {
			writeTransformError(w, err)
			return
		}

		opts := transform.AttachOptions{
			AnchorIndex:      req.AnchorIndex,
			Selection:        sel,
			BasePerson:       req.BasePerson,
			AttachmentPerson: req.AttachmentPerson,
			AttachHands:      req.AttachHands,
			AttachFace:       req.AttachFace,
		}
		runOperation(w, r, cfg, history.OpAttach, req.label(), func(ctx context.Context) (pose.Sequence, error) {
			return cfg.Engine.Attach(ctx, base, attachment, opts)
		})
	}
}

func mergeHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req MergeRequest
		if !decodeRequest(w, r, &req) {
			return
		}
		seqs := make([]pose.Sequence, len(req.Sequences))
		for i, raw := range req.Sequences {
			seq, ok := parsePoses(w, "sequences", raw)
			if !ok {
				return
			}
			seqs[i] = seq
		}

		opts := transform.MergeOptions{CanvasWidth: req.CanvasWidth, CanvasHeight: req.CanvasHeight}
		runOperation(w, r, cfg, history.OpMerge, "", func(context.Context) (pose.Sequence, error) {
			return cfg.Engine.Merge(seqs, opts)
		})
	}
}

func smoothHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req SmoothRequest
		if !decodeRequest(w, r, &req) {
			return
		}
		seq, ok := parsePoses(w, "poses", req.Poses)
		if !ok {
			return
		}
		sel, err := req.resolve()
		if err != nil {
			writeTransformError(w, err)
			return
		}

		focus := transform.NoFocus
		if req.FocusIndex != nil {
			focus = *req.FocusIndex
		}
		factor := transform.DefaultSmoothFactor
		if req.Factor != nil {
			factor = *req.Factor
		}
		hands := true
		if req.SmoothHands != nil {
			hands = *req.SmoothHands
		}
		opts := transform.SmoothOptions{
			Factor:      factor,
			Selection:   sel,
			FocusIndex:  focus,
			PersonIndex: personIndex(req.PersonIndex),
			SmoothHands: hands,
			SmoothFace:  req.SmoothFace,
		}
		runOperation(w, r, cfg, history.OpSmooth, req.label(), func(ctx context.Context) (pose.Sequence, error) {
			return cfg.Engine.Smooth(ctx, seq, opts)
		})
	}
}
