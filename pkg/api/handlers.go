package api

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/matzehuels/erkit/pkg/cache"
	"github.com/matzehuels/erkit/pkg/diagram"
	"github.com/matzehuels/erkit/pkg/er"
	"github.com/matzehuels/erkit/pkg/er/autolayout"
	"github.com/matzehuels/erkit/pkg/errors"
	erio "github.com/matzehuels/erkit/pkg/io"
	"github.com/matzehuels/erkit/pkg/render/dot"
)

// =============================================================================
// Payloads
// =============================================================================

type elementView struct {
	ID     string             `json:"id"`
	Type   string             `json:"type"`
	Kind   string             `json:"kind"`
	Bounds diagram.Bounds     `json:"bounds"`
	Props  diagram.Properties `json:"props"`
}

type moveRequest struct {
	IDs []string `json:"ids"`
	DX  float64  `json:"dx"`
	DY  float64  `json:"dy"`
}

type deleteRequest struct {
	IDs []string `json:"ids"`
}

type compositeRequest struct {
	Value *bool `json:"value"`
}

type decisionResponse struct {
	Decision string `json:"decision"`
}

type layoutResponse struct {
	Moved   []string `json:"moved"`
	Skipped []string `json:"skipped"`
}

func view(m *er.Modeler, e *diagram.Element) elementView {
	return elementView{
		ID:     e.ID,
		Type:   string(e.Type),
		Kind:   m.Classifier().Classify(e).String(),
		Bounds: e.Bounds,
		Props:  e.Props,
	}
}

func layoutView(r autolayout.Result) layoutResponse {
	out := layoutResponse{Moved: r.Moved, Skipped: r.Skipped}
	if out.Moved == nil {
		out.Moved = []string{}
	}
	if out.Skipped == nil {
		out.Skipped = []string{}
	}
	return out
}

// =============================================================================
// Documents
// =============================================================================

func (s *Server) handleList(w http.ResponseWriter, r *http.Request) {
	ids, err := s.store.List(r.Context())
	if err != nil {
		s.writeError(w, err)
		return
	}
	if ids == nil {
		ids = []string{}
	}
	writeJSON(w, http.StatusOK, map[string][]string{"diagrams": ids})
}

func (s *Server) handleGet(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := errors.ValidateID(id); err != nil {
		s.writeError(w, err)
		return
	}
	data, err := s.store.Get(r.Context(), id)
	if err != nil {
		s.writeError(w, err)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write(data)
}

// handlePut validates the document by loading it and stores the normalized
// form.
func (s *Server) handlePut(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := errors.ValidateID(id); err != nil {
		s.writeError(w, err)
		return
	}
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxDocumentSize))
	if err != nil {
		s.writeError(w, errors.Wrap(errors.ErrCodeInvalidInput, err, "read body"))
		return
	}
	m, err := erio.Load(bytes.NewReader(body), s.opts)
	if err != nil {
		s.writeError(w, err)
		return
	}
	var buf bytes.Buffer
	if err := erio.Save(m, &buf); err != nil {
		s.writeError(w, err)
		return
	}

	unlock := s.lock(id)
	err = s.store.Put(r.Context(), id, buf.Bytes())
	unlock()
	if err != nil {
		s.writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleDelete(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := errors.ValidateID(id); err != nil {
		s.writeError(w, err)
		return
	}
	unlock := s.lock(id)
	err := s.store.Delete(r.Context(), id)
	unlock()
	if err != nil {
		s.writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleSVG(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	q := r.URL.Query()
	opts := dot.Options{Detailed: q.Get("detailed") == "true", Free: q.Get("free") == "true"}

	var src string
	err := s.withModeler(r.Context(), id, false, func(m *er.Modeler) error {
		var err error
		src, err = dot.ToDOT(m.Engine(), m.Classifier(), opts)
		return err
	})
	if err != nil {
		s.writeError(w, err)
		return
	}

	key := s.keyer.RenderKey(cache.Hash([]byte(src)), cache.RenderKeyOpts{
		Format: "svg", Detailed: opts.Detailed, Free: opts.Free,
	})
	svg, ok, err := s.cache.Get(r.Context(), key)
	if err != nil {
		s.logger.Warn("render cache read failed", "diagram", id, "err", err)
	}
	if !ok {
		svg, err = s.render(r.Context(), src)
		if err != nil {
			s.writeError(w, errors.Wrap(errors.ErrCodeInternal, err, "render %s", id))
			return
		}
		if err := s.cache.Set(r.Context(), key, svg, s.cacheTTL); err != nil {
			s.logger.Warn("render cache write failed", "diagram", id, "err", err)
		}
	}
	w.Header().Set("Content-Type", "image/svg+xml")
	w.Header().Set("Content-Length", strconv.Itoa(len(svg)))
	w.WriteHeader(http.StatusOK)
	w.Write(svg)
}

// =============================================================================
// Property Panel
// =============================================================================

func (s *Server) handleContained(w http.ResponseWriter, r *http.Request) {
	var contained bool
	err := s.withElement(r, func(m *er.Modeler, e *diagram.Element) error {
		contained = m.IsContained(e)
		return nil
	})
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"contained": contained})
}

func (s *Server) handleConvertible(w http.ResponseWriter, r *http.Request) {
	var convertible bool
	err := s.withElement(r, func(m *er.Modeler, e *diagram.Element) error {
		convertible = m.CanConvertToComposite(e)
		return nil
	})
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"convertible": convertible})
}

func (s *Server) handleComposite(w http.ResponseWriter, r *http.Request) {
	var req compositeRequest
	if err := decode(r, &req); err != nil {
		s.writeError(w, err)
		return
	}
	if req.Value == nil {
		s.writeError(w, errors.New(errors.ErrCodeInvalidInput, "value is required"))
		return
	}
	var out elementView
	err := s.mutateElement(r, func(m *er.Modeler, e *diagram.Element) error {
		if err := m.SetComposite(e, *req.Value); err != nil {
			return err
		}
		out = view(m, e)
		return nil
	})
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleChildren(w http.ResponseWriter, r *http.Request) {
	cid := chi.URLParam(r, "cid")
	var out []elementView
	err := s.withModeler(r.Context(), chi.URLParam(r, "id"), false, func(m *er.Modeler) error {
		children, err := m.Children(cid)
		if err != nil {
			return err
		}
		out = make([]elementView, 0, len(children))
		for _, c := range children {
			out = append(out, view(m, c))
		}
		return nil
	})
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string][]elementView{"children": out})
}

func (s *Server) handleReorganize(w http.ResponseWriter, r *http.Request) {
	cid := chi.URLParam(r, "cid")
	var res autolayout.Result
	err := s.withModeler(r.Context(), chi.URLParam(r, "id"), true, func(m *er.Modeler) error {
		var err error
		res, err = m.ReorganizeChildren(cid)
		return err
	})
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, layoutView(res))
}

func (s *Server) handleMove(w http.ResponseWriter, r *http.Request) {
	var req moveRequest
	if err := decode(r, &req); err != nil {
		s.writeError(w, err)
		return
	}
	if len(req.IDs) == 0 {
		s.writeError(w, errors.New(errors.ErrCodeInvalidInput, "ids are required"))
		return
	}
	var dec diagram.Decision
	err := s.withModeler(r.Context(), chi.URLParam(r, "id"), true, func(m *er.Modeler) error {
		var err error
		dec, err = m.Move(req.IDs, diagram.Point{X: req.DX, Y: req.DY})
		return err
	})
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, decisionResponse{Decision: dec.String()})
}

func (s *Server) handleDeleteElements(w http.ResponseWriter, r *http.Request) {
	var req deleteRequest
	if err := decode(r, &req); err != nil {
		s.writeError(w, err)
		return
	}
	if len(req.IDs) == 0 {
		s.writeError(w, errors.New(errors.ErrCodeInvalidInput, "ids are required"))
		return
	}
	var dec diagram.Decision
	err := s.withModeler(r.Context(), chi.URLParam(r, "id"), true, func(m *er.Modeler) error {
		var err error
		dec, err = m.Delete(req.IDs)
		return err
	})
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, decisionResponse{Decision: dec.String()})
}

func (s *Server) withElement(r *http.Request, fn func(*er.Modeler, *diagram.Element) error) error {
	return s.elementOp(r, false, fn)
}

func (s *Server) mutateElement(r *http.Request, fn func(*er.Modeler, *diagram.Element) error) error {
	return s.elementOp(r, true, fn)
}

func (s *Server) elementOp(r *http.Request, save bool, fn func(*er.Modeler, *diagram.Element) error) error {
	eid := chi.URLParam(r, "eid")
	return s.withModeler(r.Context(), chi.URLParam(r, "id"), save, func(m *er.Modeler) error {
		e, err := m.Engine().Get(eid)
		if err != nil {
			return errors.Wrap(errors.ErrCodeNotFound, err, "element %s", eid)
		}
		return fn(m, e)
	})
}

// =============================================================================
// Encoding
// =============================================================================

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func statusFor(code errors.Code) int {
	switch code {
	case errors.ErrCodeNotFound:
		return http.StatusNotFound
	case errors.ErrCodeInvalidInput, errors.ErrCodeInvalidFormat:
		return http.StatusBadRequest
	case errors.ErrCodeCompositeLocked, errors.ErrCodeNotContainer:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

func (s *Server) writeError(w http.ResponseWriter, err error) {
	code := errors.GetCode(err)
	if code == "" {
		code = errors.ErrCodeInternal
	}
	status := statusFor(code)
	if status >= http.StatusInternalServerError {
		s.logger.Error("request failed", "code", code, "err", err)
	}
	writeJSON(w, status, errorResponse{Code: string(code), Message: errors.UserMessage(err)})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func decode(r *http.Request, v any) error {
	dec := json.NewDecoder(io.LimitReader(r.Body, maxDocumentSize))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return errors.Wrap(errors.ErrCodeInvalidInput, err, "decode request")
	}
	return nil
}
