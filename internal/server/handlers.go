package server

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/deidaraiorek/snowstem/internal/annotation"
	"github.com/deidaraiorek/snowstem/internal/document"
	stemerrors "github.com/deidaraiorek/snowstem/internal/errors"
	"github.com/deidaraiorek/snowstem/internal/stemmer"
	"github.com/deidaraiorek/snowstem/internal/stemming"
	"github.com/deidaraiorek/snowstem/internal/storage"
)

// stemRequest is the body of POST /v1/stem and the optional body of
// POST /v1/documents/{name}/stem. Empty fields fall back to the server config.
type stemRequest struct {
	Name           string `json:"name"`
	Text           string `json:"text"`
	HTML           string `json:"html"`
	Language       string `json:"language"`
	AnnotationSet  string `json:"annotation_set"`
	AnnotationType string `json:"annotation_type"`
	SourceFeature  string `json:"source_feature"`
}

type tokenView struct {
	ID    int    `json:"id"`
	Start int    `json:"start"`
	End   int    `json:"end"`
	Text  string `json:"text"`
	Stem  string `json:"stem,omitempty"`
}

type stemResponse struct {
	Document string           `json:"document"`
	Language string           `json:"language"`
	Result   *stemming.Result `json:"result"`
	Tokens   []tokenView      `json:"tokens"`
}

type setView struct {
	Name        string                   `json:"name"`
	Annotations []*annotation.Annotation `json:"annotations"`
}

type documentView struct {
	Name    string    `json:"name"`
	Content string    `json:"content"`
	Sets    []setView `json:"sets"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"status":  "healthy",
		"version": Version,
	})
}

func (s *Server) handleLanguages(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"languages": stemmer.Languages(),
		"default":   s.cfg.Stemmer.Language,
	})
}

// --- Ad hoc stemming ---

func (s *Server) handleStem(w http.ResponseWriter, r *http.Request) {
	var req stemRequest
	if err := decodeBody(r, &req, false); err != nil {
		s.writeError(w, err)
		return
	}
	if req.Text != "" && req.HTML != "" {
		s.writeError(w, stemerrors.ConfigError("set either text or html, not both", nil))
		return
	}

	name := req.Name
	if name == "" {
		name = "request"
	}

	var doc *annotation.Document
	if req.HTML != "" {
		var err error
		if doc, err = document.LoadHTML(name, strings.NewReader(req.HTML)); err != nil {
			s.writeError(w, err)
			return
		}
	} else {
		doc = annotation.NewDocument(name, req.Text)
	}

	cfg := s.stemmingConfig(req)
	s.tokenizer.Annotate(doc, cfg.AnnotationSetName, cfg.AnnotationType)

	a, err := stemming.NewAnalyser(cfg, stemming.WithLogger(s.logger))
	if err != nil {
		s.writeError(w, err)
		return
	}
	res, err := a.Execute(r.Context(), doc)
	if err != nil {
		s.writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, stemResponse{
		Document: doc.Name(),
		Language: a.Language(),
		Result:   res,
		Tokens:   tokenViews(doc, a.Config()),
	})
}

// --- Stored documents ---

func (s *Server) handleListDocuments(w http.ResponseWriter, r *http.Request) {
	if !s.requireStore(w) {
		return
	}
	docs, err := s.store.List(r.Context())
	if err != nil {
		s.writeError(w, err)
		return
	}
	if docs == nil {
		docs = []storage.Summary{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"documents": docs})
}

func (s *Server) handleGetDocument(w http.ResponseWriter, r *http.Request) {
	if !s.requireStore(w) {
		return
	}
	doc, err := s.store.Load(r.Context(), chi.URLParam(r, "name"))
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, viewOf(doc))
}

func (s *Server) handlePutDocument(w http.ResponseWriter, r *http.Request) {
	if !s.requireStore(w) {
		return
	}
	name := chi.URLParam(r, "name")

	var req stemRequest
	if err := decodeBody(r, &req, false); err != nil {
		s.writeError(w, err)
		return
	}

	var doc *annotation.Document
	if req.HTML != "" {
		var err error
		if doc, err = document.LoadHTML(name, strings.NewReader(req.HTML)); err != nil {
			s.writeError(w, err)
			return
		}
	} else {
		doc = annotation.NewDocument(name, req.Text)
	}

	unlock, err := s.lock()
	if err != nil {
		s.writeError(w, err)
		return
	}
	defer unlock()

	if err := s.store.Save(r.Context(), doc); err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]string{
		"status": "stored",
		"name":   name,
	})
}

func (s *Server) handleDeleteDocument(w http.ResponseWriter, r *http.Request) {
	if !s.requireStore(w) {
		return
	}
	name := chi.URLParam(r, "name")

	unlock, err := s.lock()
	if err != nil {
		s.writeError(w, err)
		return
	}
	defer unlock()

	if err := s.store.Delete(r.Context(), name); err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{
		"status": "deleted",
		"name":   name,
	})
}

// handleStemDocument loads a stored document, tokenizes it when the
// configured set has no annotations of the configured type, stems it and
// saves it back, all under the store lock.
func (s *Server) handleStemDocument(w http.ResponseWriter, r *http.Request) {
	if !s.requireStore(w) {
		return
	}
	name := chi.URLParam(r, "name")

	var req stemRequest
	if err := decodeBody(r, &req, true); err != nil {
		s.writeError(w, err)
		return
	}
	cfg := s.stemmingConfig(req)

	a, err := stemming.NewAnalyser(cfg, stemming.WithLogger(s.logger))
	if err != nil {
		s.writeError(w, err)
		return
	}
	cfg = a.Config()

	unlock, err := s.lock()
	if err != nil {
		s.writeError(w, err)
		return
	}
	defer unlock()

	doc, err := s.store.Load(r.Context(), name)
	if err != nil {
		s.writeError(w, err)
		return
	}
	if set, ok := doc.Set(cfg.AnnotationSetName); !ok || len(set.Get(cfg.AnnotationType)) == 0 {
		s.tokenizer.Annotate(doc, cfg.AnnotationSetName, cfg.AnnotationType)
	}

	res, err := a.Execute(r.Context(), doc)
	if err != nil {
		s.writeError(w, err)
		return
	}
	if err := s.store.Save(r.Context(), doc); err != nil {
		s.writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, stemResponse{
		Document: doc.Name(),
		Language: a.Language(),
		Result:   res,
		Tokens:   tokenViews(doc, cfg),
	})
}

// --- helpers ---

func (s *Server) stemmingConfig(req stemRequest) stemming.Config {
	cfg := s.cfg.StemmingConfig()
	if req.Language != "" {
		cfg.Language = req.Language
	}
	if req.AnnotationSet != "" {
		cfg.AnnotationSetName = req.AnnotationSet
	}
	if req.AnnotationType != "" {
		cfg.AnnotationType = req.AnnotationType
	}
	if req.SourceFeature != "" {
		cfg.SourceFeature = req.SourceFeature
	}
	return cfg
}

func (s *Server) requireStore(w http.ResponseWriter) bool {
	if s.store != nil {
		return true
	}
	writeJSON(w, http.StatusServiceUnavailable, stemerrors.ToJSONError(
		stemerrors.StorageError("document storage is not configured", nil)))
	return false
}

func (s *Server) lock() (func(), error) {
	if s.storePath == "" {
		return func() {}, nil
	}
	return storage.Lock(s.storePath)
}

func (s *Server) writeError(w http.ResponseWriter, err error) {
	status := statusFor(err)
	if status >= http.StatusInternalServerError {
		s.logger.Error("request failed", slog.String("error", err.Error()))
	}
	writeJSON(w, status, stemerrors.ToJSONError(err))
}

// decodeBody reads a JSON body. With optional set, an empty body is accepted.
func decodeBody(r *http.Request, v any, optional bool) error {
	err := json.NewDecoder(r.Body).Decode(v)
	if err == nil || (optional && errors.Is(err, io.EOF)) {
		return nil
	}
	var maxErr *http.MaxBytesError
	if errors.As(err, &maxErr) {
		return stemerrors.ConfigError("request body too large", err)
	}
	return stemerrors.ConfigError("invalid request body", err)
}

func tokenViews(doc *annotation.Document, cfg stemming.Config) []tokenView {
	set, ok := doc.Set(cfg.AnnotationSetName)
	if !ok {
		return []tokenView{}
	}
	tokens := set.Get(cfg.AnnotationType)
	out := make([]tokenView, 0, len(tokens))
	for _, t := range tokens {
		text, _ := t.Features.GetString(cfg.SourceFeature)
		stem, _ := t.Features.GetString(stemming.StemFeature)
		out = append(out, tokenView{ID: t.ID, Start: t.Start, End: t.End, Text: text, Stem: stem})
	}
	return out
}

func viewOf(doc *annotation.Document) documentView {
	v := documentView{Name: doc.Name(), Content: doc.Content()}
	v.Sets = append(v.Sets, setView{Name: "", Annotations: doc.Annotations().All()})
	for _, name := range doc.SetNames() {
		set, _ := doc.Set(name)
		v.Sets = append(v.Sets, setView{Name: name, Annotations: set.All()})
	}
	return v
}
