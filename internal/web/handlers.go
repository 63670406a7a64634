package web

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/JonMunkholm/ticketcast/internal/history"
	"github.com/JonMunkholm/ticketcast/internal/pipeline"
	"github.com/JonMunkholm/ticketcast/internal/storage"
)

// maxEventSize bounds a relayed storage notification.
const maxEventSize = 1 << 20

// EventResponse is the pipeline Result plus run metadata.
type EventResponse struct {
	pipeline.Result
	RunID string        `json:"run_id"`
	Kind  pipeline.Kind `json:"kind"`
	Code  string        `json:"code,omitempty"`
}

func eventResponse(out pipeline.Outcome) EventResponse {
	return EventResponse{
		Result: out.Result,
		RunID:  out.RunID.String(),
		Kind:   out.Report.Kind(),
		Code:   pipeline.MessageFor(out.Report.Kind()).Code,
	}
}

// FileInfo describes one stored report or log.
type FileInfo struct {
	Name         string    `json:"name"`
	Size         int64     `json:"size"`
	LastModified time.Time `json:"last_modified"`
}

func fileInfos(objs []storage.Object) []FileInfo {
	out := make([]FileInfo, len(objs))
	for i, o := range objs {
		out[i] = FileInfo{Name: o.Name(), Size: o.Size, LastModified: o.LastModified}
	}
	return out
}

func groupedFileInfos(groups map[string][]storage.Object) map[string][]FileInfo {
	out := make(map[string][]FileInfo, len(groups))
	for owner, objs := range groups {
		out[owner] = fileInfos(objs)
	}
	return out
}

// UploadResponse is returned by POST /api/uploads.
type UploadResponse struct {
	Bucket     string         `json:"bucket"`
	Key        string         `json:"key"`
	Size       int64          `json:"size"`
	Validation *EventResponse `json:"validation,omitempty"`
}

// SendRequest is the body of POST /api/admin/reports/send.
type SendRequest struct {
	Owner string   `json:"owner"`
	Names []string `json:"names"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// handleEvent runs one storage notification through the pipeline. The
// response status mirrors the Result so a relaying webhook can retry 5xx.
func (s *Server) handleEvent(w http.ResponseWriter, r *http.Request) {
	raw, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxEventSize))
	if err != nil {
		respondError(w, r, fmt.Errorf("%w: %w", errBadRequest, err))
		return
	}

	out := s.pipeline.HandleJSON(r.Context(), raw)
	writeJSON(w, out.Result.StatusCode, eventResponse(out))
}

// handleUpload stores a multipart file for the signed-in user and, when
// inline validation is enabled, runs the pipeline on it immediately.
func (s *Server) handleUpload(w http.ResponseWriter, r *http.Request) {
	sess, _ := SessionFrom(r.Context())

	maxSize := s.cfg.Validation.MaxFileSize
	r.Body = http.MaxBytesReader(w, r.Body, maxSize)

	if err := r.ParseMultipartForm(maxSize); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			respondError(w, r, fmt.Errorf("%w: limit %d bytes", errFileTooLarge, maxSize))
			return
		}
		respondError(w, r, fmt.Errorf("%w: %w", errBadRequest, err))
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		respondError(w, r, errNoFile)
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		respondError(w, r, fmt.Errorf("read upload: %w", err))
		return
	}

	obj, err := s.reports.Upload(r.Context(), sess.Principal, header.Filename, data)
	if err != nil {
		respondError(w, r, err)
		return
	}

	resp := UploadResponse{
		Bucket: s.cfg.Storage.SourceBucket,
		Key:    obj.Key,
		Size:   obj.Size,
	}
	if s.cfg.Validation.Inline && s.pipeline != nil {
		out := s.pipeline.Handle(r.Context(), pipeline.EventFor(s.cfg.Storage.SourceBucket, obj.Key))
		v := eventResponse(out)
		resp.Validation = &v
	}

	writeJSON(w, http.StatusCreated, resp)
}

// handleListReports lists the signed-in user's released reports.
func (s *Server) handleListReports(w http.ResponseWriter, r *http.Request) {
	sess, _ := SessionFrom(r.Context())

	objs, err := s.reports.UserReports(r.Context(), sess.Principal)
	if err != nil {
		respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"reports": fileInfos(objs)})
}

// handleDownloadReport streams one of the signed-in user's reports.
func (s *Server) handleDownloadReport(w http.ResponseWriter, r *http.Request) {
	sess, _ := SessionFrom(r.Context())
	name := chi.URLParam(r, "name")

	data, err := s.reports.Download(r.Context(), sess.Principal, name)
	if err != nil {
		respondError(w, r, err)
		return
	}
	writeFile(w, name, data)
}

// handlePendingReports lists reports awaiting review, by owner.
func (s *Server) handlePendingReports(w http.ResponseWriter, r *http.Request) {
	groups, err := s.reports.PendingReports(r.Context())
	if err != nil {
		respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"owners": groupedFileInfos(groups)})
}

// handleSendReports releases reports to their owner. Partial failures are
// reported per file with status 207.
func (s *Server) handleSendReports(w http.ResponseWriter, r *http.Request) {
	var req SendRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxEventSize)).Decode(&req); err != nil {
		respondError(w, r, fmt.Errorf("%w: %w", errBadRequest, err))
		return
	}

	results, err := s.reports.Send(r.Context(), req.Owner, req.Names)
	if results == nil && err != nil {
		respondError(w, r, err)
		return
	}

	status := http.StatusOK
	if err != nil {
		status = http.StatusMultiStatus
		sent := 0
		for _, res := range results {
			if res.Sent {
				sent++
			}
		}
		if sent == 0 {
			respondError(w, r, err)
			return
		}
	}
	writeJSON(w, status, map[string]any{"owner": req.Owner, "results": results})
}

// handleListLogs lists processing logs by owner.
func (s *Server) handleListLogs(w http.ResponseWriter, r *http.Request) {
	groups, err := s.reports.Logs(r.Context())
	if err != nil {
		respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"owners": groupedFileInfos(groups)})
}

func (s *Server) handleReadLog(w http.ResponseWriter, r *http.Request) {
	data, err := s.reports.ReadLog(r.Context(), chi.URLParam(r, "owner"), chi.URLParam(r, "name"))
	if err != nil {
		respondError(w, r, err)
		return
	}
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}

// handleListRuns returns recent validation runs, newest first.
// Query: owner, kind, limit.
func (s *Server) handleListRuns(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	runs, err := s.runs.List(r.Context(), history.Filter{
		Owner: q.Get("owner"),
		Kind:  q.Get("kind"),
		Limit: parseIntParam(r, "limit", history.DefaultLimit),
	})
	if err != nil {
		respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"runs": runs})
}

func (s *Server) handleUploadStatus(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.reports.Limiter().Status())
}

// writeFile sends data as a download named name.
func writeFile(w http.ResponseWriter, name string, data []byte) {
	w.Header().Set("Content-Type", storage.ContentTypeFor(name))
	w.Header().Set("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{"filename": name}))
	w.Header().Set("Content-Length", strconv.Itoa(len(data)))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}

// parseIntParam parses a positive integer query parameter with a default value.
func parseIntParam(r *http.Request, name string, defaultVal int) int {
	val := r.URL.Query().Get(name)
	if val == "" {
		return defaultVal
	}
	i, err := strconv.Atoi(val)
	if err != nil || i < 1 {
		return defaultVal
	}
	return i
}
