package web

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/render"

	"github.com/JonMunkholm/nemweb/internal/ingest"
	"github.com/JonMunkholm/nemweb/internal/ledger"
	"github.com/JonMunkholm/nemweb/internal/logging"
	"github.com/JonMunkholm/nemweb/internal/mms"
)

const (
	defaultLedgerLimit = 50
	maxLedgerLimit     = 500
)

type healthResponse struct {
	Status  string               `json:"status"`
	Uptime  string               `json:"uptime"`
	Schemas int                  `json:"schemas"`
	Parses  ingest.LimiterStatus `json:"parses"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	render.JSON(w, r, healthResponse{
		Status:  "ok",
		Uptime:  time.Since(s.started).Round(time.Second).String(),
		Schemas: s.service.Registry().Len(),
		Parses:  s.service.Limiter().Status(),
	})
}

type schemaResponse struct {
	Key         mms.SchemaKey   `json:"key"`
	Kind        mms.RecordKind  `json:"kind"`
	Description string          `json:"description,omitempty"`
	Fields      []fieldResponse `json:"fields"`
}

type fieldResponse struct {
	Name string `json:"name"`
	Type string `json:"type"`
}

func newSchemaResponse(sc *mms.Schema) schemaResponse {
	fields := make([]fieldResponse, len(sc.Fields))
	for i, f := range sc.Fields {
		fields[i] = fieldResponse{Name: f.Name, Type: f.Type.String()}
	}
	return schemaResponse{
		Key:         sc.Key,
		Kind:        sc.Kind,
		Description: sc.Description,
		Fields:      fields,
	}
}

// handleSchemas lists registered schemas, or the one named by ?key=.
func (s *Server) handleSchemas(w http.ResponseWriter, r *http.Request) {
	reg := s.service.Registry()

	if raw := r.URL.Query().Get("key"); raw != "" {
		key, err := mms.ParseSchemaKey(raw)
		if err != nil {
			respondError(w, r, fmt.Errorf("%w: %v", errBadSchemaKey, err))
			return
		}
		sc, ok := reg.Lookup(key)
		if !ok {
			respondError(w, r, fmt.Errorf("%w: %s", errNoSchema, key))
			return
		}
		render.JSON(w, r, newSchemaResponse(sc))
		return
	}

	schemas := reg.Schemas()
	out := make([]schemaResponse, 0, len(schemas))
	for _, sc := range schemas {
		out = append(out, newSchemaResponse(sc))
	}
	render.JSON(w, r, out)
}

// recordEnvelope tags a record with its variant so clients can decode it.
type recordEnvelope struct {
	Kind   mms.RecordKind `json:"kind"`
	Record mms.Record     `json:"record"`
}

type parseResponse struct {
	*mms.Collection
	Counts  map[mms.RecordKind]int `json:"counts"`
	Records []recordEnvelope       `json:"records,omitempty"`
}

func newParseResponse(col *mms.Collection, withRecords bool) parseResponse {
	resp := parseResponse{Collection: col, Counts: col.CountByKind()}
	if withRecords {
		resp.Records = make([]recordEnvelope, len(col.Records))
		for i, rec := range col.Records {
			resp.Records[i] = recordEnvelope{Kind: rec.Kind(), Record: rec}
		}
	}
	return resp
}

// handleParse parses an uploaded archive. The zip is either the raw request
// body or the multipart field "file".
func (s *Server) handleParse(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, s.opts.MaxUpload)

	name, data, err := readUpload(r, s.opts.MaxUpload)
	if err != nil {
		respondError(w, r, err)
		return
	}

	col, err := s.service.ParseArchive(r.Context(), name, data)
	if err != nil {
		respondError(w, r, err)
		return
	}

	logParsed(r, col)
	render.JSON(w, r, newParseResponse(col, wantRecords(r)))
}

func logParsed(r *http.Request, col *mms.Collection) {
	logging.WithFields(r.Context(), "archive", col.Source, "run_id", col.RunID.String()).Info("archive parsed",
		"entries", col.Entries,
		"records", len(col.Records),
		"issues", len(col.Issues),
		"failures", len(col.Failures),
	)
}

func readUpload(r *http.Request, maxSize int64) (string, []byte, error) {
	name := r.URL.Query().Get("name")
	if name == "" {
		name = "upload.zip"
	}

	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if mediaType == "multipart/form-data" {
		if err := r.ParseMultipartForm(maxSize); err != nil {
			return "", nil, uploadError(err)
		}
		file, header, err := r.FormFile("file")
		if err != nil {
			return "", nil, errEmptyArchive
		}
		defer file.Close()

		var buf bytes.Buffer
		if _, err := io.Copy(&buf, file); err != nil {
			return "", nil, uploadError(err)
		}
		if header.Filename != "" {
			name = header.Filename
		}
		return name, buf.Bytes(), nil
	}

	data, err := io.ReadAll(r.Body)
	if err != nil {
		return "", nil, uploadError(err)
	}
	if len(data) == 0 {
		return "", nil, errEmptyArchive
	}
	return name, data, nil
}

func uploadError(err error) error {
	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		return errTooLarge
	}
	if errors.Is(err, http.ErrMissingFile) {
		return errEmptyArchive
	}
	return err
}

func wantRecords(r *http.Request) bool {
	v, _ := strconv.ParseBool(r.URL.Query().Get("records"))
	return v
}

// handleIngest fetches, parses and records one archive from NEMweb.
func (s *Server) handleIngest(w http.ResponseWriter, r *http.Request) {
	href := r.URL.Query().Get("href")
	if href == "" {
		respondError(w, r, errMissingHref)
		return
	}

	col, err := s.service.IngestReport(r.Context(), href)
	if err != nil {
		respondError(w, r, err)
		return
	}

	logParsed(r, col)
	status := http.StatusCreated
	if col.AllFailed() {
		status = http.StatusUnprocessableEntity
	}
	render.Status(r, status)
	render.JSON(w, r, newParseResponse(col, wantRecords(r)))
}

func (s *Server) handleLedger(w http.ResponseWriter, r *http.Request) {
	limit := defaultLedgerLimit
	if v, err := strconv.Atoi(r.URL.Query().Get("limit")); err == nil && v > 0 {
		limit = min(v, maxLedgerLimit)
	}

	entries, err := s.service.Ledger().Recent(r.Context(), limit)
	if err != nil {
		respondError(w, r, err)
		return
	}
	if entries == nil {
		entries = []ledger.Entry{}
	}
	render.JSON(w, r, entries)
}
