package web

// errors.go turns handler errors into JSON responses.
//
// The technical error is logged with the request id; the client gets a
// stable code, a message and a suggested action. Parser errors are coded by
// mms.Describe; errors from the ingest and fetch layers are coded here first.

import (
	"context"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/render"

	"github.com/JonMunkholm/nemweb/internal/archive"
	"github.com/JonMunkholm/nemweb/internal/ingest"
	"github.com/JonMunkholm/nemweb/internal/logging"
	"github.com/JonMunkholm/nemweb/internal/mms"
	"github.com/JonMunkholm/nemweb/internal/nemweb"
)

// ErrorResponse is the body of every API error.
type ErrorResponse struct {
	Error     string `json:"error"`
	Action    string `json:"action,omitempty"`
	Code      string `json:"code"`
	RequestID string `json:"request_id,omitempty"`
}

var (
	errMissingHref  = errors.New("missing href query parameter")
	errEmptyArchive = errors.New("request body is empty")
	errTooLarge     = errors.New("archive exceeds the upload limit")
	errBadSchemaKey = errors.New("bad schema key")
	errNoSchema     = errors.New("no schema registered for key")
)

type webError struct {
	target error
	status int
	msg    mms.UserMessage
}

// webErrors is ordered most specific first.
var webErrors = []webError{
	{ingest.ErrBusy, http.StatusTooManyRequests, mms.UserMessage{Code: "WEB001", Message: "The server is busy parsing other archives", Action: "Retry in a few seconds"}},
	{errTooLarge, http.StatusRequestEntityTooLarge, mms.UserMessage{Code: "WEB002", Message: "The archive is larger than the upload limit", Action: "Split the archive or raise SERVER_MAX_UPLOAD"}},
	{errEmptyArchive, http.StatusBadRequest, mms.UserMessage{Code: "WEB003", Message: "No archive was uploaded", Action: "Send the zip as the body or as the multipart field \"file\""}},
	{archive.ErrNotArchive, http.StatusBadRequest, mms.UserMessage{Code: "WEB004", Message: "The upload is not a zip archive", Action: "Upload a NEMweb report archive"}},
	{errMissingHref, http.StatusBadRequest, mms.UserMessage{Code: "WEB005", Message: "No report path was given", Action: "Pass ?href=/Reports/Current/.../PUBLIC_..._<stamp>_<key>.zip"}},
	{nemweb.ErrBadReportPath, http.StatusBadRequest, mms.UserMessage{Code: "WEB006", Message: "The report path does not follow NEMweb naming", Action: "Copy the link from a NEMweb directory listing"}},
	{nemweb.ErrBadUniqueKey, http.StatusBadRequest, mms.UserMessage{Code: "WEB006", Message: "The report path does not follow NEMweb naming", Action: "Copy the link from a NEMweb directory listing"}},
	{ingest.ErrAlreadyProcessed, http.StatusConflict, mms.UserMessage{Code: "WEB007", Message: "The archive has already been ingested", Action: "See GET /api/ledger"}},
	{errBadSchemaKey, http.StatusBadRequest, mms.UserMessage{Code: "WEB010", Message: "The schema key is not in CATEGORY,REPORT,VERSION form", Action: "Pass ?key=TRADING,PRICE,3"}},
	{errNoSchema, http.StatusNotFound, mms.UserMessage{Code: "WEB011", Message: "No schema is registered for that key", Action: "See GET /api/schemas for registered keys"}},
	{nemweb.ErrNotZip, http.StatusBadGateway, mms.UserMessage{Code: "WEB008", Message: "NEMweb did not return a zip archive", Action: "Check the report path"}},
}

// upstreamMessage describes a non-2xx answer from NEMweb.
var upstreamMessage = mms.UserMessage{Code: "WEB009", Message: "NEMweb could not serve the request", Action: "Check the report still exists and try again later"}

// classify returns the status and user message for err.
func classify(err error) (int, mms.UserMessage) {
	for _, we := range webErrors {
		if errors.Is(err, we.target) {
			return we.status, we.msg
		}
	}

	var se *nemweb.StatusError
	if errors.As(err, &se) {
		return http.StatusBadGateway, upstreamMessage
	}

	msg := mms.Describe(err)
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout, msg
	case errors.Is(err, context.Canceled):
		return http.StatusServiceUnavailable, msg
	case msg.Code != "ERR000":
		return http.StatusUnprocessableEntity, msg
	default:
		return http.StatusInternalServerError, msg
	}
}

// respondError logs err and writes its JSON error response.
func respondError(w http.ResponseWriter, r *http.Request, err error) {
	status, msg := classify(err)
	requestID := middleware.GetReqID(r.Context())

	logging.FromContext(r.Context()).Error("request error",
		"path", r.URL.Path,
		"method", r.Method,
		"status", status,
		"code", msg.Code,
		"error", err.Error(),
	)

	if status == http.StatusTooManyRequests {
		w.Header().Set("Retry-After", "5")
	}
	render.Status(r, status)
	render.JSON(w, r, ErrorResponse{
		Error:     msg.Message,
		Action:    msg.Action,
		Code:      msg.Code,
		RequestID: requestID,
	})
}
