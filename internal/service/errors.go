package service

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/therealutkarshpriyadarshi/subtitler/internal/alignment"
	"github.com/therealutkarshpriyadarshi/subtitler/internal/fetch"
	"github.com/therealutkarshpriyadarshi/subtitler/internal/media"
)

// Class separates caller mistakes from failures while processing
type Class string

const (
	ClassBadInput   Class = "bad_input"
	ClassProcessing Class = "processing"
)

// ErrVideoTooLong is wrapped by InputError when a source exceeds the limit
var ErrVideoTooLong = errors.New("video too long")

// ErrNoSegments is returned when alignment produced nothing to display
var ErrNoSegments = errors.New("no segments could be aligned, check your script text")

// InputError is a request the pipeline refuses to process
type InputError struct {
	Status int
	Err    error
	Detail string
}

func (e *InputError) Error() string {
	if e.Detail != "" {
		return e.Detail
	}
	return e.Err.Error()
}

func (e *InputError) Unwrap() error {
	return e.Err
}

func videoTooLong(duration, limit float64) error {
	return &InputError{
		Status: http.StatusRequestEntityTooLarge,
		Err:    ErrVideoTooLong,
		Detail: fmt.Sprintf("Video too long (%.1fs). Maximum is %gs.", duration, limit),
	}
}

// VideoError wraps a failure preparing the source video
type VideoError struct {
	Op  string
	Err error
}

func (e *VideoError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *VideoError) Unwrap() error {
	return e.Err
}

// Failure is the user-visible shape of a pipeline error
type Failure struct {
	Class   Class
	Status  int
	Message string
}

// Classify maps a pipeline error to its class, HTTP status and message.
// Unrecognized errors hide their details behind a generic message.
func Classify(err error) Failure {
	var (
		inputErr *InputError
		alignErr *alignment.AlignmentError
		videoErr *VideoError
		dlErr    *fetch.DownloadError
		probeErr *media.ProbeError
		renderEr *media.RenderError
	)

	switch {
	case errors.As(err, &inputErr):
		status := inputErr.Status
		if status == 0 {
			status = http.StatusBadRequest
		}
		return Failure{Class: ClassBadInput, Status: status, Message: inputErr.Error()}
	case errors.As(err, &alignErr):
		return Failure{Class: ClassBadInput, Status: http.StatusBadRequest, Message: alignErr.Error()}
	case errors.As(err, &dlErr), errors.As(err, &probeErr), errors.As(err, &videoErr),
		errors.As(err, &renderEr), errors.Is(err, media.ErrFileNotFound):
		return Failure{Class: ClassProcessing, Status: http.StatusBadRequest, Message: err.Error()}
	default:
		return Failure{Class: ClassProcessing, Status: http.StatusInternalServerError, Message: "an unexpected error occurred"}
	}
}
