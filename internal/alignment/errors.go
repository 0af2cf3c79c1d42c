package alignment

import "errors"

// ErrAlignerFailed marks any failure of the external forced aligner. It never
// reaches callers of Align; it only selects the fallback path.
var ErrAlignerFailed = errors.New("forced aligner failed")

// AlignmentError reports a script that cannot be aligned at all
type AlignmentError struct {
	Reason string
}

func (e *AlignmentError) Error() string {
	return "alignment failed: " + e.Reason
}

// IsAlignmentError reports whether err is or wraps an AlignmentError
func IsAlignmentError(err error) bool {
	var ae *AlignmentError
	return errors.As(err, &ae)
}
