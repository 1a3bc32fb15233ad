package crawler

import "errors"

var (
	// ErrStructure is returned when a page lacks an element the extractor
	// depends on, e.g. the thread list container or the thread id marker.
	// It usually means the site layout changed or an error page was served.
	ErrStructure = errors.New("unexpected page structure")

	// ErrPageCount is returned when a pagination control is present but its
	// page number cannot be parsed.
	ErrPageCount = errors.New("unparsable page count")
)
