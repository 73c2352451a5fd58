package xlsx

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
)

const (
	internalMarker = "_license_counts_"
	displayPrefix  = "AION_License_Report_"
	dateLayout     = "2006_01_02"
	ext            = ".xlsx"
)

// NewOutputName returns the internal file name of a new report, which starts with an
// opaque unique id, and the name it is offered for download under.
func NewOutputName(now time.Time) (internal, display string) {
	date := now.Format(dateLayout)
	return fmt.Sprintf("%s%s%s%s", uuid.New().String(), internalMarker, date, ext),
		displayPrefix + date + ext
}

// DisplayName recovers the download name from an internal report name. Names that do
// not follow the internal pattern are returned as their base name.
func DisplayName(internal string) string {
	base := filepath.Base(internal)
	i := strings.LastIndex(base, internalMarker)
	if i < 0 || !strings.HasSuffix(base, ext) {
		return base
	}
	date := strings.TrimSuffix(base[i+len(internalMarker):], ext)
	if _, err := time.Parse(dateLayout, date); err != nil {
		return base
	}
	return displayPrefix + date + ext
}
