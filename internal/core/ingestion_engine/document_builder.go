package ingestion_engine

import (
	"fmt"
	"strconv"

	"github.com/Archit1030/FloatChat-AI/internal/models"
)

// BuildDocument renders one accepted measurement (with its float/profile
// identity already assigned) into the contextual sentence stored in the
// semantic index. The rendering is deterministic: re-running ingestion on
// unchanged input yields byte-identical documents, which is what makes the
// vector upserts idempotent.
func BuildDocument(m *models.Measurement) models.Document {
	tempStr := "not available"
	if m.Temperature != nil {
		tempStr = fmt.Sprintf("%.2f°C", *m.Temperature)
	}
	salStr := "not available"
	if m.Salinity != nil {
		salStr = fmt.Sprintf("%.2f PSU", *m.Salinity)
	}

	content := fmt.Sprintf(
		"On %s, ARGO float %s recorded measurements at latitude %.3f° and longitude %.3f°. "+
			"At a depth of %.1f meters, the temperature was %s and the salinity was %s.",
		m.Time.UTC().Format("2006-01-02"), m.FloatID, m.Lat, m.Lon, m.Depth, tempStr, salStr,
	)

	return models.Document{
		ID:         DocumentID(m.ProfileKey, m.Depth),
		ProfileKey: m.ProfileKey,
		FloatID:    m.FloatID,
		Time:       m.Time.UTC(),
		Lat:        m.Lat,
		Lon:        m.Lon,
		Depth:      m.Depth,
		Content:    content,
	}
}

// DocumentID derives the semantic-index key from the measurement's natural
// key, so re-ingestion of the same (profile, depth) pair overwrites the
// indexed entry instead of duplicating it.
func DocumentID(profileKey string, depth float64) string {
	return profileKey + "_" + strconv.FormatFloat(depth, 'f', -1, 64)
}
