package ingestion_engine

import (
	"hash/fnv"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/Archit1030/FloatChat-AI/internal/models"
)

// FloatIDFor derives the synthetic platform identifier for archives that
// carry no explicit platform numbers: the 5-degree grid cell containing the
// measurement. Negative degrees are spelled with an S prefix so the token
// stays identifier-safe.
func FloatIDFor(lat, lon float64) string {
	return "ARGO_" + gridToken(lat) + "_" + gridToken(lon)
}

// gridToken renders the cell with one decimal before stripping sign and
// dot, so -10 becomes S100 and 75 becomes 750. The tokens are opaque
// identifiers; existing databases key on this exact spelling.
func gridToken(v float64) string {
	cell := math.Floor(v/5) * 5
	s := strconv.FormatFloat(cell, 'f', 1, 64)
	s = strings.ReplaceAll(s, "-", "S")
	return strings.ReplaceAll(s, ".", "")
}

// ProfileKeyFor keys a profile by its float and UTC calendar date: one
// vertical cast per float per day.
func ProfileKeyFor(floatID string, t time.Time) string {
	return floatID + "_" + t.UTC().Format("2006-01-02")
}

// RegionFor tags a grid cell with a coarse ocean band, stored as float
// platform metadata.
func RegionFor(lat float64) string {
	abs := math.Abs(lat)
	band := "tropical"
	switch {
	case abs >= 66.5:
		band = "polar"
	case abs >= 23.5:
		band = "temperate"
	}
	if lat < 0 {
		return "southern " + band
	}
	return "northern " + band
}

// wmoFor assigns a stable synthetic WMO-style number to a float identifier.
func wmoFor(floatID string) int64 {
	h := fnv.New32a()
	h.Write([]byte(floatID))
	return int64(h.Sum32())
}

// entityTracker assigns float/profile identities to accepted measurements
// and discovers new entities in chunk order. Floats and profiles are small
// relative to measurements, so the per-run maps stay bounded while the
// measurement working set is released chunk by chunk.
type entityTracker struct {
	floats   map[string]bool
	profiles map[string]bool
	cycles   map[string]int
}

func newEntityTracker() *entityTracker {
	return &entityTracker{
		floats:   make(map[string]bool),
		profiles: make(map[string]bool),
		cycles:   make(map[string]int),
	}
}

// collect annotates measurements with their float/profile identity and
// returns the floats and profiles first sighted in this chunk, in discovery
// order. Writing them before the measurements keeps the existence invariant.
func (t *entityTracker) collect(ms []models.Measurement) ([]models.Float, []models.Profile, []models.Measurement) {
	var floats []models.Float
	var profiles []models.Profile

	for i := range ms {
		m := &ms[i]
		m.FloatID = FloatIDFor(m.Lat, m.Lon)
		m.ProfileKey = ProfileKeyFor(m.FloatID, m.Time)

		if !t.floats[m.FloatID] {
			t.floats[m.FloatID] = true
			floats = append(floats, models.Float{
				ID:            m.FloatID,
				WMOID:         wmoFor(m.FloatID),
				DeploymentAt:  m.Time,
				DeploymentLat: m.Lat,
				DeploymentLon: m.Lon,
				Region:        RegionFor(m.Lat),
				Status:        "ACTIVE",
			})
		}

		if !t.profiles[m.ProfileKey] {
			t.profiles[m.ProfileKey] = true
			t.cycles[m.FloatID]++
			profiles = append(profiles, models.Profile{
				Key:         m.ProfileKey,
				FloatID:     m.FloatID,
				CycleNumber: t.cycles[m.FloatID],
				Time:        m.Time,
				Lat:         m.Lat,
				Lon:         m.Lon,
			})
		}
	}

	return floats, profiles, ms
}

// forget rolls back entities first sighted in a chunk whose relational
// write never landed. A later chunk touching the same float or profile
// re-discovers it and re-emits the parent row before any of its
// measurements, keeping the existence invariant across demoted chunks.
func (t *entityTracker) forget(floats []models.Float, profiles []models.Profile) {
	for _, p := range profiles {
		if t.profiles[p.Key] {
			delete(t.profiles, p.Key)
			t.cycles[p.FloatID]--
		}
	}
	for _, f := range floats {
		delete(t.floats, f.ID)
	}
}

func (t *entityTracker) floatsSeen() int   { return len(t.floats) }
func (t *entityTracker) profilesSeen() int { return len(t.profiles) }
