package netcdf

// Standard parameter names used across the pipeline.
const (
	VarTime        = "time"
	VarLat         = "lat"
	VarLon         = "lon"
	VarDepth       = "depth"
	VarTemperature = "temperature"
	VarSalinity    = "salinity"
	VarOxygen      = "oxygen"
	VarPH          = "ph"
	VarChlorophyll = "chlorophyll"
)

// aliases lists common ARGO/CF variable spellings per standard name, in
// preference order.
var aliases = map[string][]string{
	VarTime:        {"time", "TIME", "TAXIS", "JULD"},
	VarLat:         {"lat", "latitude", "LATITUDE", "YAXIS"},
	VarLon:         {"lon", "longitude", "LONGITUDE", "XAXIS"},
	VarDepth:       {"depth", "DEPTH", "PRES", "pressure", "ZAX"},
	VarTemperature: {"temp", "TEMP", "temperature", "TEMPERATURE"},
	VarSalinity:    {"sal", "SAL", "salinity", "SALINITY", "PSAL"},
	VarOxygen:      {"oxygen", "OXYGEN", "DOXY", "O2"},
	VarPH:          {"ph", "PH", "PH_IN_SITU_TOTAL"},
	VarChlorophyll: {"chlorophyll", "CHLA", "CHLOROPHYLL"},
}

// requiredVars must resolve for a dataset to be ingestable.
var requiredVars = []string{VarTime, VarLat, VarLon, VarDepth}

// mapVariables resolves standard parameter names against the variable names
// actually present in a dataset. Unresolved optional parameters are simply
// absent from the result.
func mapVariables(available []string) map[string]string {
	present := make(map[string]bool, len(available))
	for _, name := range available {
		present[name] = true
	}

	mapping := make(map[string]string)
	for std, candidates := range aliases {
		for _, c := range candidates {
			if present[c] {
				mapping[std] = c
				break
			}
		}
	}
	return mapping
}

// missingRequired returns the required standard names absent from a mapping.
func missingRequired(mapping map[string]string) []string {
	var missing []string
	for _, std := range requiredVars {
		if _, ok := mapping[std]; !ok {
			missing = append(missing, std)
		}
	}
	return missing
}

// depthUnits are the unit spellings accepted for the depth variable.
// Decibar pressure is accepted as a depth proxy (1 dbar ~ 1 m); anything
// else fails analysis rather than silently misvalidating ranges.
var depthUnits = map[string]bool{
	"":         true, // unannotated variables are assumed to be meters
	"m":        true,
	"meter":    true,
	"meters":   true,
	"metre":    true,
	"metres":   true,
	"dbar":     true,
	"decibar":  true,
	"decibars": true,
	"db":       true,
}

// depthIsPressure reports whether the units denote decibar pressure.
func depthIsPressure(units string) bool {
	switch units {
	case "dbar", "decibar", "decibars", "db":
		return true
	}
	return false
}
