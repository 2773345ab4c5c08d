package export

// Envelope is the top-level container some export downloads use. The
// Opendatasoft exports endpoint returns either a bare array of records or an
// object wrapping them under "results"; both shapes appear in the wild.
// Results is a pointer so an object lacking the key is distinguishable from
// a genuinely empty export.
type Envelope struct {
	Results *[]Record `json:"results"`
}

// Record is a single raw service-request row as it appears in the export
// file. All fields are kept as strings; timestamp parsing and validation are
// the normalizer's job.
type Record struct {
	CaseID   string `json:"caseId"`
	CaseType string `json:"caseType"`
	Status   string `json:"status"`
	Created  string `json:"createdAt"`
	Closed   string `json:"closedAt"`
}
