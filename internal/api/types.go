package api

// HealthResponse answers /health
type HealthResponse struct {
	Status  string `json:"status" example:"healthy"`
	Service string `json:"service" example:"docsource-api"`
}

// ReadinessResponse answers /readiness once the database answers pings
type ReadinessResponse struct {
	Status string `json:"status" example:"ready"`
}

// VersionResponse carries the build information of the running binary
type VersionResponse struct {
	Version   string `json:"version" example:"v0.1.0"`
	Commit    string `json:"commit" example:"abc123def"`
	BuildDate string `json:"build_date" example:"2026-01-15T10:30:00Z"`
	GoVersion string `json:"go_version" example:"go1.25.2"`
	Platform  string `json:"platform" example:"linux/amd64"`
}
