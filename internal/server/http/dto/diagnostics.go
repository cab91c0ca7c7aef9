package dto

// DiagnosticsResponse exposes runtime health of the ledger call path.
type DiagnosticsResponse struct {
	QueueLength int      `json:"queue_length"`
	Providers   []string `json:"providers"`
	DatabaseOK  bool     `json:"database_ok"`
}
