package pages

// Flash is a one-shot notice shown above the submission form.
type Flash struct {
	Kind    string
	Message string
}

// IngestPageView is the submission form state.
type IngestPageView struct {
	CSRFToken   string
	Flash       *Flash
	IngestionID string
	IDs         string
	Priority    string
	Priorities  []string
	Pending     int
}

// BatchRow is one batch line of the status table.
type BatchRow struct {
	BatchID     string
	Seq         int
	IDs         string
	Status      string
	FailedCount int
}

// StatusPageView is the status table for one ingestion.
type StatusPageView struct {
	IngestionID string
	Priority    string
	Status      string
	Batches     []BatchRow
}
