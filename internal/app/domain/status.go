package domain

// IngestionStatus is the aggregate progress of an ingestion.
type IngestionStatus struct {
	IngestionID string
	Priority    Priority
	Status      BatchStatus
	Batches     []Batch
}

// DeriveIngestionStatus folds batch statuses into one ingestion status.
//
// Only a unanimous, non-empty completed set yields completed. Otherwise any
// triggered batch yields triggered, and everything else (including a mix of
// completed and yet_to_start) yields yet_to_start.
func DeriveIngestionStatus(batches []Batch) BatchStatus {
	if len(batches) == 0 {
		return BatchStatusYetToStart
	}
	allCompleted := true
	anyTriggered := false
	for _, batch := range batches {
		if batch.Status != BatchStatusCompleted {
			allCompleted = false
		}
		if batch.Status == BatchStatusTriggered {
			anyTriggered = true
		}
	}
	switch {
	case allCompleted:
		return BatchStatusCompleted
	case anyTriggered:
		return BatchStatusTriggered
	default:
		return BatchStatusYetToStart
	}
}
