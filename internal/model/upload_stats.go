package model

// UploadStats counts bulk import outcomes. Total always equals
// Successful + Failed because both counters only move through the
// increment methods.
type UploadStats struct {
	Successful int `json:"successfulCount"`
	Failed     int `json:"failedCount"`
	Total      int `json:"totalRecords"`
}

func (s *UploadStats) IncrementSuccessful() {
	s.Successful++
	s.Total++
}

func (s *UploadStats) IncrementFailed() {
	s.Failed++
	s.Total++
}
