package model

import "time"

type PrintStatus string

const (
	PrintQueued   PrintStatus = "queued"
	PrintPrinting PrintStatus = "printing"
	PrintSuccess  PrintStatus = "success"
	PrintFailed   PrintStatus = "failed"
)

// PrintJob tracks delivery of one order ticket to the kitchen printer.
// There is at most one job per order.
type PrintJob struct {
	OrderID     string      `json:"order_id"`
	Status      PrintStatus `json:"status"`
	Attempts    int         `json:"attempts"`
	LastAttempt *time.Time  `json:"last_attempt,omitempty"`
	LastSuccess *time.Time  `json:"last_success,omitempty"`
	Message     string      `json:"message,omitempty"`
}

// ApplyStatus mutates the job for a status change. Attempts counts every
// entry into printing or failed; last_success is stamped only on success.
func (j *PrintJob) ApplyStatus(status PrintStatus, message string, now time.Time) {
	j.Status = status
	j.Message = message
	switch status {
	case PrintPrinting, PrintFailed:
		j.Attempts++
		j.LastAttempt = &now
	case PrintSuccess:
		j.LastSuccess = &now
	}
}
