package messages

import "time"

// JobCardUpdated публикуется watcher-ом, когда статус job card на платформе
// изменился относительно прошлого цикла опроса. Статусы — в словаре платформы,
// перевод в локальный делает потребитель.
type JobCardUpdated struct {
	JobCardID string    `json:"job_card_id"`
	TicketID  string    `json:"ticket_id"`
	CheckedAt time.Time `json:"checked_at"`

	OldStatus string `json:"old_status,omitempty"`
	NewStatus string `json:"new_status"`

	TechnicianID *string `json:"technician_id,omitempty"`
}
