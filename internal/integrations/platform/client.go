package platform

import (
	"context"
	"time"
)

// Строки коллекций в том виде, как их отдаёт платформа дилера
// (конверт {success, data} снимается клиентом).

type JobCardRow struct {
	ID           string        `json:"id"`
	TicketID     string        `json:"ticket_id"`
	JobNumber    string        `json:"job_number"`
	Status       string        `json:"status"`
	TechnicianID *string       `json:"technician_id,omitempty"`
	Notes        string        `json:"notes,omitempty"`
	Items        []ServiceItem `json:"items,omitempty"`
	LaborCost    float64       `json:"labor_cost"`
	PartsCost    float64       `json:"parts_cost"`
	Discount     float64       `json:"discount"`
	TotalCost    float64       `json:"total_cost"`
	CreatedAt    time.Time     `json:"created_at"`
	UpdatedAt    time.Time     `json:"updated_at"`
}

type ServiceItem struct {
	Description string  `json:"description"`
	Cost        float64 `json:"cost"`
	Status      string  `json:"status"`
}

// Тикет приходит с уже вложенными карточками клиента и машины.
type TicketRow struct {
	ID        string   `json:"id"`
	Complaint string   `json:"complaint"`
	Customer  Customer `json:"customer"`
	Vehicle   Vehicle  `json:"vehicle"`
}

type Customer struct {
	Name  string `json:"name"`
	Phone string `json:"phone"`
}

type Vehicle struct {
	Model        string `json:"model"`
	Registration string `json:"registration"`
}

type RampRow struct {
	ID              string  `json:"id"`
	Name            string  `json:"name"`
	Status          string  `json:"status"`
	TechnicianName  *string `json:"technician_name,omitempty"`
	CurrentTicketID *string `json:"current_ticket_id,omitempty"`
}

type StaffRow struct {
	ID        string `json:"id"`
	ProfileID string `json:"profile_id,omitempty"`
	Name      string `json:"name"`
	AvatarURL string `json:"avatar_url,omitempty"`
	Status    string `json:"status"`
}

type TaskRow struct {
	ID                string  `json:"id"`
	Name              string  `json:"name"`
	LaborRate         float64 `json:"labor_rate"`
	EstimatedDuration string  `json:"estimated_duration"`
}

type JobCardInsert struct {
	TicketID     string `json:"ticket_id"`
	TechnicianID string `json:"technician_id,omitempty"`
	Status       string `json:"status"`
	Notes        string `json:"notes,omitempty"`
}

type Client interface {
	ListJobCards(ctx context.Context, limit int) ([]JobCardRow, error)
	ListTickets(ctx context.Context, limit int) ([]TicketRow, error)
	ListRamps(ctx context.Context, limit int) ([]RampRow, error)
	ListStaff(ctx context.Context, limit int) ([]StaffRow, error)
	ListTasks(ctx context.Context, limit int) ([]TaskRow, error)

	CreateJobCard(ctx context.Context, in JobCardInsert) (JobCardRow, error)
	PatchJobCardStatus(ctx context.Context, id, status string) (JobCardRow, error)
	PatchJobCardTechnician(ctx context.Context, id, technicianID string) (JobCardRow, error)

	PatchRampStatus(ctx context.Context, id, status string) error
	OccupyRamp(ctx context.Context, id, ticketID, technicianName string) error
	ReleaseRamp(ctx context.Context, id string) error

	ApproveStaff(ctx context.Context, id string) (StaffRow, error)
	ActivateProfile(ctx context.Context, id string) error
}
