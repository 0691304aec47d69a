package models

import "time"

// TechnicianCapacity — фиксированный лимит активных работ на одного механика.
const TechnicianCapacity = 3

type JobCardStatus string

const (
	JobStatusReceived     JobCardStatus = "received"
	JobStatusInDiagnosis  JobCardStatus = "in-diagnosis"
	JobStatusInService    JobCardStatus = "in-service"
	JobStatusWaitingParts JobCardStatus = "waiting-parts"
	JobStatusQCDone       JobCardStatus = "qc-done"
	JobStatusReady        JobCardStatus = "ready"
	JobStatusDelivered    JobCardStatus = "delivered"
)

type RampStatus string

const (
	RampAvailable   RampStatus = "available"
	RampOccupied    RampStatus = "occupied"
	RampMaintenance RampStatus = "maintenance"
)

type TechnicianStatus string

const (
	TechnicianActive  TechnicianStatus = "active"
	TechnicianPending TechnicianStatus = "pending"
	TechnicianBusy    TechnicianStatus = "busy"
)

type ServiceItem struct {
	Description string  `json:"description"`
	Cost        float64 `json:"cost"`
	Status      string  `json:"status"`
}

type CostBreakdown struct {
	Labor    float64 `json:"labor"`
	Parts    float64 `json:"parts"`
	Discount float64 `json:"discount"`
	Total    float64 `json:"total"`
}

type JobCard struct {
	ID        string `json:"id"`
	TicketID  string `json:"ticketId"`
	JobNumber string `json:"jobNumber"`

	CustomerName  string `json:"customerName"`
	CustomerPhone string `json:"customerPhone"`

	VehicleModel        string `json:"vehicleModel"`
	VehicleRegistration string `json:"vehicleRegistration"`

	Complaint string        `json:"complaint"`
	Items     []ServiceItem `json:"items,omitempty"`

	Status JobCardStatus `json:"status"`

	TechnicianID *string `json:"technicianId,omitempty"`
	RampID       *string `json:"rampId,omitempty"`

	Cost CostBreakdown `json:"cost"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

type Technician struct {
	ID        string `json:"id"`
	ProfileID string `json:"profileId,omitempty"`
	Name      string `json:"name"`
	AvatarURL string `json:"avatarUrl,omitempty"`

	// Считается при каждой синхронизации, не хранится на платформе.
	ActiveJobs int `json:"activeJobs"`
	Capacity   int `json:"capacity"`

	Status TechnicianStatus `json:"status"`
}

type Ramp struct {
	ID     string     `json:"id"`
	Name   string     `json:"name"`
	Status RampStatus `json:"status"`

	TechnicianName *string `json:"technicianName,omitempty"`

	CurrentTicketID  *string `json:"currentTicketId,omitempty"`
	CurrentJobCardID *string `json:"currentJobCardId,omitempty"`
	// Денормализовано для отображения занятого подъёмника.
	CurrentVehicleRegistration *string `json:"currentVehicleRegistration,omitempty"`
}

type ServiceType struct {
	ID                string  `json:"id"`
	Name              string  `json:"name"`
	LaborRate         float64 `json:"laborRate"`
	EstimatedDuration string  `json:"estimatedDuration"`
}

type JobCardCreateInput struct {
	TicketID     string `json:"ticketId"`
	TechnicianID string `json:"technicianId,omitempty"`
	Notes        string `json:"notes,omitempty"`
}
