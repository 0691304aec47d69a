package models

// Перевод между словарём платформы и локальным словарём UI.
// У платформы пять статусов, локально их семь — таблицы не взаимно
// однозначны, см. комментарий у jobStatusToRemote.

var jobStatusFromRemote = map[string]JobCardStatus{
	"pending":       JobStatusReceived,
	"in_progress":   JobStatusInService,
	"waiting_parts": JobStatusWaitingParts,
	"completed":     JobStatusReady,
	"delivered":     JobStatusDelivered,
}

var jobStatusToRemote = map[JobCardStatus]string{
	JobStatusReceived: "pending",
	// У платформы нет статуса диагностики, "running" — плейсхолдер,
	// который она не распознаёт. Обратный перевод теряет in-diagnosis;
	// не меняем без решения продукта.
	JobStatusInDiagnosis:  "running",
	JobStatusInService:    "in_progress",
	JobStatusWaitingParts: "waiting_parts",
	JobStatusQCDone:       "completed",
	JobStatusReady:        "completed",
	JobStatusDelivered:    "delivered",
}

// JobStatusFromRemote переводит статус платформы в локальный.
// Неизвестные значения сводятся к received.
func JobStatusFromRemote(s string) JobCardStatus {
	if st, ok := jobStatusFromRemote[s]; ok {
		return st
	}
	return JobStatusReceived
}

// Remote возвращает статус в словаре платформы.
func (s JobCardStatus) Remote() string {
	if r, ok := jobStatusToRemote[s]; ok {
		return r
	}
	return "pending"
}

func (s JobCardStatus) Valid() bool {
	switch s {
	case JobStatusReceived, JobStatusInDiagnosis, JobStatusInService,
		JobStatusWaitingParts, JobStatusQCDone, JobStatusReady, JobStatusDelivered:
		return true
	}
	return false
}

// Единственный особый случай: свободный подъёмник платформа хранит как "idle".
func RampStatusFromRemote(s string) RampStatus {
	if s == "idle" {
		return RampAvailable
	}
	return RampStatus(s)
}

func (s RampStatus) Remote() string {
	if s == RampAvailable {
		return "idle"
	}
	return string(s)
}

func (s RampStatus) Valid() bool {
	switch s {
	case RampAvailable, RampOccupied, RampMaintenance:
		return true
	}
	return false
}
