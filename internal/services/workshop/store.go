package workshop

import (
	"sync"
	"time"

	"github.com/BearBump/RampDesk/internal/models"
)

// Snapshot — последнее синхронизированное состояние мастерской.
// Источник истины всегда платформа; снапшот одноразовый и целиком
// заменяется при каждой синхронизации.
type Snapshot struct {
	JobCards     []models.JobCard     `json:"jobCards"`
	Technicians  []models.Technician  `json:"technicians"`
	Ramps        []models.Ramp        `json:"ramps"`
	ServiceTypes []models.ServiceType `json:"serviceTypes"`

	SyncedAt  time.Time `json:"syncedAt"`
	LastError string    `json:"lastError,omitempty"`
}

// Store — единственный владелец снапшота. Замена и точечные патчи
// сериализуются через мьютекс, наружу всегда уходит копия: раньше
// все читали и писали один разделяемый объект, и параллельные
// refresh-и перетирали друг друга.
type Store struct {
	mu   sync.Mutex
	snap Snapshot
}

func NewStore() *Store {
	return &Store{}
}

func (s *Store) Replace(snap Snapshot) {
	s.mu.Lock()
	defer s.mu.Unlock()
	snap.LastError = ""
	s.snap = snap
}

// SetError оставляет прошлые коллекции на месте и только помечает,
// что последняя синхронизация не удалась.
func (s *Store) SetError(msg string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.snap.LastError = msg
}

func (s *Store) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := s.snap
	out.JobCards = append([]models.JobCard(nil), s.snap.JobCards...)
	out.Technicians = append([]models.Technician(nil), s.snap.Technicians...)
	out.Ramps = append([]models.Ramp(nil), s.snap.Ramps...)
	out.ServiceTypes = append([]models.ServiceType(nil), s.snap.ServiceTypes...)
	return out
}

func (s *Store) JobCard(id string) (models.JobCard, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, jc := range s.snap.JobCards {
		if jc.ID == id {
			return jc, true
		}
	}
	return models.JobCard{}, false
}

// PatchJobCard применяет fn к карточке с данным id.
// Возвращает false, если карточки нет в снапшоте.
func (s *Store) PatchJobCard(id string, fn func(*models.JobCard)) (models.JobCard, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.snap.JobCards {
		if s.snap.JobCards[i].ID == id {
			fn(&s.snap.JobCards[i])
			return s.snap.JobCards[i], true
		}
	}
	return models.JobCard{}, false
}
