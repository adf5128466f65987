package domain

import "time"

// FacilityStatus is a read-time projection, not stored truth: a
// facility is booked when an approved booking covers the queried
// instant, and maintenance is a stored override.
type FacilityStatus string

const (
	FacilityAvailable   FacilityStatus = "available"
	FacilityBooked      FacilityStatus = "booked"
	FacilityMaintenance FacilityStatus = "maintenance"
)

// Facility represents a bookable campus facility
type Facility struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Capacity    int       `json:"capacity"`
	Location    string    `json:"location"`
	Maintenance bool      `json:"maintenance"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// StatusAt projects the facility status at the given instant from its
// approved bookings
func (f *Facility) StatusAt(now time.Time, approved []*BookingRequest) FacilityStatus {
	if f.Maintenance {
		return FacilityMaintenance
	}
	for _, b := range approved {
		if b.Status != BookingApproved {
			continue
		}
		if !now.Before(b.StartTime) && now.Before(b.EndTime) {
			return FacilityBooked
		}
	}
	return FacilityAvailable
}

// FacilityView is a facility with its projected status
type FacilityView struct {
	Facility
	Status FacilityStatus `json:"status"`
}
