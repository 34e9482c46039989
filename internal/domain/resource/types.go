package resource

type Status string

const (
	StatusActive Status = "active"
)

func (s Status) String() string {
	return string(s)
}

type ReservationStatus string

const (
	ReservationStatusActive    ReservationStatus = "active"
	ReservationStatusCancelled ReservationStatus = "cancelled"
)

func (s ReservationStatus) String() string {
	return string(s)
}
