package export

import "errors"

var (
	// ErrInFlight is returned when an export is requested while another one is running.
	ErrInFlight = errors.New("export already in progress")
	// ErrFaultBudget is returned when more cards failed to rasterize than allowed.
	ErrFaultBudget = errors.New("rasterization fault budget exceeded")
)
