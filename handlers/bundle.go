// File: handlers/bundle.go
package handlers

// HandlerBundle groups all endpoint handlers for routes.RegisterRoutes.
type HandlerBundle struct {
	Booking     *BookingHandler
	Caregiver   *CaregiverHandler
	ServiceType *ServiceTypeHandler
}
