package handlers

// HandlerBundle groups the handlers the route registry wires up.
type HandlerBundle struct {
	Booking  *BookingHandler
	Coach    *CoachHandler
	Feedback *FeedbackHandler
}
