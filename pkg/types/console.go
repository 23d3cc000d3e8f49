package types

// AuthTicket is the result of an access/ticket exchange. The Ticket value
// doubles as the PVEAuthCookie for subsequent requests; the CSRF token is
// required on every write call.
type AuthTicket struct {
	Username  string `json:"username"`
	Ticket    string `json:"ticket"`
	CSRFToken string `json:"CSRFPreventionToken"`
}

// TermProxy is the result of a termproxy call: a short-lived port + ticket
// pair that authorizes exactly one console WebSocket connection.
type TermProxy struct {
	Port   int    `json:"port"`
	Ticket string `json:"ticket"`
	User   string `json:"user"`
	UPID   string `json:"upid,omitempty"`
}
