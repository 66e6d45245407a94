package domain

// Record is a single entry of the provider response. A record relates a
// compromised identity to the domains it is an employee or a client of.
type Record struct {
	// EmployeeAt lists domains the identity is an employee at.
	EmployeeAt []string `json:"employeeAt,omitempty"`
	// ClientAt lists domains the identity is a client at.
	ClientAt []string `json:"clientAt,omitempty"`
}

// Related returns the domains contributed by the record. The employee
// relation wins when it is non-empty; the client relation is only consulted
// otherwise. A record with neither relation contributes nothing.
func (r Record) Related() []string {
	if len(r.EmployeeAt) > 0 {
		return r.EmployeeAt
	}
	if len(r.ClientAt) > 0 {
		return r.ClientAt
	}

	return nil
}
