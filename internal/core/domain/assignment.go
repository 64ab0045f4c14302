package domain

// Assignment records one ticket handed to an agent during a dispatch pass.
type Assignment struct {
	Ticket   *Ticket `json:"ticket"`
	AgentID  string  `json:"agentId"`
	Lane     Lane    `json:"lane"`
	Sequence int     `json:"sequence"` // 1-based order within the pass
}

// DeskSnapshot is a point-in-time view of queues and agents.
type DeskSnapshot struct {
	PriorityQueue []*Ticket            `json:"priorityQueue"`
	RegularQueue  []*Ticket            `json:"regularQueue"`
	Agents        []string             `json:"agents"`
	StatusCounts  map[TicketStatus]int `json:"statusCounts"`
	TotalTickets  int                  `json:"totalTickets"`
}
