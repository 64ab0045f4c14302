// Package dispatch matches the desk's agents to queued tickets.
//
// An assignment pass drains the priority queue first and the regular
// queue second. Agents are treated as capacity that frees up the moment a
// ticket is handed over: an agent that has served a ticket joins a busy
// line and can be reused later in the same pass, and every agent is back
// in the pool when the pass ends. Work duration is not modelled, so every
// dispatched ticket is resolved inside the pass.
//
// Nothing here is safe for concurrent use.
package dispatch

import (
	"errors"
	"fmt"
	"slices"
	"strings"
)

// DefaultAgents is the roster a desk starts with when none is configured.
var DefaultAgents = []string{"Agent 1", "Agent 2"}

var (
	ErrNoAgents       = errors.New("agent pool is empty")
	ErrDuplicateAgent = errors.New("duplicate agent")
	ErrBlankAgent     = errors.New("agent id is blank")
)

// AgentPool is the ordered set of agents not currently mid-assignment.
type AgentPool struct {
	agents []string
}

// NewAgentPool builds a pool from agent ids, keeping their order.
func NewAgentPool(agents ...string) (*AgentPool, error) {
	if len(agents) == 0 {
		return nil, ErrNoAgents
	}

	seen := make(map[string]struct{}, len(agents))
	for _, agent := range agents {
		if strings.TrimSpace(agent) == "" {
			return nil, ErrBlankAgent
		}
		if _, dup := seen[agent]; dup {
			return nil, fmt.Errorf("%w: %q", ErrDuplicateAgent, agent)
		}
		seen[agent] = struct{}{}
	}

	return &AgentPool{agents: slices.Clone(agents)}, nil
}

// Agents returns a copy of the available agents in pool order.
func (p *AgentPool) Agents() []string {
	return slices.Clone(p.agents)
}

// Len returns the number of available agents.
func (p *AgentPool) Len() int {
	return len(p.agents)
}

// checkout hands every agent to a pass and leaves the pool empty.
func (p *AgentPool) checkout() []string {
	agents := p.agents
	p.agents = nil
	return agents
}

// restore returns agents to the pool at the end of a pass.
func (p *AgentPool) restore(agents []string) {
	p.agents = append(p.agents, agents...)
}
