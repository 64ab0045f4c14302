// Package console is the interactive text menu over the desk.
package console

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/lorrc/support-desk/internal/core/domain"
	apperrors "github.com/lorrc/support-desk/internal/core/errors"
	"github.com/lorrc/support-desk/internal/core/ports"
)

// Menu choices
const (
	choiceAddRegular   = 1
	choiceAddPriority  = 2
	choiceReprioritize = 3
	choiceAssign       = 4
	choiceResolve      = 5
	choiceView         = 6
	choiceExit         = 7
)

// errEndOfInput signals that the reader is exhausted.
var errEndOfInput = errors.New("end of input")

// Shell reads menu choices line by line and drives the desk.
type Shell struct {
	desk   ports.DeskService
	in     *bufio.Scanner
	out    io.Writer
	styles styles

	lines chan inputLine
	done  chan struct{}
}

type inputLine struct {
	text string
	err  error
}

// NewShell creates a shell reading from in and rendering to out.
func NewShell(desk ports.DeskService, in io.Reader, out io.Writer) *Shell {
	return &Shell{
		desk:   desk,
		in:     bufio.NewScanner(in),
		out:    out,
		styles: newStyles(lipgloss.NewRenderer(out)),
	}
}

// Run shows the menu until the operator exits, the input ends or ctx is
// cancelled. Desk errors are reported and the loop continues.
//
// Input is read on its own goroutine so cancellation is seen while a
// prompt is waiting. That goroutine stays blocked in the reader until it
// returns; Run must be called at most once per Shell.
func (s *Shell) Run(ctx context.Context) error {
	s.lines = make(chan inputLine)
	s.done = make(chan struct{})
	defer close(s.done)
	go s.readLines()

	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		s.printMenu()
		line, err := s.ask(ctx, "Enter your choice: ")
		if err != nil {
			return s.finish(err)
		}

		choice, convErr := strconv.Atoi(line)
		if convErr != nil {
			choice = 0
		}

		if choice == choiceExit {
			s.println(s.styles.title.Render("Exiting Support System. Goodbye!"))
			return nil
		}

		if err := s.dispatchChoice(ctx, choice); err != nil {
			return s.finish(err)
		}
	}
}

func (s *Shell) dispatchChoice(ctx context.Context, choice int) error {
	switch choice {
	case choiceAddRegular:
		return s.addRegular(ctx)
	case choiceAddPriority:
		return s.addPriority(ctx)
	case choiceReprioritize:
		return s.reprioritize(ctx)
	case choiceAssign:
		return s.assign(ctx)
	case choiceResolve:
		return s.resolve(ctx)
	case choiceView:
		return s.viewByStatus(ctx)
	default:
		s.warn("Invalid choice! Please try again.")
		return nil
	}
}

// finish turns end of input into a clean exit.
func (s *Shell) finish(err error) error {
	if errors.Is(err, errEndOfInput) {
		s.println("")
		s.println(s.styles.title.Render("Input closed. Goodbye!"))
		return nil
	}
	return err
}

func (s *Shell) addRegular(ctx context.Context) error {
	description, err := s.ask(ctx, "Enter ticket description: ")
	if err != nil {
		return err
	}

	ticket, err := s.desk.AddRegular(ctx, description)
	if err != nil {
		return s.report(err)
	}

	s.println(s.styles.success.Render("Regular Ticket Added:"))
	s.printTicket(ticket)
	return nil
}

func (s *Shell) addPriority(ctx context.Context) error {
	description, err := s.ask(ctx, "Enter ticket description: ")
	if err != nil {
		return err
	}
	priority, ok, err := s.askInt(ctx, "Enter ticket priority (lower value = higher priority): ")
	if err != nil || !ok {
		return err
	}

	ticket, err := s.desk.AddPriority(ctx, description, priority)
	if err != nil {
		return s.report(err)
	}

	s.println(s.styles.urgent.Render("Priority Ticket Added:"))
	s.printTicket(ticket)
	return nil
}

func (s *Shell) reprioritize(ctx context.Context) error {
	ticketID, ok, err := s.askInt(ctx, "Enter ticket ID to reprioritize: ")
	if err != nil || !ok {
		return err
	}
	priority, ok, err := s.askInt(ctx, "Enter new priority: ")
	if err != nil || !ok {
		return err
	}

	ticket, err := s.desk.Reprioritize(ctx, int64(ticketID), priority)
	if err != nil {
		return s.report(err)
	}

	s.println(s.styles.success.Render("Ticket Reprioritized:"))
	s.printTicket(ticket)
	return nil
}

func (s *Shell) assign(ctx context.Context) error {
	assignments, err := s.desk.Dispatch(ctx)
	if err != nil {
		return s.report(err)
	}

	if len(assignments) == 0 {
		s.println(s.styles.muted.Render("No tickets waiting for an agent."))
		return nil
	}

	for _, a := range assignments {
		s.println(s.styles.assigned.Render(fmt.Sprintf("Assigned Ticket (%s, %s lane):", a.AgentID, a.Lane)))
		s.printTicket(a.Ticket)
		s.println(s.styles.muted.Render("Ticket resolved automatically."))
	}
	return nil
}

func (s *Shell) resolve(ctx context.Context) error {
	ticketID, ok, err := s.askInt(ctx, "Enter ticket ID to resolve: ")
	if err != nil || !ok {
		return err
	}

	ticket, err := s.desk.Resolve(ctx, int64(ticketID))
	if err != nil {
		return s.report(err)
	}

	s.println(s.styles.success.Render("Ticket Resolved:"))
	s.printTicket(ticket)
	return nil
}

func (s *Shell) viewByStatus(ctx context.Context) error {
	status, err := s.ask(ctx, "Enter status to filter (Open/In Progress/Resolved): ")
	if err != nil {
		return err
	}

	s.println(s.styles.title.Render("Tickets with status: " + status))
	found := false
	for ticket := range s.desk.ListByStatus(ctx, status) {
		found = true
		s.printTicket(ticket)
	}
	if !found {
		s.println(s.styles.muted.Render("No tickets."))
	}
	return nil
}

// report renders a recoverable desk error. Cancellation is passed up.
func (s *Shell) report(err error) error {
	switch {
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return err
	case errors.Is(err, apperrors.ErrTicketNotFound):
		s.warn("Ticket ID not found!")
	case errors.Is(err, apperrors.ErrNotInPriorityQueue):
		s.warn("Ticket not found in the priority queue!")
	case errors.Is(err, apperrors.ErrInvalidState):
		s.warn("Ticket not in progress!")
	default:
		s.warn(err.Error())
	}
	return nil
}

func (s *Shell) printMenu() {
	s.println("")
	s.println(s.styles.title.Render("=== Customer Support System ==="))
	for i, item := range []string{
		"Add Regular Ticket",
		"Add Priority Ticket",
		"Reprioritize Ticket",
		"Assign Tickets to Agents",
		"Resolve Ticket",
		"View Tickets by Status",
		"Exit",
	} {
		s.println(s.styles.menu.Render(fmt.Sprintf("%d. %s", i+1, item)))
	}
}

func (s *Shell) printTicket(t *domain.Ticket) {
	s.println(fmt.Sprintf("Ticket ID: %d | Description: %s | Priority: %s | Status: %s | Assigned Agent: %s",
		t.ID, t.Description, t.PriorityLabel(), s.styles.forStatus(t.Status).Render(string(t.Status)), t.AgentName()))
}

// readLines feeds scanned lines to ask until the input ends or Run returns.
func (s *Shell) readLines() {
	defer close(s.lines)
	for s.in.Scan() {
		select {
		case s.lines <- inputLine{text: s.in.Text()}:
		case <-s.done:
			return
		}
	}
	if err := s.in.Err(); err != nil {
		select {
		case s.lines <- inputLine{err: err}:
		case <-s.done:
		}
	}
}

// ask prompts and returns the next trimmed line.
func (s *Shell) ask(ctx context.Context, prompt string) (string, error) {
	fmt.Fprint(s.out, s.styles.prompt.Render(prompt))
	select {
	case <-ctx.Done():
		return "", ctx.Err()
	case line, ok := <-s.lines:
		if !ok {
			return "", errEndOfInput
		}
		if line.err != nil {
			return "", line.err
		}
		return strings.TrimSpace(line.text), nil
	}
}

// askInt prompts for an integer. ok is false when the input was not a
// number; the shell then warns and returns to the menu.
func (s *Shell) askInt(ctx context.Context, prompt string) (int, bool, error) {
	line, err := s.ask(ctx, prompt)
	if err != nil {
		return 0, false, err
	}
	n, err := strconv.Atoi(line)
	if err != nil {
		s.warn("Please enter a whole number.")
		return 0, false, nil
	}
	return n, true, nil
}

func (s *Shell) warn(msg string) {
	s.println(s.styles.warning.Render(msg))
}

func (s *Shell) println(line string) {
	fmt.Fprintln(s.out, line)
}
