package reporter

import (
	"context"
	"sync"

	tea "github.com/charmbracelet/bubbletea"

	chaindomain "github.com/fd1az/amm-quoter/business/blockchain/domain"
	"github.com/fd1az/amm-quoter/business/quoting/app"
	"github.com/fd1az/amm-quoter/pkg/ui"
)

// TUIReporter implements app.Reporter by forwarding updates to the
// Bubble Tea dashboard.
type TUIReporter struct {
	mu      sync.Mutex
	program *tea.Program
	done    chan struct{}
	err     error
}

// NewTUIReporter creates a new TUIReporter.
func NewTUIReporter() *TUIReporter {
	return &TUIReporter{done: make(chan struct{})}
}

// Start launches the dashboard. It exits when the user quits or ctx ends.
func (r *TUIReporter) Start(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	program, finished := ui.Run(ctx)
	r.program = program

	go func() {
		err := <-finished
		r.mu.Lock()
		r.err = err
		r.mu.Unlock()
		close(r.done)
	}()
	return nil
}

// Done is closed once the dashboard has exited.
func (r *TUIReporter) Done() <-chan struct{} {
	return r.done
}

// Err returns the dashboard's exit error, if any.
func (r *TUIReporter) Err() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.err
}

func (r *TUIReporter) send(msg tea.Msg) {
	r.mu.Lock()
	p := r.program
	r.mu.Unlock()
	if p != nil {
		p.Send(msg)
	}
}

// Report sends a block update to the dashboard.
func (r *TUIReporter) Report(u *app.BlockUpdate) {
	r.send(ui.BlockUpdateMsg{Update: u})
}

// UpdateConnectionStatus sends the head subscription status to the dashboard.
func (r *TUIReporter) UpdateConnectionStatus(s chaindomain.ConnectionStatus) {
	r.send(ui.ConnectionStatusMsg{Status: s})
}

// ReportError sends a failed block to the dashboard.
func (r *TUIReporter) ReportError(err error) {
	r.send(ui.ErrorMsg{Error: err})
}

// Stop quits the dashboard and waits for it to restore the terminal.
func (r *TUIReporter) Stop() error {
	r.mu.Lock()
	p := r.program
	r.mu.Unlock()
	if p == nil {
		return nil
	}
	p.Quit()
	<-r.done
	return r.Err()
}
