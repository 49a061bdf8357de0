package ui

import (
	"context"
	_ "embed"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/getlantern/systray"

	"github.com/heimdex/heimdex-pose/internal/history"
)

//go:embed icon.png
var iconBytes []byte

const refreshInterval = 5 * time.Second

type Tray struct {
	runs   history.Recorder
	logger *slog.Logger

	statusItem *systray.MenuItem
	runsItem   *systray.MenuItem

	mu   sync.Mutex
	stop chan struct{}

	onCopyToken func() error
	onQuit      func()
}

type TrayConfig struct {
	Runs        history.Recorder
	Logger      *slog.Logger
	OnCopyToken func() error
	OnQuit      func()
}

func NewTray(cfg TrayConfig) *Tray {
	return &Tray{
		runs:        cfg.Runs,
		logger:      cfg.Logger,
		stop:        make(chan struct{}),
		onCopyToken: cfg.OnCopyToken,
		onQuit:      cfg.OnQuit,
	}
}

func (t *Tray) Run() {
	systray.Run(t.onReady, t.onExit)
}

func (t *Tray) onReady() {
	systray.SetIcon(iconBytes)
	systray.SetTitle("Pose")
	systray.SetTooltip("Heimdex Pose Agent")

	t.statusItem = systray.AddMenuItem("Status: Idle", "Current agent status")
	t.statusItem.Disable()

	t.runsItem = systray.AddMenuItem(runsTitle(0), "Recorded transform runs")
	t.runsItem.Disable()

	systray.AddSeparator()

	tokenItem := systray.AddMenuItem("Show Auth Token", "Log the API token")

	systray.AddSeparator()

	quitItem := systray.AddMenuItem("Quit", "Quit Heimdex Pose Agent")

	go t.refreshLoop()

	go func() {
		for {
			select {
			case <-tokenItem.ClickedCh:
				if t.onCopyToken != nil {
					if err := t.onCopyToken(); err != nil {
						t.logger.Error("failed to show token", "error", err)
					}
				}
			case <-quitItem.ClickedCh:
				t.logger.Info("quit requested from tray")
				if t.onQuit != nil {
					t.onQuit()
				}
				systray.Quit()
				return
			}
		}
	}()

	t.logger.Info("system tray ready")
}

func (t *Tray) onExit() {
	close(t.stop)
	t.logger.Info("system tray exiting")
}

func (t *Tray) refreshLoop() {
	ticker := time.NewTicker(refreshInterval)
	defer ticker.Stop()

	for {
		t.refresh()
		select {
		case <-ticker.C:
		case <-t.stop:
			return
		}
	}
}

func (t *Tray) refresh() {
	if t.runs == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	count, err := t.runs.CountRuns(ctx)
	if err != nil {
		t.logger.Warn("failed to count runs", "error", err)
		return
	}
	recent, err := t.runs.ListRuns(ctx, 1)
	if err != nil {
		t.logger.Warn("failed to list runs", "error", err)
		return
	}

	t.UpdateRunsCount(count)
	t.UpdateStatus(statusTitle(recent))
}

func (t *Tray) UpdateStatus(status string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.statusItem.SetTitle("Status: " + status)
}

func (t *Tray) UpdateRunsCount(count int) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.runsItem.SetTitle(runsTitle(count))
}

func (t *Tray) Quit() {
	systray.Quit()
}

func runsTitle(count int) string {
	return fmt.Sprintf("Runs: %s", humanize.Comma(int64(count)))
}

// statusTitle describes the newest run, if any.
func statusTitle(recent []*history.Run) string {
	if len(recent) == 0 {
		return "Idle"
	}
	last := recent[0]
	switch last.Status {
	case history.StatusRunning:
		return "Running " + last.Operation
	case history.StatusFailed:
		return "Last " + last.Operation + " failed"
	default:
		return "Last " + last.Operation + " " + humanize.Time(last.UpdatedAt)
	}
}
