package workers

import (
	"context"
	"os"
	"os/exec"
	"strconv"

	"github.com/rotisserie/eris"
	"github.com/rs/zerolog"

	"league-orchestrator/services"
)

// ProcessLauncher starts each Session Host as a `league host` child process.
type ProcessLauncher struct {
	Binary    string
	ExtraArgs []string // passed before the host flags, e.g. --dev
	log       zerolog.Logger
}

// NewProcessLauncher re-executes the running binary.
func NewProcessLauncher(extraArgs []string, log zerolog.Logger) (*ProcessLauncher, error) {
	bin, err := os.Executable()
	if err != nil {
		return nil, eris.Wrap(err, "failed to locate own binary")
	}
	return &ProcessLauncher{Binary: bin, ExtraArgs: extraArgs, log: log}, nil
}

// HostArgs is the command line of one Session Host.
func HostArgs(spec services.HostSpec) []string {
	return []string{
		"host",
		"--game", strconv.FormatUint(uint64(spec.GameID), 10),
		"--bot", strconv.FormatUint(uint64(spec.BotID), 10),
		"--league", strconv.Itoa(spec.LeagueID),
		"--game-mode", strconv.Itoa(spec.GameMode),
		"--lobby-timeout", spec.LobbyTimeout.String(),
	}
}

type hostProcess struct {
	cmd *exec.Cmd
}

func (p *hostProcess) Kill() error {
	return p.cmd.Process.Kill()
}

// Launch starts the host detached from ctx: it must outlive the poll that
// spawned it.
func (l *ProcessLauncher) Launch(_ context.Context, spec services.HostSpec) (services.HostProcess, error) {
	args := append(append([]string(nil), l.ExtraArgs...), HostArgs(spec)...)
	cmd := exec.Command(l.Binary, args...)
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	if err := cmd.Start(); err != nil {
		return nil, eris.Wrapf(err, "failed to start host for game %d", spec.GameID)
	}
	l.log.Debug().Int("pid", cmd.Process.Pid).Uint("game_id", spec.GameID).Msg("host process started")

	go func() {
		err := cmd.Wait()
		ev := l.log.Info()
		if err != nil {
			ev = l.log.Warn().Err(err)
		}
		ev.Uint("game_id", spec.GameID).Int("pid", cmd.Process.Pid).Msg("host process exited")
	}()
	return &hostProcess{cmd: cmd}, nil
}
