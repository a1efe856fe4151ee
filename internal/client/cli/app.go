// Package cli implements the interactive admin console for front-desk staff:
// token lifecycle commands, card writes, reader status, and pass certificate
// checks, all driven over the server's HTTP API.
package cli

import (
	"bufio"
	"context"
	"os"

	"github.com/Naimehossein77/gym-nfc/internal/client/api"
	"github.com/Naimehossein77/gym-nfc/internal/client/config"
)

type App struct {
	config   *config.Config
	api      *api.Client
	reader   *bufio.Reader
	userName string
}

func NewApp(c *config.Config) (*App, error) {
	return &App{
		config: c,
		api:    api.NewClient(c.ServerEndpointAddr, c.RequestTimeout),
		reader: bufio.NewReader(os.Stdin),
	}, nil
}

func (a *App) isLoggedIn() bool {
	return a.api.LoggedIn()
}

func (a *App) status() string {
	if a.isLoggedIn() {
		return a.userName
	}
	return "not logged in"
}

func (a *App) Run(ctx context.Context) {
	scanner := bufio.NewScanner(os.Stdin)
	runREPL(ctx, a, a.status, scanner)
}
