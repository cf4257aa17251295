// Command massa-node wires configuration, storage, graph state and
// the consensus worker into a runnable process, the way the teacher's
// own node binaries assemble services behind a urfave/cli entrypoint.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/sirupsen/logrus"
	"github.com/urfave/cli/v2"
	"go.uber.org/automaxprocs/maxprocs"

	"github.com/massalabs/massa-core/config/params"
	"github.com/massalabs/massa-core/consensus/graphstate"
	"github.com/massalabs/massa-core/consensus/storage"
	"github.com/massalabs/massa-core/consensus/worker"
)

var log = logrus.WithField("prefix", "massa-node")

var (
	configFlag = &cli.StringFlag{
		Name:  "config",
		Usage: "path to the consensus YAML configuration file",
	}
	dataDirFlag = &cli.StringFlag{
		Name:  "datadir",
		Usage: "directory holding the block store",
		Value: "./massa-data",
	}
	verbosityFlag = &cli.StringFlag{
		Name:  "verbosity",
		Usage: "log level (trace, debug, info, warn, error)",
		Value: "info",
	}
)

func main() {
	app := &cli.App{
		Name:  "massa-node",
		Usage: "run a consensus core node",
		Flags: []cli.Flag{configFlag, dataDirFlag, verbosityFlag},
		Action: run,
	}
	if err := app.Run(os.Args); err != nil {
		log.WithError(err).Fatal("node exited with error")
	}
}

func run(c *cli.Context) error {
	if _, err := maxprocs.Set(maxprocs.Logger(log.Infof)); err != nil {
		log.WithError(err).Warn("failed to set GOMAXPROCS")
	}
	if level, err := logrus.ParseLevel(c.String(verbosityFlag.Name)); err == nil {
		logrus.SetLevel(level)
	}

	cfg := params.DefaultConsensusConfig()
	if path := c.String(configFlag.Name); path != "" {
		loaded, err := params.LoadConsensusConfig(path)
		if err != nil {
			return err
		}
		cfg = loaded
	}

	store, err := storage.Open(c.String(dataDirFlag.Name) + "/blocks.db")
	if err != nil {
		return err
	}
	defer store.Close()

	gs, err := graphstate.New(cfg.GraphConfig, store)
	if err != nil {
		return err
	}

	protocol := worker.NewLoopbackProtocol()
	nodeId := worker.GenerateNodeId()
	w := worker.New(cfg, gs, protocol, nodeId, []byte("massa-node"))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	w.Start(ctx)
	log.WithField("node_id", nodeId.String()).Info("consensus worker started")

	<-ctx.Done()
	log.Info("shutting down")
	return w.Stop()
}
