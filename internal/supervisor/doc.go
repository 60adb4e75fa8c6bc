// Tastegraph - Recommendation & Preference Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/tastegraph

/*
Package supervisor provides process supervision for Tastegraph using suture v4.

The supervisor tree organizes long-running services into two layers so that
a failing batch job never takes the API down with it:

	RootSupervisor ("tastegraph")
	├── BatchSupervisor ("batch-layer")
	│   └── SchedulerService (full sweep, active sweep, cleanup)
	└── APISupervisor ("api-layer")
	    └── HTTPServerService

Crashed services are restarted with backoff. Supervisor events are logged
through sutureslog on an slog.Logger backed by the global zerolog logger.

# Usage Example

	tree, err := supervisor.NewSupervisorTree(logging.NewSlogLogger(), supervisor.DefaultTreeConfig())
	if err != nil {
	    return err
	}
	tree.AddBatchService(services.NewSchedulerService(sched, logger))
	tree.AddAPIService(services.NewHTTPServerService(server, cfg.Server.Address(), cfg.Server.ShutdownTimeout, logger))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	errCh := tree.ServeBackground(ctx)
	<-ctx.Done()
	<-errCh
*/
package supervisor
