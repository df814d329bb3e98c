package main

import (
	"os"

	"github.com/alecthomas/kingpin/v2"

	"github.com/byteness/travelgate/cli"
)

// Version is provided at compile time
var Version = "dev"

func main() {
	app := kingpin.New("travelctl", "Operate travel approval requests and policy")
	app.Version(Version)

	t := cli.ConfigureGlobals(app)

	// Approval requests
	cli.ConfigureRequestCommand(app, t)
	cli.ConfigureStatusCommand(app, t)
	cli.ConfigurePendingCommand(app, t)
	cli.ConfigureApproveCommand(app, t)
	cli.ConfigureRejectCommand(app, t)

	cli.ConfigurePolicyCommand(app, t)
	cli.ConfigureAuditVerifyLogsCommand(app, t)
	cli.ConfigureAlarmsCommand(app, t)
	cli.ConfigureTablesCommand(app, t)

	kingpin.MustParse(app.Parse(os.Args[1:]))
}
