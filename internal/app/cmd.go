package app

// Command is the application launch mode.
type Command string

const (
	// CommandServe runs the API server.
	CommandServe Command = "serve"
	// CommandMigrate applies pending database migrations and bootstraps
	// the first admin account.
	CommandMigrate Command = "migrate"
	// CommandHealthcheck probes the running server. Used as the Docker
	// healthcheck in the distroless image, which has no curl.
	CommandHealthcheck Command = "healthcheck"
)

// ParseCommand reads the subcommand from the argument list. Empty or
// unrecognized arguments fall back to serve.
func ParseCommand(args []string) Command {
	if len(args) == 0 {
		return CommandServe
	}

	switch args[0] {
	case "serve":
		return CommandServe
	case "migrate":
		return CommandMigrate
	case "healthcheck":
		return CommandHealthcheck
	default:
		return CommandServe
	}
}
