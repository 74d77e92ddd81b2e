// Parses flags, configures logging and runs nova's subcommands.
//
// The root command accepts the following flags:
//
//	-q, --quiet         Suppress informational output.
//	-v, --verbose       Enable verbose output.
//	-d, --debug         Enable debug output.
//	-H, --host          Engine socket ($DOCKER_HOST).
//	    --api-version   Engine API version ($DOCKER_API_VERSION).
//	    --timeout       Bound on waiting for an Engine response ($NOVA_TIMEOUT).
//	-s, --socket        Daemon socket path.
//
// Flags override build-time defaults set via linker flags. After parsing, the
// global logger is replaced by one reflecting the final level and verbosity
// before the subcommand runs. Records are written as text on a terminal and
// as JSON otherwise.
package cli
