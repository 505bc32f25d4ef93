package config

// ExampleConfig returns an example configuration showing all available options.
func ExampleConfig() string {
	return `# switchroom configuration file
# Values can be overridden by SWITCHROOM_* environment variables or CLI flags.

# Number of agents; agent N is the Resetter, the rest are Setters
agents = 100

# Initial switch state: on, off or unknown (coin flip)
initial_state = "unknown"

# Warden: os (concurrent), pseudo, fixed, seq or fast
warden = "os"

# Strategy: proper or improper
strategy = "proper"

# Seed for every random draw; omit to draw one from entropy
# seed = 42

# Concurrent visits in concurrent mode (0 = GOMAXPROCS)
workers = 0

# Abort the run after this many visits (0 = unlimited)
max_visits = 0

# Console output: full, entries or silent
output = "full"

# Print the pid and seed
debug = false

# Print a result report after the run: json, yaml or toml
# report = "json"

# Logging
log_level = "info"
log_format = "text"
log_timestamps = false
log_caller = false

# Write a JSONL event log per run (supports ~ expansion)
# log_dir = "~/.switchroom/runs"
`
}
