// Package config loads the agent's TOML configuration.
//
// # Configuration Discovery
//
// The Load function follows this resolution order:
//
//  1. If a path is explicitly provided, use it
//  2. Otherwise, use ~/.config/apodwall/config.toml
//  3. If the file doesn't exist, use Default()
//  4. If the file exists but fields are missing or blank, use defaults for those
//
// # TOML Format
//
//	source = "api"            # or "scrape"
//	api_key = "DEMO_KEY"      # NASA_API_KEY is used when unset
//	cache_dir = "~/.cache/apodwall"
//	state_path = "~/.local/state/apodwall/state.toml"
//	cycle_timeout = "15m"     # "0" disables the per-cycle bound
//	log_file = "~/.local/state/apodwall/apodwall.log"
//	log_level = "info"
//	log_format = "text"       # or "json"
//	http_retries = 0          # transport-level retries, 0-5
//
// Every field is optional. Tilde expansion is applied to paths and relative
// paths are made absolute.
//
// The polling interval and the APOD endpoints are compiled in and cannot be
// configured.
//
// # Error Handling
//
// Load returns errors for path expansion failures, read errors other than
// os.ErrNotExist, TOML parse errors ("parse config") and values rejected by
// Validate. A missing file is not an error.
package config
