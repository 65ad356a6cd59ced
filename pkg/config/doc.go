// Package config loads liboverride settings.
//
// Layers are merged in order, later layers winning:
//
//  1. embedded/defaults.toml
//  2. the user file (explicit path, else $XDG_CONFIG_HOME/liboverride/config.toml)
//  3. LIBOVERRIDE_<SECTION>__<KEY> environment variables
//  4. programmatic overrides passed to LoadWith
//
// Keys use dots as separators, so LIBOVERRIDE_OVERRIDE__WORKERS=4 sets
// override.workers.
package config
