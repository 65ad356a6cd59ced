// Package paths provides path handling for liboverride.
//
// # Environment Variables
//
//   - LIBOVERRIDE_CONFIG_DIR: override $XDG_CONFIG_HOME/liboverride
//   - LIBOVERRIDE_STATE_DIR: override $XDG_STATE_HOME/liboverride
//   - LIBOVERRIDE_FIXTURES: directory searched for bare fixture names
package paths
