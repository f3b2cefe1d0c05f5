// Package config holds claritymark's configuration: application
// defaults, the flat Config struct populated from CLI flags, the YAML
// configuration file (palette overrides and fetch settings), and the
// YAML claims-list format consumed by batch runs.
//
// Configuration flows through the application via dependency injection
// rather than global state: commands build a Config from flags, merge
// the config file into it, and pass it down.
package config
