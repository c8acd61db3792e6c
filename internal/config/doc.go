// Package config defines the starledger configuration structure.
//
//   - spec.go: Config struct definition
//   - default.go: default values
//   - verify.go: validation
//
// Configuration is loaded via internal/infra/confloader from a YAML file,
// STARLEDGER_ environment variables and command line flags.
package config
