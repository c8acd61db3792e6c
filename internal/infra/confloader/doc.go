// Package confloader loads configuration with koanf.
//
// Sources, from lowest to highest priority:
//
//  1. Default values already present in the target struct
//  2. A YAML configuration file
//  3. STARLEDGER_ environment variables
//  4. Overrides, usually command line flags
package confloader
