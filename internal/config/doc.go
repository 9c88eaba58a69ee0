// Package config loads and stores the cloudlink tool configuration.
//
// The configuration lives in a YAML file under the OS config directory
// (for example ~/.config/cloudlink/config.yaml on Linux) and holds the
// defaults shared by the CLI and the tap server: serial link operating mode,
// tap listen addresses and log level. Every field has a working default, so
// the file is optional.
package config
