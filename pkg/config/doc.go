// Package config loads typed configuration structs from environment
// variables, with an optional .env file for local development.
//
// Each package in this module declares its own Config struct with env tags
// and spec defaults; config.Load wires them up:
//
//	var storeCfg sessionstore.Config
//	config.MustLoad(&storeCfg)
//
// Values are cached per type, so independent components asking for the same
// Config observe identical values without re-reading the environment.
package config
