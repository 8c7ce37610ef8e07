// Atlas Tours Identity Service
// Copyright 2026 Atlas Tours
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/atlastours/identity

// Package config provides layered configuration management using Koanf v2.
//
// Configuration is loaded from three sources, highest priority last:
//
//  1. Built-in defaults
//  2. YAML config file (config.yaml, or CONFIG_PATH)
//  3. Environment variables
//
// The signing secret, bcrypt cost, and token lifetimes are read once at
// startup and are immutable for the life of the process; components receive
// them explicitly at construction rather than reading the environment at
// call time.
package config
