// Package config provides configuration structures and utilities for salesbot.
// It defines the target site, page selectors, output locations, browser and
// download settings, and resolves the intranet credentials from the environment.
package config
