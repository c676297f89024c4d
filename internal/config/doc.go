// Package config loads, normalizes, and validates yt-summarize configuration.
//
// It supplies repository defaults, expands user paths (including tilde
// shortcuts), reads TOML files, and honours environment fallbacks such as
// OPENAI_API_KEY or ANTHROPIC_API_KEY depending on the selected provider.
//
// Always obtain settings through this package so downstream code receives
// expanded paths, a known provider, and clear validation errors.
package config
