// Package testsupport holds fixtures shared by package tests: temp-dir
// backed configs, stub binaries, cache seeding and a scripted chat client.
package testsupport
