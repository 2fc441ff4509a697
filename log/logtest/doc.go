/*
Copyright © 2024 Acronis International GmbH.

Released under MIT license.
*/

// Package logtest provides implementation of log.FieldLogger that records logged entries,
// so tests can assert what was logged.
package logtest
