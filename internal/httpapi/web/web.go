// Package web embeds the static page shells served by the backend.
package web

import _ "embed"

//go:embed login.html
var LoginHTML []byte

//go:embed chat.html
var ChatHTML []byte
