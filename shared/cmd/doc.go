// Package cmd holds helpers shared by command line tools: help text
// formatting, interactive questions and table rendering.
package cmd
