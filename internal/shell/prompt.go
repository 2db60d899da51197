//go:build !noprompt

package shell

const promptEnabled = true
